package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateItem(ctx context.Context, input CreateItemInput) (Item, error)
	UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (Item, error)
	Deactivate(ctx context.Context, id int64) error
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error)
	ListLowStock(ctx context.Context) ([]Item, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListMovements(ctx context.Context, itemID int64, filter MovementFilter) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates storeroom item operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateItem registers a new storeroom item.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Item{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if !ValidUnit(input.Unit) {
		return Item{}, ErrInvalidUnit
	}
	if input.ReorderLevel < 0 {
		return Item{}, fmt.Errorf("%w: reorder level must be >= 0", ErrInvalidInput)
	}
	item, err := s.repo.CreateItem(ctx, input)
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, "ITEM_CREATE", item.ID, map[string]any{"name": item.Name, "unit": item.Unit})
	return item, nil
}

// UpdateItem mutates item master data; stock is never touched here.
func (s *Service) UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Item{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if input.ReorderLevel < 0 {
		return Item{}, fmt.Errorf("%w: reorder level must be >= 0", ErrInvalidInput)
	}
	item, err := s.repo.UpdateItem(ctx, id, input)
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, "ITEM_UPDATE", item.ID, map[string]any{"name": item.Name})
	return item, nil
}

// Deactivate soft deletes an item so history stays intact.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "ITEM_DEACTIVATE", id, nil)
	return nil
}

// GetItem fetches one item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems lists items with filters and pagination.
func (s *Service) ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	return s.repo.ListItems(ctx, filter)
}

// ListLowStock lists active items at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context) ([]Item, error) {
	return s.repo.ListLowStock(ctx)
}

// ListCategories lists the distinct item categories.
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

// ListMovements lists the stock ledger for one item.
func (s *Service) ListMovements(ctx context.Context, itemID int64, filter MovementFilter) ([]Movement, error) {
	if itemID == 0 {
		return nil, ErrItemNotFound
	}
	return s.repo.ListMovements(ctx, itemID, filter)
}

// Adjust posts a manual stock correction, positive or negative.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Movement, error) {
	if input.ItemID == 0 {
		return Movement{}, ErrItemNotFound
	}
	if math.Abs(input.Qty) < 1e-9 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.Qty > 0 && input.UnitCost < 0 {
		return Movement{}, fmt.Errorf("%w: unit cost must be >= 0", ErrInvalidInput)
	}
	now := time.Now().UTC()
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return ErrItemInactive
		}
		newQty := item.CurrentStock + input.Qty
		if newQty < -1e-9 {
			return ErrNegativeStock
		}
		if math.Abs(newQty) < 1e-9 {
			newQty = 0
		}
		newAvg := item.AverageCost
		unitCost := item.AverageCost
		if input.Qty > 0 && input.UnitCost > 0 {
			unitCost = input.UnitCost
			newAvg = weightedAverageCost(item.CurrentStock, item.AverageCost, input.Qty, input.UnitCost)
		}
		if newQty == 0 {
			newAvg = 0
		}
		if err := tx.UpdateItemStock(ctx, item.ID, newQty, newAvg); err != nil {
			return err
		}
		movement = Movement{
			ItemID:     item.ID,
			Type:       MovementAdjust,
			QtyIn:      math.Max(input.Qty, 0),
			QtyOut:     math.Max(-input.Qty, 0),
			BalanceQty: newQty,
			UnitCost:   unitCost,
			RefModule:  "INVENTORY",
			Note:       input.Note,
			PostedAt:   now,
			CreatedBy:  input.ActorID,
		}
		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, "STOCK_ADJUST", input.ItemID, map[string]any{"qty": input.Qty, "note": input.Note})
	return movement, nil
}

// weightedAverageCost recomputes the running average unit cost after an inbound movement.
func weightedAverageCost(oldQty, oldAvg, inQty, inCost float64) float64 {
	total := oldQty + inQty
	if total <= 0 {
		return 0
	}
	return (oldQty*oldAvg + inQty*inCost) / total
}

func (s *Service) recordAudit(ctx context.Context, action string, itemID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "inventory_item",
		EntityID: fmt.Sprintf("%d", itemID),
		Meta:     meta,
	})
}
