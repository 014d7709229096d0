package packaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/products"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Batch, error)
	List(ctx context.Context, filter ListFilter) ([]Batch, int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards terminal transitions against duplicate submission.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service runs the packaging batch state machine: weight checked out of the
// storeroom at start, output committed to product stock at completion, weight
// returned on cancellation.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idempotency}
}

// Start opens a batch, deducting the declared weight from the item's stock
// in the same transaction that creates it. Two concurrent starts against the
// same item serialize on the locked item row, so their combined weight can
// never overdraw the stock balance.
func (s *Service) Start(ctx context.Context, input StartInput) (Batch, error) {
	if input.WeightTaken <= 0 {
		return Batch{}, ErrInvalidWeight
	}

	var created Batch
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return inventory.ErrItemInactive
		}
		if input.WeightTaken > item.CurrentStock {
			return fmt.Errorf("%w: requested %.2f, available %.2f", ErrInsufficientStock, input.WeightTaken, item.CurrentStock)
		}

		now := time.Now().UTC()
		created, err = tx.InsertBatch(ctx, Batch{
			BatchNumber:  newBatchNumber(now),
			ItemID:       input.ItemID,
			WeightTaken:  input.WeightTaken,
			ActualWeight: input.WeightTaken,
			Status:       StatusInProgress,
			Notes:        input.Notes,
			ProcessedBy:  input.ActorID,
			StartedAt:    now,
		})
		if err != nil {
			return err
		}

		remaining := item.CurrentStock - input.WeightTaken
		if err := tx.UpdateItemStock(ctx, item.ID, remaining); err != nil {
			return err
		}
		if _, err := tx.InsertReservation(ctx, inventory.Reservation{
			ItemID:  item.ID,
			BatchID: created.ID,
			Qty:     input.WeightTaken,
			State:   inventory.ReservationActive,
		}); err != nil {
			return err
		}
		_, err = tx.InsertMovement(ctx, inventory.Movement{
			ItemID:     item.ID,
			Type:       inventory.MovementPackagingOut,
			QtyOut:     input.WeightTaken,
			BalanceQty: remaining,
			UnitCost:   item.AverageCost,
			RefModule:  "PACKAGING",
			RefID:      created.BatchNumber,
			Note:       fmt.Sprintf("Batch %s started", created.BatchNumber),
			PostedAt:   now,
			CreatedBy:  input.ActorID,
		})
		return err
	})
	if err != nil {
		return Batch{}, err
	}
	created.Lines = []Line{}
	s.recordAudit(ctx, "PACKAGING_START", created.ID, map[string]any{"item_id": created.ItemID, "weight_taken": created.WeightTaken})
	return created, nil
}

// UpdateActualWeight corrects the weighed amount of an in-progress batch.
// Inventory stock is untouched: only the declared weight moved stock.
func (s *Service) UpdateActualWeight(ctx context.Context, batchID int64, actualWeight float64) (Batch, error) {
	if actualWeight <= 0 {
		return Batch{}, ErrInvalidWeight
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != StatusInProgress {
			return fmt.Errorf("%w: batch is %s", ErrNotInProgress, batch.Status)
		}
		batch.ActualWeight = actualWeight
		return tx.UpdateBatch(ctx, batch)
	})
	if err != nil {
		return Batch{}, err
	}
	return s.repo.Get(ctx, batchID)
}

// AddLine appends a packaged output line to an in-progress batch. The
// product's selling price is snapshotted unless the caller overrides it.
// Over-packaging relative to the actual weight is allowed here and surfaces
// as negative waste at completion.
func (s *Service) AddLine(ctx context.Context, batchID int64, input AddLineInput) (Batch, error) {
	if input.Qty <= 0 {
		return Batch{}, ErrInvalidQuantity
	}
	if input.UnitWeight <= 0 {
		return Batch{}, ErrInvalidWeight
	}
	if input.SellingPrice < 0 {
		return Batch{}, ErrInvalidPrice
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != StatusInProgress {
			return fmt.Errorf("%w: batch is %s", ErrNotInProgress, batch.Status)
		}
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return fmt.Errorf("%w: product %d is inactive", products.ErrNotFound, product.ID)
		}
		price := input.SellingPrice
		if price == 0 {
			price = product.SellingPrice
		}
		_, err = tx.InsertLine(ctx, Line{
			BatchID:      batchID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			Qty:          input.Qty,
			UnitWeight:   input.UnitWeight,
			TotalWeight:  input.Qty * input.UnitWeight,
			SellingPrice: price,
		})
		return err
	})
	if err != nil {
		return Batch{}, err
	}
	return s.repo.Get(ctx, batchID)
}

// RemoveLine deletes one line of an in-progress batch by its id.
func (s *Service) RemoveLine(ctx context.Context, batchID, lineID int64) (Batch, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != StatusInProgress {
			return fmt.Errorf("%w: batch is %s", ErrNotInProgress, batch.Status)
		}
		deleted, err := tx.DeleteLine(ctx, batchID, lineID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrLineNotFound
		}
		return nil
	})
	if err != nil {
		return Batch{}, err
	}
	return s.repo.Get(ctx, batchID)
}

// Complete finalises an in-progress batch: waste and efficiency are fixed
// and every line's product stock is incremented in the same transaction.
// Negative waste completes but is flagged as an anomaly.
func (s *Service) Complete(ctx context.Context, batchID int64, actorID int64) (Batch, error) {
	idempotencyKey := fmt.Sprintf("packaging:complete:%d", batchID)
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "packaging"); err != nil {
			return Batch{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != StatusInProgress {
			return fmt.Errorf("%w: batch is %s", ErrNotInProgress, batch.Status)
		}
		lines, err := tx.ListLines(ctx, batchID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrNoLines
		}
		batch.Lines = lines

		waste, efficiency := batch.ComputeOutcome()
		now := time.Now().UTC()
		batch.Status = StatusCompleted
		batch.WasteWeight = &waste
		batch.Efficiency = &efficiency
		batch.WasteAnomaly = waste < 0
		batch.CompletedAt = &now
		if err := tx.UpdateBatch(ctx, batch); err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := tx.GetProductForUpdate(ctx, line.ProductID); err != nil {
				return err
			}
			if err := tx.IncrementProductStock(ctx, line.ProductID, line.Qty); err != nil {
				return err
			}
		}
		return tx.UpdateReservationState(ctx, batchID, inventory.ReservationConsumed)
	})
	if err != nil {
		if s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Batch{}, err
	}
	s.recordAudit(ctx, "PACKAGING_COMPLETE", batchID, map[string]any{"actor_id": actorID})
	return s.repo.Get(ctx, batchID)
}

// Cancel aborts an in-progress batch: the checked-out weight returns to the
// item's stock, the reservation is released and the lines are discarded. No
// product stock is touched because output only commits on completion.
func (s *Service) Cancel(ctx context.Context, batchID int64, reason string, actorID int64) (Batch, error) {
	if strings.TrimSpace(reason) == "" {
		return Batch{}, ErrReasonRequired
	}
	idempotencyKey := fmt.Sprintf("packaging:cancel:%d", batchID)
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "packaging"); err != nil {
			return Batch{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batch, err := tx.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != StatusInProgress {
			return fmt.Errorf("%w: batch is %s", ErrNotInProgress, batch.Status)
		}
		item, err := tx.GetItemForUpdate(ctx, batch.ItemID)
		if err != nil {
			return err
		}
		restored := item.CurrentStock + batch.WeightTaken
		if err := tx.UpdateItemStock(ctx, item.ID, restored); err != nil {
			return err
		}
		now := time.Now().UTC()
		if _, err := tx.InsertMovement(ctx, inventory.Movement{
			ItemID:     item.ID,
			Type:       inventory.MovementPackagingReturn,
			QtyIn:      batch.WeightTaken,
			BalanceQty: restored,
			UnitCost:   item.AverageCost,
			RefModule:  "PACKAGING",
			RefID:      batch.BatchNumber,
			Note:       fmt.Sprintf("Batch %s cancelled: %s", batch.BatchNumber, reason),
			PostedAt:   now,
			CreatedBy:  actorID,
		}); err != nil {
			return err
		}
		if err := tx.UpdateReservationState(ctx, batchID, inventory.ReservationReleased); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, batchID); err != nil {
			return err
		}
		batch.Status = StatusCancelled
		batch.CancelReason = reason
		batch.CancelledAt = &now
		return tx.UpdateBatch(ctx, batch)
	})
	if err != nil {
		if s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Batch{}, err
	}
	s.recordAudit(ctx, "PACKAGING_CANCEL", batchID, map[string]any{"reason": reason, "actor_id": actorID})
	return s.repo.Get(ctx, batchID)
}

// Get fetches one batch with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Batch, error) {
	return s.repo.Get(ctx, id)
}

// List lists batches with filters.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Batch, int, error) {
	return s.repo.List(ctx, filter)
}

func newBatchNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("PKG-%s-%s", now.Format("20060102"), suffix)
}

func (s *Service) recordAudit(ctx context.Context, action string, batchID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "packaging_batch",
		EntityID: fmt.Sprintf("%d", batchID),
		Meta:     meta,
	})
}
