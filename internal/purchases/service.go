package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Purchase, error)
	List(ctx context.Context, filter ListFilter) ([]Purchase, int, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (Purchase, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records incoming raw stock purchases.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create records a purchase and atomically applies it to the item's stock
// balance and weighted-average cost.
func (s *Service) Create(ctx context.Context, input CreateInput) (Purchase, error) {
	if input.Qty <= 0 {
		return Purchase{}, ErrInvalidQuantity
	}
	if input.UnitPrice < 0 {
		return Purchase{}, ErrInvalidPrice
	}
	if input.QualityGrade == "" {
		input.QualityGrade = GradeA
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = PaymentCash
	}
	if input.PaymentStatus == "" {
		input.PaymentStatus = PaymentPaid
	}
	if !validGrade(input.QualityGrade) || !validPaymentMethod(input.PaymentMethod) || !validPaymentStatus(input.PaymentStatus) {
		return Purchase{}, ErrInvalidEnum
	}
	if input.PurchaseDate.IsZero() {
		input.PurchaseDate = time.Now().UTC()
	}

	var created Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return inventory.ErrItemInactive
		}
		if input.Unit == "" {
			input.Unit = string(item.Unit)
		}
		if input.Unit != string(item.Unit) {
			return ErrUnitMismatch
		}

		newQty := item.CurrentStock + input.Qty
		newAvg := (item.CurrentStock*item.AverageCost + input.Qty*input.UnitPrice) / newQty

		purchase := Purchase{
			ItemID:        item.ID,
			SupplierID:    input.SupplierID,
			Qty:           input.Qty,
			Unit:          input.Unit,
			UnitPrice:     input.UnitPrice,
			TotalCost:     input.Qty * input.UnitPrice,
			PurchaseDate:  input.PurchaseDate,
			Location:      input.Location,
			QualityGrade:  input.QualityGrade,
			PaymentMethod: input.PaymentMethod,
			PaymentStatus: input.PaymentStatus,
			Notes:         input.Notes,
			RecordedBy:    input.ActorID,
		}
		created, err = tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		if err := tx.UpdateItemStock(ctx, item.ID, newQty, newAvg); err != nil {
			return err
		}
		_, err = tx.InsertMovement(ctx, inventory.Movement{
			ItemID:     item.ID,
			Type:       inventory.MovementPurchase,
			QtyIn:      input.Qty,
			BalanceQty: newQty,
			UnitCost:   input.UnitPrice,
			RefModule:  "PURCHASES",
			RefID:      uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PURCHASE:%d", created.ID))).String(),
			Note:       fmt.Sprintf("Purchase #%d", created.ID),
			PostedAt:   input.PurchaseDate,
			CreatedBy:  input.ActorID,
		})
		return err
	})
	if err != nil {
		return Purchase{}, err
	}
	s.recordAudit(ctx, "PURCHASE_CREATE", created.ID, map[string]any{"item_id": created.ItemID, "qty": created.Qty, "total_cost": created.TotalCost})
	return created, nil
}

// UpdatePaymentStatus corrects the payment status, the only mutation a
// purchase permits after creation.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (Purchase, error) {
	if !validPaymentStatus(status) {
		return Purchase{}, ErrInvalidEnum
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Purchase{}, err
	}
	purchase, err := s.repo.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return Purchase{}, err
	}
	s.recordAudit(ctx, "PURCHASE_PAYMENT_UPDATE", id, map[string]any{"status": status})
	return purchase, nil
}

// Get fetches one purchase.
func (s *Service) Get(ctx context.Context, id int64) (Purchase, error) {
	return s.repo.Get(ctx, id)
}

// List lists purchases with filters.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Purchase, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, action string, purchaseID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "purchase",
		EntityID: fmt.Sprintf("%d", purchaseID),
		Meta:     meta,
	})
}
