package purchases

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/db"
)

// Repository persists purchases in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. The
// inventory item row is locked and mutated in the same transaction as the
// purchase insert so the stock update is all-or-nothing.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (inventory.Item, error)
	UpdateItemStock(ctx context.Context, id int64, qty, avgCost float64) error
	InsertMovement(ctx context.Context, movement inventory.Movement) (int64, error)
	InsertPurchase(ctx context.Context, purchase Purchase) (Purchase, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("purchases repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const purchaseColumns = `id, item_id, supplier_id, qty, unit, unit_price, total_cost, purchase_date, location, quality_grade, payment_method, payment_status, notes, recorded_by, created_at`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.ItemID, &p.SupplierID, &p.Qty, &p.Unit, &p.UnitPrice, &p.TotalCost, &p.PurchaseDate,
		&p.Location, &p.QualityGrade, &p.PaymentMethod, &p.PaymentStatus, &p.Notes, &p.RecordedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	return p, nil
}

// Get fetches one purchase.
func (r *Repository) Get(ctx context.Context, id int64) (Purchase, error) {
	return scanPurchase(r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id=$1`, id))
}

// List returns a filtered page of purchases, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Purchase, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.ItemID != 0 {
		args = append(args, filter.ItemID)
		where += ` AND item_id = $` + strconv.Itoa(len(args))
	}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		where += ` AND supplier_id = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += ` AND purchase_date >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += ` AND purchase_date <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := `SELECT ` + purchaseColumns + ` FROM purchases` + where + ` ORDER BY purchase_date DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result := []Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

// UpdatePaymentStatus corrects the payment status on an existing purchase.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (Purchase, error) {
	return scanPurchase(r.pool.QueryRow(ctx, `UPDATE purchases SET payment_status=$2 WHERE id=$1 RETURNING `+purchaseColumns, id, string(status)))
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (inventory.Item, error) {
	var item inventory.Item
	err := r.tx.QueryRow(ctx, `SELECT id, name, category, unit, current_stock, reorder_level, average_cost, is_active, created_at, updated_at
FROM inventory_items WHERE id=$1 FOR UPDATE`, id).
		Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.CurrentStock, &item.ReorderLevel, &item.AverageCost, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Item{}, inventory.ErrItemNotFound
		}
		return inventory.Item{}, err
	}
	return item, nil
}

func (r *txRepository) UpdateItemStock(ctx context.Context, id int64, qty, avgCost float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_items SET current_stock=$2, average_cost=$3, updated_at=NOW() WHERE id=$1`, id, qty, avgCost)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, movement inventory.Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_movements (item_id, movement_type, qty_in, qty_out, balance_qty, unit_cost, ref_module, ref_id, note, posted_at, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		movement.ItemID, string(movement.Type), movement.QtyIn, movement.QtyOut, movement.BalanceQty, movement.UnitCost,
		movement.RefModule, nullString(movement.RefID), movement.Note, movement.PostedAt, nullInt(movement.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertPurchase(ctx context.Context, purchase Purchase) (Purchase, error) {
	return scanPurchase(r.tx.QueryRow(ctx, `INSERT INTO purchases (item_id, supplier_id, qty, unit, unit_price, total_cost, purchase_date, location, quality_grade, payment_method, payment_status, notes, recorded_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW()) RETURNING `+purchaseColumns,
		purchase.ItemID, purchase.SupplierID, purchase.Qty, purchase.Unit, purchase.UnitPrice, purchase.TotalCost,
		purchase.PurchaseDate, purchase.Location, string(purchase.QualityGrade), string(purchase.PaymentMethod),
		string(purchase.PaymentStatus), purchase.Notes, nullInt(purchase.RecordedBy)))
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
