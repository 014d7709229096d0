package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/db"
)

// Repository persists storeroom inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (Item, error)
	UpdateItemStock(ctx context.Context, id int64, qty, avgCost float64) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const itemColumns = `id, name, category, unit, current_stock, reorder_level, average_cost, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.CurrentStock, &item.ReorderLevel, &item.AverageCost, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// CreateItem inserts a new item with zero stock.
func (r *Repository) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO inventory_items (name, category, unit, current_stock, reorder_level, average_cost, is_active, created_at, updated_at)
VALUES ($1,$2,$3,0,$4,0,TRUE,NOW(),NOW()) RETURNING `+itemColumns, input.Name, input.Category, string(input.Unit), input.ReorderLevel)
	return scanItem(row)
}

// UpdateItem mutates item master data.
func (r *Repository) UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (Item, error) {
	row := r.pool.QueryRow(ctx, `UPDATE inventory_items
SET name=$2, category=$3, reorder_level=$4, is_active=COALESCE($5, is_active), updated_at=NOW()
WHERE id=$1 RETURNING `+itemColumns, id, input.Name, input.Category, input.ReorderLevel, input.IsActive)
	return scanItem(row)
}

// Deactivate soft deletes an item.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE inventory_items SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetItem fetches one item.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1`, id))
}

// ListItems returns a filtered page of items plus the unfiltered page total.
func (r *Repository) ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += ` AND category = $` + strconv.Itoa(len(args))
	}
	if filter.ActiveOnly {
		where += ` AND is_active`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items`+where, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + itemColumns + ` FROM inventory_items` + where + ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListLowStock returns active items at or below their reorder level.
func (r *Repository) ListLowStock(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items
WHERE is_active AND current_stock <= reorder_level ORDER BY current_stock / NULLIF(reorder_level, 0) ASC NULLS FIRST, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListCategories returns the distinct categories in use.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM inventory_items WHERE category <> '' ORDER BY category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// ListMovements returns ledger entries for one item, oldest first.
func (r *Repository) ListMovements(ctx context.Context, itemID int64, filter MovementFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, movement_type, qty_in, qty_out, balance_qty, unit_cost, ref_module, ref_id, note, posted_at, created_by
FROM inventory_movements
WHERE item_id=$1 AND posted_at BETWEEN COALESCE($2, '-infinity') AND COALESCE($3, 'infinity')
ORDER BY posted_at ASC, id ASC
LIMIT $4`, itemID, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Type, &m.QtyIn, &m.QtyOut, &m.BalanceQty, &m.UnitCost, &m.RefModule, &m.RefID, &m.Note, &m.PostedAt, &m.CreatedBy); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ActiveReservedWeight sums ACTIVE reservations for an item.
func (r *Repository) ActiveReservedWeight(ctx context.Context, itemID int64) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(qty), 0) FROM inventory_reservations WHERE item_id=$1 AND state='ACTIVE'`, itemID).Scan(&total)
	return total, err
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	return scanItem(r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateItemStock(ctx context.Context, id int64, qty, avgCost float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_items SET current_stock=$2, average_cost=$3, updated_at=NOW() WHERE id=$1`, id, qty, avgCost)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_movements (item_id, movement_type, qty_in, qty_out, balance_qty, unit_cost, ref_module, ref_id, note, posted_at, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		movement.ItemID, string(movement.Type), movement.QtyIn, movement.QtyOut, movement.BalanceQty, movement.UnitCost,
		movement.RefModule, nullString(movement.RefID), movement.Note, movement.PostedAt, nullInt(movement.CreatedBy)).Scan(&id)
	return id, err
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

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
