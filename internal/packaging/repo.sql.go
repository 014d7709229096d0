package packaging

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/db"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/products"
)

// Repository persists packaging batches in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations the batch state machine
// needs. Item, product and batch rows are locked in one transaction so stock
// moves between the storeroom and product inventories all-or-nothing.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (inventory.Item, error)
	UpdateItemStock(ctx context.Context, id int64, qty float64) error
	InsertMovement(ctx context.Context, movement inventory.Movement) (int64, error)
	InsertReservation(ctx context.Context, reservation inventory.Reservation) (int64, error)
	UpdateReservationState(ctx context.Context, batchID int64, state inventory.ReservationState) error

	GetProductForUpdate(ctx context.Context, id int64) (products.Product, error)
	IncrementProductStock(ctx context.Context, id int64, qty float64) error

	GetBatchForUpdate(ctx context.Context, id int64) (Batch, error)
	InsertBatch(ctx context.Context, batch Batch) (Batch, error)
	UpdateBatch(ctx context.Context, batch Batch) error
	ListLines(ctx context.Context, batchID int64) ([]Line, error)
	InsertLine(ctx context.Context, line Line) (Line, error)
	DeleteLine(ctx context.Context, batchID, lineID int64) (int64, error)
	DeleteLines(ctx context.Context, batchID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("packaging repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const batchColumns = `id, batch_number, item_id, weight_taken, actual_weight, status, notes, cancel_reason, processed_by, waste_weight, efficiency, waste_anomaly, started_at, completed_at, cancelled_at, updated_at`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	var notes, cancelReason *string
	var processedBy *int64
	err := row.Scan(&b.ID, &b.BatchNumber, &b.ItemID, &b.WeightTaken, &b.ActualWeight, &b.Status, &notes, &cancelReason, &processedBy, &b.WasteWeight, &b.Efficiency, &b.WasteAnomaly, &b.StartedAt, &b.CompletedAt, &b.CancelledAt, &b.UpdatedAt)
	if err != nil {
		return Batch{}, err
	}
	if notes != nil {
		b.Notes = *notes
	}
	if cancelReason != nil {
		b.CancelReason = *cancelReason
	}
	if processedBy != nil {
		b.ProcessedBy = *processedBy
	}
	return b, nil
}

const lineColumns = `l.id, l.batch_id, l.position, l.product_id, p.name, l.qty, l.unit_weight, l.total_weight, l.selling_price`

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.BatchID, &l.Position, &l.ProductID, &l.ProductName, &l.Qty, &l.UnitWeight, &l.TotalWeight, &l.SellingPrice)
	return l, err
}

// Get fetches one batch with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Batch, error) {
	row := r.pool.QueryRow(ctx, `SELECT b.`+batchJoinColumns()+`, i.name FROM packaging_batches b JOIN inventory_items i ON i.id = b.item_id WHERE b.id=$1`, id)
	batch, err := scanBatchWithItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, ErrBatchNotFound
		}
		return Batch{}, err
	}
	lines, err := r.listLines(ctx, r.pool, id)
	if err != nil {
		return Batch{}, err
	}
	batch.Lines = lines
	return batch, nil
}

func batchJoinColumns() string {
	return `id, b.batch_number, b.item_id, b.weight_taken, b.actual_weight, b.status, b.notes, b.cancel_reason, b.processed_by, b.waste_weight, b.efficiency, b.waste_anomaly, b.started_at, b.completed_at, b.cancelled_at, b.updated_at`
}

func scanBatchWithItem(row pgx.Row) (Batch, error) {
	var b Batch
	var notes, cancelReason *string
	var processedBy *int64
	err := row.Scan(&b.ID, &b.BatchNumber, &b.ItemID, &b.WeightTaken, &b.ActualWeight, &b.Status, &notes, &cancelReason, &processedBy, &b.WasteWeight, &b.Efficiency, &b.WasteAnomaly, &b.StartedAt, &b.CompletedAt, &b.CancelledAt, &b.UpdatedAt, &b.ItemName)
	if err != nil {
		return Batch{}, err
	}
	if notes != nil {
		b.Notes = *notes
	}
	if cancelReason != nil {
		b.CancelReason = *cancelReason
	}
	if processedBy != nil {
		b.ProcessedBy = *processedBy
	}
	return b, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) listLines(ctx context.Context, q queryer, batchID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM packaging_lines l JOIN products p ON p.id = l.product_id WHERE l.batch_id=$1 ORDER BY l.position`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]Line, 0)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// List lists batches matching the filter, newest first, with their lines.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Batch, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1
	if filter.Status != "" {
		where += ` AND b.status=$` + strconv.Itoa(idx)
		args = append(args, string(filter.Status))
		idx++
	}
	if filter.ItemID != 0 {
		where += ` AND b.item_id=$` + strconv.Itoa(idx)
		args = append(args, filter.ItemID)
		idx++
	}
	if !filter.From.IsZero() {
		where += ` AND b.started_at >= $` + strconv.Itoa(idx)
		args = append(args, filter.From)
		idx++
	}
	if !filter.To.IsZero() {
		where += ` AND b.started_at <= $` + strconv.Itoa(idx)
		args = append(args, filter.To)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM packaging_batches b`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	query := `SELECT b.` + batchJoinColumns() + `, i.name FROM packaging_batches b JOIN inventory_items i ON i.id = b.item_id` + where +
		` ORDER BY b.started_at DESC, b.id DESC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	batches := make([]Batch, 0)
	for rows.Next() {
		batch, err := scanBatchWithItem(rows)
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range batches {
		lines, err := r.listLines(ctx, r.pool, batches[i].ID)
		if err != nil {
			return nil, 0, err
		}
		batches[i].Lines = lines
	}
	return batches, total, nil
}

func (t *txRepository) GetItemForUpdate(ctx context.Context, id int64) (inventory.Item, error) {
	row := t.tx.QueryRow(ctx, `SELECT id, name, category, unit, current_stock, reorder_level, average_cost, is_active, created_at, updated_at FROM inventory_items WHERE id=$1 FOR UPDATE`, id)
	var item inventory.Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.CurrentStock, &item.ReorderLevel, &item.AverageCost, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, err
}

func (t *txRepository) UpdateItemStock(ctx context.Context, id int64, qty float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE inventory_items SET current_stock=$2, updated_at=now() WHERE id=$1`, id, qty)
	return err
}

func (t *txRepository) InsertMovement(ctx context.Context, movement inventory.Movement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inventory_movements (item_id, type, qty_in, qty_out, balance_qty, unit_cost, ref_module, ref_id, note, posted_at, created_by)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		movement.ItemID, string(movement.Type), movement.QtyIn, movement.QtyOut, movement.BalanceQty, movement.UnitCost,
		movement.RefModule, movement.RefID, movement.Note, movement.PostedAt, movement.CreatedBy,
	).Scan(&id)
	return id, err
}

func (t *txRepository) InsertReservation(ctx context.Context, reservation inventory.Reservation) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inventory_reservations (item_id, batch_id, qty, state, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,now(),now()) RETURNING id`,
		reservation.ItemID, reservation.BatchID, reservation.Qty, string(reservation.State),
	).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateReservationState(ctx context.Context, batchID int64, state inventory.ReservationState) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE inventory_reservations SET state=$2, updated_at=now() WHERE batch_id=$1 AND state=$3`,
		batchID, string(state), string(inventory.ReservationActive),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrReservationNotFound
	}
	return nil
}

func (t *txRepository) GetProductForUpdate(ctx context.Context, id int64) (products.Product, error) {
	row := t.tx.QueryRow(ctx, `SELECT id, name, sku, category, unit_weight, selling_price, stock_qty, is_active, created_at, updated_at FROM products WHERE id=$1 FOR UPDATE`, id)
	var p products.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.UnitWeight, &p.SellingPrice, &p.StockQty, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return products.Product{}, products.ErrNotFound
	}
	return p, err
}

func (t *txRepository) IncrementProductStock(ctx context.Context, id int64, qty float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE products SET stock_qty = stock_qty + $2, updated_at=now() WHERE id=$1`, id, qty)
	return err
}

func (t *txRepository) GetBatchForUpdate(ctx context.Context, id int64) (Batch, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM packaging_batches WHERE id=$1 FOR UPDATE`, id)
	batch, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	return batch, err
}

func (t *txRepository) InsertBatch(ctx context.Context, batch Batch) (Batch, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO packaging_batches (batch_number, item_id, weight_taken, actual_weight, status, notes, processed_by, started_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING `+batchColumns,
		batch.BatchNumber, batch.ItemID, batch.WeightTaken, batch.ActualWeight, string(batch.Status), nullString(batch.Notes), nullInt(batch.ProcessedBy), batch.StartedAt,
	)
	return scanBatch(row)
}

func (t *txRepository) UpdateBatch(ctx context.Context, batch Batch) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE packaging_batches
		 SET actual_weight=$2, status=$3, notes=$4, cancel_reason=$5, waste_weight=$6, efficiency=$7, waste_anomaly=$8, completed_at=$9, cancelled_at=$10, updated_at=now()
		 WHERE id=$1`,
		batch.ID, batch.ActualWeight, string(batch.Status), nullString(batch.Notes), nullString(batch.CancelReason),
		batch.WasteWeight, batch.Efficiency, batch.WasteAnomaly, batch.CompletedAt, batch.CancelledAt,
	)
	return err
}

func (t *txRepository) ListLines(ctx context.Context, batchID int64) ([]Line, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+lineColumns+` FROM packaging_lines l JOIN products p ON p.id = l.product_id WHERE l.batch_id=$1 ORDER BY l.position FOR UPDATE OF l`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]Line, 0)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (t *txRepository) InsertLine(ctx context.Context, line Line) (Line, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO packaging_lines (batch_id, position, product_id, qty, unit_weight, total_weight, selling_price)
		 VALUES ($1, COALESCE((SELECT MAX(position) FROM packaging_lines WHERE batch_id=$1), 0)+1, $2, $3, $4, $5, $6)
		 RETURNING id, batch_id, position, product_id, qty, unit_weight, total_weight, selling_price`,
		line.BatchID, line.ProductID, line.Qty, line.UnitWeight, line.TotalWeight, line.SellingPrice,
	)
	var l Line
	err := row.Scan(&l.ID, &l.BatchID, &l.Position, &l.ProductID, &l.Qty, &l.UnitWeight, &l.TotalWeight, &l.SellingPrice)
	if err != nil {
		return Line{}, err
	}
	l.ProductName = line.ProductName
	return l, nil
}

func (t *txRepository) DeleteLine(ctx context.Context, batchID, lineID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM packaging_lines WHERE batch_id=$1 AND id=$2`, batchID, lineID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) DeleteLines(ctx context.Context, batchID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM packaging_lines WHERE batch_id=$1`, batchID)
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
