package reports

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the reporting aggregations against PostgreSQL. All queries
// are read-only GROUP BY rollups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StockValueRows values every active item's stock at its average cost.
func (r *Repository) StockValueRows(ctx context.Context) ([]StockValueRow, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("reports repository not initialised")
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, unit, current_stock, average_cost,
		        current_stock * average_cost AS value,
		        current_stock <= reorder_level AS low_stock
		 FROM inventory_items
		 WHERE is_active
		 ORDER BY value DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StockValueRow, 0)
	for rows.Next() {
		var row StockValueRow
		if err := rows.Scan(&row.ItemID, &row.Name, &row.Category, &row.Unit, &row.Stock, &row.AverageCost, &row.Value, &row.LowStock); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PurchasesByItem aggregates purchase spend per item within the window.
func (r *Repository) PurchasesByItem(ctx context.Context, window Window) ([]PurchasesByItemRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.item_id, i.name, COALESCE(SUM(p.qty), 0), COALESCE(SUM(p.total_cost), 0), COUNT(*)
		 FROM purchases p
		 JOIN inventory_items i ON i.id = p.item_id
		 WHERE p.purchase_date >= $1 AND p.purchase_date <= $2
		 GROUP BY p.item_id, i.name
		 ORDER BY SUM(p.total_cost) DESC`,
		window.From, window.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PurchasesByItemRow, 0)
	for rows.Next() {
		var row PurchasesByItemRow
		if err := rows.Scan(&row.ItemID, &row.Name, &row.Qty, &row.TotalCost, &row.Purchases); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PurchasesBySupplier aggregates purchase spend per supplier within the
// window. Purchases without a supplier are grouped under id 0.
func (r *Repository) PurchasesBySupplier(ctx context.Context, window Window) ([]PurchasesBySupplierRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(p.supplier_id, 0), COALESCE(s.name, 'Unattributed'),
		        COALESCE(SUM(p.qty), 0), COALESCE(SUM(p.total_cost), 0), COUNT(*)
		 FROM purchases p
		 LEFT JOIN suppliers s ON s.id = p.supplier_id
		 WHERE p.purchase_date >= $1 AND p.purchase_date <= $2
		 GROUP BY p.supplier_id, s.name
		 ORDER BY SUM(p.total_cost) DESC`,
		window.From, window.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PurchasesBySupplierRow, 0)
	for rows.Next() {
		var row PurchasesBySupplierRow
		if err := rows.Scan(&row.SupplierID, &row.Name, &row.Qty, &row.TotalCost, &row.Purchases); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PackagingRows aggregates completed batches per item within the window.
// Efficiency averages over batches with a positive actual weight only, so an
// empty window yields zero rather than a division error.
func (r *Repository) PackagingRows(ctx context.Context, window Window) ([]PackagingRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.item_id, i.name, COUNT(*),
		        COALESCE(SUM(b.actual_weight), 0),
		        COALESCE(SUM(b.actual_weight - b.waste_weight), 0),
		        COALESCE(SUM(b.waste_weight), 0),
		        COALESCE(AVG(b.efficiency) FILTER (WHERE b.actual_weight > 0), 0),
		        COUNT(*) FILTER (WHERE b.waste_anomaly)
		 FROM packaging_batches b
		 JOIN inventory_items i ON i.id = b.item_id
		 WHERE b.status = 'completed' AND b.completed_at >= $1 AND b.completed_at <= $2
		 GROUP BY b.item_id, i.name
		 ORDER BY i.name`,
		window.From, window.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PackagingRow, 0)
	for rows.Next() {
		var row PackagingRow
		if err := rows.Scan(&row.ItemID, &row.Name, &row.Batches, &row.ProcessedWt, &row.PackagedWt, &row.WasteWt, &row.AvgEfficiency, &row.WasteAnomalies); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
