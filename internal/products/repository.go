package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) (Product, error)
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, sku, category, unit_weight, selling_price, stock_qty, is_active, created_at, updated_at`

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.UnitWeight, &p.SellingPrice, &p.StockQty, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR sku ILIKE $` + strconv.Itoa(len(args)) + `)`
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		where += ` AND category = $` + strconv.Itoa(len(args))
	}
	if filters.ActiveOnly {
		where += ` AND is_active`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT ` + columns + ` FROM products` + where + ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Product{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO products (name, sku, category, unit_weight, selling_price, stock_qty, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,TRUE,NOW(),NOW()) RETURNING `+columns,
		product.Name, product.SKU, product.Category, product.UnitWeight, product.SellingPrice))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) (Product, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE products
SET name=$2, sku=$3, category=$4, unit_weight=$5, selling_price=$6, is_active=$7, updated_at=NOW()
WHERE id=$1 RETURNING `+columns,
		id, product.Name, product.SKU, product.Category, product.UnitWeight, product.SellingPrice, product.IsActive))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, err
	}
	return updated, nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
