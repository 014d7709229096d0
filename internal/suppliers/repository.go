package suppliers

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists suppliers in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error)
	Delete(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	PurchaseCount(ctx context.Context, id int64) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, district, area, phone, notes, is_active, created_at, updated_at`

func scan(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.District, &s.Area, &s.Phone, &s.Notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Supplier, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR district ILIKE $` + strconv.Itoa(len(args)) + `)`
	}
	if filters.ActiveOnly {
		where += ` AND is_active`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`+where, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + columns + ` FROM suppliers` + where + ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Supplier{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM suppliers WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	return scan(r.db.QueryRow(ctx, `INSERT INTO suppliers (name, district, area, phone, notes, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,TRUE,NOW(),NOW()) RETURNING `+columns,
		supplier.Name, supplier.District, supplier.Area, supplier.Phone, supplier.Notes))
}

func (r *repository) Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error) {
	return scan(r.db.QueryRow(ctx, `UPDATE suppliers
SET name=$2, district=$3, area=$4, phone=$5, notes=$6, is_active=$7, updated_at=NOW()
WHERE id=$1 RETURNING `+columns,
		id, supplier.Name, supplier.District, supplier.Area, supplier.Phone, supplier.Notes, supplier.IsActive))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE suppliers SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) PurchaseCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE supplier_id=$1`, id).Scan(&count)
	return count, err
}
