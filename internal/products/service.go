package products

import (
	"context"
	"strings"
)

// Service owns product business rules. Product stock is only ever mutated
// by packaging completion, inside the packaging transaction.
type Service struct {
	repo Repository
}

// NewService constructs the product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a filtered page of products.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a product.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := validate(product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

// Update mutates product master data.
func (s *Service) Update(ctx context.Context, id int64, product Product) (Product, error) {
	if err := validate(product); err != nil {
		return Product{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, product)
}

// Deactivate soft deletes a product.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

func validate(product Product) error {
	if strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.SKU) == "" {
		return ErrInvalid
	}
	if product.UnitWeight < 0 || product.SellingPrice < 0 {
		return ErrInvalid
	}
	return nil
}
