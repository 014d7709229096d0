package suppliers

import "context"

// Service owns supplier business rules.
type Service struct {
	repo Repository
}

// NewService constructs the supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a filtered page of suppliers.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a supplier.
func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := validate(supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

// Update mutates supplier master data.
func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error) {
	if err := validate(supplier); err != nil {
		return Supplier{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Supplier{}, err
	}
	return s.repo.Update(ctx, id, supplier)
}

// Delete removes a supplier. Deletion is refused while purchases still
// reference the supplier; callers deactivate instead so history keeps its
// reference.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.PurchaseCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInUse
	}
	return s.repo.Delete(ctx, id)
}

// Deactivate soft deletes a supplier.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
