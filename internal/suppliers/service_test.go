package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	purchases map[int64]int
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: map[int64]Supplier{}, purchases: map[int64]int{}}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Supplier, int, error) {
	result := []Supplier{}
	for _, s := range r.suppliers {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	r.nextID++
	supplier.ID = r.nextID
	supplier.IsActive = true
	r.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error) {
	if _, ok := r.suppliers[id]; !ok {
		return Supplier{}, ErrNotFound
	}
	supplier.ID = id
	r.suppliers[id] = supplier
	return supplier, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.suppliers[id]; !ok {
		return ErrNotFound
	}
	delete(r.suppliers, id)
	return nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id int64) error {
	s, ok := r.suppliers[id]
	if !ok {
		return ErrNotFound
	}
	s.IsActive = false
	r.suppliers[id] = s
	return nil
}

func (r *memoryRepo) PurchaseCount(ctx context.Context, id int64) (int, error) {
	return r.purchases[id], nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Create(context.Background(), Supplier{Name: "   "})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestDeleteBlockedWhenReferenced(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), Supplier{Name: "Limbe Traders", District: "Blantyre"})
	require.NoError(t, err)
	repo.purchases[created.ID] = 3

	err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrInUse)

	still, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, still.IsActive)
}

func TestDeleteRemovesUnreferencedSupplier(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), Supplier{Name: "Mzuzu Fresh"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
