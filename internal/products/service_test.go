package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), nextID: 1}
}

func (m *memoryRepo) List(_ context.Context, _ ListFilters) ([]Product, int, error) {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, product Product) (Product, error) {
	for _, existing := range m.products {
		if existing.SKU == product.SKU {
			return Product{}, ErrDuplicateSKU
		}
	}
	product.ID = m.nextID
	product.IsActive = true
	m.nextID++
	m.products[product.ID] = product
	return product, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, product Product) (Product, error) {
	stored, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	product.ID = stored.ID
	product.IsActive = stored.IsActive
	m.products[id] = product
	return product, nil
}

func (m *memoryRepo) Deactivate(_ context.Context, id int64) error {
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	m.products[id] = p
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Product{SKU: "RICE-1KG"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(context.Background(), Product{Name: "Rice 1kg Pack"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(context.Background(), Product{Name: "Rice 1kg Pack", SKU: "RICE-1KG", SellingPrice: -1})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Product{Name: "Rice 1kg Pack", SKU: "RICE-1KG", UnitWeight: 1000, SellingPrice: 2500})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Product{Name: "Another Pack", SKU: "RICE-1KG", UnitWeight: 1000, SellingPrice: 2600})
	require.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Update(context.Background(), 42, Product{Name: "Rice 1kg Pack", SKU: "RICE-1KG"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Product{Name: "Rice 1kg Pack", SKU: "RICE-1KG", UnitWeight: 1000, SellingPrice: 2500})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	require.False(t, repo.products[created.ID].IsActive)
}
