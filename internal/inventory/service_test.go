package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items     map[int64]Item
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	r.nextID++
	item := Item{ID: r.nextID, Name: input.Name, Category: input.Category, Unit: input.Unit, ReorderLevel: input.ReorderLevel, IsActive: true}
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepo) UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	item.Name = input.Name
	item.Category = input.Category
	item.ReorderLevel = input.ReorderLevel
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	r.items[id] = item
	return item, nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id int64) error {
	item, ok := r.items[id]
	if !ok {
		return ErrItemNotFound
	}
	item.IsActive = false
	r.items[id] = item
	return nil
}

func (r *memoryRepo) GetItem(ctx context.Context, id int64) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (r *memoryRepo) ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	items := []Item{}
	for _, item := range r.items {
		items = append(items, item)
	}
	return items, len(items), nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context) ([]Item, error) {
	items := []Item{}
	for _, item := range r.items {
		if item.IsActive && item.CurrentStock <= item.ReorderLevel {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *memoryRepo) ListCategories(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	categories := []string{}
	for _, item := range r.items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	return categories, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, itemID int64, filter MovementFilter) ([]Movement, error) {
	result := []Movement{}
	for _, m := range r.movements {
		if m.ItemID == itemID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	return tx.repo.GetItem(ctx, id)
}

func (tx *memoryTx) UpdateItemStock(ctx context.Context, id int64, qty, avgCost float64) error {
	item, ok := tx.repo.items[id]
	if !ok {
		return ErrItemNotFound
	}
	item.CurrentStock = qty
	item.AverageCost = avgCost
	tx.repo.items[id] = item
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, movement)
	return movement.ID, nil
}

func seedItem(t *testing.T, repo *memoryRepo, stock, avgCost float64) Item {
	t.Helper()
	item, err := repo.CreateItem(context.Background(), CreateItemInput{Name: "Rice", Category: "Grains", Unit: UnitGram, ReorderLevel: 1000})
	require.NoError(t, err)
	item.CurrentStock = stock
	item.AverageCost = avgCost
	repo.items[item.ID] = item
	return item
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, CreateItemInput{Name: "  ", Unit: UnitGram})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateItem(ctx, CreateItemInput{Name: "Rice", Unit: "bag"})
	require.ErrorIs(t, err, ErrInvalidUnit)

	item, err := svc.CreateItem(ctx, CreateItemInput{Name: "Rice", Unit: UnitGram, ReorderLevel: 500})
	require.NoError(t, err)
	require.True(t, item.IsActive)
	require.Zero(t, item.CurrentStock)
}

func TestAdjustPositiveRecomputesAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	item := seedItem(t, repo, 1000, 50)
	svc := NewService(repo, nil)

	movement, err := svc.Adjust(context.Background(), AdjustInput{ItemID: item.ID, Qty: 1000, UnitCost: 70, Note: "recount"})
	require.NoError(t, err)
	require.InDelta(t, 2000, movement.BalanceQty, 1e-9)

	updated, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.InDelta(t, 60, updated.AverageCost, 1e-9)
}

func TestAdjustNegativeKeepsAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	item := seedItem(t, repo, 1000, 50)
	svc := NewService(repo, nil)

	movement, err := svc.Adjust(context.Background(), AdjustInput{ItemID: item.ID, Qty: -400, Note: "spoilage"})
	require.NoError(t, err)
	require.InDelta(t, 600, movement.BalanceQty, 1e-9)
	require.InDelta(t, 50, movement.UnitCost, 1e-9)

	updated, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.InDelta(t, 50, updated.AverageCost, 1e-9)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	repo := newMemoryRepo()
	item := seedItem(t, repo, 100, 50)
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), AdjustInput{ItemID: item.ID, Qty: -150})
	require.ErrorIs(t, err, ErrNegativeStock)

	unchanged, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.InDelta(t, 100, unchanged.CurrentStock, 1e-9)
}

func TestAdjustRejectsInactiveItem(t *testing.T) {
	repo := newMemoryRepo()
	item := seedItem(t, repo, 100, 50)
	require.NoError(t, repo.Deactivate(context.Background(), item.ID))
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), AdjustInput{ItemID: item.ID, Qty: 10})
	require.ErrorIs(t, err, ErrItemInactive)
}

func TestAdjustRejectsZeroQuantity(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(t, repo, 100, 50)
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), AdjustInput{ItemID: 1, Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLowStockListing(t *testing.T) {
	repo := newMemoryRepo()
	low := seedItem(t, repo, 500, 10)
	high := seedItem(t, repo, 50000, 10)
	svc := NewService(repo, nil)

	items, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, low.ID, items[0].ID)
	require.NotEqual(t, high.ID, items[0].ID)
}
