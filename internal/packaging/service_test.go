package packaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/products"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

type memoryRepo struct {
	items        map[int64]inventory.Item
	products     map[int64]products.Product
	batches      map[int64]Batch
	lines        map[int64][]Line
	reservations map[int64]inventory.Reservation
	movements    []inventory.Movement
	nextBatchID  int64
	nextLineID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:        make(map[int64]inventory.Item),
		products:     make(map[int64]products.Product),
		batches:      make(map[int64]Batch),
		lines:        make(map[int64][]Line),
		reservations: make(map[int64]inventory.Reservation),
		nextBatchID:  1,
		nextLineID:   1,
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := m.clone()
	if err := fn(ctx, &memoryTx{repo: m}); err != nil {
		*m = *snapshot
		return err
	}
	return nil
}

func (m *memoryRepo) clone() *memoryRepo {
	c := newMemoryRepo()
	c.nextBatchID = m.nextBatchID
	c.nextLineID = m.nextLineID
	for k, v := range m.items {
		c.items[k] = v
	}
	for k, v := range m.products {
		c.products[k] = v
	}
	for k, v := range m.batches {
		c.batches[k] = v
	}
	for k, v := range m.lines {
		c.lines[k] = append([]Line(nil), v...)
	}
	for k, v := range m.reservations {
		c.reservations[k] = v
	}
	c.movements = append([]inventory.Movement(nil), m.movements...)
	return c
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Batch, error) {
	b, ok := m.batches[id]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	b.Lines = append([]Line(nil), m.lines[id]...)
	return b, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Batch, int, error) {
	var out []Batch
	for id, b := range m.batches {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.ItemID != 0 && b.ItemID != filter.ItemID {
			continue
		}
		b.Lines = append([]Line(nil), m.lines[id]...)
		out = append(out, b)
	}
	return out, len(out), nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetItemForUpdate(_ context.Context, id int64) (inventory.Item, error) {
	item, ok := t.repo.items[id]
	if !ok {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, nil
}

func (t *memoryTx) UpdateItemStock(_ context.Context, id int64, qty float64) error {
	item := t.repo.items[id]
	item.CurrentStock = qty
	t.repo.items[id] = item
	return nil
}

func (t *memoryTx) InsertMovement(_ context.Context, movement inventory.Movement) (int64, error) {
	t.repo.movements = append(t.repo.movements, movement)
	return int64(len(t.repo.movements)), nil
}

func (t *memoryTx) InsertReservation(_ context.Context, reservation inventory.Reservation) (int64, error) {
	reservation.ID = reservation.BatchID
	t.repo.reservations[reservation.BatchID] = reservation
	return reservation.ID, nil
}

func (t *memoryTx) UpdateReservationState(_ context.Context, batchID int64, state inventory.ReservationState) error {
	res, ok := t.repo.reservations[batchID]
	if !ok || res.State != inventory.ReservationActive {
		return inventory.ErrReservationNotFound
	}
	res.State = state
	t.repo.reservations[batchID] = res
	return nil
}

func (t *memoryTx) GetProductForUpdate(_ context.Context, id int64) (products.Product, error) {
	p, ok := t.repo.products[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (t *memoryTx) IncrementProductStock(_ context.Context, id int64, qty float64) error {
	p := t.repo.products[id]
	p.StockQty += qty
	t.repo.products[id] = p
	return nil
}

func (t *memoryTx) GetBatchForUpdate(_ context.Context, id int64) (Batch, error) {
	b, ok := t.repo.batches[id]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return b, nil
}

func (t *memoryTx) InsertBatch(_ context.Context, batch Batch) (Batch, error) {
	batch.ID = t.repo.nextBatchID
	t.repo.nextBatchID++
	t.repo.batches[batch.ID] = batch
	return batch, nil
}

func (t *memoryTx) UpdateBatch(_ context.Context, batch Batch) error {
	stored, ok := t.repo.batches[batch.ID]
	if !ok {
		return ErrBatchNotFound
	}
	batch.Lines = stored.Lines
	t.repo.batches[batch.ID] = batch
	return nil
}

func (t *memoryTx) ListLines(_ context.Context, batchID int64) ([]Line, error) {
	return append([]Line(nil), t.repo.lines[batchID]...), nil
}

func (t *memoryTx) InsertLine(_ context.Context, line Line) (Line, error) {
	line.ID = t.repo.nextLineID
	t.repo.nextLineID++
	line.Position = len(t.repo.lines[line.BatchID]) + 1
	t.repo.lines[line.BatchID] = append(t.repo.lines[line.BatchID], line)
	return line, nil
}

func (t *memoryTx) DeleteLine(_ context.Context, batchID, lineID int64) (int64, error) {
	lines := t.repo.lines[batchID]
	for i, l := range lines {
		if l.ID == lineID {
			t.repo.lines[batchID] = append(lines[:i], lines[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (t *memoryTx) DeleteLines(_ context.Context, batchID int64) error {
	delete(t.repo.lines, batchID)
	return nil
}

type memoryIdempotency struct {
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]bool)}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func seedItem(repo *memoryRepo, id int64, stock, avgCost float64) {
	repo.items[id] = inventory.Item{
		ID:           id,
		Name:         "Rice",
		Unit:         inventory.UnitGram,
		CurrentStock: stock,
		AverageCost:  avgCost,
		IsActive:     true,
	}
}

func seedProduct(repo *memoryRepo, id int64, price float64) {
	repo.products[id] = products.Product{
		ID:           id,
		Name:         "Rice 1kg Pack",
		SKU:          "RICE-1KG",
		UnitWeight:   1000,
		SellingPrice: price,
		IsActive:     true,
	}
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, nil, newMemoryIdempotency())
}

func TestStartDeductsStockOnce(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, batch.Status)
	require.InDelta(t, 10000, batch.ActualWeight, 0.001)
	require.NotEmpty(t, batch.BatchNumber)
	require.Contains(t, batch.BatchNumber, "PKG-")

	item := repo.items[1]
	require.InDelta(t, 60000, item.CurrentStock, 0.001)

	require.Len(t, repo.movements, 1)
	require.Equal(t, inventory.MovementPackagingOut, repo.movements[0].Type)
	require.InDelta(t, 10000, repo.movements[0].QtyOut, 0.001)

	res := repo.reservations[batch.ID]
	require.Equal(t, inventory.ReservationActive, res.State)
	require.InDelta(t, 10000, res.Qty, 0.001)
}

func TestStartBoundaryExactStock(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 10000, 100)
	svc := newTestService(repo)

	_, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	require.InDelta(t, 0, repo.items[1].CurrentStock, 0.001)
}

func TestStartRejectsOverdraw(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 10000, 100)
	svc := newTestService(repo)

	_, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000.01})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.InDelta(t, 10000, repo.items[1].CurrentStock, 0.001)
	require.Empty(t, repo.movements)
}

func TestStartRejectsNonPositiveWeight(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 10000, 100)
	svc := newTestService(repo)

	_, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 0})
	require.ErrorIs(t, err, ErrInvalidWeight)
}

func TestStartRejectsInactiveItem(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 10000, 100)
	item := repo.items[1]
	item.IsActive = false
	repo.items[1] = item
	svc := newTestService(repo)

	_, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 100})
	require.ErrorIs(t, err, inventory.ErrItemInactive)
}

func TestUpdateActualWeightDoesNotTouchInventory(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)

	updated, err := svc.UpdateActualWeight(context.Background(), batch.ID, 9800)
	require.NoError(t, err)
	require.InDelta(t, 9800, updated.ActualWeight, 0.001)
	require.InDelta(t, 60000, repo.items[1].CurrentStock, 0.001)
}

func TestCompleteComputesWasteAndCommitsProductStock(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)

	batch, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 9, UnitWeight: 1000})
	require.NoError(t, err)
	require.Len(t, batch.Lines, 1)
	require.InDelta(t, 9000, batch.TotalPackagedWeight(), 0.001)
	require.InDelta(t, 2500, batch.Lines[0].SellingPrice, 0.001)

	done, err := svc.Complete(context.Background(), batch.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.WasteWeight)
	require.InDelta(t, 1000, *done.WasteWeight, 0.001)
	require.NotNil(t, done.Efficiency)
	require.Equal(t, 90, *done.Efficiency)
	require.False(t, done.WasteAnomaly)
	require.NotNil(t, done.CompletedAt)

	require.InDelta(t, 9, repo.products[7].StockQty, 0.001)
	// inventory untouched by completion: only start deducted
	require.InDelta(t, 60000, repo.items[1].CurrentStock, 0.001)
	require.Equal(t, inventory.ReservationConsumed, repo.reservations[batch.ID].State)
}

func TestCompleteFlagsNegativeWasteAnomaly(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 11, UnitWeight: 1000})
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), batch.ID, 1)
	require.NoError(t, err)
	require.True(t, done.WasteAnomaly)
	require.InDelta(t, -1000, *done.WasteWeight, 0.001)
	require.Equal(t, 110, *done.Efficiency)
}

func TestCompleteRequiresLines(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), batch.ID, 1)
	require.ErrorIs(t, err, ErrNoLines)

	// the failed completion leaves the batch editable
	_, err = svc.UpdateActualWeight(context.Background(), batch.ID, 9500)
	require.NoError(t, err)
}

func TestCompleteRejectsTerminalBatch(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 9, UnitWeight: 1000})
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), batch.ID, 1)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), batch.ID, 1)
	require.Error(t, err)
	require.InDelta(t, 9, repo.products[7].StockQty, 0.001)
}

func TestCancelRestoresStockAndDiscardsLines(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 5, UnitWeight: 1000})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), batch.ID, "spillage", 1)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, "spillage", cancelled.CancelReason)
	require.Empty(t, cancelled.Lines)
	require.NotNil(t, cancelled.CancelledAt)

	require.InDelta(t, 70000, repo.items[1].CurrentStock, 0.001)
	require.InDelta(t, 0, repo.products[7].StockQty, 0.001)
	require.Equal(t, inventory.ReservationReleased, repo.reservations[batch.ID].State)

	last := repo.movements[len(repo.movements)-1]
	require.Equal(t, inventory.MovementPackagingReturn, last.Type)
	require.InDelta(t, 10000, last.QtyIn, 0.001)
}

func TestCancelRequiresReason(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), batch.ID, "  ", 1)
	require.ErrorIs(t, err, ErrReasonRequired)
}

func TestCancelTwiceRejected(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), batch.ID, "spillage", 1)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), batch.ID, "again", 1)
	require.Error(t, err)
	// stock restored exactly once
	require.InDelta(t, 70000, repo.items[1].CurrentStock, 0.001)
}

func TestCancelCompletedBatchRejected(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 9, UnitWeight: 1000})
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), batch.ID, 1)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), batch.ID, "too late", 1)
	require.ErrorIs(t, err, ErrNotInProgress)
	require.InDelta(t, 60000, repo.items[1].CurrentStock, 0.001)
}

func TestRemoveLineByStableID(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	seedProduct(repo, 8, 1200)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)
	batch, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 4, UnitWeight: 1000})
	require.NoError(t, err)
	batch, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 8, Qty: 10, UnitWeight: 500})
	require.NoError(t, err)
	require.Len(t, batch.Lines, 2)

	firstID := batch.Lines[0].ID
	batch, err = svc.RemoveLine(context.Background(), batch.ID, firstID)
	require.NoError(t, err)
	require.Len(t, batch.Lines, 1)
	require.Equal(t, int64(8), batch.Lines[0].ProductID)

	_, err = svc.RemoveLine(context.Background(), batch.ID, firstID)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestAddLineRejectsTerminalBatchAndBadInput(t *testing.T) {
	repo := newMemoryRepo()
	seedItem(repo, 1, 70000, 100)
	seedProduct(repo, 7, 2500)
	svc := newTestService(repo)

	batch, err := svc.Start(context.Background(), StartInput{ItemID: 1, WeightTaken: 10000})
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 0, UnitWeight: 1000})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 1, UnitWeight: 0})
	require.ErrorIs(t, err, ErrInvalidWeight)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 1, UnitWeight: 100, SellingPrice: -1})
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.Cancel(context.Background(), batch.ID, "done testing", 1)
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), batch.ID, AddLineInput{ProductID: 7, Qty: 1, UnitWeight: 100})
	require.ErrorIs(t, err, ErrNotInProgress)
}
