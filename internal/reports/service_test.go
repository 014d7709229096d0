package reports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stockRows    []StockValueRow
	byItem       []PurchasesByItemRow
	bySupplier   []PurchasesBySupplierRow
	packagingRow []PackagingRow
	stockCalls   atomic.Int64
}

func (m *memoryRepo) StockValueRows(_ context.Context) ([]StockValueRow, error) {
	m.stockCalls.Add(1)
	return m.stockRows, nil
}

func (m *memoryRepo) PurchasesByItem(_ context.Context, _ Window) ([]PurchasesByItemRow, error) {
	return m.byItem, nil
}

func (m *memoryRepo) PurchasesBySupplier(_ context.Context, _ Window) ([]PurchasesBySupplierRow, error) {
	return m.bySupplier, nil
}

func (m *memoryRepo) PackagingRows(_ context.Context, _ Window) ([]PackagingRow, error) {
	return m.packagingRow, nil
}

func window() Window {
	to := time.Now().UTC()
	return Window{From: to.AddDate(0, 0, -7), To: to}
}

func TestStockValueRollsUpCategories(t *testing.T) {
	repo := &memoryRepo{stockRows: []StockValueRow{
		{ItemID: 1, Name: "Rice", Category: "Grains", Stock: 70000, AverageCost: 100, Value: 7000000},
		{ItemID: 2, Name: "Maize", Category: "Grains", Stock: 5000, AverageCost: 40, Value: 200000, LowStock: true},
		{ItemID: 3, Name: "Oil", Category: "Oils", Stock: 200, AverageCost: 3000, Value: 600000},
	}}
	svc := NewService(repo, nil)

	report, err := svc.StockValue(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 7800000, report.TotalValue, 0.001)
	require.Equal(t, 1, report.LowStockCount)
	require.Len(t, report.Categories, 2)
	require.Equal(t, "Grains", report.Categories[0].Category)
	require.Equal(t, 2, report.Categories[0].Items)
	require.InDelta(t, 7200000, report.Categories[0].Value, 0.001)
}

func TestPurchasesReportTotals(t *testing.T) {
	repo := &memoryRepo{
		byItem: []PurchasesByItemRow{
			{ItemID: 1, Name: "Rice", Qty: 90000, TotalCost: 9000000, Purchases: 3},
			{ItemID: 2, Name: "Maize", Qty: 20000, TotalCost: 800000, Purchases: 1},
		},
		bySupplier: []PurchasesBySupplierRow{
			{SupplierID: 5, Name: "Mzuzu Traders", Qty: 110000, TotalCost: 9800000, Purchases: 4},
		},
	}
	svc := NewService(repo, nil)

	report, err := svc.Purchases(context.Background(), window())
	require.NoError(t, err)
	require.InDelta(t, 9800000, report.TotalCost, 0.001)
	require.Len(t, report.ByItem, 2)
	require.Len(t, report.BySupplier, 1)
}

func TestPackagingReportWeightedEfficiency(t *testing.T) {
	repo := &memoryRepo{packagingRow: []PackagingRow{
		{ItemID: 1, Name: "Rice", Batches: 3, ProcessedWt: 30000, PackagedWt: 27000, WasteWt: 3000, AvgEfficiency: 90},
		{ItemID: 2, Name: "Maize", Batches: 1, ProcessedWt: 10000, PackagedWt: 8000, WasteWt: 2000, AvgEfficiency: 80, WasteAnomalies: 0},
	}}
	svc := NewService(repo, nil)

	report, err := svc.Packaging(context.Background(), window())
	require.NoError(t, err)
	require.Equal(t, 4, report.TotalBatches)
	require.InDelta(t, 5000, report.TotalWasteWt, 0.001)
	require.InDelta(t, 87.5, report.AvgEfficiency, 0.001)
}

func TestPackagingReportEmptyWindow(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil)

	report, err := svc.Packaging(context.Background(), window())
	require.NoError(t, err)
	require.Zero(t, report.TotalBatches)
	require.Zero(t, report.AvgEfficiency)
	require.Empty(t, report.Rows)
}

func TestCacheVersionBumpInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memoryRepo{stockRows: []StockValueRow{{ItemID: 1, Name: "Rice", Category: "Grains", Value: 100}}}
	svc := NewService(repo, NewCache(client, time.Minute))

	_, err := svc.StockValue(context.Background())
	require.NoError(t, err)
	_, err = svc.StockValue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), repo.stockCalls.Load())

	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.StockValue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.stockCalls.Load())
}
