package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts the aggregation queries for the service.
type RepositoryPort interface {
	StockValueRows(ctx context.Context) ([]StockValueRow, error)
	PurchasesByItem(ctx context.Context, window Window) ([]PurchasesByItemRow, error)
	PurchasesBySupplier(ctx context.Context, window Window) ([]PurchasesBySupplierRow, error)
	PackagingRows(ctx context.Context, window Window) ([]PackagingRow, error)
}

// Service builds the reporting aggregations. Payloads are cached in Redis
// and concurrent builds of the same report collapse onto one loader.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// StockValue values current stock per item with per-category rollups.
func (s *Service) StockValue(ctx context.Context) (StockValueReport, error) {
	key, err := s.cache.BuildKey(ctx, "storeroom", "reports", "stock_value")
	if err != nil {
		return StockValueReport{}, err
	}
	var report StockValueReport
	err = s.fetch(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildStockValue(ctx)
	})
	return report, err
}

func (s *Service) buildStockValue(ctx context.Context) (StockValueReport, error) {
	items, err := s.repo.StockValueRows(ctx)
	if err != nil {
		return StockValueReport{}, err
	}
	report := StockValueReport{
		Items:       items,
		Categories:  make([]CategoryValueRow, 0),
		GeneratedAt: time.Now().UTC(),
	}
	index := make(map[string]int)
	for _, row := range items {
		report.TotalValue += row.Value
		if row.LowStock {
			report.LowStockCount++
		}
		i, ok := index[row.Category]
		if !ok {
			i = len(report.Categories)
			index[row.Category] = i
			report.Categories = append(report.Categories, CategoryValueRow{Category: row.Category})
		}
		report.Categories[i].Items++
		report.Categories[i].Value += row.Value
	}
	return report, nil
}

// Purchases groups purchase spend by item and by supplier in a date window.
// Both groupings load concurrently.
func (s *Service) Purchases(ctx context.Context, window Window) (PurchasesReport, error) {
	key, err := s.cache.BuildKey(ctx, "storeroom", "reports", "purchases", window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))
	if err != nil {
		return PurchasesReport{}, err
	}
	var report PurchasesReport
	err = s.fetch(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildPurchases(ctx, window)
	})
	return report, err
}

func (s *Service) buildPurchases(ctx context.Context, window Window) (PurchasesReport, error) {
	report := PurchasesReport{
		From:        window.From,
		To:          window.To,
		GeneratedAt: time.Now().UTC(),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.PurchasesByItem(gctx, window)
		if err != nil {
			return err
		}
		report.ByItem = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.PurchasesBySupplier(gctx, window)
		if err != nil {
			return err
		}
		report.BySupplier = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return PurchasesReport{}, err
	}
	for _, row := range report.ByItem {
		report.TotalCost += row.TotalCost
	}
	return report, nil
}

// Packaging summarises completed batch throughput per item in a window.
// Zero denominators render as zero, never an error.
func (s *Service) Packaging(ctx context.Context, window Window) (PackagingReport, error) {
	key, err := s.cache.BuildKey(ctx, "storeroom", "reports", "packaging", window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))
	if err != nil {
		return PackagingReport{}, err
	}
	var report PackagingReport
	err = s.fetch(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		return s.buildPackaging(ctx, window)
	})
	return report, err
}

func (s *Service) buildPackaging(ctx context.Context, window Window) (PackagingReport, error) {
	rows, err := s.repo.PackagingRows(ctx, window)
	if err != nil {
		return PackagingReport{}, err
	}
	report := PackagingReport{
		From:        window.From,
		To:          window.To,
		Rows:        rows,
		GeneratedAt: time.Now().UTC(),
	}
	var weighted float64
	for _, row := range rows {
		report.TotalBatches += row.Batches
		report.TotalWasteWt += row.WasteWt
		weighted += row.AvgEfficiency * float64(row.Batches)
	}
	if report.TotalBatches > 0 {
		report.AvgEfficiency = weighted / float64(report.TotalBatches)
	}
	return report, nil
}

// Invalidate orphans every cached report payload.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warmup pre-builds the three report payloads into the cache, used by the
// background warmup job.
func (s *Service) Warmup(ctx context.Context, window Window) error {
	if _, err := s.StockValue(ctx); err != nil {
		return err
	}
	if _, err := s.Purchases(ctx, window); err != nil {
		return err
	}
	_, err := s.Packaging(ctx, window)
	return err
}

func (s *Service) fetch(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	return s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (interface{}, error) {
		value, err, _ := s.group.Do(key, func() (interface{}, error) {
			return loader(ctx)
		})
		return value, err
	})
}
