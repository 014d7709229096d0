package reports

import "time"

// StockValueRow values one item's stock at its weighted-average cost.
type StockValueRow struct {
	ItemID      int64   `json:"itemId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
	Stock       float64 `json:"stock"`
	AverageCost float64 `json:"averageCost"`
	Value       float64 `json:"value"`
	LowStock    bool    `json:"lowStock"`
}

// CategoryValueRow rolls stock value up per category.
type CategoryValueRow struct {
	Category string  `json:"category"`
	Items    int     `json:"items"`
	Value    float64 `json:"value"`
}

// StockValueReport is the stock valuation snapshot.
type StockValueReport struct {
	Items         []StockValueRow    `json:"items"`
	Categories    []CategoryValueRow `json:"categories"`
	TotalValue    float64            `json:"totalValue"`
	LowStockCount int                `json:"lowStockCount"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}

// PurchasesByItemRow aggregates purchase spend per item.
type PurchasesByItemRow struct {
	ItemID    int64   `json:"itemId"`
	Name      string  `json:"name"`
	Qty       float64 `json:"qty"`
	TotalCost float64 `json:"totalCost"`
	Purchases int     `json:"purchases"`
}

// PurchasesBySupplierRow aggregates purchase spend per supplier.
type PurchasesBySupplierRow struct {
	SupplierID int64   `json:"supplierId"`
	Name       string  `json:"name"`
	Qty        float64 `json:"qty"`
	TotalCost  float64 `json:"totalCost"`
	Purchases  int     `json:"purchases"`
}

// PurchasesReport groups purchase spend by item and supplier in a window.
type PurchasesReport struct {
	From        time.Time                `json:"from"`
	To          time.Time                `json:"to"`
	ByItem      []PurchasesByItemRow     `json:"byItem"`
	BySupplier  []PurchasesBySupplierRow `json:"bySupplier"`
	TotalCost   float64                  `json:"totalCost"`
	GeneratedAt time.Time                `json:"generatedAt"`
}

// PackagingRow aggregates completed batches per item.
type PackagingRow struct {
	ItemID         int64   `json:"itemId"`
	Name           string  `json:"name"`
	Batches        int     `json:"batches"`
	ProcessedWt    float64 `json:"processedWeight"`
	PackagedWt     float64 `json:"packagedWeight"`
	WasteWt        float64 `json:"wasteWeight"`
	AvgEfficiency  float64 `json:"avgEfficiency"`
	WasteAnomalies int     `json:"wasteAnomalies"`
}

// PackagingReport summarises packaging throughput in a window.
type PackagingReport struct {
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	Rows          []PackagingRow `json:"rows"`
	TotalBatches  int            `json:"totalBatches"`
	TotalWasteWt  float64        `json:"totalWasteWeight"`
	AvgEfficiency float64        `json:"avgEfficiency"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

// Window bounds a reporting period.
type Window struct {
	From time.Time
	To   time.Time
}
