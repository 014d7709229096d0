package packaging

import (
	"errors"
	"math"
	"time"
)

// Status is the lifecycle state of a packaging batch.
type Status string

const (
	// StatusInProgress means weight is checked out and lines are editable.
	StatusInProgress Status = "in_progress"
	// StatusCompleted means the batch committed its output to product stock.
	StatusCompleted Status = "completed"
	// StatusCancelled means the batch returned its weight to the storeroom.
	StatusCancelled Status = "cancelled"
)

// Batch converts a fixed weight of one storeroom item into sellable units.
type Batch struct {
	ID           int64      `json:"id"`
	BatchNumber  string     `json:"batchNumber"`
	ItemID       int64      `json:"itemId"`
	ItemName     string     `json:"itemName,omitempty"`
	WeightTaken  float64    `json:"weightTaken"`
	ActualWeight float64    `json:"actualWeight"`
	Status       Status     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CancelReason string     `json:"cancelReason,omitempty"`
	ProcessedBy  int64      `json:"processedBy,omitempty"`
	Lines        []Line     `json:"lines"`
	WasteWeight  *float64   `json:"wasteWeight,omitempty"`
	Efficiency   *int       `json:"efficiency,omitempty"`
	WasteAnomaly bool       `json:"wasteAnomaly,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Line is one packaged output entry within a batch. Lines carry their own
// id so removal addresses a stable key rather than an array position.
type Line struct {
	ID           int64   `json:"id"`
	BatchID      int64   `json:"batchId"`
	Position     int     `json:"position"`
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName,omitempty"`
	Qty          float64 `json:"qty"`
	UnitWeight   float64 `json:"unitWeight"`
	TotalWeight  float64 `json:"totalWeight"`
	SellingPrice float64 `json:"sellingPrice"`
}

// TotalPackagedWeight sums line weights.
func (b Batch) TotalPackagedWeight() float64 {
	var total float64
	for _, line := range b.Lines {
		total += line.TotalWeight
	}
	return total
}

// ComputeOutcome derives waste and efficiency for the batch as it stands.
// Efficiency is only defined for a positive actual weight.
func (b Batch) ComputeOutcome() (waste float64, efficiency int) {
	packaged := b.TotalPackagedWeight()
	waste = b.ActualWeight - packaged
	if b.ActualWeight > 0 {
		efficiency = int(math.Round(packaged / b.ActualWeight * 100))
	}
	return waste, efficiency
}

// StartInput describes a new batch.
type StartInput struct {
	ItemID      int64
	WeightTaken float64
	Notes       string
	ActorID     int64
}

// AddLineInput describes a packaged output line.
type AddLineInput struct {
	ProductID    int64
	Qty          float64
	UnitWeight   float64
	SellingPrice float64
}

// ListFilter narrows batch listings.
type ListFilter struct {
	Status  Status
	ItemID  int64
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}

// ErrBatchNotFound indicates a missing batch.
var ErrBatchNotFound = errors.New("packaging: batch not found")

// ErrLineNotFound indicates a missing batch line.
var ErrLineNotFound = errors.New("packaging: line not found")

// ErrNotInProgress indicates a mutation attempted on a terminal batch.
var ErrNotInProgress = errors.New("packaging: batch is not in progress")

// ErrNoLines indicates a completion attempt on an empty batch.
var ErrNoLines = errors.New("packaging: batch has no packaged lines")

// ErrInsufficientStock indicates the item cannot cover the requested weight.
var ErrInsufficientStock = errors.New("packaging: insufficient item stock")

// ErrInvalidWeight indicates a non-positive weight.
var ErrInvalidWeight = errors.New("packaging: weight must be positive")

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("packaging: quantity must be positive")

// ErrInvalidPrice indicates a negative selling price.
var ErrInvalidPrice = errors.New("packaging: selling price must not be negative")

// ErrReasonRequired indicates a cancellation without a reason.
var ErrReasonRequired = errors.New("packaging: cancellation reason required")
