package inventory

import (
	"errors"
	"time"
)

// Unit enumerates base units an item can be tracked in.
type Unit string

const (
	UnitGram       Unit = "gram"
	UnitKilogram   Unit = "kilogram"
	UnitPiece      Unit = "piece"
	UnitLiter      Unit = "liter"
	UnitMilliliter Unit = "milliliter"
)

// ValidUnit reports whether the unit is one of the supported base units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitGram, UnitKilogram, UnitPiece, UnitLiter, UnitMilliliter:
		return true
	}
	return false
}

// MovementType enumerates supported storeroom stock movements.
type MovementType string

const (
	// MovementPurchase represents stock received from a purchase.
	MovementPurchase MovementType = "PURCHASE"
	// MovementAdjust indicates manual adjustments.
	MovementAdjust MovementType = "ADJUST"
	// MovementPackagingOut is raw weight checked out for a packaging batch.
	MovementPackagingOut MovementType = "PACK_OUT"
	// MovementPackagingReturn is weight returned by a cancelled batch.
	MovementPackagingReturn MovementType = "PACK_RETURN"
)

// Item is a raw/bulk storeroom stock keeping unit.
type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Unit         Unit      `json:"unit"`
	CurrentStock float64   `json:"currentStock"`
	ReorderLevel float64   `json:"reorderLevel"`
	AverageCost  float64   `json:"averageCost"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Movement is one ledger entry against an item's stock balance.
type Movement struct {
	ID         int64        `json:"id"`
	ItemID     int64        `json:"itemId"`
	Type       MovementType `json:"type"`
	QtyIn      float64      `json:"qtyIn"`
	QtyOut     float64      `json:"qtyOut"`
	BalanceQty float64      `json:"balanceQty"`
	UnitCost   float64      `json:"unitCost"`
	RefModule  string       `json:"refModule"`
	RefID      string       `json:"refId"`
	Note       string       `json:"note"`
	PostedAt   time.Time    `json:"postedAt"`
	CreatedBy  int64        `json:"createdBy"`
}

// ReservationState tracks the lifecycle of a packaging weight reservation.
type ReservationState string

const (
	ReservationActive   ReservationState = "ACTIVE"
	ReservationConsumed ReservationState = "CONSUMED"
	ReservationReleased ReservationState = "RELEASED"
)

// Reservation records raw weight held in flight by a packaging batch.
// The base counter is decremented up front; the reservation row makes the
// held amount checkable independently of the batch status.
type Reservation struct {
	ID        int64            `json:"id"`
	ItemID    int64            `json:"itemId"`
	BatchID   int64            `json:"batchId"`
	Qty       float64          `json:"qty"`
	State     ReservationState `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// CreateItemInput describes a new storeroom item.
type CreateItemInput struct {
	Name         string
	Category     string
	Unit         Unit
	ReorderLevel float64
}

// UpdateItemInput mutates item master data, never stock.
type UpdateItemInput struct {
	Name         string
	Category     string
	ReorderLevel float64
	IsActive     *bool
}

// AdjustInput describes a manual stock correction.
type AdjustInput struct {
	ItemID   int64
	Qty      float64
	UnitCost float64
	Note     string
	ActorID  int64
}

// ListFilter narrows item listings.
type ListFilter struct {
	Search     string
	Category   string
	ActiveOnly bool
	Page       int
	PerPage    int
}

// MovementFilter narrows movement listings for one item.
type MovementFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// ErrInvalidInput indicates a malformed field on a mutation request.
var ErrInvalidInput = errors.New("inventory: invalid input")

// ErrItemNotFound indicates a missing item row.
var ErrItemNotFound = errors.New("inventory: item not found")

// ErrItemInactive triggered when mutating a deactivated item.
var ErrItemInactive = errors.New("inventory: item is inactive")

// ErrInvalidQuantity indicates invalid qty.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrNegativeStock triggered when a movement would result in negative stock.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidUnit indicates an unsupported base unit.
var ErrInvalidUnit = errors.New("inventory: unsupported unit")

// ErrReservationNotFound indicates a missing reservation row.
var ErrReservationNotFound = errors.New("inventory: reservation not found")
