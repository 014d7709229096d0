package purchases

import (
	"errors"
	"time"
)

// QualityGrade classifies received stock.
type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
)

// PaymentMethod enumerates how a purchase was paid.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentBank        PaymentMethod = "bank"
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentCredit      PaymentMethod = "credit"
)

// PaymentStatus enumerates settlement state of a purchase.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
)

// Purchase records incoming raw stock. Immutable once created except for
// payment status correction.
type Purchase struct {
	ID            int64         `json:"id"`
	ItemID        int64         `json:"itemId"`
	SupplierID    *int64        `json:"supplierId,omitempty"`
	Qty           float64       `json:"qty"`
	Unit          string        `json:"unit"`
	UnitPrice     float64       `json:"unitPrice"`
	TotalCost     float64       `json:"totalCost"`
	PurchaseDate  time.Time     `json:"purchaseDate"`
	Location      string        `json:"location"`
	QualityGrade  QualityGrade  `json:"qualityGrade"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Notes         string        `json:"notes"`
	RecordedBy    int64         `json:"recordedBy"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// CreateInput describes a new purchase.
type CreateInput struct {
	ItemID        int64
	SupplierID    *int64
	Qty           float64
	Unit          string
	UnitPrice     float64
	PurchaseDate  time.Time
	Location      string
	QualityGrade  QualityGrade
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Notes         string
	ActorID       int64
}

// ListFilter narrows purchase listings.
type ListFilter struct {
	ItemID     int64
	SupplierID int64
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

// ErrNotFound indicates a missing purchase row.
var ErrNotFound = errors.New("purchases: purchase not found")

// ErrInvalidQuantity indicates a non-positive purchase quantity.
var ErrInvalidQuantity = errors.New("purchases: quantity must be > 0")

// ErrInvalidPrice indicates a negative unit price.
var ErrInvalidPrice = errors.New("purchases: unit price must be >= 0")

// ErrInvalidEnum indicates an unsupported grade/payment value.
var ErrInvalidEnum = errors.New("purchases: invalid grade or payment value")

// ErrUnitMismatch indicates the purchase unit differs from the item's base
// unit. Conversion happens client-side; the API records base units only.
var ErrUnitMismatch = errors.New("purchases: unit differs from item base unit")

func validGrade(g QualityGrade) bool {
	switch g {
	case GradeA, GradeB, GradeC:
		return true
	}
	return false
}

func validPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentBank, PaymentMobileMoney, PaymentCredit:
		return true
	}
	return false
}

func validPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial:
		return true
	}
	return false
}
