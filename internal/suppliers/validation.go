package suppliers

import (
	"errors"
	"strings"
)

// ErrNotFound indicates a missing supplier.
var ErrNotFound = errors.New("suppliers: supplier not found")

// ErrInUse indicates a supplier still referenced by purchases.
var ErrInUse = errors.New("suppliers: supplier has purchases, deactivate instead")

// ErrInvalid indicates a malformed supplier payload.
var ErrInvalid = errors.New("suppliers: invalid supplier")

func validate(supplier Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return ErrInvalid
	}
	if len(supplier.Name) > 200 || len(supplier.District) > 100 || len(supplier.Area) > 100 {
		return ErrInvalid
	}
	return nil
}
