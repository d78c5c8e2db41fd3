package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when the referenced inventory item does not
// exist in the caller's restaurant.
var ErrItemNotFound = errors.New("inventory item not found")

// ErrItemInUse is returned when an inventory item cannot be deleted because
// recipe lines still reference it.
var ErrItemInUse = errors.New("inventory item is referenced by menu recipes")

// InsufficientStockError reports an adjustment that would drive an item's
// quantity negative. It names the offending item so the caller can surface
// a specific reason.
type InsufficientStockError struct {
	ItemID    uint
	ItemName  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %s, requested %s",
		e.ItemName, e.Available.String(), e.Requested.String())
}
