package ordering

import (
	"errors"
	"fmt"
)

// Validation failures a caller can fix. Each maps to a distinct machine
// reason string in the HTTP layer.
var (
	ErrInvalidTable  = errors.New("table token does not resolve to a table")
	ErrEmptyCart     = errors.New("cart contains no lines")
	ErrOrderNotFound = errors.New("order not found")
)

// MenuItemNotFoundError identifies the cart line whose menu item is missing
type MenuItemNotFoundError struct {
	MenuItemID uint
}

func (e *MenuItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %d not found", e.MenuItemID)
}

// InvalidQuantityError identifies the cart line with a non-positive quantity
type InvalidQuantityError struct {
	MenuItemID uint
	Quantity   int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for menu item %d", e.Quantity, e.MenuItemID)
}

// InvalidTransitionError reports a disallowed order status change
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
