package ordering

import (
	"sort"

	"tableserve/internal/model"

	"github.com/shopspring/decimal"
)

// CartLine is one requested menu item in a placement request
type CartLine struct {
	MenuItemID uint   `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// AggregateConsumption expands every cart line through the recipe lines and
// sums the required amount per inventory item across the whole cart. An
// ingredient shared by two menu items is decremented once with the combined
// amount, so no transient negative quantity can occur mid-order.
func AggregateConsumption(lines []CartLine, boms map[uint][]model.MenuItemIngredient) map[uint]decimal.Decimal {
	need := make(map[uint]decimal.Decimal)
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, ingredient := range boms[line.MenuItemID] {
			amount := ingredient.Quantity.Mul(qty)
			need[ingredient.InventoryItemID] = need[ingredient.InventoryItemID].Add(amount)
		}
	}
	return need
}

// SortedItemIDs returns the consumption map's keys in ascending order.
// Decrementing in a stable order keeps concurrent orders from deadlocking
// on each other's row locks.
func SortedItemIDs(need map[uint]decimal.Decimal) []uint {
	ids := make([]uint, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
