package inventory

import (
	"context"
	"errors"
	"time"

	"tableserve/internal/model"
	"tableserve/prometheus"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The stock ledger is the only sanctioned mutation path for inventory
// quantities. Every adjustment takes a row lock, re-checks non-negativity
// under the lock and either applies the full delta or leaves the row
// untouched.

// AdjustInTx applies a quantity delta to an inventory item inside an
// already-open transaction. The row is locked for the remainder of the
// transaction, so concurrent orders competing for the same ingredient
// serialize on it. Returns the item with its updated quantity.
func AdjustInTx(tx *gorm.DB, restaurantID uint, itemID uint, delta decimal.Decimal) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ? AND id = ?", restaurantID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	next := item.Quantity.Add(delta)
	if next.IsNegative() {
		if prometheus.StockAdjustmentsCounter != nil {
			prometheus.StockAdjustmentsCounter.WithLabelValues("insufficient").Inc()
		}
		return nil, &InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Available: item.Quantity,
			Requested: delta.Neg(),
		}
	}

	if err := tx.Model(&item).Update("quantity", next).Error; err != nil {
		return nil, err
	}
	item.Quantity = next
	item.UpdatedAt = time.Now()

	if prometheus.StockAdjustmentsCounter != nil {
		prometheus.StockAdjustmentsCounter.WithLabelValues("ok").Inc()
	}
	return &item, nil
}

// Adjust applies a quantity delta in its own transaction. Used by the staff
// adjustment endpoint; order placement uses AdjustInTx inside the order
// transaction instead.
func Adjust(ctx context.Context, db *gorm.DB, restaurantID uint, itemID uint, delta decimal.Decimal) (*model.InventoryItem, error) {
	var item *model.InventoryItem
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		item, txErr = AdjustInTx(tx, restaurantID, itemID, delta)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Read returns the current quantity and metadata of an inventory item
func Read(ctx context.Context, db *gorm.DB, restaurantID uint, itemID uint) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND id = ?", restaurantID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}
