package inventory

import (
	"context"
	"errors"
	"fmt"

	"tableserve/internal/model"
	"tableserve/internal/notify"
	"tableserve/prometheus"

	"gorm.io/gorm"
)

// Scan checks every inventory item of a restaurant against its minimum
// threshold and raises a LOW_STOCK alert for each item at or below it.
// The scan is idempotent: an item with an unacknowledged alert of the same
// type is skipped, so re-running over unchanged inventory creates nothing.
// Returns the number of alerts created.
func Scan(ctx context.Context, db *gorm.DB, pub notify.Publisher, restaurantID uint) (int, error) {
	var items []model.InventoryItem
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND quantity <= min_threshold", restaurantID).
		Find(&items).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for _, item := range items {
		var existing model.StockAlert
		err := db.WithContext(ctx).
			Where("inventory_item_id = ? AND type = ? AND acknowledged = false",
				item.ID, model.AlertLowStock).
			First(&existing).Error
		if err == nil {
			continue // already alerted and not yet acknowledged
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		alert := model.StockAlert{
			RestaurantID:    item.RestaurantID,
			InventoryItemID: item.ID,
			Type:            model.AlertLowStock,
			Message: fmt.Sprintf("%s is low: %s %s remaining (minimum %s)",
				item.Name, item.Quantity.String(), item.Unit, item.MinThreshold.String()),
		}
		if err := db.WithContext(ctx).Create(&alert).Error; err != nil {
			return created, err
		}
		created++

		if prometheus.StockAlertsCounter != nil {
			prometheus.StockAlertsCounter.Inc()
		}
		if pub != nil {
			// Best effort; a failed publish does not undo the alert
			_ = pub.Publish(ctx, notify.Event{
				Type:         notify.EventStockLow,
				RestaurantID: item.RestaurantID,
				Payload:      alert,
			})
		}
	}
	return created, nil
}

// ScanAll runs Scan for every active restaurant. Called by the periodic
// scanner in main.
func ScanAll(ctx context.Context, db *gorm.DB, pub notify.Publisher) (int, error) {
	var restaurantIDs []uint
	err := db.WithContext(ctx).
		Model(&model.Restaurant{}).
		Where("active = true").
		Pluck("id", &restaurantIDs).Error
	if err != nil {
		return 0, err
	}

	total := 0
	for _, id := range restaurantIDs {
		created, err := Scan(ctx, db, pub, id)
		total += created
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Acknowledge marks a stock alert as handled by staff
func Acknowledge(ctx context.Context, db *gorm.DB, restaurantID uint, alertID uint) (*model.StockAlert, error) {
	var alert model.StockAlert
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND id = ?", restaurantID, alertID).
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	if !alert.Acknowledged {
		if err := db.WithContext(ctx).Model(&alert).Update("acknowledged", true).Error; err != nil {
			return nil, err
		}
		alert.Acknowledged = true
	}
	return &alert, nil
}
