package ordering

import (
	"context"
	"errors"
	"time"

	"tableserve/internal/inventory"
	"tableserve/internal/model"
	"tableserve/internal/notify"
	"tableserve/prometheus"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Coordinator is the single entry point for turning a customer's cart into
// a committed order. Every mutation it performs happens inside one database
// transaction: stock decrements, session and order creation and the table
// status flip either all persist or none do.
type Coordinator struct {
	db           *gorm.DB
	events       notify.Publisher
	sessionReuse bool
}

// NewCoordinator creates a coordinator bound to a database and event publisher
func NewCoordinator(db *gorm.DB, events notify.Publisher, sessionReuse bool) *Coordinator {
	if events == nil {
		events = notify.NoopPublisher{}
	}
	return &Coordinator{db: db, events: events, sessionReuse: sessionReuse}
}

// PlaceOrderRequest carries a customer's submitted cart
type PlaceOrderRequest struct {
	TableToken     string     `json:"table_token"`
	Lines          []CartLine `json:"items"`
	CustomerName   string     `json:"customer_name,omitempty"`
	CustomerPhone  string     `json:"customer_phone,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
}

// PlaceOrder validates the cart, snapshots prices, decrements ingredient
// stock through the ledger and creates the session, order and items
// atomically. A replayed idempotency key returns the original order without
// touching stock again.
func (c *Coordinator) PlaceOrder(ctx context.Context, restaurantID uint, req PlaceOrderRequest) (*model.Order, error) {
	var (
		placed *model.Order
		replay bool
	)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A retried request with the same key must not decrement stock twice
		if req.IdempotencyKey != "" {
			var existing model.Order
			err := tx.Preload("Items").
				Where("restaurant_id = ? AND idempotency_key = ?", restaurantID, req.IdempotencyKey).
				First(&existing).Error
			if err == nil {
				placed = &existing
				replay = true
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		// Lock the table row so concurrent placements and payoffs on the
		// same table serialize their occupancy decisions
		var table model.Table
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("restaurant_id = ? AND token = ?", restaurantID, req.TableToken).
			First(&table).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidTable
			}
			return err
		}

		if len(req.Lines) == 0 {
			return ErrEmptyCart
		}

		menuItemIDs := make([]uint, 0, len(req.Lines))
		for _, line := range req.Lines {
			menuItemIDs = append(menuItemIDs, line.MenuItemID)
		}

		var menuItems []model.MenuItem
		if err := tx.Where("restaurant_id = ? AND id IN ?", restaurantID, menuItemIDs).
			Find(&menuItems).Error; err != nil {
			return err
		}
		menuByID := make(map[uint]model.MenuItem, len(menuItems))
		for _, item := range menuItems {
			menuByID[item.ID] = item
		}
		for _, line := range req.Lines {
			if _, ok := menuByID[line.MenuItemID]; !ok {
				return &MenuItemNotFoundError{MenuItemID: line.MenuItemID}
			}
		}
		for _, line := range req.Lines {
			if line.Quantity <= 0 {
				return &InvalidQuantityError{MenuItemID: line.MenuItemID, Quantity: line.Quantity}
			}
		}

		boms, err := inventory.BOMForAll(ctx, tx, menuItemIDs)
		if err != nil {
			return err
		}

		// One combined decrement per ingredient across the whole cart
		need := AggregateConsumption(req.Lines, boms)
		for _, itemID := range SortedItemIDs(need) {
			if _, err := inventory.AdjustInTx(tx, restaurantID, itemID, need[itemID].Neg()); err != nil {
				return err
			}
		}

		session, err := c.sessionFor(tx, &table)
		if err != nil {
			return err
		}

		// Snapshot name and price at order time; later menu edits must not
		// alter this order
		now := time.Now()
		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(req.Lines))
		for _, line := range req.Lines {
			menuItem := menuByID[line.MenuItemID]
			qty := decimal.NewFromInt(int64(line.Quantity))
			total = total.Add(menuItem.Price.Mul(qty))
			items = append(items, model.OrderItem{
				MenuItemID: menuItem.ID,
				Name:       menuItem.Name,
				UnitPrice:  menuItem.Price,
				Quantity:   line.Quantity,
				Notes:      line.Notes,
			})
		}

		order := model.Order{
			Number:        NewOrderNumber(now),
			RestaurantID:  restaurantID,
			TableID:       table.ID,
			SessionID:     session.ID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Status:        model.OrderPending,
			Total:         total,
			Notes:         req.Notes,
			Items:         items,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			order.IdempotencyKey = &key
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if table.Status != model.TableOccupied {
			if err := tx.Model(&table).Update("status", model.TableOccupied).Error; err != nil {
				return err
			}
			table.Status = model.TableOccupied
		}

		order.Table = table
		order.Session = *session
		placed = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replay {
		if prometheus.OrdersPlacedCounter != nil {
			prometheus.OrdersPlacedCounter.Inc()
			totalFloat, _ := placed.Total.Float64()
			prometheus.OrderTotalAmountObserver.Observe(totalFloat)
		}
		// Events are best effort and fire only after the commit
		_ = c.events.Publish(ctx, notify.Event{
			Type:         notify.EventOrderCreated,
			RestaurantID: restaurantID,
			Payload:      placed,
		})
	}
	return placed, nil
}

// sessionFor opens a table session for the order. With session reuse
// enabled, an existing ACTIVE session of the table is returned instead of
// opening a new one; the default keeps one session per order.
func (c *Coordinator) sessionFor(tx *gorm.DB, table *model.Table) (*model.TableSession, error) {
	if c.sessionReuse {
		var existing model.TableSession
		err := tx.Where("table_id = ? AND status = ?", table.ID, model.SessionActive).
			Order("opened_at DESC").
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	session := model.TableSession{
		RestaurantID: table.RestaurantID,
		TableID:      table.ID,
		Status:       model.SessionActive,
		OpenedAt:     time.Now(),
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStatus moves an order along the status state machine. When the
// transition ends the order (PAID or CANCELLED), the table's remaining open
// orders are re-checked inside the same transaction; the table reverts to
// AVAILABLE and its active sessions close only when none remain.
func (c *Coordinator) UpdateStatus(ctx context.Context, restaurantID uint, orderID uint, next string) (*model.Order, error) {
	if !KnownStatus(next) {
		return nil, &InvalidTransitionError{From: "?", To: next}
	}

	var updated *model.Order
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("restaurant_id = ? AND id = ?", restaurantID, orderID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanTransition(order.Status, next) {
			return &InvalidTransitionError{From: order.Status, To: next}
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return err
		}
		order.Status = next

		if model.IsTerminalStatus(next) {
			if err := c.releaseTableIfDone(tx, &order); err != nil {
				return err
			}
		}

		if err := tx.Preload("Items").First(&order, order.ID).Error; err != nil {
			return err
		}
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if prometheus.OrderStatusCounter != nil {
		prometheus.OrderStatusCounter.WithLabelValues(next).Inc()
	}
	_ = c.events.Publish(ctx, notify.Event{
		Type:         notify.EventOrderStatusChanged,
		RestaurantID: restaurantID,
		Payload:      updated,
	})
	return updated, nil
}

// releaseTableIfDone frees the order's table when no open orders remain on
// it. Runs under the caller's transaction; the table row lock makes the
// "last open order" check race-free against concurrent payoffs.
func (c *Coordinator) releaseTableIfDone(tx *gorm.DB, order *model.Order) error {
	var table model.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", order.TableID).
		First(&table).Error
	if err != nil {
		return err
	}

	var open int64
	err = tx.Model(&model.Order{}).
		Where("table_id = ? AND status IN ?", order.TableID, model.OpenOrderStatuses()).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}

	if table.Status != model.TableAvailable {
		if err := tx.Model(&table).Update("status", model.TableAvailable).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	return tx.Model(&model.TableSession{}).
		Where("table_id = ? AND status = ?", order.TableID, model.SessionActive).
		Updates(map[string]interface{}{"status": model.SessionClosed, "closed_at": now}).Error
}

// ResolveTableToken resolves a table token outside the order transaction,
// e.g. for the customer-facing menu view. Returns ErrInvalidTable when the
// token is unknown.
func ResolveTableToken(ctx context.Context, db *gorm.DB, token string) (*model.Table, error) {
	var table model.Table
	err := db.WithContext(ctx).Where("token = ?", token).First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidTable
		}
		return nil, err
	}
	return &table, nil
}
