package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Staff drive the PENDING -> PREPARING -> READY -> SERVED
// -> PAID progression; CANCELLED is reachable from any non-terminal state.
const (
	OrderPending   = "PENDING"
	OrderPreparing = "PREPARING"
	OrderReady     = "READY"
	OrderServed    = "SERVED"
	OrderPaid      = "PAID"
	OrderCancelled = "CANCELLED"
)

// Order is one submitted cart for a table
type Order struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Number         string          `json:"number" gorm:"type:varchar(40);uniqueIndex;not null"`
	RestaurantID   uint            `json:"restaurant_id" gorm:"index;not null"`
	TableID        uint            `json:"table_id" gorm:"index;not null"`
	SessionID      uint            `json:"session_id" gorm:"index;not null"`
	CustomerName   string          `json:"customer_name" gorm:"type:varchar(100)"`
	CustomerPhone  string          `json:"customer_phone" gorm:"type:varchar(30)"`
	Status         string          `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Total          decimal.Decimal `json:"total" gorm:"not null;type:decimal(10,2)"`
	Notes          string          `json:"notes" gorm:"type:text"`
	IdempotencyKey *string         `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Relations
	Items   []OrderItem  `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Table   Table        `json:"table,omitempty" gorm:"foreignKey:TableID"`
	Session TableSession `json:"session,omitempty" gorm:"foreignKey:SessionID"`
}

// OrderItem is one order line. Name and UnitPrice are copied from the menu
// item at order time so later menu edits never alter historical orders.
type OrderItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"index;not null"`
	MenuItemID uint            `json:"menu_item_id" gorm:"index;not null"`
	Name       string          `json:"name" gorm:"type:varchar(255);not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"not null;type:decimal(10,2)"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	Notes      string          `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OpenOrderStatuses are the statuses that keep a table occupied
func OpenOrderStatuses() []string {
	return []string{OrderPending, OrderPreparing, OrderReady, OrderServed}
}

// IsTerminalStatus reports whether the status ends an order's lifecycle
func IsTerminalStatus(status string) bool {
	return status == OrderPaid || status == OrderCancelled
}
