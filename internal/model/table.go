package model

import (
	"time"
)

// Table occupancy states
const (
	TableAvailable = "AVAILABLE"
	TableOccupied  = "OCCUPIED"
)

// Table session states
const (
	SessionActive = "ACTIVE"
	SessionClosed = "CLOSED"
)

// Table represents a physical restaurant table. The Token is the opaque
// credential printed in the table's QR code; customers order with it
// instead of authenticating.
type Table struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"uniqueIndex:idx_tables_restaurant_number;not null"`
	Number       int       `json:"number" gorm:"uniqueIndex:idx_tables_restaurant_number;not null"`
	Capacity     int       `json:"capacity" gorm:"not null;default:2"`
	Status       string    `json:"status" gorm:"type:varchar(20);not null;default:'AVAILABLE'"`
	Token        string    `json:"token" gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableSession groups the orders placed during one table occupancy episode
type TableSession struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RestaurantID uint       `json:"restaurant_id" gorm:"index;not null"`
	TableID      uint       `json:"table_id" gorm:"index;not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	OpenedAt     time.Time  `json:"opened_at" gorm:"not null"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Table Table `json:"table,omitempty" gorm:"foreignKey:TableID"`
}
