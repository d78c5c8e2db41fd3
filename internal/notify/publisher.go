package notify

import (
	"context"
)

// Event types published by the service
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventStockLow           = "stock.low"
)

// Event is a domain notification emitted after a successful commit.
// Consumers (kitchen displays, alert dashboards) subscribe out of band;
// publishing is best-effort and never part of a database transaction.
type Event struct {
	Type         string      `json:"type"`
	RestaurantID uint        `json:"restaurant_id"`
	Payload      interface{} `json:"payload"`
}

// Publisher pushes domain events to a message broker
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher discards all events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
