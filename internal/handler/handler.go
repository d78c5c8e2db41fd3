package handler

import (
	"tableserve/internal/notify"
	"tableserve/internal/ordering"
)

var (
	orders *ordering.Coordinator
	events notify.Publisher = notify.NoopPublisher{}
)

// Init wires the handlers to the order coordinator and event publisher.
// Called once from main after the database and broker are up.
func Init(coordinator *ordering.Coordinator, publisher notify.Publisher) {
	orders = coordinator
	if publisher != nil {
		events = publisher
	}
}
