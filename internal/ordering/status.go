package ordering

import (
	"tableserve/internal/model"
)

// transitions is the order status state machine. Staff move orders along
// the preparation flow; CANCELLED is reachable from any non-terminal state.
var transitions = map[string][]string{
	model.OrderPending:   {model.OrderPreparing, model.OrderCancelled},
	model.OrderPreparing: {model.OrderReady, model.OrderCancelled},
	model.OrderReady:     {model.OrderServed, model.OrderCancelled},
	model.OrderServed:    {model.OrderPaid, model.OrderCancelled},
	model.OrderPaid:      {},
	model.OrderCancelled: {},
}

// KnownStatus reports whether the status string is one of the enumerated states
func KnownStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
