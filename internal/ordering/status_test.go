package ordering

import (
	"testing"

	"tableserve/internal/model"

	"github.com/stretchr/testify/require"
)

func TestStatusProgression(t *testing.T) {
	flow := []string{
		model.OrderPending,
		model.OrderPreparing,
		model.OrderReady,
		model.OrderServed,
		model.OrderPaid,
	}
	for i := 0; i < len(flow)-1; i++ {
		require.True(t, CanTransition(flow[i], flow[i+1]),
			"%s -> %s should be allowed", flow[i], flow[i+1])
	}
}

func TestStatusNoSkipping(t *testing.T) {
	require.False(t, CanTransition(model.OrderPending, model.OrderReady))
	require.False(t, CanTransition(model.OrderPending, model.OrderPaid))
	require.False(t, CanTransition(model.OrderPreparing, model.OrderServed))
}

func TestStatusNoBackwards(t *testing.T) {
	require.False(t, CanTransition(model.OrderPreparing, model.OrderPending))
	require.False(t, CanTransition(model.OrderPaid, model.OrderServed))
}

func TestCancelledFromAnyNonTerminal(t *testing.T) {
	for _, from := range []string{
		model.OrderPending,
		model.OrderPreparing,
		model.OrderReady,
		model.OrderServed,
	} {
		require.True(t, CanTransition(from, model.OrderCancelled),
			"%s -> CANCELLED should be allowed", from)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	for _, to := range []string{
		model.OrderPending,
		model.OrderPreparing,
		model.OrderReady,
		model.OrderServed,
		model.OrderPaid,
		model.OrderCancelled,
	} {
		require.False(t, CanTransition(model.OrderPaid, to))
		require.False(t, CanTransition(model.OrderCancelled, to))
	}
}

func TestKnownStatus(t *testing.T) {
	require.True(t, KnownStatus(model.OrderPending))
	require.True(t, KnownStatus(model.OrderCancelled))
	require.False(t, KnownStatus("SHIPPED"))
	require.False(t, KnownStatus(""))
}
