package ordering

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)

	require.Regexp(t, regexp.MustCompile(`^ORD-20250314-[0-9A-F]{8}$`), number)
}

func TestNewOrderNumberUnique(t *testing.T) {
	seen := make(map[string]bool)
	now := time.Now()
	for i := 0; i < 1000; i++ {
		number := NewOrderNumber(now)
		require.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}
