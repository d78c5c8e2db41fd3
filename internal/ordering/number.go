package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber generates a human-readable, collision-resistant order
// number: ORD-<UTC date>-<8 hex chars of a fresh UUID>. The random suffix
// keeps concurrent placements from colliding without a shared counter.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
