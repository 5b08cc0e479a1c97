package checkout

import (
	"crypto/rand"
	"fmt"
	"time"
)

// newOrderNumber produces a human-readable order number of the form
// ORD-YYMMDD-NNNN with a pseudo-random four-digit suffix. Collisions within
// a day are possible and handled by the caller's retry against the unique
// index.
func newOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	suffix := make([]byte, 4)
	for i, b := range buf {
		suffix[i] = '0' + b%10
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("060102"), suffix), nil
}
