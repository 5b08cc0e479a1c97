package checkout

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)

	number, err := newOrderNumber(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-260307-\d{4}$`), number)
}

func TestNewOrderNumberSuffixIsNumeric(t *testing.T) {
	now := time.Now().UTC()

	for i := 0; i < 200; i++ {
		number, err := newOrderNumber(now)
		require.NoError(t, err)

		suffix := number[len(number)-4:]
		for _, c := range suffix {
			assert.True(t, c >= '0' && c <= '9', "unexpected suffix character %q in %s", c, number)
		}
	}
}

func TestNewOrderNumberSuffixVaries(t *testing.T) {
	now := time.Now().UTC()
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		number, err := newOrderNumber(now)
		require.NoError(t, err)
		seen[strings.TrimPrefix(number, "ORD-")] = true
	}

	// 10^4 combinations; 50 draws colliding into one bucket would mean a
	// broken generator, not bad luck
	assert.Greater(t, len(seen), 1)
}
