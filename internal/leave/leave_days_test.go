package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDays(t *testing.T) {
	t.Run("full business week", func(t *testing.T) {
		// Mon 2025-06-02 .. Fri 2025-06-06
		got := WorkingDays(date(2025, time.June, 2), date(2025, time.June, 6), false)
		assert.Equal(t, "5", got.String())
	})

	t.Run("span including weekend", func(t *testing.T) {
		// Fri 2025-06-06 .. Mon 2025-06-09, Sat and Sun excluded
		got := WorkingDays(date(2025, time.June, 6), date(2025, time.June, 9), false)
		assert.Equal(t, "2", got.String())
	})

	t.Run("single weekday", func(t *testing.T) {
		got := WorkingDays(date(2025, time.June, 4), date(2025, time.June, 4), false)
		assert.Equal(t, "1", got.String())
	})

	t.Run("weekend only is zero", func(t *testing.T) {
		got := WorkingDays(date(2025, time.June, 7), date(2025, time.June, 8), false)
		assert.True(t, got.IsZero())
	})

	t.Run("half day forces 0.5", func(t *testing.T) {
		got := WorkingDays(date(2025, time.June, 2), date(2025, time.June, 6), true)
		assert.Equal(t, "0.5", got.String())
	})

	t.Run("two full weeks", func(t *testing.T) {
		// Mon 2025-06-02 .. Fri 2025-06-13
		got := WorkingDays(date(2025, time.June, 2), date(2025, time.June, 13), false)
		assert.Equal(t, "10", got.String())
	})
}
