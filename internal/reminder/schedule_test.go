package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSweepTime(t *testing.T) {
	hour, minute, err := ParseSweepTime("09:00")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 0, minute)

	hour, minute, err = ParseSweepTime("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, hour)
	assert.Equal(t, 59, minute)

	for _, bad := range []string{"", "25:00", "12:60", "-1:30", "noon"} {
		_, _, err := ParseSweepTime(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNextRunAfter(t *testing.T) {
	loc := time.UTC

	// Before today's slot: runs today.
	now := time.Date(2024, time.March, 14, 8, 30, 0, 0, loc)
	next := NextRunAfter(now, 9, 0)
	assert.Equal(t, time.Date(2024, time.March, 14, 9, 0, 0, 0, loc), next)

	// Exactly at the slot: runs tomorrow, never immediately again.
	now = time.Date(2024, time.March, 14, 9, 0, 0, 0, loc)
	next = NextRunAfter(now, 9, 0)
	assert.Equal(t, time.Date(2024, time.March, 15, 9, 0, 0, 0, loc), next)

	// After today's slot: runs tomorrow.
	now = time.Date(2024, time.March, 14, 17, 45, 0, 0, loc)
	next = NextRunAfter(now, 9, 0)
	assert.Equal(t, time.Date(2024, time.March, 15, 9, 0, 0, 0, loc), next)

	// Month boundary rolls over cleanly.
	now = time.Date(2024, time.February, 29, 10, 0, 0, 0, loc)
	next = NextRunAfter(now, 9, 0)
	assert.Equal(t, time.Date(2024, time.March, 1, 9, 0, 0, 0, loc), next)
}
