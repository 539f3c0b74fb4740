package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	t.Parallel()

	start, end, err := dayBounds(time.UTC, "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), end)

	_, _, err = dayBounds(time.UTC, "not-a-date")
	assert.Error(t, err)
}

func TestDayBoundsSpansShortDSTDay(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Spring-forward day: only 23 hours long, but the bounds must still
	// run midnight to midnight.
	start, end, err := dayBounds(loc, "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, loc), end)
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}
