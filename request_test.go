package transit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepartureTime(t *testing.T) {
	now := time.Date(2026, time.August, 26, 14, 30, 45, 0, time.UTC)

	got, err := parseDepartureTime("14:00", now)
	require.NoError(t, err)
	assert.Equal(t, secs(14, 0, 0), got)

	got, err = parseDepartureTime("06:15:30", now)
	require.NoError(t, err)
	assert.Equal(t, secs(6, 15, 30), got)

	for _, literal := range []string{"now", "NOW", ""} {
		got, err = parseDepartureTime(literal, now)
		require.NoError(t, err)
		assert.Equal(t, secs(14, 30, 45), got)
	}

	_, err = parseDepartureTime("quarter past", now)
	assert.Error(t, err)
	_, err = parseDepartureTime("14:99", now)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, time.August, 26, 14, 30, 45, 0, time.UTC)

	got, err := parseDate("2026-12-25", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), got)

	for _, literal := range []string{"today", "Today", ""} {
		got, err = parseDate(literal, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC), got)
	}

	_, err = parseDate("26/08/2026", now)
	assert.Error(t, err)
}

func TestUnknownStopErrorMatching(t *testing.T) {
	var err error = &UnknownStopError{Query: "Xyzzy", Suggestions: []string{"Geelong Station"}}
	assert.ErrorIs(t, err, ErrUnknownStop)
	assert.Contains(t, err.Error(), "Xyzzy")
}
