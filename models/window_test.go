package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func TestNewWindowDefaults(t *testing.T) {
	w, err := newWindowAt("", "", 30, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", w.EndDate())
	assert.Equal(t, "2025-05-16", w.StartDate())
	assert.Equal(t, 30, w.Days())
}

func TestNewWindowExplicitDates(t *testing.T) {
	w, err := newWindowAt("2025-03-01", "2025-04-01", 30, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", w.StartDate())
	assert.Equal(t, "2025-04-01", w.EndDate())
	assert.Equal(t, 31, w.Days())
}

func TestNewWindowEndOnlyAppliesLookback(t *testing.T) {
	w, err := newWindowAt("", "2025-04-01", 90, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", w.EndDate())
	assert.Equal(t, "2025-01-01", w.StartDate())
}

func TestNewWindowRejectsInvertedRange(t *testing.T) {
	_, err := newWindowAt("2025-04-01", "2025-03-01", 30, testNow)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidWindow, CodeOf(err))

	_, err = newWindowAt("2025-04-01", "2025-04-01", 30, testNow)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidWindow, CodeOf(err))
}

func TestNewWindowRejectsMalformedDates(t *testing.T) {
	_, err := newWindowAt("01/03/2025", "", 30, testNow)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidWindow, CodeOf(err))

	_, err = newWindowAt("", "yesterday", 30, testNow)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidWindow, CodeOf(err))
}
