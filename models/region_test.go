package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegionValid(t *testing.T) {
	r, err := NewRegion(45.1, 45.0, 9.2, 9.1)
	require.NoError(t, err)
	assert.Equal(t, 45.1, r.North)
	assert.Equal(t, 9.1, r.West)
}

func TestNewRegionRejectsDegenerateBoxes(t *testing.T) {
	cases := []struct {
		name                     string
		north, south, east, west float64
	}{
		{"north below south", 44.0, 45.0, 9.2, 9.1},
		{"north equals south", 45.0, 45.0, 9.2, 9.1},
		{"east below west", 45.1, 45.0, 9.1, 9.2},
		{"east equals west", 45.1, 45.0, 9.1, 9.1},
		{"latitude above range", 91.0, 45.0, 9.2, 9.1},
		{"latitude below range", 45.0, -91.0, 9.2, 9.1},
		{"longitude above range", 45.1, 45.0, 181.0, 9.1},
		{"longitude below range", 45.1, 45.0, 9.2, -181.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegion(tc.north, tc.south, tc.east, tc.west)
			require.Error(t, err)
			assert.Equal(t, CodeInvalidRegion, CodeOf(err))
		})
	}
}

func TestRegionPolygonIsClosed(t *testing.T) {
	r, err := NewRegion(45.1, 45.0, 9.2, 9.1)
	require.NoError(t, err)

	ring := r.Polygon()[0]
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestRegionAreaHectares(t *testing.T) {
	// Roughly a 0.1 x 0.1 degree box near Milan; about 8-9 thousand ha.
	r, err := NewRegion(45.1, 45.0, 9.2, 9.1)
	require.NoError(t, err)

	area := r.AreaHectares()
	assert.Greater(t, area, 5_000.0)
	assert.Less(t, area, 12_000.0)
}

func TestRegionBoundCorners(t *testing.T) {
	r, err := NewRegion(45.1, 45.0, 9.2, 9.1)
	require.NoError(t, err)

	b := r.Bound()
	assert.Equal(t, 9.1, b.Min[0])
	assert.Equal(t, 45.0, b.Min[1])
	assert.Equal(t, 9.2, b.Max[0])
	assert.Equal(t, 45.1, b.Max[1])
}
