package models

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Region is a geographic rectangle in degrees. Immutable once built; every
// request constructs its own.
type Region struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// NewRegion validates the bounding box. A degenerate box (north <= south or
// east <= west) is rejected with an invalid_region error.
func NewRegion(north, south, east, west float64) (Region, error) {
	if north <= south {
		return Region{}, E(CodeInvalidRegion, fmt.Sprintf("north (%v) must be greater than south (%v)", north, south), nil)
	}
	if east <= west {
		return Region{}, E(CodeInvalidRegion, fmt.Sprintf("east (%v) must be greater than west (%v)", east, west), nil)
	}
	if north > 90 || south < -90 {
		return Region{}, E(CodeInvalidRegion, "latitude out of range [-90, 90]", nil)
	}
	if east > 180 || west < -180 {
		return Region{}, E(CodeInvalidRegion, "longitude out of range [-180, 180]", nil)
	}
	return Region{North: north, South: south, East: east, West: west}, nil
}

// Bound returns the region as an orb bounding box (min = SW, max = NE).
func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.West, r.South},
		Max: orb.Point{r.East, r.North},
	}
}

// Polygon returns the closed rectangle ring, the shape sent to the imagery
// provider as request geometry.
func (r Region) Polygon() orb.Polygon {
	return orb.Polygon{orb.Ring{
		{r.West, r.South},
		{r.East, r.South},
		{r.East, r.North},
		{r.West, r.North},
		{r.West, r.South},
	}}
}

// AreaHectares computes the geodesic area of the region in hectares. The
// Earth Engine adapter prefers the provider-computed value; this is the
// offline figure and agrees closely for field-sized boxes.
func (r Region) AreaHectares() float64 {
	return geo.Area(r.Polygon()) / 10_000
}
