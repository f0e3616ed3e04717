// Package catalog holds the static registries: spectral/climate indicators
// with their visualization parameters, and crop profiles for the agronomic
// engine. Both are read-only after process start.
package catalog

import "strings"

// SourceFamily identifies which satellite archive an indicator is derived
// from. The set is closed; builders switch over it exhaustively.
type SourceFamily int

const (
	OpticalMultispectral SourceFamily = iota // Sentinel-2 surface reflectance
	Radar                                    // Sentinel-1 GRD
	Thermal                                  // MODIS land surface temperature
	Precipitation                            // CHIRPS pentad rainfall
	Terrain                                  // NASADEM elevation
)

// String returns the family name for logs.
func (f SourceFamily) String() string {
	switch f {
	case OpticalMultispectral:
		return "optical"
	case Radar:
		return "radar"
	case Thermal:
		return "thermal"
	case Precipitation:
		return "precipitation"
	case Terrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// Visualization holds the styling applied when a raster is exported as map
// tiles.
type Visualization struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette"`
}

// Indicator is one catalog entry.
type Indicator struct {
	ID          string
	DisplayName string
	Family      SourceFamily
	Vis         Visualization
}

var vegetationPalette = []string{"#d73027", "#f46d43", "#fdae61", "#fee08b", "#d9ef8b", "#a6d96a", "#66bd63", "#1a9850"}
var waterPalette = []string{"#ffffff", "#deebf7", "#9ecae1", "#3182bd", "#08519c"}

var indicators = map[string]Indicator{
	"NDVI":  {ID: "NDVI", DisplayName: "NDVI (Vegetation)", Family: OpticalMultispectral, Vis: Visualization{Min: 0, Max: 0.8, Palette: vegetationPalette}},
	"EVI":   {ID: "EVI", DisplayName: "EVI (Enhanced Veg)", Family: OpticalMultispectral, Vis: Visualization{Min: 0, Max: 0.8, Palette: vegetationPalette}},
	"SAVI":  {ID: "SAVI", DisplayName: "SAVI (Soil Adjusted)", Family: OpticalMultispectral, Vis: Visualization{Min: 0, Max: 0.8, Palette: vegetationPalette}},
	"LAI":   {ID: "LAI", DisplayName: "LAI (Leaf Area)", Family: OpticalMultispectral, Vis: Visualization{Min: 0, Max: 3, Palette: []string{"white", "green"}}},
	"NDWI":  {ID: "NDWI", DisplayName: "NDWI (Water)", Family: OpticalMultispectral, Vis: Visualization{Min: -0.5, Max: 0.5, Palette: waterPalette}},
	"MNDWI": {ID: "MNDWI", DisplayName: "MNDWI (Urban Water)", Family: OpticalMultispectral, Vis: Visualization{Min: -0.5, Max: 0.5, Palette: waterPalette}},
	"NDBI":  {ID: "NDBI", DisplayName: "NDBI (Built-up)", Family: OpticalMultispectral, Vis: Visualization{Min: -0.5, Max: 0.5, Palette: []string{"#2c003e", "#67008f", "#a900ba", "#e65c9e", "#ffaf7d", "#fff6a3"}}},
	"LST":   {ID: "LST", DisplayName: "Land Surface Temp (C)", Family: Thermal, Vis: Visualization{Min: 10, Max: 45, Palette: []string{"blue", "yellow", "red"}}},
	"RAIN":  {ID: "RAIN", DisplayName: "Total Rainfall (mm)", Family: Precipitation, Vis: Visualization{Min: 0, Max: 300, Palette: []string{"#ffffe5", "#f7fcb9", "#addd8e", "#41ab5d", "#238443", "#005a32"}}},
	"ELEVATION": {ID: "ELEVATION", DisplayName: "Elevation (m)", Family: Terrain, Vis: Visualization{Min: 0, Max: 2000, Palette: []string{"006600", "002200", "fff700", "ab7634", "c4d0ff", "ffffff"}}},
	"SLOPE":     {ID: "SLOPE", DisplayName: "Slope (deg)", Family: Terrain, Vis: Visualization{Min: 0, Max: 60, Palette: []string{"black", "white"}}},
	"SAR":       {ID: "SAR", DisplayName: "SAR Radar (VV)", Family: Radar, Vis: Visualization{Min: -25, Max: 0, Palette: []string{"black", "white"}}},
}

// Lookup resolves an indicator id case-insensitively. Unknown ids fall back
// to NDVI; the second return tells the caller whether the match was exact so
// the fallback can be logged.
func Lookup(id string) (Indicator, bool) {
	ind, ok := indicators[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return indicators["NDVI"], false
	}
	return ind, true
}

// Indicators returns the catalog ids, for the openapi doc and tests.
func Indicators() []string {
	out := make([]string, 0, len(indicators))
	for id := range indicators {
		out = append(out, id)
	}
	return out
}
