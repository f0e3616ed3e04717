package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// CropProfile is one row of the crop table: the yield reached at optimal
// NDVI and the market price used for the financial projection.
type CropProfile struct {
	ID             string  `csv:"crop"`
	BaseYieldTHa   float64 `csv:"base_yield_t_ha"`
	PricePerTonUSD float64 `csv:"price_usd_per_ton"`
}

//go:embed crops.csv
var cropsCSV []byte

var crops map[string]CropProfile

func init() {
	var rows []CropProfile
	if err := gocsv.UnmarshalBytes(cropsCSV, &rows); err != nil {
		panic(fmt.Sprintf("catalog: embedded crops.csv is malformed: %v", err))
	}
	crops = make(map[string]CropProfile, len(rows))
	for _, row := range rows {
		crops[row.ID] = row
	}
	if _, ok := crops["wheat"]; !ok {
		panic("catalog: crops.csv must contain the wheat fallback row")
	}
}

// CropByID resolves a crop profile case-insensitively. Unknown crops fall
// back to wheat; the second return reports whether the match was exact.
func CropByID(id string) (CropProfile, bool) {
	c, ok := crops[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return crops["wheat"], false
	}
	return c, true
}
