package raster

import (
	"terralens/catalog"
	"terralens/models"
)

// Satellite archive identifiers.
const (
	CollectionS2     = "COPERNICUS/S2_SR_HARMONIZED"
	CollectionS1     = "COPERNICUS/S1_GRD"
	CollectionMODIS  = "MODIS/006/MOD11A2"
	CollectionCHIRPS = "UCSB-CHG/CHIRPS/PENTAD"
	ImageNASADEM     = "NASA/NASADEM_HGT/001"
)

// Sentinel-2 band names.
const (
	BandBlue  = "B2"
	BandGreen = "B3"
	BandRed   = "B4"
	BandNIR   = "B8"
	BandSWIR1 = "B11"
)

// Other source bands.
const (
	BandVV        = "VV"
	BandLST       = "LST_Day_1km"
	BandPrecip    = "precipitation"
	BandElevation = "elevation"
)

// QA60 cloud and cirrus bits; a pixel survives masking only when both are
// zero.
const (
	qaBitCloud  = 10
	qaBitCirrus = 11
)

// OpticalComposite is the shared Sentinel-2 preprocessing chain: bounds and
// date filters, scene cloudiness cap, per-scene QA60 cloud/cirrus masking,
// reflectance scaling, then a per-pixel median across the time series.
func OpticalComposite(region models.Region, window models.DateWindow, maxCloudPct float64) Query {
	return Collection(CollectionS2).
		FilterBounds(region).
		FilterDate(window).
		FilterLT("CLOUDY_PIXEL_PERCENTAGE", maxCloudPct).
		MaskQABits("QA60", qaBitCloud, qaBitCirrus).
		Linear(1.0/10000, 0).
		Composite(ReduceMedian)
}

// Optical builds the analysis-ready raster for an optical indicator.
func Optical(region models.Region, window models.DateWindow, indicatorID string) Query {
	return Derive(OpticalComposite(region, window, 20), indicatorID)
}

// Derive is the band-math engine: given a composited optical raster it
// computes the named index. Unrecognized ids yield the true-color composite.
func Derive(composite Query, indicatorID string) Query {
	switch indicatorID {
	case "NDVI":
		return composite.NormalizedDifference(BandNIR, BandRed)
	case "NDWI":
		return composite.NormalizedDifference(BandGreen, BandNIR)
	case "MNDWI":
		return composite.NormalizedDifference(BandGreen, BandSWIR1)
	case "NDBI":
		return composite.NormalizedDifference(BandSWIR1, BandNIR)
	case "NDMI":
		return composite.NormalizedDifference(BandNIR, BandSWIR1)
	case "LAI":
		// Proxy retrieval: scaled NDVI, not a radiative-transfer inversion.
		return composite.NormalizedDifference(BandNIR, BandRed).Multiply(3)
	case "EVI":
		return composite.Expression(
			"2.5 * ((NIR - RED) / (NIR + 6*RED - 7.5*BLUE + 1))",
			map[string]string{"NIR": BandNIR, "RED": BandRed, "BLUE": BandBlue},
		)
	case "SAVI":
		return composite.Expression(
			"((NIR - RED) / (NIR + RED + 0.5)) * 1.5",
			map[string]string{"NIR": BandNIR, "RED": BandRed},
		)
	default:
		return composite.Select(BandRed, BandGreen, BandBlue)
	}
}

// Radar builds the Sentinel-1 VV backscatter composite.
func Radar(region models.Region, window models.DateWindow) Query {
	return Collection(CollectionS1).
		FilterBounds(region).
		FilterDate(window).
		FilterListContains("transmitterReceiverPolarisation", "VV").
		FilterEq("instrumentMode", "IW").
		Select(BandVV).
		Composite(ReduceMean)
}

// Thermal builds the MODIS day land-surface-temperature composite in
// Celsius. Each scene is converted from raw digital numbers before the mean.
func Thermal(region models.Region, window models.DateWindow) Query {
	return Collection(CollectionMODIS).
		FilterBounds(region).
		FilterDate(window).
		Select(BandLST).
		Linear(0.02, -273.15).
		Composite(ReduceMean)
}

// ThermalStats is the weather-risk variant: mean and max temperature bands
// in one composite (LST_Day_1km_mean, LST_Day_1km_max).
func ThermalStats(region models.Region, window models.DateWindow) Query {
	return Collection(CollectionMODIS).
		FilterBounds(region).
		FilterDate(window).
		Select(BandLST).
		Linear(0.02, -273.15).
		Composite(ReduceMean, ReduceMax)
}

// Precipitation builds the cumulative CHIRPS rainfall raster for the window.
func Precipitation(region models.Region, window models.DateWindow) Query {
	return Collection(CollectionCHIRPS).
		FilterBounds(region).
		FilterDate(window).
		Select(BandPrecip).
		Composite(ReduceSum)
}

// PrecipitationStats is the weather-risk variant: summed and mean rainfall
// bands in one composite.
func PrecipitationStats(region models.Region, window models.DateWindow) Query {
	return Collection(CollectionCHIRPS).
		FilterBounds(region).
		FilterDate(window).
		Select(BandPrecip).
		Composite(ReduceSum, ReduceMean)
}

// TerrainQuery builds the static elevation raster, with the gradient applied
// for SLOPE.
func TerrainQuery(indicatorID string) Query {
	q := Image(ImageNASADEM).Select(BandElevation)
	if indicatorID == "SLOPE" {
		return q.Slope(BandElevation)
	}
	return q
}

// ForIndicator dispatches to the source-family builder for a catalog entry.
// The switch is exhaustive over the closed SourceFamily set.
func ForIndicator(ind catalog.Indicator, region models.Region, window models.DateWindow) Query {
	switch ind.Family {
	case catalog.OpticalMultispectral:
		return Optical(region, window, ind.ID)
	case catalog.Radar:
		return Radar(region, window)
	case catalog.Thermal:
		return Thermal(region, window)
	case catalog.Precipitation:
		return Precipitation(region, window)
	case catalog.Terrain:
		return TerrainQuery(ind.ID)
	default:
		// Unreachable for catalog entries; keep the optical default so a
		// future family cannot silently produce an empty query.
		return Optical(region, window, ind.ID)
	}
}
