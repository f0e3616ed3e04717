package agro

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"terralens/catalog"
	"terralens/models"
	"terralens/raster"
)

// Spatial reduction resolutions per source family, meters.
const (
	scaleOptical = 10
	scaleThermal = 1000
	scaleRain    = 5000
)

// soilLookbackDays is the fixed trailing window for the soil proxies,
// independent of the request's own window.
const soilLookbackDays = 60

// Engine composes the seven sub-calculations into one report. Stateless
// aside from its provider; safe for concurrent requests.
type Engine struct {
	provider raster.Provider
	logger   *slog.Logger
}

// NewEngine builds the metrics engine.
func NewEngine(provider raster.Provider, logger *slog.Logger) *Engine {
	return &Engine{provider: provider, logger: logger}
}

// Report computes the dashboard for one region and window. The remote
// statistics are gathered in parallel; the financial, irrigation and
// fertilization sections are pure derivations of the others. Any failed
// sub-calculation fails the whole report; no partial results are returned.
func (e *Engine) Report(ctx context.Context, region models.Region, window models.DateWindow, cropType string, inputCostPerHa float64) (models.DashboardReport, error) {
	crop, exact := catalog.CropByID(cropType)
	if !exact {
		e.logger.Warn("unknown crop type, using wheat profile", "crop_type", cropType)
	}

	soilWindow, err := models.NewWindow("", "", soilLookbackDays)
	if err != nil {
		return models.DashboardReport{}, err
	}

	var (
		areaHa                      float64
		meanNDVI                    float64
		avgTemp, maxTemp, totalRain float64
		pestTemp                    float64
		soilMoisture                float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		var err error
		areaHa, err = e.provider.AreaHectares(gctx, region)
		return err
	})

	g.Go(func() error {
		stats, err := e.provider.ReduceRegion(gctx,
			raster.Optical(region, window, "NDVI"), region, raster.MeanAt(scaleOptical))
		if err != nil {
			return err
		}
		meanNDVI = stats["nd"]
		return nil
	})

	g.Go(func() error {
		stats, err := e.provider.ReduceRegion(gctx,
			raster.ThermalStats(region, window), region, raster.MeanAt(scaleThermal))
		if err != nil {
			return err
		}
		avgTemp = stats[raster.BandLST+"_mean"]
		maxTemp = stats[raster.BandLST+"_max"]
		return nil
	})

	g.Go(func() error {
		stats, err := e.provider.ReduceRegion(gctx,
			raster.PrecipitationStats(region, window), region, raster.MeanAt(scaleRain))
		if err != nil {
			return err
		}
		totalRain = stats[raster.BandPrecip+"_sum"]
		return nil
	})

	g.Go(func() error {
		stats, err := e.provider.ReduceRegion(gctx,
			raster.Thermal(region, window), region, raster.MeanAt(scaleThermal))
		if err != nil {
			return err
		}
		pestTemp = stats[raster.BandLST]
		return nil
	})

	g.Go(func() error {
		q := raster.Derive(raster.OpticalComposite(region, soilWindow, 10), "NDMI")
		stats, err := e.provider.ReduceRegion(gctx, q, region, raster.MeanAt(scaleOptical))
		if err != nil {
			return err
		}
		soilMoisture = stats["nd"]
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.DashboardReport{}, err
	}

	productivity := productivityFrom(meanNDVI, crop)
	weather := weatherRiskFrom(avgTemp, maxTemp, totalRain)
	soil := soilHealthFrom(soilMoisture)

	return models.DashboardReport{
		AreaHectares:  round(areaHa, 2),
		Productivity:  productivity,
		WeatherRisk:   weather,
		PestRisk:      pestRiskFrom(pestTemp),
		SoilHealth:    soil,
		Financial:     financialFrom(productivity, areaHa, crop, inputCostPerHa),
		Irrigation:    irrigationFrom(weather),
		Fertilization: fertilizationFrom(soil, productivity),
		CropType:      crop.ID,
	}, nil
}
