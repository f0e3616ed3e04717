package raster

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terralens/catalog"
	"terralens/models"
)

func TestOfflineReduceRegionIsDeterministic(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)
	q := Optical(region, window, "NDVI")

	first, err := p.ReduceRegion(context.Background(), q, region, MeanAt(10))
	require.NoError(t, err)
	second, err := p.ReduceRegion(context.Background(), q, region, MeanAt(10))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOfflineNDVIIsPlausible(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)

	stats, err := p.ReduceRegion(context.Background(), Optical(region, window, "NDVI"), region, MeanAt(10))
	require.NoError(t, err)
	require.Contains(t, stats, "nd")

	// Synthetic NIR reflectance dominates red, so vegetation should read
	// clearly positive.
	assert.Greater(t, stats["nd"], 0.0)
	assert.Less(t, stats["nd"], 1.0)
}

func TestOfflineThermalStatsBands(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)

	stats, err := p.ReduceRegion(context.Background(), ThermalStats(region, window), region, MeanAt(1000))
	require.NoError(t, err)
	require.Contains(t, stats, BandLST+"_mean")
	require.Contains(t, stats, BandLST+"_max")

	assert.GreaterOrEqual(t, stats[BandLST+"_max"], stats[BandLST+"_mean"])
	assert.Greater(t, stats[BandLST+"_mean"], 10.0)
	assert.Less(t, stats[BandLST+"_mean"], 40.0)
}

func TestOfflinePrecipitationSum(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)

	stats, err := p.ReduceRegion(context.Background(), PrecipitationStats(region, window), region, MeanAt(5000))
	require.NoError(t, err)
	require.Contains(t, stats, BandPrecip+"_sum")
	require.Contains(t, stats, BandPrecip+"_mean")
	assert.Greater(t, stats[BandPrecip+"_sum"], stats[BandPrecip+"_mean"])
	assert.Greater(t, stats[BandPrecip+"_sum"], 0.0)
}

func TestOfflineExpressionIndicator(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)

	stats, err := p.ReduceRegion(context.Background(), Optical(region, window, "EVI"), region, MeanAt(10))
	require.NoError(t, err)
	require.Contains(t, stats, "constant")
}

func TestOfflineSlope(t *testing.T) {
	p := NewOfflineProvider()
	region := testRegion(t)

	stats, err := p.ReduceRegion(context.Background(), TerrainQuery("SLOPE"), region, MeanAt(30))
	require.NoError(t, err)
	require.Contains(t, stats, "slope")
	assert.Greater(t, stats["slope"], 0.0)
	assert.Less(t, stats["slope"], 90.0)
}

func TestOfflineNoMatchingScenes(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)

	// Impossible cloud threshold filters out every synthetic scene.
	q := Collection(CollectionS2).
		FilterBounds(region).
		FilterDate(window).
		FilterLT("CLOUDY_PIXEL_PERCENTAGE", -1).
		Composite(ReduceMedian)

	_, err := p.ReduceRegion(context.Background(), q, region, MeanAt(10))
	require.Error(t, err)
	assert.Equal(t, models.CodeNoDataAvailable, models.CodeOf(err))
}

func TestOfflineRadarFilters(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)

	stats, err := p.ReduceRegion(context.Background(), Radar(region, window), region, MeanAt(10))
	require.NoError(t, err)
	require.Contains(t, stats, BandVV)
	assert.Less(t, stats[BandVV], 0.0) // backscatter in dB

	// Filtering on a polarisation the scenes never carry leaves nothing.
	q := Collection(CollectionS1).
		FilterBounds(region).
		FilterDate(window).
		FilterListContains("transmitterReceiverPolarisation", "HH").
		Composite(ReduceMean)
	_, err = p.ReduceRegion(context.Background(), q, region, MeanAt(10))
	require.Error(t, err)
	assert.Equal(t, models.CodeNoDataAvailable, models.CodeOf(err))
}

func TestOfflineTileURL(t *testing.T) {
	p := NewOfflineProvider()
	region, window := testRegion(t), testWindow(t)
	ind, _ := catalog.Lookup("NDVI")

	url, err := p.TileURL(context.Background(), Optical(region, window, "NDVI"), region, ind.Vis)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://tiles.terralens.local/v1/maps/"))
	assert.True(t, strings.HasSuffix(url, "/tiles/{z}/{x}/{y}"))

	again, err := p.TileURL(context.Background(), Optical(region, window, "NDVI"), region, ind.Vis)
	require.NoError(t, err)
	assert.Equal(t, url, again)
}

func TestOfflineAreaHectares(t *testing.T) {
	p := NewOfflineProvider()
	region := testRegion(t)

	area, err := p.AreaHectares(context.Background(), region)
	require.NoError(t, err)
	assert.InDelta(t, region.AreaHectares(), area, 0.001)
}
