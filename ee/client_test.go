package ee

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terralens/catalog"
	"terralens/models"
	"terralens/raster"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegion(t *testing.T) models.Region {
	t.Helper()
	r, err := models.NewRegion(45.1, 45.0, 9.2, 9.1)
	require.NoError(t, err)
	return r
}

func testWindow(t *testing.T) models.DateWindow {
	t.Helper()
	w, err := models.NewWindow("2025-03-01", "2025-05-01", 0)
	require.NoError(t, err)
	return w
}

// newTestClient wires the adapter to a test server with instant retries.
func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c := newClientWith(Config{
		Project:     "demo",
		BaseURL:     baseURL,
		CallTimeout: timeout,
	}, &http.Client{}, testLogger())
	c.sleep = func(time.Duration) {}
	return c
}

func TestAreaHectaresRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "/v1/projects/demo/value:compute", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"result": 120000.0})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	area, err := c.AreaHectares(context.Background(), testRegion(t))
	require.NoError(t, err)
	assert.Equal(t, 12.0, area)
	assert.Equal(t, int32(3), hits.Load())
}

func TestPostGivesUpAfterRetryBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	c.retry = RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: time.Millisecond}

	_, err := c.AreaHectares(context.Background(), testRegion(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeProviderUnavailable, models.CodeOf(err))
	assert.Equal(t, int32(3), hits.Load())
}

func TestPostDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	_, err := c.AreaHectares(context.Background(), testRegion(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeProviderUnavailable, models.CodeOf(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestPostMapsDeadlineToProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 30*time.Millisecond)
	_, err := c.AreaHectares(context.Background(), testRegion(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeProviderTimeout, models.CodeOf(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	c.retry = RetryPolicy{MaxRetries: 9, MinWait: time.Millisecond, MaxWait: time.Millisecond}

	_, err := c.AreaHectares(context.Background(), testRegion(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeProviderUnavailable, models.CodeOf(err))
	// The breaker trips on the sixth consecutive failure; the remaining
	// retry budget never reaches the server.
	assert.Equal(t, int32(6), hits.Load())
}

func TestReduceRegionDecodesBands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req computeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Expression.Values)
		assert.NotEmpty(t, req.Expression.Result)
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"nd": 0.42}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	region, window := testRegion(t), testWindow(t)
	stats, err := c.ReduceRegion(context.Background(), raster.Optical(region, window, "NDVI"), region, raster.MeanAt(10))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"nd": 0.42}, stats)
}

func TestReduceRegionNullBandIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"nd": nil}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	region, window := testRegion(t), testWindow(t)
	_, err := c.ReduceRegion(context.Background(), raster.Optical(region, window, "NDVI"), region, raster.MeanAt(10))
	require.Error(t, err)
	assert.Equal(t, models.CodeNoDataAvailable, models.CodeOf(err))
}

func TestReduceRegionEmptyResultIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	region, window := testRegion(t), testWindow(t)
	_, err := c.ReduceRegion(context.Background(), raster.Optical(region, window, "NDVI"), region, raster.MeanAt(10))
	require.Error(t, err)
	assert.Equal(t, models.CodeNoDataAvailable, models.CodeOf(err))
}

func TestTileURLCreatesMapLayer(t *testing.T) {
	ind, _ := catalog.Lookup("NDVI")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/demo/maps", r.URL.Path)
		var req mapsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.VisualizationOptions.Ranges, 1)
		assert.Equal(t, ind.Vis.Min, req.VisualizationOptions.Ranges[0].Min)
		assert.Equal(t, ind.Vis.Max, req.VisualizationOptions.Ranges[0].Max)
		assert.Equal(t, ind.Vis.Palette, req.VisualizationOptions.Palette)
		json.NewEncoder(w).Encode(map[string]any{"name": "projects/demo/maps/abc123"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	region, window := testRegion(t), testWindow(t)
	url, err := c.TileURL(context.Background(), raster.Optical(region, window, "NDVI"), region, ind.Vis)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/v1/projects/demo/maps/abc123/tiles/{z}/{x}/{y}", url)
}

func TestTileURLEmptyNameIsExportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": ""})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	region, window := testRegion(t), testWindow(t)
	ind, _ := catalog.Lookup("NDVI")
	_, err := c.TileURL(context.Background(), raster.Optical(region, window, "NDVI"), region, ind.Vis)
	require.Error(t, err)
	assert.Equal(t, models.CodeExportFailed, models.CodeOf(err))
}

func TestBackoffStaysWithinBounds(t *testing.T) {
	c := newTestClient(t, "http://unused", time.Second)
	c.retry = RetryPolicy{MaxRetries: 5, MinWait: 100 * time.Millisecond, MaxWait: time.Second}

	assert.Equal(t, 100*time.Millisecond, c.backoff(0))
	for attempt := 1; attempt < 8; attempt++ {
		wait := c.backoff(attempt)
		assert.GreaterOrEqual(t, wait, 100*time.Millisecond, "attempt %d", attempt)
		assert.LessOrEqual(t, wait, time.Second, "attempt %d", attempt)
	}
}
