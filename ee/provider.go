package ee

import (
	"context"
	"fmt"

	"terralens/catalog"
	"terralens/models"
	"terralens/raster"
)

// computeRequest is the body of value:compute.
type computeRequest struct {
	Expression expression `json:"expression"`
}

// computeResponse carries the evaluated value. Band values may be null when
// the filtered collection was empty.
type computeResponse struct {
	Result map[string]*float64 `json:"result"`
}

// mapsRequest asks the provider to materialize a styled map layer.
type mapsRequest struct {
	Expression           expression `json:"expression"`
	VisualizationOptions visOptions `json:"visualizationOptions"`
}

type visOptions struct {
	Ranges  []visRange `json:"ranges"`
	Palette []string   `json:"paletteColors"`
}

type visRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type mapsResponse struct {
	Name string `json:"name"`
}

// ReduceRegion evaluates the query, spatially reduces it over the region and
// returns one scalar per band. Null results surface as no_data_available.
func (c *Client) ReduceRegion(ctx context.Context, q raster.Query, region models.Region, red raster.Reduction) (map[string]float64, error) {
	enc := newEncoder()
	imgKey, err := enc.encodeQuery(q)
	if err != nil {
		return nil, models.E(models.CodeInternal, "encode raster query", err)
	}
	result := enc.invoke("Image.reduceRegion", map[string]any{
		"image":     ref(imgKey),
		"reducer":   ref(enc.reducer(red.Reducer)),
		"geometry":  ref(enc.geometry(region)),
		"scale":     constant(red.ScaleMeters),
		"maxPixels": constant(red.MaxPixels),
	})

	var resp computeResponse
	path := fmt.Sprintf("/v1/projects/%s/value:compute", c.cfg.Project)
	if err := c.post(ctx, path, computeRequest{Expression: expression{Values: enc.values, Result: result}}, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(resp.Result))
	for band, v := range resp.Result {
		if v == nil {
			return nil, models.E(models.CodeNoDataAvailable,
				fmt.Sprintf("no scenes matched the filter for %s (band %s)", q.Source(), band), nil)
		}
		out[band] = *v
	}
	if len(out) == 0 {
		return nil, models.E(models.CodeNoDataAvailable, "empty reduction result for "+q.Source(), nil)
	}
	return out, nil
}

// AreaHectares asks the provider for the planar area of the region geometry.
func (c *Client) AreaHectares(ctx context.Context, region models.Region) (float64, error) {
	enc := newEncoder()
	result := enc.invoke("Geometry.area", map[string]any{
		"geometry": ref(enc.geometry(region)),
		"maxError": constant(1),
	})

	var resp struct {
		Result *float64 `json:"result"`
	}
	path := fmt.Sprintf("/v1/projects/%s/value:compute", c.cfg.Project)
	if err := c.post(ctx, path, computeRequest{Expression: expression{Values: enc.values, Result: result}}, &resp); err != nil {
		return 0, err
	}
	if resp.Result == nil {
		return 0, models.E(models.CodeProviderUnavailable, "provider returned no area", nil)
	}
	return *resp.Result / 10_000, nil
}

// TileURL clips the evaluated raster to the region, applies the indicator's
// visualization and returns the tile URL template of the created map layer.
func (c *Client) TileURL(ctx context.Context, q raster.Query, region models.Region, vis catalog.Visualization) (string, error) {
	enc := newEncoder()
	imgKey, err := enc.encodeQuery(q)
	if err != nil {
		return "", models.E(models.CodeInternal, "encode raster query", err)
	}
	clipped := enc.invoke("Image.clip", map[string]any{
		"input":    ref(imgKey),
		"geometry": ref(enc.geometry(region)),
	})

	req := mapsRequest{
		Expression: expression{Values: enc.values, Result: clipped},
		VisualizationOptions: visOptions{
			Ranges:  []visRange{{Min: vis.Min, Max: vis.Max}},
			Palette: vis.Palette,
		},
	}

	var resp mapsResponse
	path := fmt.Sprintf("/v1/projects/%s/maps", c.cfg.Project)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", models.E(models.CodeExportFailed, "provider could not materialize a map layer", nil)
	}
	return fmt.Sprintf("%s/v1/%s/tiles/{z}/{x}/{y}", c.cfg.BaseURL, resp.Name), nil
}
