package main

import (
	"context"
	"net/http"

	"terralens/catalog"
	"terralens/models"
	"terralens/raster"
)

// analyzeLookbackDays is the default window for single-indicator requests.
const analyzeLookbackDays = 30

// handleAnalyze computes one indicator raster for the requested bounding box
// and window and returns its tile URL.
func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, r, models.E(models.CodeInvalidRegion,
			"missing coordinates. Requires north, south, east, west", err))
		return
	}

	region, err := models.NewRegion(*req.North, *req.South, *req.East, *req.West)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	window, err := models.NewWindow(req.DateStart, req.DateEnd, analyzeLookbackDays)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	id := req.Indicator
	if id == "" {
		id = "NDVI"
	}
	indicator, exact := catalog.Lookup(id)
	if !exact {
		a.logger.Warn("unknown indicator, falling back to NDVI",
			"indicator", req.Indicator, "request_id", requestID(r.Context()))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*a.cfg.ProviderTimeout)
	defer cancel()

	a.logger.Info("processing indicator",
		"indicator", indicator.ID,
		"family", indicator.Family.String(),
		"start", window.StartDate(),
		"end", window.EndDate(),
		"request_id", requestID(r.Context()),
	)

	q := raster.ForIndicator(indicator, region, window)
	tileURL, err := a.provider.TileURL(ctx, q, region, indicator.Vis)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResp{
		Success:   true,
		TileURL:   tileURL,
		Coords:    region,
		Indicator: indicator.ID,
		Dates:     datesResp{Start: window.StartDate(), End: window.EndDate()},
	})
}
