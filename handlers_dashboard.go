package main

import (
	"context"
	"net/http"

	"terralens/models"
)

// Dashboard defaults.
const (
	dashboardLookbackDays  = 90
	defaultInputCostsPerHa = 500.0
)

// handleDashboardStats computes the full agricultural decision-support
// report for the requested region.
func (a *App) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	var req dashboardReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, r, models.E(models.CodeInvalidRegion, "missing coordinates", err))
		return
	}

	region, err := models.NewRegion(*req.North, *req.South, *req.East, *req.West)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	window, err := models.NewWindow(req.DateStart, req.DateEnd, dashboardLookbackDays)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	cropType := req.CropType
	if cropType == "" {
		cropType = "wheat"
	}
	inputCosts := defaultInputCostsPerHa
	if req.InputCosts != nil {
		inputCosts = *req.InputCosts
	}

	// The engine fans out several provider calls; give the whole report a
	// generous multiple of the single-call budget.
	ctx, cancel := context.WithTimeout(r.Context(), 3*a.cfg.ProviderTimeout)
	defer cancel()

	stats, err := a.engine.Report(ctx, region, window, cropType, inputCosts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResp{
		Success: true,
		Stats:   stats,
		Coords:  region,
		Dates:   datesResp{Start: window.StartDate(), End: window.EndDate()},
	})
}
