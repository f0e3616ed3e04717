package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"terralens/models"
)

// Request/response DTOs. Keep them minimal and explicit.

type analyzeReq struct {
	North *float64 `json:"north" validate:"required"`
	South *float64 `json:"south" validate:"required"`
	East  *float64 `json:"east" validate:"required"`
	West  *float64 `json:"west" validate:"required"`

	DateStart string `json:"date_start,omitempty"`
	DateEnd   string `json:"date_end,omitempty"`
	Indicator string `json:"indicator,omitempty"` // default NDVI
}

type dashboardReq struct {
	North *float64 `json:"north" validate:"required"`
	South *float64 `json:"south" validate:"required"`
	East  *float64 `json:"east" validate:"required"`
	West  *float64 `json:"west" validate:"required"`

	DateStart  string   `json:"date_start,omitempty"`
	DateEnd    string   `json:"date_end,omitempty"`
	CropType   string   `json:"crop_type,omitempty"`   // default wheat
	InputCosts *float64 `json:"input_costs,omitempty"` // USD/hectare, default 500
}

type datesResp struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type analyzeResp struct {
	Success   bool          `json:"success"`
	TileURL   string        `json:"tile_url"`
	Coords    models.Region `json:"coords"`
	Indicator string        `json:"indicator"`
	Dates     datesResp     `json:"dates"`
}

type dashboardResp struct {
	Success bool                   `json:"success"`
	Stats   models.DashboardReport `json:"stats"`
	Coords  models.Region          `json:"coords"`
	Dates   datesResp              `json:"dates"`
}

type errorResp struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps application errors to their HTTP status and the standard
// {error, success:false} envelope. Unknown errors become a 500 without
// leaking internals.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *models.Error
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus() >= 500 {
			a.logger.Error("request failed", "code", appErr.Code, "error", err, "request_id", requestID(r.Context()))
		}
		writeJSON(w, appErr.HTTPStatus(), errorResp{Error: appErr.Message, Code: string(appErr.Code), Success: false})
		return
	}
	a.logger.Error("request failed", "error", err, "request_id", requestID(r.Context()))
	writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error", Code: string(models.CodeInternal), Success: false})
}

// decodeBody parses the JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.E(models.CodeInvalidJSON, "request body is not valid JSON", err)
	}
	return nil
}
