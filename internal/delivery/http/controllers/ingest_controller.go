package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	h "mobilizewarehouse/internal/delivery/http/helpers"
	"mobilizewarehouse/internal/delivery/http/middleware"
	"mobilizewarehouse/internal/domain"
)

type IngestController struct {
	Logger  *slog.Logger
	Service domain.IngestService
}

func NewIngestController(logger *slog.Logger, svc domain.IngestService) *IngestController {
	return &IngestController{
		Logger:  logger,
		Service: svc,
	}
}

// TriggerRun godoc
// @Summary Run an ingest
// @Description Fetch every attendance from Mobilize, normalize it into events, timeslots, persons and attendances, and write all configured sinks. Blocks until the run finishes. Sink failures are reported in sink_errors with status 502; the other sinks are still written.
// @Tags ingest
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the RunSummary"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: bad_request (malformed or empty batch)"
// @Failure 502 {object} helpers.APIResponse "data contains the RunSummary with sink_errors or error"
// @Router /ingest/runs [post]
func (c *IngestController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	c.Logger.InfoContext(r.Context(), "ingest run requested", "operator", middleware.Operator(r.Context()))

	// The run outlives a dropped client connection.
	summary, err := c.Service.Run(context.WithoutCancel(r.Context()))
	switch {
	case err == nil:
		h.WriteJSONSuccess(w, http.StatusOK, summary)
	case errors.Is(err, domain.ErrRunInProgress):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "an ingest run is already in progress")
	case errors.Is(err, domain.ErrMalformedRecord), errors.Is(err, domain.ErrEmptyBatch):
		h.WriteJSONError(w, http.StatusUnprocessableEntity, h.ErrCodeBadRequest, err.Error())
	case summary != nil:
		h.WriteJSON(w, http.StatusBadGateway, summary, &h.APIError{Code: h.ErrCodeInternalError, Message: err.Error()})
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// LatestRun godoc
// @Summary Latest ingest run
// @Description Summary of the most recent ingest run since the service started.
// @Tags ingest
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the RunSummary"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /ingest/runs/latest [get]
func (c *IngestController) LatestRun(w http.ResponseWriter, r *http.Request) {
	summary, err := c.Service.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "no ingest run yet")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, summary)
}
