package controllers

import (
	"context"
	"net/http"
	"time"

	h "mobilizewarehouse/internal/delivery/http/helpers"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the response body for GET /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	Warehouse string `json:"warehouse,omitempty"`
}

type HealthController struct {
	DB Pinger
}

// NewHealthController returns a controller; db may be nil when no warehouse
// is configured.
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{DB: db}
}

// Healthz godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Failure 503 {object} helpers.APIResponse
// @Router /healthz [get]
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	if c.DB == nil {
		h.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		h.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Warehouse: "unreachable"},
			&h.APIError{Code: h.ErrCodeInternalError, Message: err.Error()})
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok", Warehouse: "ok"})
}
