package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db          HealthChecker
	promHandler http.Handler
}

// NewHealthHandler builds the health endpoints. db may be nil when records
// live in memory.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, promHandler: promhttp.Handler()}
}

type healthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Storage:   "memory",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.db != nil {
		resp.Storage = "postgres"
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Health(ctx); err != nil {
			resp.Status = "fail"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	writeSuccess(w, status, resp, nil)
}

func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
