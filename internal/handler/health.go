package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/mindspace/internal/apperror"
)

// Pinger is anything that can report whether its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// HandleHealth reports liveness and store reachability.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeError(w, r, apperror.StoreFailure("pinging store", err))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
