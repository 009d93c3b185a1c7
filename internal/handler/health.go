package handler

import (
	"net/http"
	"time"

	"github.com/hermes-bot/hermes/internal/httputil"
)

type PendingCounter interface {
	PendingCount() int
}

type HealthHandler struct {
	pending PendingCounter
}

func NewHealthHandler(pending PendingCounter) *HealthHandler {
	return &HealthHandler{pending: pending}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"timestamp":    time.Now().UnixMilli(),
		"pendingLinks": h.pending.PendingCount(),
	})
}
