package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/skillgig-backend/internal/service"
)

// StatsHandler serves the public read-only aggregates.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// HandleStats: GET /stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleCategories: GET /categories
func (h *StatsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.stats.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// HandleHealth: GET / → {"status":"ok"}
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
