package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo, logger),
	}
}

// Get handles GET /api/stats - returns aggregate statistics.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.repo.GetStats(c.Request.Context())
	if err != nil {
		h.WriteStorageError(c, "stats", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsResponse(stats))
}
