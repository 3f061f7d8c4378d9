package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
)

// Health handles GET /health. It has no /api prefix so load balancers can reach it.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewHealthResponse())
}
