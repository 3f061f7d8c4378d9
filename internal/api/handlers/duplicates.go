package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// DuplicatesHandler handles duplicate detection HTTP requests.
type DuplicatesHandler struct {
	*Base
	svc *service.DuplicateService
}

// NewDuplicatesHandler creates a new duplicates handler.
func NewDuplicatesHandler(repo storage.Repository, svc *service.DuplicateService, logger *slog.Logger) *DuplicatesHandler {
	return &DuplicatesHandler{
		Base: NewBase(repo, logger),
		svc:  svc,
	}
}

// Check handles POST /api/duplicates/check - scores a candidate without recording it.
func (h *DuplicatesHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}
	if req.TimeWindowHours < 0 {
		h.WriteError(c, http.StatusBadRequest, dto.ValidationError("time_window_hours must not be negative"))
		return
	}

	checkReq, err := req.ToServiceRequest()
	if err != nil {
		h.WriteStorageError(c, "candidate", err)
		return
	}

	outcome, err := h.svc.CheckTransaction(c.Request.Context(), checkReq)
	if err != nil {
		h.WriteStorageError(c, "candidate", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCheckResponse(outcome))
}

// Potential handles GET /api/duplicates/potential - runs the all-pairs scan
// over the transactions matching the listing filters.
func (h *DuplicatesHandler) Potential(c *gin.Context) {
	filters, err := ParseTransactionFilters(c)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	groups, err := h.svc.ScanPotentialDuplicates(c.Request.Context(), filters)
	if err != nil {
		h.WriteStorageError(c, "transactions", err)
		return
	}

	c.JSON(http.StatusOK, dto.PotentialDuplicatesResponse{
		Groups: groups,
		Count:  len(groups),
	})
}

// ListChecks handles GET /api/duplicates/checks - returns the most recent checks.
func (h *DuplicatesHandler) ListChecks(c *gin.Context) {
	params := dto.DefaultCheckListParams()
	if err := c.ShouldBindQuery(&params); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	checks, err := h.repo.ListDuplicateChecks(c.Request.Context(), params.Limit, params.DuplicatesOnly)
	if err != nil {
		h.WriteStorageError(c, "checks", err)
		return
	}

	response := dto.DuplicateCheckListResponse{
		Checks: make([]dto.DuplicateCheckResponse, 0, len(checks)),
		Count:  len(checks),
	}
	for _, check := range checks {
		response.Checks = append(response.Checks, dto.ToDuplicateCheckResponse(check))
	}

	c.JSON(http.StatusOK, response)
}

// GetCheck handles GET /api/duplicates/checks/:id - returns a single check.
func (h *DuplicatesHandler) GetCheck(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("check ID must be a number"))
		return
	}

	check, err := h.repo.GetDuplicateCheck(c.Request.Context(), id)
	if err != nil {
		h.WriteStorageError(c, "check", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDuplicateCheckResponse(*check))
}
