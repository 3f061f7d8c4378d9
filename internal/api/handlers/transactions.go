package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// TransactionsHandler handles ledger transaction HTTP requests.
type TransactionsHandler struct {
	*Base
	svc *service.DuplicateService
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository, svc *service.DuplicateService, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		Base: NewBase(repo, logger),
		svc:  svc,
	}
}

// Create handles POST /api/transactions - records a transaction unless it is a likely duplicate.
// Pass ?force=true to record it regardless; the response still reports the match.
func (h *TransactionsHandler) Create(c *gin.Context) {
	var req dto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	outcome, err := h.svc.RecordTransaction(c.Request.Context(), req.ToTransaction(), service.RecordOptions{
		Force: ParseBoolParam(c, "force", false),
	})
	if errors.Is(err, service.ErrLikelyDuplicate) {
		c.JSON(http.StatusConflict, dto.DuplicateConflict{
			APIError: dto.NewAPIError(dto.ErrCodeLikelyDuplicate, err.Error()),
			Result:   dto.ToCheckResponse(outcome.Check),
		})
		return
	}
	if err != nil {
		h.WriteStorageError(c, "transaction", err)
		return
	}

	response := dto.RecordResponse{
		Transaction: dto.ToTransactionResponse(outcome.Transaction),
		CheckID:     outcome.Check.CheckID,
	}
	if outcome.Check.Result.IsDuplicate {
		check := dto.ToCheckResponse(outcome.Check)
		response.Check = &check
	}

	c.JSON(http.StatusCreated, response)
}

// List handles GET /api/transactions - returns paginated list of transactions.
func (h *TransactionsHandler) List(c *gin.Context) {
	filters, err := ParseTransactionFilters(c)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	result, err := h.repo.ListTransactions(c.Request.Context(), filters)
	if err != nil {
		h.WriteStorageError(c, "transactions", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionListResponse(result))
}

// Get handles GET /api/transactions/:id - returns a single transaction.
func (h *TransactionsHandler) Get(c *gin.Context) {
	tx, err := h.repo.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.WriteStorageError(c, "transaction", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(*tx))
}

// Delete handles DELETE /api/transactions/:id.
func (h *TransactionsHandler) Delete(c *gin.Context) {
	if err := h.repo.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		h.WriteStorageError(c, "transaction", err)
		return
	}

	c.Status(http.StatusNoContent)
}
