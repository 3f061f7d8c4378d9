package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
	"github.com/eshaffer321/ledger-dedupe/internal/api/handlers"
	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

var day = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func transactionRoutes(repo *storage.MockRepository) func(r *gin.Engine) {
	svc := service.NewDuplicateService(repo, nil, 0, discard)
	h := handlers.NewTransactionsHandler(repo, svc, discard)
	return func(r *gin.Engine) {
		r.POST("/api/transactions", h.Create)
		r.GET("/api/transactions", h.List)
		r.GET("/api/transactions/:id", h.Get)
		r.DELETE("/api/transactions/:id", h.Delete)
	}
}

func seedTx(t *testing.T, repo *storage.MockRepository, id, name string, amount string, date time.Time) {
	t.Helper()
	require.NoError(t, repo.SaveTransaction(context.Background(), &ledger.Transaction{
		ID:        id,
		Type:      ledger.TypeExpense,
		Amount:    decimal.RequireFromString(amount),
		Name:      name,
		Date:      date,
		AccountID: "checking",
		Source:    ledger.SourceManual,
	}))
}

func coffeeBody(date time.Time) map[string]any {
	return map[string]any{
		"type":       "expense",
		"amount":     5.75,
		"name":       "Starbucks Coffee",
		"date":       date.Format(time.RFC3339),
		"account_id": "checking",
	}
}

func TestTransactionsHandler_Create(t *testing.T) {
	t.Run("records a new transaction", func(t *testing.T) {
		repo := storage.NewMockRepository()

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions", coffeeBody(day))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		response := decode[dto.RecordResponse](t, rec)
		assert.NotEmpty(t, response.Transaction.ID)
		assert.Equal(t, "5.75", response.Transaction.Amount)
		assert.Equal(t, "expense", response.Transaction.Type)
		assert.Equal(t, "manual", response.Transaction.Source)
		assert.Nil(t, response.Check)
		assert.Equal(t, int64(1), response.CheckID)
		assert.Equal(t, 1, repo.TransactionCount())
	})

	t.Run("accepts the amount as a string", func(t *testing.T) {
		repo := storage.NewMockRepository()
		body := coffeeBody(day)
		body["amount"] = "5.75"

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions", body)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("returns 409 with the match for a likely duplicate", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedTx(t, repo, "tx1", "Starbucks Coffee", "5.75", day)

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions", coffeeBody(day.Add(15*time.Minute)))

		require.Equal(t, http.StatusConflict, rec.Code)
		response := decode[dto.DuplicateConflict](t, rec)
		assert.Equal(t, dto.ErrCodeLikelyDuplicate, response.Code)
		assert.True(t, response.Result.IsDuplicate)
		assert.Equal(t, 1.0, response.Result.Confidence)
		require.NotNil(t, response.Result.SimilarTransaction)
		assert.Equal(t, "tx1", response.Result.SimilarTransaction.ID)
		assert.Contains(t, response.Result.Reasons, "Time difference: 15 minute(s)")
		assert.Equal(t, 1, repo.TransactionCount())
	})

	t.Run("force records a likely duplicate and reports it", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedTx(t, repo, "tx1", "Starbucks Coffee", "5.75", day)

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions?force=true", coffeeBody(day.Add(time.Minute)))

		require.Equal(t, http.StatusCreated, rec.Code)
		response := decode[dto.RecordResponse](t, rec)
		require.NotNil(t, response.Check)
		assert.True(t, response.Check.IsDuplicate)
		assert.Equal(t, 2, repo.TransactionCount())
	})

	t.Run("returns 400 for invalid fields", func(t *testing.T) {
		repo := storage.NewMockRepository()

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions", map[string]any{
			"type": "transfer",
			"name": "",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		response := decode[dto.APIError](t, rec)
		assert.Equal(t, dto.ErrCodeValidation, response.Code)
		assert.Contains(t, response.Message, "name is required")
		assert.Contains(t, response.Message, "amount must be positive")
		assert.False(t, repo.SaveTransactionCalled)
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		repo := storage.NewMockRepository()

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions", "{not json")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
	})

	t.Run("returns 500 when storage fails", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.BetweenErr = errors.New("database is locked")

		rec := serve(t, transactionRoutes(repo), http.MethodPost, "/api/transactions", coffeeBody(day))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		response := decode[dto.APIError](t, rec)
		assert.Equal(t, dto.ErrCodeInternalError, response.Code)
		assert.NotContains(t, response.Message, "locked")
	})
}

func TestTransactionsHandler_List(t *testing.T) {
	t.Run("returns empty list when no transactions", func(t *testing.T) {
		repo := storage.NewMockRepository()

		rec := serve(t, transactionRoutes(repo), http.MethodGet, "/api/transactions", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.TransactionListResponse](t, rec)
		assert.NotNil(t, response.Transactions)
		assert.Empty(t, response.Transactions)
		assert.Equal(t, 50, response.Limit) // default limit
		assert.False(t, response.HasMore)
	})

	t.Run("applies filters and pagination", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedTx(t, repo, "a", "Starbucks Coffee", "5.75", day)
		seedTx(t, repo, "b", "Starbucks Reserve", "7.10", day.AddDate(0, 0, 1))
		seedTx(t, repo, "c", "Corner Deli", "12.00", day.AddDate(0, 0, 2))
		seedTx(t, repo, "d", "Starbucks Coffee", "5.75", day.AddDate(0, 0, 10))

		rec := serve(t, transactionRoutes(repo), http.MethodGet,
			"/api/transactions?search=starbucks&from=2024-03-01&to=2024-03-05&limit=1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.TransactionListResponse](t, rec)
		assert.Equal(t, 2, response.TotalCount)
		require.Len(t, response.Transactions, 1)
		assert.Equal(t, "b", response.Transactions[0].ID, "newest first")
		assert.True(t, response.HasMore)
	})

	t.Run("bare to date includes the whole day", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedTx(t, repo, "late", "Dinner", "40.00", time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC))

		rec := serve(t, transactionRoutes(repo), http.MethodGet, "/api/transactions?to=2024-03-01", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[dto.TransactionListResponse](t, rec).TotalCount)
	})

	t.Run("rejects bad parameters", func(t *testing.T) {
		repo := storage.NewMockRepository()

		for _, query := range []string{"type=transfer", "from=yesterday", "limit=0", "limit=1000", "offset=-1"} {
			rec := serve(t, transactionRoutes(repo), http.MethodGet, "/api/transactions?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		}
	})

	t.Run("returns 500 when storage fails", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.ListErr = errors.New("boom")

		rec := serve(t, transactionRoutes(repo), http.MethodGet, "/api/transactions", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestTransactionsHandler_GetAndDelete(t *testing.T) {
	repo := storage.NewMockRepository()
	seedTx(t, repo, "tx1", "Starbucks Coffee", "5.75", day)
	routes := transactionRoutes(repo)

	rec := serve(t, routes, http.MethodGet, "/api/transactions/tx1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	response := decode[dto.TransactionResponse](t, rec)
	assert.Equal(t, "Starbucks Coffee", response.Name)
	assert.Equal(t, "2024-03-01T09:00:00Z", response.Date)

	rec = serve(t, routes, http.MethodGet, "/api/transactions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)

	rec = serve(t, routes, http.MethodDelete, "/api/transactions/tx1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, repo.TransactionCount())

	rec = serve(t, routes, http.MethodDelete, "/api/transactions/tx1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
