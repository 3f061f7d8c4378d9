package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-dedupe/internal/api"
	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// =============================================================================
// API Integration Tests
// =============================================================================
// These tests use real SQLite databases to test the full stack:
// HTTP request → Router → Handlers → Service → Storage → SQLite

func createTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "api_integration.db"), nil)
	require.NoError(t, err)

	server := api.NewServer(api.DefaultConfig(), store, nil, nil) // nil logger = use default
	ts := httptest.NewServer(server.Router())

	t.Cleanup(func() {
		ts.Close()
		_ = store.Close()
	})
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func getJSON[T any](t *testing.T, url string) (int, T) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return resp.StatusCode, v
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts := createTestServer(t)

	status, health := getJSON[dto.HealthResponse](t, ts.URL+"/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health.Status)
}

func TestAPI_Integration_DuplicateLifecycle(t *testing.T) {
	ts := createTestServer(t)
	when := time.Date(2024, 3, 1, 8, 45, 0, 0, time.UTC)

	tx := map[string]any{
		"type":       "expense",
		"amount":     "5.75",
		"name":       "Starbucks Coffee",
		"date":       when.Format(time.RFC3339),
		"account_id": "checking",
	}

	// First submission is recorded
	resp := postJSON(t, ts.URL+"/api/transactions", tx)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.RecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "5.75", created.Transaction.Amount)

	// The same purchase arriving again from another source is rejected
	tx["date"] = when.Add(20 * time.Minute).Format(time.RFC3339)
	tx["name"] = "STARBUCKS COFFEE"
	resp = postJSON(t, ts.URL+"/api/transactions", tx)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var conflict dto.DuplicateConflict
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conflict))
	resp.Body.Close()
	require.NotNil(t, conflict.Result.SimilarTransaction)
	assert.Equal(t, created.Transaction.ID, conflict.Result.SimilarTransaction.ID)
	assert.Equal(t, 1.0, conflict.Result.Confidence)

	// Forcing it records a second copy
	resp = postJSON(t, ts.URL+"/api/transactions?force=true", tx)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	status, list := getJSON[dto.TransactionListResponse](t, ts.URL+"/api/transactions")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, list.TotalCount)

	status, groups := getJSON[dto.PotentialDuplicatesResponse](t, ts.URL+"/api/duplicates/potential")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, groups.Count)
	assert.Equal(t, created.Transaction.ID, groups.Groups[0].Transaction.ID)

	status, checks := getJSON[dto.DuplicateCheckListResponse](t, ts.URL+"/api/duplicates/checks")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 3, checks.Count)
	assert.Equal(t, storage.ActionForced, checks.Checks[0].Action)
	assert.Equal(t, storage.ActionRejected, checks.Checks[1].Action)
	assert.Equal(t, storage.ActionRecorded, checks.Checks[2].Action)

	status, stats := getJSON[dto.StatsResponse](t, ts.URL+"/api/stats")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, stats.TotalTransactions)
	assert.Equal(t, 3, stats.TotalChecks)
	assert.Equal(t, 2, stats.DuplicatesFlagged)
	assert.Equal(t, 1, stats.RejectedCount)
	assert.Equal(t, 1, stats.ForcedCount)
}

func TestAPI_Integration_CheckDoesNotRecord(t *testing.T) {
	ts := createTestServer(t)

	resp := postJSON(t, ts.URL+"/api/duplicates/check", map[string]any{
		"name":   "Corner Deli",
		"amount": 12.4,
		"date":   "2024-03-01T12:00:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var check dto.CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&check))
	resp.Body.Close()

	assert.False(t, check.IsDuplicate)
	assert.Equal(t, []string{"No existing transactions to compare against"}, check.Reasons)

	status, list := getJSON[dto.TransactionListResponse](t, ts.URL+"/api/transactions")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, list.TotalCount)

	status, stored := getJSON[dto.DuplicateCheckResponse](t, ts.URL+"/api/duplicates/checks/1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, storage.ActionChecked, stored.Action)
	assert.Contains(t, string(stored.Candidate), "Corner Deli")
}
