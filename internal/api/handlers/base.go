package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-dedupe/internal/api/dto"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/ledger"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{repo: repo, logger: logger}
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.JSON(status, err)
}

// WriteStorageError maps a repository or service error to a response.
// Unknown errors are logged and reported as internal errors.
func (b *Base) WriteStorageError(c *gin.Context, resource string, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError(resource))
	case errors.As(err, &verr):
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(verr.Error()))
	default:
		b.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(c *gin.Context, name string, defaultVal bool) bool {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// ParseTransactionFilters reads the listing filters shared by several endpoints.
// Dates accept RFC 3339 or YYYY-MM-DD; a bare "to" date includes the whole day.
func ParseTransactionFilters(c *gin.Context) (storage.TransactionFilters, error) {
	filters := storage.TransactionFilters{
		AccountID: c.Query("account_id"),
		Type:      c.Query("type"),
		Search:    c.Query("search"),
		Limit:     ParseIntParam(c, "limit", 50),
		Offset:    ParseIntParam(c, "offset", 0),
	}

	if filters.Type != "" {
		typ, err := ledger.ParseTransactionType(filters.Type)
		if err != nil {
			return filters, err
		}
		filters.Type = string(typ)
	}
	if filters.Limit < 1 || filters.Limit > 500 {
		return filters, errors.New("limit must be between 1 and 500")
	}
	if filters.Offset < 0 {
		return filters, errors.New("offset must not be negative")
	}

	var err error
	if from := c.Query("from"); from != "" {
		if filters.From, _, err = parseDateParam(from); err != nil {
			return filters, fmt.Errorf("invalid from: %w", err)
		}
	}
	if to := c.Query("to"); to != "" {
		var dateOnly bool
		if filters.To, dateOnly, err = parseDateParam(to); err != nil {
			return filters, fmt.Errorf("invalid to: %w", err)
		}
		if dateOnly {
			filters.To = filters.To.Add(24*time.Hour - time.Nanosecond)
		}
	}

	return filters, nil
}

func parseDateParam(val string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%q is not a date", val)
	}
	return t, true, nil
}
