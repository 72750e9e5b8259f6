package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks malformed requests (unparseable body or path).
var errBadRequest = errors.New("bad request")

// writeError maps a domain error to its HTTP status. Validation and
// rejected deposits surface their message; store failures stay opaque.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

var validationErrors = []error{
	core.ErrInvalidKind,
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrInvalidDate,
	core.ErrInvalidStatus,
	core.ErrInvalidRecurrence,
	core.ErrInvalidInstallment,
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrInvalidTarget,
	core.ErrInvalidDeadline,
	core.ErrEmptyProduct,
	core.ErrEmptyClass,
	core.ErrInvalidQuantity,
	core.ErrInvalidAvgCost,
	core.ErrDepositInvalid,
	core.ErrDepositBelowMinimum,
	core.ErrDepositExceedsRemaining,
}

func isValidationError(err error) bool {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parsePathID extracts the {id} path segment as an int64.
func parsePathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

// parseYearMonth extracts optional year and month query parameters.
// Both are 0 when absent or malformed; a month outside 1..12 counts as
// absent.
func parseYearMonth(r *http.Request) (year, month int) {
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
