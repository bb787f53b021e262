// Package handler implements the JSON HTTP endpoints of the SMS pipeline.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
	"github.com/pesatrack/pesatrack/pkg/middleware"
)

// SMSService is the pipeline surface consumed by the handler.
type SMSService interface {
	ParseBatch(ctx context.Context, text string) []sms.MessageResult
	Import(ctx context.Context, userID uuid.UUID, messages []string, opts sms.ImportOptions) (*sms.ImportResult, error)
}

// SMSHandler serves the parse and import endpoints.
type SMSHandler struct {
	svc    SMSService
	logger *slog.Logger
}

// NewSMSHandler constructs a new handler.
func NewSMSHandler(svc SMSService, logger *slog.Logger) *SMSHandler {
	return &SMSHandler{svc: svc, logger: logger}
}

type parseRequest struct {
	Text         string `json:"text"`
	FallbackDate string `json:"fallbackDate"`
}

type parseResponse struct {
	Results []sms.MessageResult `json:"results"`
}

type importRequest struct {
	Messages        []string `json:"messages"`
	AutoCategorize  bool     `json:"autoCategorize"`
	RequireReview   bool     `json:"requireReview"`
	TransactionDate string   `json:"transactionDate"`
}

// ParseBatch handles POST /api/sms/parse.
func (h *SMSHandler) ParseBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var fallback time.Time
	if req.FallbackDate != "" {
		var err error
		if fallback, err = parseISODate(req.FallbackDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid fallbackDate, expected ISO-8601")
			return
		}
	}

	results := h.svc.ParseBatch(r.Context(), req.Text)

	// The fallback date is preview-only here: it fills dateless records the
	// same way a later import with the same date would.
	if !fallback.IsZero() {
		for i := range results {
			if results[i].Fields != nil && results[i].Fields.TransactionDate.IsZero() {
				results[i].Fields.TransactionDate = fallback
			}
		}
	}

	writeJSON(w, http.StatusOK, parseResponse{Results: results})
}

// Import handles POST /api/sms/import.
func (h *SMSHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}

	opts := sms.ImportOptions{
		AutoCategorize: req.AutoCategorize,
		RequireReview:  req.RequireReview,
	}
	if req.TransactionDate != "" {
		fallback, err := parseISODate(req.TransactionDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transactionDate, expected ISO-8601")
			return
		}
		opts.FallbackDate = fallback
	}

	result, err := h.svc.Import(r.Context(), userID, req.Messages, opts)
	if err != nil {
		if errors.Is(err, sms.ErrLedgerUnavailable) {
			h.logger.Error("import failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Error("import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseISODate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
