// Package handler serves the read-only category catalog.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pesatrack/pesatrack/internal/domain/category/repository"
)

// CategoryHandler serves category display metadata.
type CategoryHandler struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

// NewCategoryHandler constructs a new handler.
func NewCategoryHandler(repo repository.CategoryRepository, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{repo: repo, logger: logger}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "categories unavailable"})
		return
	}
	if categories == nil {
		categories = []*repository.Category{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"categories": categories})
}
