package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pesatrack/pesatrack/internal/domain/category/repository"
)

type stubRepo struct {
	categories []*repository.Category
	err        error
}

func (s *stubRepo) ListCategories(context.Context) ([]*repository.Category, error) {
	return s.categories, s.err
}

func (s *stubRepo) GetCategoryByName(_ context.Context, name string) (*repository.Category, error) {
	for _, c := range s.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, s.err
}

func TestListOK(t *testing.T) {
	h := NewCategoryHandler(&stubRepo{categories: []*repository.Category{
		{ID: "1", Name: "Income", Icon: "attach_money", Color: "#06D6A0", IsDefault: true},
		{ID: "2", Name: "Other", Icon: "category", Color: "#ADB5BD", IsDefault: true},
	}}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Categories []repository.Category `json:"categories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(resp.Categories))
	}
	if resp.Categories[0].Name != "Income" {
		t.Errorf("first category = %q", resp.Categories[0].Name)
	}
}

func TestListEmpty(t *testing.T) {
	h := NewCategoryHandler(&stubRepo{}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Categories []repository.Category `json:"categories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Categories == nil {
		t.Error("categories serialized as null, want empty array")
	}
}

func TestListRepositoryError(t *testing.T) {
	h := NewCategoryHandler(&stubRepo{err: errors.New("connection refused")}, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
