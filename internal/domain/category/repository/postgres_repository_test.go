package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newTestRepo(t *testing.T) (*PostgresCategoryRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mockPool.Close)
	return NewPostgresCategoryRepository(mockPool), mockPool
}

func TestListCategories(t *testing.T) {
	repo, mockPool := newTestRepo(t)

	rows := pgxmock.NewRows([]string{"id", "name", "icon", "color", "is_default"}).
		AddRow("11111111-1111-1111-1111-111111111111", "Airtime & Data", "phone_android", "#85C1E9", true).
		AddRow("22222222-2222-2222-2222-222222222222", "Food & Dining", "restaurant", "#FF6B6B", true)
	mockPool.ExpectQuery(regexp.QuoteMeta(listCategoriesQuery)).WillReturnRows(rows)

	categories, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(categories))
	}
	if categories[0].Name != "Airtime & Data" {
		t.Errorf("first category = %q", categories[0].Name)
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListCategoriesQueryError(t *testing.T) {
	repo, mockPool := newTestRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(listCategoriesQuery)).
		WillReturnError(errors.New("connection refused"))

	if _, err := repo.ListCategories(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetCategoryByName(t *testing.T) {
	repo, mockPool := newTestRepo(t)

	rows := pgxmock.NewRows([]string{"id", "name", "icon", "color", "is_default"}).
		AddRow("33333333-3333-3333-3333-333333333333", "Shopping", "shopping_cart", "#45B7D1", true)
	mockPool.ExpectQuery(regexp.QuoteMeta(getCategoryByNameQuery)).
		WithArgs("Shopping").
		WillReturnRows(rows)

	c, err := repo.GetCategoryByName(context.Background(), "Shopping")
	if err != nil {
		t.Fatalf("GetCategoryByName() error = %v", err)
	}
	if c == nil || c.Icon != "shopping_cart" {
		t.Errorf("category = %+v", c)
	}
}

func TestGetCategoryByNameNotFound(t *testing.T) {
	repo, mockPool := newTestRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(getCategoryByNameQuery)).
		WithArgs("Nope").
		WillReturnError(pgx.ErrNoRows)

	c, err := repo.GetCategoryByName(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("GetCategoryByName() error = %v", err)
	}
	if c != nil {
		t.Errorf("category = %+v, want nil", c)
	}
}
