// Package repository provides read access to the category catalog. The SMS
// pipeline only supplies category names; it never invents new categories.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Category is display metadata for one category.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

// CategoryRepository is the category collaborator interface.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
}
