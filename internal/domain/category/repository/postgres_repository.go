package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	listCategoriesQuery = `
		SELECT id, name, icon, color, is_default
		FROM categories
		ORDER BY name
	`

	getCategoryByNameQuery = `
		SELECT id, name, icon, color, is_default
		FROM categories
		WHERE name = $1
	`
)

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL.
type PostgresCategoryRepository struct {
	db DB
}

// NewPostgresCategoryRepository creates a PostgreSQL-backed category repository.
func NewPostgresCategoryRepository(db DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

// ListCategories returns all categories ordered by name.
func (r *PostgresCategoryRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// GetCategoryByName looks up one category's display metadata.
func (r *PostgresCategoryRepository) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, getCategoryByNameQuery, name).Scan(
		&c.ID, &c.Name, &c.Icon, &c.Color, &c.IsDefault,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}
