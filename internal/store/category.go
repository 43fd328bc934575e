// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"blogapi/internal/database"
	"blogapi/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db database.Querier
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db database.Querier) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories alphabetically, each with the live count of
// its published posts.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at,
		       COUNT(p.id) AS post_count
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id AND p.status = 'published'
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, wrap("list categories", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.PostCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list categories", err)
	}
	return items, nil
}

// Create inserts a new category. Returns ErrConflict if the slug is taken.
func (s *CategoryStore) Create(ctx context.Context, name, slug string, description *string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, description, created_at
	`, name, slug, description).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, wrap("create category", err)
	}
	return &c, nil
}
