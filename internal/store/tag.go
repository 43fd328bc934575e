// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"blogapi/internal/database"
	"blogapi/internal/models"
	"blogapi/internal/slug"
)

// TagStore manages tags and their links to posts.
type TagStore struct {
	db database.Querier
}

// NewTagStore returns a new TagStore.
func NewTagStore(db database.Querier) *TagStore {
	return &TagStore{db: db}
}

// Upsert inserts a manual tag by name, or refreshes the name of the tag
// that already owns the derived slug. Returns the stored tag.
func (s *TagStore) Upsert(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRow(ctx, `
		INSERT INTO tags (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug, source
	`, name, slug.Generate(name)).Scan(&t.ID, &t.Name, &t.Slug, &t.Source)
	if err != nil {
		return nil, wrap(fmt.Sprintf("upsert tag %q", name), err)
	}
	return &t, nil
}

// Link attaches a tag to a post. An existing link is left untouched.
func (s *TagStore) Link(ctx context.Context, postID, tagID int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, postID, tagID)
	if err != nil {
		return wrap("link tag", err)
	}
	return nil
}

// ListForPost returns a post's tags with their source and link confidence,
// ordered by name. Never returns a nil slice.
func (s *TagStore) ListForPost(ctx context.Context, postID int64) ([]models.TagRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.name, t.slug, t.source, pt.confidence
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = $1
		ORDER BY t.name
	`, postID)
	if err != nil {
		return nil, wrap("list post tags", err)
	}
	defer rows.Close()

	tags := []models.TagRef{}
	for rows.Next() {
		var t models.TagRef
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Source, &t.Confidence); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list post tags", err)
	}
	return tags, nil
}
