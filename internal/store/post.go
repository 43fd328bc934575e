// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"blogapi/internal/database"
	"blogapi/internal/models"
	"blogapi/internal/sqlbuild"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db   database.Querier
	tags *TagStore
}

// NewPostStore creates a new PostStore with the given database handle.
func NewPostStore(db database.Querier) *PostStore {
	return &PostStore{db: db, tags: NewTagStore(db)}
}

// postColumns lists the posts table columns in scanPost order.
const postColumns = `id, title, slug, content, excerpt, status, featured,
	reading_time_minutes, view_count, category_id, author_id,
	published_at, created_at, updated_at`

// joinedPostSelect selects a post with its category and author names and
// an aggregated tag array. Callers append WHERE, GROUP BY, and ORDER BY.
const joinedPostSelect = `
	SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.status, p.featured,
	       p.reading_time_minutes, p.view_count, p.category_id, p.author_id,
	       p.published_at, p.created_at, p.updated_at,
	       COALESCE(c.name, ''), COALESCE(c.slug, ''), COALESCE(u.display_name, ''),
	       COALESCE(
	           json_agg(json_build_object(
	               'id', t.id, 'name', t.name, 'slug', t.slug,
	               'source', t.source, 'confidence', pt.confidence
	           ) ORDER BY t.name) FILTER (WHERE t.id IS NOT NULL),
	           '[]'::json
	       ) AS tags
	FROM posts p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN users u ON u.id = p.author_id
	LEFT JOIN post_tags pt ON pt.post_id = p.id
	LEFT JOIN tags t ON t.id = pt.tag_id`

const joinedPostGroupBy = ` GROUP BY p.id, c.name, c.slug, u.display_name`

// tagExistsSubquery matches posts carrying the tag whose slug is bound.
const tagExistsSubquery = `SELECT 1 FROM post_tags fpt JOIN tags ft ON ft.id = fpt.tag_id
	WHERE fpt.post_id = p.id AND ft.slug = ?`

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status, &p.Featured,
		&p.ReadingTimeMinutes, &p.ViewCount, &p.CategoryID, &p.AuthorID,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = []models.TagRef{}
	return &p, nil
}

func scanJoinedPost(row scanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status, &p.Featured,
		&p.ReadingTimeMinutes, &p.ViewCount, &p.CategoryID, &p.AuthorID,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.CategoryName, &p.CategorySlug, &p.AuthorName, &p.Tags,
	)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []models.TagRef{}
	}
	return &p, nil
}

// List returns published posts matching filter, newest first. Each post
// carries its tags; the slice is empty, never nil, when nothing matches.
func (s *PostStore) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	where := sqlbuild.NewWhere().Add(sqlbuild.Eq("p.status", models.PostStatusPublished))
	if filter.Search != "" {
		where.Add(sqlbuild.Contains(filter.Search, "p.title", "p.excerpt"))
	}
	if filter.Category != "" {
		where.Add(sqlbuild.Eq("c.slug", filter.Category))
	}
	if filter.Tag != "" {
		where.Add(sqlbuild.Exists(tagExistsSubquery, filter.Tag))
	}

	clause, args, err := where.Build()
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.queryJoined(ctx, "list posts",
		joinedPostSelect+" "+clause+joinedPostGroupBy+" ORDER BY p.published_at DESC NULLS LAST, p.id DESC",
		args...)
}

// ListAll returns every post regardless of status, most recently created
// first. Used by the admin UI.
func (s *PostStore) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.queryJoined(ctx, "list all posts",
		joinedPostSelect+joinedPostGroupBy+" ORDER BY p.created_at DESC, p.id DESC")
}

// Recent returns the newest posts of any status.
func (s *PostStore) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	return s.queryJoined(ctx, "recent posts",
		joinedPostSelect+joinedPostGroupBy+" ORDER BY p.created_at DESC, p.id DESC LIMIT $1", limit)
}

func (s *PostStore) queryJoined(ctx context.Context, op, sql string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanJoinedPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return items, nil
}

// FindBySlug retrieves a published post by slug with its category, author,
// and tags. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug", "WHERE p.slug = $1 AND p.status = 'published'", slug)
}

// FindByID retrieves a post of any status by ID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	return s.findOne(ctx, "find post by id", "WHERE p.id = $1", id)
}

func (s *PostStore) findOne(ctx context.Context, op, where string, arg any) (*models.Post, error) {
	p, err := scanJoinedPost(s.db.QueryRow(ctx, joinedPostSelect+" "+where+joinedPostGroupBy, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}

	tags, err := s.tags.ListForPost(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Tags = tags
	return p, nil
}

// Exists reports whether a post with the given ID exists, in any status.
func (s *PostStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, wrap("check post exists", err)
	}
	return exists, nil
}

// Create inserts a new post and returns the stored row. published_at is
// stamped only when the post is created as published.
func (s *PostStore) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `
		INSERT INTO posts (title, slug, content, excerpt, status, featured,
		                   reading_time_minutes, category_id, author_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
		        CASE WHEN $5 = 'published' THEN NOW() END)
		RETURNING `+postColumns,
		in.Title, in.Slug, in.Content, in.Excerpt, in.Status, in.Featured,
		in.ReadingTimeMinutes, in.CategoryID, in.AuthorID,
	))
	if err != nil {
		return nil, wrap("create post", err)
	}
	return p, nil
}

// Update applies a partial update and returns the stored row. Only the
// columns present in patch are written. A transition to published sets
// published_at if and only if it was null. Returns ErrNotFound when no
// post has the given ID.
func (s *PostStore) Update(ctx context.Context, id int64, patch models.PostPatch) (*models.Post, error) {
	set := sqlbuild.NewSet()
	if patch.Title != nil {
		set.Add("title", *patch.Title)
	}
	if patch.Content != nil {
		set.Add("content", *patch.Content)
	}
	if patch.ReadingTimeMinutes != nil {
		set.Add("reading_time_minutes", *patch.ReadingTimeMinutes)
	}
	if patch.Excerpt != nil {
		set.Add("excerpt", *patch.Excerpt)
	}
	if patch.CategoryID != nil {
		set.Add("category_id", *patch.CategoryID)
	}
	if patch.Status != nil {
		set.Add("status", *patch.Status)
		if *patch.Status == models.PostStatusPublished {
			set.Raw("published_at = COALESCE(published_at, NOW())")
		}
	}
	if patch.Featured != nil {
		set.Add("featured", *patch.Featured)
	}
	if set.Empty() {
		return nil, fmt.Errorf("update post: no fields to update")
	}
	set.Raw("updated_at = NOW()")

	idParam := set.Bind(id)
	assignments, args := set.Build()

	p, err := scanPost(s.db.QueryRow(ctx,
		"UPDATE posts "+assignments+" WHERE id = "+idParam+" RETURNING "+postColumns,
		args...,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("update post", err)
	}
	return p, nil
}

// Delete removes a post. Its comments and tag links cascade; tags and
// categories stay. Returns ErrNotFound when nothing was deleted.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return wrap("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps a post's view counter by one.
func (s *PostStore) IncrementViews(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return wrap("increment post views", err)
	}
	return nil
}
