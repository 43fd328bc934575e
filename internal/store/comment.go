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

// CommentStore handles all comment-related database operations.
type CommentStore struct {
	db database.Querier
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db database.Querier) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumns = `id, post_id, author_name, author_email, content, status,
	sentiment_label, sentiment_score, created_at`

// scanComment scans commentColumns, followed by the post title when
// withTitle is set.
func scanComment(row scanner, withTitle bool) (*models.Comment, error) {
	var c models.Comment
	dest := []any{
		&c.ID, &c.PostID, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.Status,
		&c.SentimentLabel, &c.SentimentScore, &c.CreatedAt,
	}
	if withTitle {
		dest = append(dest, &c.PostTitle)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListApproved returns a post's approved comments, oldest first.
func (s *CommentStore) ListApproved(ctx context.Context, postID int64) ([]models.PublicComment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, author_name, content, created_at
		FROM comments
		WHERE post_id = $1 AND status = 'approved'
		ORDER BY created_at ASC, id ASC
	`, postID)
	if err != nil {
		return nil, wrap("list approved comments", err)
	}
	defer rows.Close()

	items := []models.PublicComment{}
	for rows.Next() {
		var c models.PublicComment
		if err := rows.Scan(&c.ID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list approved comments", err)
	}
	return items, nil
}

// Create inserts a comment. The status is always pending; moderation is
// the only way to change it.
func (s *CommentStore) Create(ctx context.Context, postID int64, authorName string, authorEmail *string, content string) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(ctx, `
		INSERT INTO comments (post_id, author_name, author_email, content, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING `+commentColumns,
		postID, authorName, authorEmail, content,
	), false)
	if err != nil {
		return nil, wrap("create comment", err)
	}
	return c, nil
}

// UpdateStatus sets a comment's moderation status and returns the full row.
// Returns ErrNotFound when no comment has the given ID.
func (s *CommentStore) UpdateStatus(ctx context.Context, id int64, status models.CommentStatus) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(ctx, `
		UPDATE comments SET status = $1 WHERE id = $2
		RETURNING `+commentColumns,
		status, id,
	), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("update comment status", err)
	}
	return c, nil
}

// ListAll returns comments of any status, newest first, with the title of
// the post they belong to. A non-empty status narrows the list.
func (s *CommentStore) ListAll(ctx context.Context, status models.CommentStatus) ([]models.Comment, error) {
	where := sqlbuild.NewWhere()
	if status != "" {
		where.Add(sqlbuild.Eq("c.status", status))
	}
	clause, args, err := where.Build()
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.queryWithTitle(ctx, "list comments", `
		SELECT c.id, c.post_id, c.author_name, c.author_email, c.content, c.status,
		       c.sentiment_label, c.sentiment_score, c.created_at, p.title
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		`+clause+`
		ORDER BY c.created_at DESC, c.id DESC`, args...)
}

// Recent returns the newest comments of any status.
func (s *CommentStore) Recent(ctx context.Context, limit int) ([]models.Comment, error) {
	return s.queryWithTitle(ctx, "recent comments", `
		SELECT c.id, c.post_id, c.author_name, c.author_email, c.content, c.status,
		       c.sentiment_label, c.sentiment_score, c.created_at, p.title
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $1`, limit)
}

func (s *CommentStore) queryWithTitle(ctx context.Context, op, sql string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	items := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return items, nil
}
