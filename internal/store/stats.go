// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"blogapi/internal/database"
	"blogapi/internal/models"
)

// RecentLimit is how many recent posts and comments Stats returns.
const RecentLimit = 5

// StatsStore computes the admin dashboard aggregate.
type StatsStore struct {
	db       database.Querier
	posts    *PostStore
	comments *CommentStore
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(db database.Querier) *StatsStore {
	return &StatsStore{db: db, posts: NewPostStore(db), comments: NewCommentStore(db)}
}

// Collect runs the five dashboard queries concurrently. The first failure
// cancels the rest and fails the whole call.
func (s *StatsStore) Collect(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.countByStatus(gctx, "posts", []string{
			string(models.PostStatusDraft), string(models.PostStatusPublished), string(models.PostStatusArchived),
		})
		stats.Posts = counts
		return err
	})
	g.Go(func() error {
		statuses := make([]string, len(models.CommentStatuses))
		for i, st := range models.CommentStatuses {
			statuses[i] = string(st)
		}
		counts, err := s.countByStatus(gctx, "comments", statuses)
		stats.Comments = counts
		return err
	})
	g.Go(func() error {
		err := s.db.QueryRow(gctx, `SELECT COALESCE(SUM(view_count), 0)::bigint FROM posts`).Scan(&stats.TotalViews)
		if err != nil {
			return wrap("sum views", err)
		}
		return nil
	})
	g.Go(func() error {
		posts, err := s.posts.Recent(gctx, RecentLimit)
		stats.RecentPosts = posts
		return err
	})
	g.Go(func() error {
		comments, err := s.comments.Recent(gctx, RecentLimit)
		stats.RecentComments = comments
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// countByStatus groups a table by its status column. Every known status
// is present in the result, plus "total".
func (s *StatsStore) countByStatus(ctx context.Context, table string, known []string) (models.StatusCounts, error) {
	op := fmt.Sprintf("count %s by status", table)
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM `+table+` GROUP BY status`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	counts := models.StatusCounts{"total": 0}
	for _, st := range known {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", table, err)
		}
		counts[status] = n
		counts["total"] += n
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return counts, nil
}
