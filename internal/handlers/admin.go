// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"blogapi/internal/models"
)

// StatsCollector gathers the dashboard aggregates.
type StatsCollector interface {
	Collect(ctx context.Context) (*models.Stats, error)
}

// Admin serves the management views. Every route is behind the auth gate.
type Admin struct {
	stats    StatsCollector
	posts    PostStore
	comments CommentStore
}

// NewAdmin creates the admin handlers.
func NewAdmin(stats StatsCollector, posts PostStore, comments CommentStore) *Admin {
	return &Admin{stats: stats, posts: posts, comments: comments}
}

// Stats returns post and comment counts by status, total views, and the
// most recent posts and comments. Any failed query fails the request.
func (a *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.stats.Collect(r.Context())
	if err != nil {
		writeStoreError(w, r, "collect stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListPosts returns every post regardless of status.
func (a *Admin) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.ListAll(r.Context())
	if err != nil {
		writeStoreError(w, r, "list all posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost returns one post of any status with its tags. The view count
// is left alone.
func (a *Admin) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	post, err := a.posts.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "get post", err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	renderContent(post)
	writeJSON(w, http.StatusOK, post)
}

// ListComments returns comments of any status, optionally narrowed by
// the status query parameter.
func (a *Admin) ListComments(w http.ResponseWriter, r *http.Request) {
	status := models.CommentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, invalidCommentStatus())
		return
	}
	items, err := a.comments.ListAll(r.Context(), status)
	if err != nil {
		writeStoreError(w, r, "list all comments", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
