// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/store"
)

// CommentStore is the comment persistence the handlers need.
type CommentStore interface {
	ListApproved(ctx context.Context, postID int64) ([]models.PublicComment, error)
	Create(ctx context.Context, postID int64, authorName string, authorEmail *string, content string) (*models.Comment, error)
	UpdateStatus(ctx context.Context, id int64, status models.CommentStatus) (*models.Comment, error)
	ListAll(ctx context.Context, status models.CommentStatus) ([]models.Comment, error)
}

// PostChecker reports whether a post exists.
type PostChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Comments serves the public comment endpoints and moderation.
type Comments struct {
	comments CommentStore
	posts    PostChecker
}

// NewComments creates the comment handlers.
func NewComments(comments CommentStore, posts PostChecker) *Comments {
	return &Comments{comments: comments, posts: posts}
}

// List returns the approved comments of a post, oldest first.
func (h *Comments) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseID(w, r, "postId")
	if !ok {
		return
	}
	items, err := h.comments.ListApproved(r.Context(), postID)
	if err != nil {
		writeStoreError(w, r, "list comments", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createCommentRequest struct {
	AuthorName  string  `json:"author_name"`
	AuthorEmail *string `json:"author_email"`
	Content     string  `json:"content"`
}

// Create stores a new comment as pending. Any status in the payload is
// ignored and the email is never echoed back.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseID(w, r, "postId")
	if !ok {
		return
	}

	var req createCommentRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	authorName := strings.TrimSpace(req.AuthorName)
	content := strings.TrimSpace(req.Content)
	if authorName == "" || content == "" {
		writeError(w, http.StatusBadRequest, "author_name and content are required")
		return
	}
	email := req.AuthorEmail
	if email != nil {
		if e := strings.TrimSpace(*email); e == "" {
			email = nil
		} else {
			email = &e
		}
	}
	if msg := validateComment(authorName, content, email); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	exists, err := h.posts.Exists(ctx, postID)
	if err != nil {
		writeStoreError(w, r, "check post", err)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	created, err := h.comments.Create(ctx, postID, authorName, email, content)
	if errors.Is(err, store.ErrInvalidReference) {
		// The post was deleted between the check and the insert.
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		writeStoreError(w, r, "create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, created.Receipt())
}

type commentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moderates a comment and returns the full row.
func (h *Comments) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req commentStatusRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	status := models.CommentStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, invalidCommentStatus())
		return
	}

	updated, err := h.comments.UpdateStatus(r.Context(), id, status)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if err != nil {
		writeStoreError(w, r, "update comment status", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
