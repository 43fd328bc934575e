// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"blogapi/internal/auth"
	"blogapi/internal/markdown"
	"blogapi/internal/models"
	"blogapi/internal/readtime"
	"blogapi/internal/slug"
	"blogapi/internal/store"
)

// viewTimeout bounds the detached view-count update.
const viewTimeout = 5 * time.Second

// PostStore is the post persistence the handlers need.
type PostStore interface {
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id int64, patch models.PostPatch) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

// TagStore upserts tags and links them to posts.
type TagStore interface {
	Upsert(ctx context.Context, name string) (*models.Tag, error)
	Link(ctx context.Context, postID, tagID int64) error
}

// AuthorResolver maps an authenticated email to an author ID.
type AuthorResolver interface {
	ResolveAuthor(ctx context.Context, email string) (*int64, error)
}

// Posts serves the public post endpoints and the admin post mutations.
type Posts struct {
	posts   PostStore
	tags    TagStore
	authors AuthorResolver

	// views tracks detached view-count updates still in flight.
	views sync.WaitGroup
}

// NewPosts creates the post handlers.
func NewPosts(posts PostStore, tags TagStore, authors AuthorResolver) *Posts {
	return &Posts{posts: posts, tags: tags, authors: authors}
}

// List returns published posts, newest first, narrowed by the optional
// search, category, and tag query parameters.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PostFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		Tag:      strings.TrimSpace(q.Get("tag")),
	}

	posts, err := h.posts.List(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetBySlug returns one published post with its tags and rendered HTML,
// and bumps its view count without waiting for the update.
func (h *Posts) GetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeStoreError(w, r, "get post", err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	h.countView(post.ID)
	renderContent(post)
	writeJSON(w, http.StatusOK, post)
}

// countView increments the view counter on a detached goroutine. The
// request context is not used: the update must outlive the response.
func (h *Posts) countView(id int64) {
	h.views.Add(1)
	go func() {
		defer h.views.Done()
		ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
		defer cancel()

		if err := h.posts.IncrementViews(ctx, id); err != nil {
			slog.Warn("view count update failed", "post_id", id, "error", err)
		}
	}()
}

// Wait blocks until every pending view-count update has finished.
func (h *Posts) Wait() {
	h.views.Wait()
}

// renderContent fills ContentHTML from the Markdown content.
func renderContent(post *models.Post) {
	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		slog.Warn("markdown render failed", "post_id", post.ID, "error", err)
		return
	}
	post.ContentHTML = html
}

type createPostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	CategoryID *int64   `json:"category_id"`
	Excerpt    *string  `json:"excerpt"`
	Status     string   `json:"status"`
	Featured   bool     `json:"featured"`
	Tags       []string `json:"tags"`
}

// Create inserts a post, derives its slug and reading time, and links the
// requested tags.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Content) == "" || req.CategoryID == nil || *req.CategoryID <= 0 {
		writeError(w, http.StatusBadRequest, "title, content, and category_id are required")
		return
	}
	if msg := validatePostFields(&title, &req.Content, req.Excerpt); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	status := models.PostStatusDraft
	if req.Status != "" {
		status = models.PostStatus(req.Status)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, invalidPostStatus())
			return
		}
	}

	postSlug := slug.Generate(title)
	if postSlug == "" {
		writeError(w, http.StatusBadRequest, "title must contain at least one letter or digit")
		return
	}

	tagNames, msg := normalizeTags(req.Tags)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	var email string
	if id := auth.IdentityFromCtx(ctx); id != nil {
		email = id.Email
	}
	authorID, err := h.authors.ResolveAuthor(ctx, email)
	if err != nil {
		writeStoreError(w, r, "resolve author", err)
		return
	}

	created, err := h.posts.Create(ctx, models.PostInput{
		Title:              title,
		Slug:               postSlug,
		Content:            req.Content,
		Excerpt:            req.Excerpt,
		Status:             status,
		Featured:           req.Featured,
		ReadingTimeMinutes: readtime.Minutes(req.Content),
		CategoryID:         *req.CategoryID,
		AuthorID:           authorID,
	})
	if err != nil {
		writeStoreError(w, r, "create post", err)
		return
	}

	// Tags are not transactional with the post; a failed tag is skipped.
	for _, name := range tagNames {
		tag, err := h.tags.Upsert(ctx, name)
		if err == nil {
			err = h.tags.Link(ctx, created.ID, tag.ID)
		}
		if err != nil {
			slog.Warn("tag post failed", "post_id", created.ID, "tag", name, "error", err)
		}
	}

	if len(tagNames) > 0 {
		full, err := h.posts.FindByID(ctx, created.ID)
		if err != nil {
			writeStoreError(w, r, "reload post", err)
			return
		}
		if full != nil {
			created = full
		}
	}

	writeJSON(w, http.StatusCreated, created)
}

type updatePostRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Excerpt    *string `json:"excerpt"`
	CategoryID *int64  `json:"category_id"`
	Status     *string `json:"status"`
	Featured   *bool   `json:"featured"`
}

// Update applies a partial update. Only supplied fields are written; the
// slug never changes.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req updatePostRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	patch := models.PostPatch{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CategoryID: req.CategoryID,
		Featured:   req.Featured,
	}
	if req.Status != nil {
		s := models.PostStatus(*req.Status)
		patch.Status = &s
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		patch.Title = &t
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			writeError(w, http.StatusBadRequest, "content cannot be empty")
			return
		}
		minutes := readtime.Minutes(*patch.Content)
		patch.ReadingTimeMinutes = &minutes
	}
	if patch.CategoryID != nil && *patch.CategoryID <= 0 {
		writeError(w, http.StatusBadRequest, "category_id must be a positive integer")
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, invalidPostStatus())
		return
	}
	if msg := validatePostFields(patch.Title, patch.Content, patch.Excerpt); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.posts.Update(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		writeStoreError(w, r, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete hard-deletes a post. Its comments and tag links go with it.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	err := h.posts.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		writeStoreError(w, r, "delete post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
