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
	"blogapi/internal/slug"
	"blogapi/internal/store"
)

// CategoryStore is the category persistence the handlers need.
type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, name, slug string, description *string) (*models.Category, error)
}

// Categories serves the category endpoints.
type Categories struct {
	categories CategoryStore
}

// NewCategories creates the category handlers.
func NewCategories(categories CategoryStore) *Categories {
	return &Categories{categories: categories}
}

// List returns every category with its published-post count, by name.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context())
	if err != nil {
		writeStoreError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Create inserts a category with a slug derived from its name.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if msg := validateCategory(name, req.Description); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	categorySlug := slug.Generate(name)
	if categorySlug == "" {
		writeError(w, http.StatusBadRequest, "name must contain at least one letter or digit")
		return
	}

	created, err := h.categories.Create(r.Context(), name, categorySlug, req.Description)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "A category with this slug already exists")
		return
	}
	if err != nil {
		writeStoreError(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
