// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogapi/internal/auth"
	"blogapi/internal/models"
	"blogapi/internal/storage"
	"blogapi/internal/store"
)

const (
	// maxUploadSize is the maximum allowed file upload size (10 MB).
	maxUploadSize = 10 << 20

	defaultMediaPage = 50
	maxMediaPage     = 200
)

// allowedMediaTypes defines the image MIME types accepted for upload.
var allowedMediaTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore is the bucket the media handlers upload into.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	Bucket() string
}

// MediaStore is the media metadata persistence the handlers need.
type MediaStore interface {
	Create(ctx context.Context, m *models.Media) (*models.Media, error)
	List(ctx context.Context, limit, offset int) ([]models.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Media serves image uploads for post content.
type Media struct {
	media   MediaStore
	objects ObjectStore
	now     func() time.Time
}

// NewMedia creates the media handlers. A nil objects store disables
// uploads and every media route answers 503.
func NewMedia(media MediaStore, objects ObjectStore) *Media {
	return &Media{media: media, objects: objects, now: time.Now}
}

func (h *Media) available(w http.ResponseWriter) bool {
	if h.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return false
	}
	return true
}

// List returns uploads newest first, paged by limit and offset.
func (h *Media) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	limit, offset := defaultMediaPage, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxMediaPage {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxMediaPage))
			return
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	items, err := h.media.List(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, r, "list media", err)
		return
	}
	for i := range items {
		items[i].URL = h.objects.FileURL(items[i].S3Key)
	}
	writeJSON(w, http.StatusOK, items)
}

// Upload accepts a multipart "file" field, stores the image in the bucket,
// and records its metadata.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	// Trust the bytes, not the client's Content-Type.
	contentType := http.DetectContentType(data)
	defaultExt, ok := allowedMediaTypes[contentType]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File type %q is not allowed", contentType))
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != defaultExt && !(ext == ".jpeg" && contentType == "image/jpeg") {
		ext = defaultExt
	}

	id := uuid.New()
	key := storage.ObjectKey(h.now(), id.String(), ext)

	ctx := r.Context()
	if err := h.objects.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	var uploader string
	if ident := auth.IdentityFromCtx(ctx); ident != nil {
		uploader = ident.Email
		if uploader == "" {
			uploader = ident.Subject
		}
	}

	created, err := h.media.Create(ctx, &models.Media{
		ID:           id,
		Filename:     id.String() + ext,
		OriginalName: filepath.Base(header.Filename),
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		Bucket:       h.objects.Bucket(),
		S3Key:        key,
		UploadedBy:   uploader,
	})
	if err != nil {
		// Remove the orphaned object so the bucket matches the table.
		if derr := h.objects.Delete(context.WithoutCancel(ctx), key); derr != nil {
			slog.Warn("s3 cleanup failed", "error", derr, "key", key)
		}
		writeStoreError(w, r, "create media", err)
		return
	}

	created.URL = h.objects.FileURL(created.S3Key)
	slog.Info("media uploaded", "key", created.S3Key, "size", created.HumanSize(), "uploaded_by", created.UploadedBy)
	writeJSON(w, http.StatusCreated, created)
}

// Delete removes an upload from the bucket and then its metadata row.
func (h *Media) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	ctx := r.Context()
	m, err := h.media.FindByID(ctx, id)
	if err != nil {
		writeStoreError(w, r, "find media", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Media not found")
		return
	}

	if err := h.objects.Delete(ctx, m.S3Key); err != nil {
		slog.Error("s3 delete failed", "error", err, "key", m.S3Key)
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	if err := h.media.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Media not found")
			return
		}
		writeStoreError(w, r, "delete media", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Media deleted"})
}
