// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and the JSON shapes returned by the API.
package models

import "time"

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Valid reports whether s is one of the known post statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post is a blog article. CategoryName, CategorySlug, and AuthorName are
// filled by joined reads; ContentHTML only on single-post reads.
type Post struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Content            string     `json:"content"`
	Excerpt            *string    `json:"excerpt"`
	Status             PostStatus `json:"status"`
	Featured           bool       `json:"featured"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	ViewCount          int64      `json:"view_count"`
	CategoryID         *int64     `json:"category_id"`
	AuthorID           *int64     `json:"author_id"`
	PublishedAt        *time.Time `json:"published_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	CategoryName string   `json:"category_name,omitempty"`
	CategorySlug string   `json:"category_slug,omitempty"`
	AuthorName   string   `json:"author_name,omitempty"`
	Tags         []TagRef `json:"tags"`
	ContentHTML  string   `json:"content_html,omitempty"`
}

// PostInput carries the validated fields of a create request.
type PostInput struct {
	Title              string
	Slug               string
	Content            string
	Excerpt            *string
	Status             PostStatus
	Featured           bool
	ReadingTimeMinutes int
	CategoryID         int64
	AuthorID           *int64
}

// PostPatch carries the fields of a partial update. Nil means "leave as is".
type PostPatch struct {
	Title              *string
	Content            *string
	Excerpt            *string
	CategoryID         *int64
	Status             *PostStatus
	Featured           *bool
	ReadingTimeMinutes *int
}

// Empty reports whether the patch touches no column.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		p.CategoryID == nil && p.Status == nil && p.Featured == nil
}

// PostFilter narrows public post listings. Zero values impose no constraint.
type PostFilter struct {
	Search   string
	Category string
	Tag      string
}
