// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusFlagged  CommentStatus = "flagged"
	CommentStatusDeleted  CommentStatus = "deleted"
)

// CommentStatuses lists every accepted status in display order.
var CommentStatuses = []CommentStatus{
	CommentStatusPending,
	CommentStatusApproved,
	CommentStatusFlagged,
	CommentStatusDeleted,
}

// Valid reports whether s is one of CommentStatuses.
func (s CommentStatus) Valid() bool {
	for _, v := range CommentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Comment is a reader comment on a post. Sentiment fields are written by an
// external classifier and are read-only here.
type Comment struct {
	ID             int64               `json:"id"`
	PostID         int64               `json:"post_id"`
	AuthorName     string              `json:"author_name"`
	AuthorEmail    *string             `json:"author_email"`
	Content        string              `json:"content"`
	Status         CommentStatus       `json:"status"`
	SentimentLabel *string             `json:"sentiment_label"`
	SentimentScore decimal.NullDecimal `json:"sentiment_score"`
	CreatedAt      time.Time           `json:"created_at"`

	// Joined on admin listings.
	PostTitle string `json:"post_title,omitempty"`
}

// Receipt returns the public view of a freshly created comment.
func (c *Comment) Receipt() CommentReceipt {
	return CommentReceipt{
		ID:         c.ID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
	}
}

// CommentReceipt is returned to anonymous commenters: id, author name,
// content, status, and creation time. It never carries the author's email.
type CommentReceipt struct {
	ID         int64         `json:"id"`
	AuthorName string        `json:"author_name"`
	Content    string        `json:"content"`
	Status     CommentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// PublicComment is an approved comment as listed under a post.
type PublicComment struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
