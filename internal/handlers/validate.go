// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"blogapi/internal/models"
)

// Validation limits for request fields.
const (
	maxTitleLen        = 300
	maxBodyLen         = 100_000
	maxExcerptLen      = 1_000
	maxTagLen          = 50
	maxTags            = 20
	maxCategoryNameLen = 100
	maxDescriptionLen  = 1_000
	maxAuthorNameLen   = 100
	maxCommentLen      = 5_000
)

var (
	postStatusList    = joinStatuses(models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived)
	commentStatusList = joinStatuses(models.CommentStatuses...)
)

func joinStatuses[S ~string](statuses ...S) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// invalidPostStatus is the message for an unknown post status.
func invalidPostStatus() string {
	return "status must be one of: " + postStatusList
}

// invalidCommentStatus is the message for an unknown comment status.
func invalidCommentStatus() string {
	return "status must be one of: " + commentStatusList
}

// tooLong reports whether s exceeds max characters.
func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// validatePostFields checks the length limits of post text fields. Nil
// pointers are skipped.
func validatePostFields(title, content, excerpt *string) string {
	if title != nil && tooLong(*title, maxTitleLen) {
		return fmt.Sprintf("title is too long (max %d characters)", maxTitleLen)
	}
	if content != nil && tooLong(*content, maxBodyLen) {
		return "content is too long (max 100,000 characters)"
	}
	if excerpt != nil && tooLong(*excerpt, maxExcerptLen) {
		return "excerpt is too long (max 1,000 characters)"
	}
	return ""
}

// normalizeTags trims tag names, drops blanks, and rejects oversized input.
func normalizeTags(names []string) ([]string, string) {
	if len(names) > maxTags {
		return nil, fmt.Sprintf("at most %d tags are allowed", maxTags)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if tooLong(n, maxTagLen) {
			return nil, fmt.Sprintf("tag %q is too long (max %d characters)", n, maxTagLen)
		}
		out = append(out, n)
	}
	return out, ""
}

// validateCategory checks category inputs.
func validateCategory(name string, description *string) string {
	if tooLong(name, maxCategoryNameLen) {
		return fmt.Sprintf("name is too long (max %d characters)", maxCategoryNameLen)
	}
	if description != nil && tooLong(*description, maxDescriptionLen) {
		return "description is too long (max 1,000 characters)"
	}
	return ""
}

// validateComment checks comment inputs after the required-field check.
func validateComment(authorName, content string, authorEmail *string) string {
	if tooLong(authorName, maxAuthorNameLen) {
		return fmt.Sprintf("author_name is too long (max %d characters)", maxAuthorNameLen)
	}
	if tooLong(content, maxCommentLen) {
		return "content is too long (max 5,000 characters)"
	}
	if authorEmail != nil {
		if _, err := mail.ParseAddress(*authorEmail); err != nil {
			return "author_email is not a valid address"
		}
	}
	return ""
}
