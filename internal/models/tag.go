// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/shopspring/decimal"

// TagSource records who attached a tag.
type TagSource string

const (
	TagSourceManual    TagSource = "manual"
	TagSourceAutomated TagSource = "automated"
)

// Valid reports whether s is a known tag source.
func (s TagSource) Valid() bool {
	return s == TagSourceManual || s == TagSourceAutomated
}

// Tag is a free-form label shared across posts.
type Tag struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Source TagSource `json:"source"`
}

// TagRef is a tag as attached to one post. Confidence is set only for
// automated links.
type TagRef struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Slug       string              `json:"slug"`
	Source     TagSource           `json:"source,omitempty"`
	Confidence decimal.NullDecimal `json:"confidence"`
}
