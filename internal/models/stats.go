// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// StatusCounts maps a status to its row count, plus a "total" key.
type StatusCounts map[string]int64

// Stats is the admin dashboard aggregate.
type Stats struct {
	Posts          StatusCounts `json:"posts"`
	Comments       StatusCounts `json:"comments"`
	TotalViews     int64        `json:"total_views"`
	RecentPosts    []Post       `json:"recent_posts"`
	RecentComments []Comment    `json:"recent_comments"`
}
