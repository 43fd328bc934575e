// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package readtime estimates how long a post takes to read.
package readtime

import "strings"

// WordsPerMinute is the fixed reading speed used for estimates.
const WordsPerMinute = 200

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Minutes returns ceil(words / WordsPerMinute), never less than 1.
func Minutes(content string) int {
	words := WordCount(content)
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	return max(1, minutes)
}
