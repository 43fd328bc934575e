// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package readtime

import (
	"strings"
	"testing"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestMinutes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty content", "", 1},
		{"whitespace only", "   \n\t ", 1},
		{"one word", "hello", 1},
		{"exactly one minute", words(200), 1},
		{"just over one minute", words(201), 2},
		{"exactly two minutes", words(400), 2},
		{"long post", words(1001), 6},
		{"mixed whitespace", "one\ttwo\nthree  four", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Minutes(tt.content); got != tt.want {
				t.Errorf("Minutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMinutes_MatchesFormula(t *testing.T) {
	for n := 0; n <= 1000; n += 37 {
		content := words(n)
		want := (n + 199) / 200
		if want < 1 {
			want = 1
		}
		if got := Minutes(content); got != want {
			t.Errorf("Minutes(%d words) = %d, want %d", n, got, want)
		}
	}
}

func TestWordCount(t *testing.T) {
	tests := map[string]int{
		"":                       0,
		"single":                 1,
		"two words":              2,
		"  padded   words here ": 3,
		"line\nbreaks\tand tabs": 4,
	}
	for in, want := range tests {
		if got := WordCount(in); got != want {
			t.Errorf("WordCount(%q) = %d, want %d", in, got, want)
		}
	}
}
