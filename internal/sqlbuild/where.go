// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sqlbuild assembles parameterised SQL fragments from sparse sets
// of optional criteria. Values are always bound as $n placeholders; only
// column names and fixed expressions supplied by the caller reach the SQL
// text.
package sqlbuild

import (
	"fmt"
	"strings"
)

// Kind tags a filter descriptor.
type Kind int

const (
	// KindEq matches column = value.
	KindEq Kind = iota
	// KindContains matches a case-insensitive substring in any of several columns.
	KindContains
	// KindExists matches when a correlated subquery returns a row.
	KindExists
)

// Filter is one optional criterion together with the value it binds.
type Filter struct {
	Kind     Kind
	Columns  []string
	Subquery string
	Value    any
}

// Eq creates an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Kind: KindEq, Columns: []string{column}, Value: value}
}

// Contains creates a case-insensitive substring filter over columns,
// OR-ed together. LIKE wildcards in term are matched literally.
func Contains(term string, columns ...string) Filter {
	return Filter{Kind: KindContains, Columns: columns, Value: "%" + EscapeLike(term) + "%"}
}

// Exists creates an EXISTS filter. The subquery marks the bound value
// with a single "?".
func Exists(subquery string, value any) Filter {
	return Filter{Kind: KindExists, Subquery: subquery, Value: value}
}

// EscapeLike escapes the LIKE metacharacters in s.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Where folds filters into a single AND-joined clause.
type Where struct {
	filters []Filter
}

// NewWhere creates a Where whose first placeholder is $1.
func NewWhere() *Where {
	return &Where{}
}

// Add appends filters.
func (w *Where) Add(filters ...Filter) *Where {
	w.filters = append(w.filters, filters...)
	return w
}

// Build renders "WHERE a AND b ..." and its arguments. With no filters it
// returns an empty clause and nil args.
func (w *Where) Build() (string, []any, error) {
	if len(w.filters) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(w.filters))
	args := make([]any, 0, len(w.filters))
	for _, f := range w.filters {
		placeholder := fmt.Sprintf("$%d", len(args)+1)

		var part string
		switch f.Kind {
		case KindEq:
			if len(f.Columns) != 1 {
				return "", nil, fmt.Errorf("eq filter needs exactly one column, got %d", len(f.Columns))
			}
			part = f.Columns[0] + " = " + placeholder

		case KindContains:
			if len(f.Columns) == 0 {
				return "", nil, fmt.Errorf("contains filter needs at least one column")
			}
			ors := make([]string, len(f.Columns))
			for i, col := range f.Columns {
				ors[i] = col + " ILIKE " + placeholder
			}
			part = "(" + strings.Join(ors, " OR ") + ")"

		case KindExists:
			if strings.Count(f.Subquery, "?") != 1 {
				return "", nil, fmt.Errorf("exists filter needs exactly one ? in subquery")
			}
			part = "EXISTS (" + strings.Replace(f.Subquery, "?", placeholder, 1) + ")"

		default:
			return "", nil, fmt.Errorf("unknown filter kind: %d", f.Kind)
		}

		parts = append(parts, part)
		args = append(args, f.Value)
	}

	return "WHERE " + strings.Join(parts, " AND "), args, nil
}
