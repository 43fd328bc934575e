// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sqlbuild

import (
	"fmt"
	"strings"
)

// Set builds the SET list of an UPDATE from only the columns a caller
// supplied.
type Set struct {
	assignments []string
	args        []any
	columns     int
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add assigns a bound value to column.
func (s *Set) Add(column string, value any) *Set {
	s.assignments = append(s.assignments, column+" = "+s.Bind(value))
	s.columns++
	return s
}

// Raw appends a fixed assignment such as "updated_at = NOW()". Raw
// assignments do not count towards Empty.
func (s *Set) Raw(assignment string) *Set {
	s.assignments = append(s.assignments, assignment)
	return s
}

// Bind appends a value to the argument list and returns its placeholder,
// for use in a trailing WHERE clause.
func (s *Set) Bind(value any) string {
	s.args = append(s.args, value)
	return fmt.Sprintf("$%d", len(s.args))
}

// Empty reports whether no caller-supplied column was added.
func (s *Set) Empty() bool {
	return s.columns == 0
}

// Build renders "SET a = $1, b = NOW()" and the bound arguments.
func (s *Set) Build() (string, []any) {
	return "SET " + strings.Join(s.assignments, ", "), s.args
}
