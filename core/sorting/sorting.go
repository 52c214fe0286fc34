/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Hierarchia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sorting orders rows and sibling records by a list of sorting
// expressions. Sorting is always stable: rows that compare equal keep their
// relative order.
package sorting

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/records"
)

// Direction is the sort order of one expression.
type Direction int

const (
	None Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	}
	return "none"
}

// ParseDirection accepts asc, ascending, desc, descending and none,
// case-insensitively. An empty string means ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	case "none":
		return None, nil
	}
	return None, errors.Errorf("unknown sort direction %q", s)
}

// Strategy compares two field values. Implementations must define a total
// order; the sign of the result follows the cmp.Compare convention.
type Strategy interface {
	Compare(a, b any, ignoreCase bool) int
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(a, b any, ignoreCase bool) int

func (f StrategyFunc) Compare(a, b any, ignoreCase bool) int {
	return f(a, b, ignoreCase)
}

// DefaultStrategy orders values with columns.Compare.
var DefaultStrategy Strategy = StrategyFunc(columns.Compare)

// Expression sorts by one field. Grouping reuses it to describe a grouping
// level, where the direction orders the groups.
type Expression struct {
	Field      string
	Dir        Direction
	IgnoreCase bool
	// Strategy defaults to DefaultStrategy.
	Strategy Strategy
}

func (e Expression) strategy() Strategy {
	if e.Strategy == nil {
		return DefaultStrategy
	}
	return e.Strategy
}

// ParseExpression parses "field" or "field:dir" with an optional trailing
// ":i" for case-insensitive comparison, e.g. "Name:desc:i".
func ParseExpression(s string) (Expression, error) {
	parts := strings.Split(s, ":")
	e := Expression{Field: strings.TrimSpace(parts[0]), Dir: Ascending}
	if e.Field == "" {
		return e, errors.Errorf("sort expression %q has no field", s)
	}
	for _, p := range parts[1:] {
		if strings.EqualFold(p, "i") {
			e.IgnoreCase = true
			continue
		}
		d, err := ParseDirection(p)
		if err != nil {
			return e, errors.Wrapf(err, "sort expression %q", s)
		}
		e.Dir = d
	}
	return e, nil
}

// Func builds a comparator for values of type T from the expressions. value
// extracts a field value from a T. Expressions with direction None are
// ignored.
func Func[T any](exprs []Expression, value func(T, string) any) func(a, b T) int {
	active := make([]Expression, 0, len(exprs))
	for _, e := range exprs {
		if e.Dir != None {
			active = append(active, e)
		}
	}
	return func(a, b T) int {
		for _, e := range active {
			c := e.strategy().Compare(value(a, e.Field), value(b, e.Field), e.IgnoreCase)
			if c == 0 {
				continue
			}
			if e.Dir == Descending {
				return -c
			}
			return c
		}
		return 0
	}
}

func rowValue(r map[string]any, field string) any {
	return r[field]
}

func recordValue(r *records.Record, field string) any {
	return r.Data[field]
}

// Rows returns a stably sorted copy of rows.
func Rows(rows []map[string]any, exprs []Expression) []map[string]any {
	return sortCopy(rows, Func(exprs, rowValue))
}

// Records returns a stably sorted copy of sibling records. Used as the
// order function of records.FlattenWith to sort every level of a tree.
func Records(siblings []*records.Record, exprs []Expression) []*records.Record {
	return sortCopy(siblings, Func(exprs, recordValue))
}

// Siblings returns an order function for records.FlattenWith, or nil when
// no expression sorts anything.
func Siblings(exprs []Expression) func([]*records.Record) []*records.Record {
	if !Active(exprs) {
		return nil
	}
	cmp := Func(exprs, recordValue)
	return func(s []*records.Record) []*records.Record {
		return sortCopy(s, cmp)
	}
}

// Active reports whether any expression has a direction.
func Active(exprs []Expression) bool {
	for _, e := range exprs {
		if e.Dir != None {
			return true
		}
	}
	return false
}

func sortCopy[T any](items []T, cmp func(a, b T) int) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cmp(sorted[i], sorted[j]) < 0
	})
	return sorted
}
