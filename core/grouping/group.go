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

// Package grouping turns a sequence of rows into nested synthetic group rows.
//
// Terminology:
//   - a grouping expression names the field one level of groups is keyed by
//   - a group row is a synthetic row holding a label, the raw key and its
//     members; members are either nested group rows or, at the innermost
//     level, the original data rows verbatim
//   - the leaves of a group are the data rows reachable below it
//
// Groups appear in the order their key is first seen in the input, so the
// caller sorts the rows first when groups should be ordered.
package grouping

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/orderedmap"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/sorting"
)

// Row is a data row or a group row.
type Row = records.Row

const (
	// HiddenKeyField holds the Key of a group row.
	HiddenKeyField      = "__groupKey"
	DefaultGroupKey     = "groupLabel"
	DefaultChildDataKey = "groupRows"
	// BlankLabel is displayed for groups of empty values.
	BlankLabel = "(Blank)"
)

// ErrSameKeys is returned when the label field and the member field of the
// group rows are the same.
var ErrSameKeys = errors.New("Group key and child data key cannot be the same")

// Key is the raw key of a group: the grouped field and the unformatted value
// of the first member.
type Key struct {
	Field string
	Value any
}

// Aggregation computes one value of a group row from its leaves. group is the
// group row built so far: label, key and members are set, aggregations that
// run earlier in the list are set as well.
type Aggregation struct {
	Field  string
	Reduce func(group Row, leaves []Row) any
}

// Options configures Pipe.
type Options struct {
	// GroupKey is the field the group label is stored under.
	GroupKey string
	// ChildDataKey is the field the members are stored under.
	ChildDataKey string
	// Columns marks temporal fields, whose keys are derived from the
	// formatted value.
	Columns      columns.Provider
	Aggregations []Aggregation
	Logger       log.Logger
}

func (o *Options) defaults() error {
	if o.GroupKey == "" {
		o.GroupKey = DefaultGroupKey
	}
	if o.ChildDataKey == "" {
		o.ChildDataKey = DefaultChildDataKey
	}
	if o.GroupKey == o.ChildDataKey {
		return ErrSameKeys
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	return nil
}

// Pipe groups rows by the expressions, outermost first. With no expressions
// the input is returned as is.
func Pipe(rows []Row, exprs []sorting.Expression, opts Options) ([]Row, error) {
	if len(exprs) == 0 {
		return rows, nil
	}
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	p := pipe{opts: opts}
	groups := p.group(rows, exprs)
	level.Debug(opts.Logger).Log("msg", "grouped rows", "rows", len(rows), "levels", len(exprs), "groups", len(groups))
	return groups, nil
}

type pipe struct {
	opts Options
}

type partition struct {
	first   any
	members []Row
}

func (p pipe) group(rows []Row, exprs []sorting.Expression) []Row {
	expr := exprs[0]
	col, _ := columns.Lookup(p.opts.Columns, expr.Field)

	partitions := orderedmap.New[any, *partition]()
	for _, row := range rows {
		raw := row[expr.Field]
		key := groupingKey(raw, col, expr.IgnoreCase)
		part, ok := partitions.Get(key)
		if !ok {
			part = &partition{first: raw}
			partitions.Set(key, part)
		}
		part.members = append(part.members, row)
	}

	groups := make([]Row, 0, partitions.Len())
	for _, part := range partitions.Values() {
		g := Row{HiddenKeyField: Key{Field: expr.Field, Value: part.first}}
		if len(exprs) > 1 {
			g[p.opts.ChildDataKey] = p.group(part.members, exprs[1:])
		} else {
			g[p.opts.ChildDataKey] = part.members
		}

		leaves := Leaves(g, p.opts.ChildDataKey)
		g[p.opts.GroupKey] = fmt.Sprintf("%s (%d)", displayValue(part.first, col), len(leaves))
		for _, agg := range p.opts.Aggregations {
			g[agg.Field] = agg.Reduce(g, leaves)
		}
		groups = append(groups, g)
	}
	return groups
}

// groupingKey maps a value to its partition key.
func groupingKey(v any, col *columns.ColumnDef, ignoreCase bool) any {
	if col != nil && col.DataType().IsTemporal() {
		return col.FormatValue(v)
	}
	if s, ok := v.(string); ok && ignoreCase {
		return columns.FoldString(s)
	}
	return columns.Normalize(v)
}

func displayValue(v any, col *columns.ColumnDef) string {
	var s string
	if col != nil {
		s = col.FormatValue(v)
	} else {
		s = columns.FormatValue(v)
	}
	if s == "" {
		return BlankLabel
	}
	return s
}

// IsGroup reports whether row is a group row.
func IsGroup(row Row) bool {
	_, ok := RawKey(row)
	return ok
}

// RawKey returns the key of a group row.
func RawKey(row Row) (Key, bool) {
	k, ok := row[HiddenKeyField].(Key)
	return k, ok
}

// Members returns the direct members of a group row.
func Members(group Row, childDataKey string) []Row {
	members, _ := group[childDataKey].([]Row)
	return members
}

// Leaves returns the data rows below a group row in order. A data row is its
// own single leaf.
func Leaves(row Row, childDataKey string) []Row {
	if !IsGroup(row) {
		return []Row{row}
	}
	var leaves []Row
	for _, m := range Members(row, childDataKey) {
		leaves = append(leaves, Leaves(m, childDataKey)...)
	}
	return leaves
}
