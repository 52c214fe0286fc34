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

package records

import (
	"reflect"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/ids"
	"github.com/google/hierarchia/core/orderedmap"
)

// Tree owns the records materialized from one data set. Trees are not shared
// between grids: every grid materializes its own.
type Tree struct {
	opts   Options
	logger log.Logger
	ids    ids.Allocator

	data    []Row
	records *orderedmap.Map[any, *Record]
	roots   []*Record

	// expansion holds explicit expand/collapse overrides by record key.
	expansion map[any]bool
	// identity keys nested rows that have no primary key by map identity.
	identity map[uintptr]any
}

// NewTree validates the options and materializes data.
func NewTree(data []Row, opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	t := &Tree{
		opts:      opts,
		logger:    opts.Logger,
		ids:       opts.IDs,
		data:      data,
		expansion: make(map[any]bool),
		identity:  make(map[uintptr]any),
	}
	if t.logger == nil {
		t.logger = log.NewNopLogger()
	}
	if t.ids == nil {
		t.ids = ids.NewSequence("row")
	}
	if err := t.Materialize(); err != nil {
		return nil, err
	}
	return t, nil
}

// Options returns the options the tree was created with.
func (t *Tree) Options() Options {
	return t.opts
}

// SetPending replaces the pending-deletion lookup.
func (t *Tree) SetPending(p PendingLookup) {
	t.opts.Pending = p
}

// Data returns the top-level data slice. In flat mode it holds every row.
func (t *Tree) Data() []Row {
	return t.data
}

// Len returns the number of records.
func (t *Tree) Len() int {
	return t.records.Len()
}

// Roots returns the top-level records in data order.
func (t *Tree) Roots() []*Record {
	return t.roots
}

// Records returns all records in encounter order.
func (t *Tree) Records() []*Record {
	return t.records.Values()
}

// Record looks up a record by key.
func (t *Tree) Record(key any) (*Record, bool) {
	return t.records.Get(columns.Normalize(key))
}

// Materialize rebuilds every record from the data. Expansion overrides are
// kept for keys that still exist.
func (t *Tree) Materialize() error {
	records := orderedmap.New[any, *Record]()
	var roots []*Record
	var err error

	if t.opts.Mode() == ModeHierarchical {
		roots, err = t.materializeNested(records, t.data, nil)
	} else {
		roots, err = t.materializeFlat(records)
	}
	if err != nil {
		return err
	}

	t.records = records
	t.roots = roots
	for _, r := range roots {
		t.assignLevels(r, 0)
	}
	for key := range t.expansion {
		if !records.Has(key) {
			delete(t.expansion, key)
		}
	}
	for ptr, key := range t.identity {
		if !records.Has(key) {
			delete(t.identity, ptr)
		}
	}

	level.Debug(t.logger).Log("msg", "materialized tree", "mode", t.opts.Mode(), "records", records.Len(), "roots", len(roots))
	return nil
}

func (t *Tree) materializeFlat(records *orderedmap.Map[any, *Record]) ([]*Record, error) {
	pk, fk := t.opts.PrimaryKey, t.opts.ForeignKey
	for _, row := range t.data {
		raw, ok := row[pk]
		if !ok || raw == nil {
			return nil, errors.Wrapf(ErrMissingKey, "field %q", pk)
		}
		key := columns.Normalize(raw)
		if records.Has(key) {
			return nil, errors.Wrapf(ErrDuplicateKey, "key %v", raw)
		}
		records.Set(key, &Record{Key: key, Data: row})
	}

	for _, rec := range records.Values() {
		parentKey := columns.Normalize(rec.Data[fk])
		parent, ok := records.Get(parentKey)
		if !ok || parent == rec {
			continue
		}
		rec.Parent = parent
		rec.ParentKey = parent.Key
		parent.Children = append(parent.Children, rec)
	}

	var roots []*Record
	visited := make(map[*Record]bool, records.Len())
	mark := func(r *Record) {
		r.Walk(func(n *Record) bool {
			visited[n] = true
			return true
		})
	}
	for _, rec := range records.Values() {
		if rec.Parent == nil {
			roots = append(roots, rec)
			mark(rec)
		}
	}

	// Records still unvisited sit on a foreign key cycle or hang off one.
	// Break each cycle at its first member in encounter order.
	if len(visited) < records.Len() {
		all := records.Values()
		pos := make(map[*Record]int, len(all))
		for i, rec := range all {
			pos[rec] = i
		}
		for _, rec := range all {
			if visited[rec] {
				continue
			}
			head := cycleHead(rec, pos)
			t.detach(head)
			level.Warn(t.logger).Log("msg", "foreign key cycle, promoting row to root", "key", head.Key)
			roots = append(roots, head)
			mark(head)
		}
		roots = t.inDataOrder(roots)
	}
	return roots, nil
}

// cycleHead follows the parents of rec until one repeats and returns the
// member of that cycle that comes first in pos.
func cycleHead(rec *Record, pos map[*Record]int) *Record {
	seen := make(map[*Record]bool)
	n := rec
	for !seen[n] {
		seen[n] = true
		n = n.Parent
	}
	head := n
	for m := n.Parent; m != n; m = m.Parent {
		if pos[m] < pos[head] {
			head = m
		}
	}
	return head
}

// inDataOrder sorts records by the position of their rows in the data.
func (t *Tree) inDataOrder(recs []*Record) []*Record {
	pos := make(map[any]int, len(t.data))
	for i, row := range t.data {
		pos[columns.Normalize(row[t.opts.PrimaryKey])] = i
	}
	ordered := make([]*Record, len(recs))
	copy(ordered, recs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return pos[ordered[i].Key] < pos[ordered[j].Key]
	})
	return ordered
}

func (t *Tree) detach(rec *Record) {
	if rec.Parent == nil {
		return
	}
	siblings := rec.Parent.Children
	for i, c := range siblings {
		if c == rec {
			rec.Parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	rec.Parent = nil
	rec.ParentKey = nil
}

func (t *Tree) materializeNested(records *orderedmap.Map[any, *Record], rows []Row, parent *Record) ([]*Record, error) {
	result := make([]*Record, 0, len(rows))
	for _, row := range rows {
		key := t.nestedKey(row)
		if records.Has(key) {
			return nil, errors.Wrapf(ErrDuplicateKey, "key %v", key)
		}
		rec := &Record{Key: key, Data: row, Parent: parent}
		if parent != nil {
			rec.ParentKey = parent.Key
		}
		records.Set(key, rec)

		children, err := t.materializeNested(records, childRows(row, t.opts.ChildDataKey), rec)
		if err != nil {
			return nil, err
		}
		rec.Children = children
		result = append(result, rec)
	}
	return result, nil
}

func (t *Tree) nestedKey(row Row) any {
	if pk := t.opts.PrimaryKey; pk != "" {
		if raw, ok := row[pk]; ok && raw != nil {
			return columns.Normalize(raw)
		}
	}
	ptr := reflect.ValueOf(row).Pointer()
	if key, ok := t.identity[ptr]; ok {
		return key
	}
	key := t.ids.Next()
	t.identity[ptr] = key
	return key
}

func (t *Tree) assignLevels(rec *Record, lvl int) {
	rec.Level = lvl
	rec.HasChildren = len(rec.Children) > 0 || t.reportsChildren(rec.Data)
	if v, ok := t.expansion[rec.Key]; ok {
		rec.Expanded = v
	} else {
		rec.Expanded = lvl < t.opts.ExpansionDepth
	}
	for _, c := range rec.Children {
		t.assignLevels(c, lvl+1)
	}
}

func (t *Tree) reportsChildren(row Row) bool {
	if t.opts.HasChildren != nil && t.opts.HasChildren(row) {
		return true
	}
	if t.opts.HasChildrenKey != "" {
		return truthy(row[t.opts.HasChildrenKey])
	}
	return false
}

// Flatten returns the display sequence: a pre-order traversal of the roots
// that omits the descendants of collapsed records.
func (t *Tree) Flatten() []*Record {
	return FlattenWith(t.roots, nil)
}

// FlattenWith flattens the given roots, letting order rearrange every
// sibling list before it is traversed. A nil order keeps data order.
func FlattenWith(roots []*Record, order func([]*Record) []*Record) []*Record {
	var result []*Record
	var visit func([]*Record)
	visit = func(siblings []*Record) {
		if order != nil {
			siblings = order(siblings)
		}
		for _, r := range siblings {
			result = append(result, r)
			if r.Expanded {
				visit(r.Children)
			}
		}
	}
	visit(roots)
	return result
}

// Walk visits every record in pre-order regardless of expansion state.
func (t *Tree) Walk(fn func(*Record) bool) {
	for _, r := range t.roots {
		r.Walk(fn)
	}
}

// Path returns the keys of the ancestors of key, outermost first.
func (t *Tree) Path(key any) ([]any, error) {
	rec, ok := t.Record(key)
	if !ok {
		return nil, errors.Wrapf(ErrRowNotFound, "key %v", key)
	}
	var path []any
	for p := rec.Parent; p != nil; p = p.Parent {
		path = append([]any{p.Key}, path...)
	}
	return path, nil
}

// Descendants returns every record below key in pre-order.
func (t *Tree) Descendants(key any) ([]*Record, error) {
	rec, ok := t.Record(key)
	if !ok {
		return nil, errors.Wrapf(ErrRowNotFound, "key %v", key)
	}
	var result []*Record
	for _, c := range rec.Children {
		c.Walk(func(n *Record) bool {
			result = append(result, n)
			return true
		})
	}
	return result, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != "" && x != "false" && x != "0"
	case nil:
		return false
	}
	if f, ok := columns.ToFloat(v); ok {
		return f != 0
	}
	return true
}

// childRows reads a child collection. Missing or malformed collections are
// treated as empty.
func childRows(row Row, field string) []Row {
	switch children := row[field].(type) {
	case []Row:
		return children
	case []any:
		result := make([]Row, 0, len(children))
		for _, c := range children {
			if r, ok := c.(Row); ok {
				result = append(result, r)
			}
		}
		return result
	}
	return nil
}
