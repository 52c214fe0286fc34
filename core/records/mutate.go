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

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
)

// AddRow adds row under the record with parentKey, or at the top level when
// parentKey is nil. In flat mode the row's foreign key is set to the parent's
// primary key, and a missing primary key is allocated. On error the data is
// left unchanged.
func (t *Tree) AddRow(row Row, parentKey any) error {
	if row == nil {
		return errors.Wrap(ErrMissingKey, "nil row")
	}
	var parent *Record
	if parentKey != nil {
		p, ok := t.Record(parentKey)
		if !ok {
			level.Warn(t.logger).Log("msg", "rejected row", "reason", "invalid parent", "parent", parentKey)
			return errors.Wrapf(ErrInvalidParent, "parent %v", parentKey)
		}
		if t.opts.Pending != nil && t.opts.Pending.IsDeleted(p.Key) {
			level.Warn(t.logger).Log("msg", "rejected row", "reason", "parent pending deletion", "parent", parentKey)
			return errors.Wrapf(ErrParentDeleted, "parent %v", parentKey)
		}
		parent = p
	}

	pk := t.opts.PrimaryKey
	if pk != "" {
		if raw, ok := row[pk]; ok && raw != nil && t.records.Has(columns.Normalize(raw)) {
			return errors.Wrapf(ErrDuplicateKey, "key %v", raw)
		}
	}

	undo := t.addRow(row, parent)
	if err := t.Materialize(); err != nil {
		undo()
		if rerr := t.Materialize(); rerr != nil {
			level.Error(t.logger).Log("msg", "cannot restore tree after failed add", "err", rerr)
		}
		return err
	}
	level.Debug(t.logger).Log("msg", "added row", "parent", parentKey, "records", t.Len())
	return nil
}

// addRow performs the insertion and returns a function reverting it.
func (t *Tree) addRow(row Row, parent *Record) (undo func()) {
	if t.opts.Mode() == ModeHierarchical {
		if parent == nil {
			prevLen := len(t.data)
			t.data = append(t.data, row)
			return func() { t.data = t.data[:prevLen] }
		}
		field := t.opts.ChildDataKey
		prev, existed := parent.Data[field]
		children := childRows(parent.Data, field)
		next := make([]Row, len(children), len(children)+1)
		copy(next, children)
		parent.Data[field] = append(next, row)
		return func() { restoreField(parent.Data, field, prev, existed) }
	}

	pk, fk := t.opts.PrimaryKey, t.opts.ForeignKey
	prevKey, hadKey := row[pk]
	prevParent, hadParent := row[fk]
	if prevKey == nil {
		row[pk] = t.ids.Next()
	}
	if parent != nil {
		row[fk] = parent.Data[pk]
	}
	prevLen := len(t.data)
	t.data = append(t.data, row)
	return func() {
		t.data = t.data[:prevLen]
		restoreField(row, pk, prevKey, hadKey)
		restoreField(row, fk, prevParent, hadParent)
	}
}

// UpdateRow merges changes into the row with the given key. Changing the
// primary key detaches rows that referenced the old key; changing the
// foreign key moves the row together with its descendants.
func (t *Tree) UpdateRow(key any, changes Row) error {
	rec, ok := t.Record(key)
	if !ok {
		return errors.Wrapf(ErrRowNotFound, "key %v", key)
	}

	newKey := rec.Key
	if pk := t.opts.PrimaryKey; pk != "" {
		if raw, changed := changes[pk]; changed {
			if raw == nil && t.opts.Mode() == ModeFlat {
				return errors.Wrapf(ErrMissingKey, "field %q", pk)
			}
			if raw != nil {
				newKey = columns.Normalize(raw)
				if newKey != rec.Key && t.records.Has(newKey) {
					return errors.Wrapf(ErrDuplicateKey, "key %v", raw)
				}
			}
		}
	}
	if fk := t.opts.ForeignKey; fk != "" {
		if raw, changed := changes[fk]; changed {
			if p, exists := t.Record(raw); exists && (p == rec || rec.isAncestorOf(p)) {
				return errors.Wrapf(ErrInvalidParent, "row %v cannot become a child of %v", key, raw)
			}
		}
	}

	type field struct {
		value   any
		existed bool
	}
	prev := make(map[string]field, len(changes))
	for name, v := range changes {
		old, existed := rec.Data[name]
		prev[name] = field{old, existed}
		rec.Data[name] = v
	}
	if newKey != rec.Key {
		if v, ok := t.expansion[rec.Key]; ok {
			t.expansion[newKey] = v
		}
	}

	if err := t.Materialize(); err != nil {
		for name, f := range prev {
			restoreField(rec.Data, name, f.value, f.existed)
		}
		if rerr := t.Materialize(); rerr != nil {
			level.Error(t.logger).Log("msg", "cannot restore tree after failed update", "err", rerr)
		}
		return err
	}
	level.Debug(t.logger).Log("msg", "updated row", "key", key, "fields", len(changes))
	return nil
}

// DeleteRow removes the row with the given key. With CascadeOnDelete the
// whole subtree goes; otherwise the children take the deleted row's place
// under its parent.
func (t *Tree) DeleteRow(key any) error {
	rec, ok := t.Record(key)
	if !ok {
		return errors.Wrapf(ErrRowNotFound, "key %v", key)
	}
	cascade := t.opts.CascadeOnDelete

	if t.opts.Mode() == ModeHierarchical {
		t.deleteNested(rec, cascade)
	} else {
		t.deleteFlat(rec, cascade)
	}
	removed := 1
	if cascade {
		removed = rec.Size()
	}
	if err := t.Materialize(); err != nil {
		return err
	}
	level.Debug(t.logger).Log("msg", "deleted row", "key", key, "cascade", cascade, "removed", removed)
	return nil
}

func (t *Tree) deleteFlat(rec *Record, cascade bool) {
	pk, fk := t.opts.PrimaryKey, t.opts.ForeignKey
	drop := map[any]bool{rec.Key: true}
	if cascade {
		rec.Walk(func(n *Record) bool {
			drop[n.Key] = true
			return true
		})
	} else {
		for _, c := range rec.Children {
			c.Data[fk] = rec.Data[fk]
		}
	}

	kept := make([]Row, 0, len(t.data))
	for _, row := range t.data {
		if !drop[columns.Normalize(row[pk])] {
			kept = append(kept, row)
		}
	}
	t.data = kept
}

func (t *Tree) deleteNested(rec *Record, cascade bool) {
	field := t.opts.ChildDataKey
	container := t.data
	if rec.Parent != nil {
		container = childRows(rec.Parent.Data, field)
	}

	var replacement []Row
	if !cascade {
		replacement = childRows(rec.Data, field)
	}
	next := make([]Row, 0, len(container)+len(replacement))
	for _, row := range container {
		if sameRow(row, rec.Data) {
			next = append(next, replacement...)
			continue
		}
		next = append(next, row)
	}

	if rec.Parent == nil {
		t.data = next
	} else {
		rec.Parent.Data[field] = next
	}
}

// Expand expands the record with the given key. Records reporting children
// that are not loaded yet get them from Options.LoadChildren first. When the
// loaded rows cannot be added the tree is left as it was.
func (t *Tree) Expand(key any) error {
	rec, ok := t.Record(key)
	if !ok {
		return errors.Wrapf(ErrRowNotFound, "key %v", key)
	}
	if rec.HasChildren && len(rec.Children) == 0 && t.opts.LoadChildren != nil {
		undo, err := t.loadChildren(rec)
		if err != nil {
			return err
		}
		prev, had := t.expansion[rec.Key]
		t.expansion[rec.Key] = true
		if err := t.Materialize(); err != nil {
			undo()
			if had {
				t.expansion[rec.Key] = prev
			} else {
				delete(t.expansion, rec.Key)
			}
			if rerr := t.Materialize(); rerr != nil {
				level.Error(t.logger).Log("msg", "cannot restore tree after failed load", "err", rerr)
			}
			return errors.Wrapf(err, "loading children of %v", rec.Key)
		}
		return nil
	}
	t.setExpanded(rec, true)
	return nil
}

// loadChildren adds the rows returned by Options.LoadChildren below rec and
// returns a function reverting the insertion.
func (t *Tree) loadChildren(rec *Record) (undo func(), err error) {
	rows, err := t.opts.LoadChildren(rec.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading children of %v", rec.Key)
	}
	level.Debug(t.logger).Log("msg", "loaded children on demand", "key", rec.Key, "rows", len(rows))
	if t.opts.Mode() == ModeHierarchical {
		field := t.opts.ChildDataKey
		old, existed := rec.Data[field]
		rec.Data[field] = rows
		return func() { restoreField(rec.Data, field, old, existed) }, nil
	}
	pk, fk := t.opts.PrimaryKey, t.opts.ForeignKey
	seen := make(map[any]bool, len(rows))
	for _, row := range rows {
		raw := row[pk]
		if raw == nil {
			continue
		}
		key := columns.Normalize(raw)
		if seen[key] || t.records.Has(key) {
			return nil, errors.Wrapf(ErrDuplicateKey, "key %v", raw)
		}
		seen[key] = true
	}
	data := t.data
	loaded := make([]Row, 0, len(data)+len(rows))
	loaded = append(loaded, data...)
	for _, row := range rows {
		if row[pk] == nil {
			row[pk] = t.ids.Next()
		}
		row[fk] = rec.Data[pk]
		loaded = append(loaded, row)
	}
	t.data = loaded
	return func() { t.data = data }, nil
}

// Collapse collapses the record with the given key.
func (t *Tree) Collapse(key any) error {
	rec, ok := t.Record(key)
	if !ok {
		return errors.Wrapf(ErrRowNotFound, "key %v", key)
	}
	t.setExpanded(rec, false)
	return nil
}

// Toggle flips the expansion state of the record with the given key.
func (t *Tree) Toggle(key any) error {
	rec, ok := t.Record(key)
	if !ok {
		return errors.Wrapf(ErrRowNotFound, "key %v", key)
	}
	if rec.Expanded {
		return t.Collapse(key)
	}
	return t.Expand(key)
}

// IsExpanded reports the expansion state of the record with the given key.
func (t *Tree) IsExpanded(key any) bool {
	rec, ok := t.Record(key)
	return ok && rec.Expanded
}

// ExpandAll expands every record. Children that are loaded on demand are
// not fetched.
func (t *Tree) ExpandAll() {
	t.Walk(func(r *Record) bool {
		t.setExpanded(r, true)
		return true
	})
}

// CollapseAll collapses every record.
func (t *Tree) CollapseAll() {
	t.Walk(func(r *Record) bool {
		t.setExpanded(r, false)
		return true
	})
}

// SetExpansionDepth drops all expansion overrides and expands the given
// number of levels.
func (t *Tree) SetExpansionDepth(depth int) {
	if depth < 0 {
		depth = 0
	}
	t.opts.ExpansionDepth = depth
	t.expansion = make(map[any]bool)
	for _, r := range t.roots {
		t.assignLevels(r, 0)
	}
}

// ExpansionState returns the explicit expand/collapse overrides by key.
func (t *Tree) ExpansionState() map[any]bool {
	state := make(map[any]bool, len(t.expansion))
	for k, v := range t.expansion {
		state[k] = v
	}
	return state
}

// RestoreExpansion applies overrides taken from another tree over the same
// rows. Keys without a record are ignored.
func (t *Tree) RestoreExpansion(state map[any]bool) {
	for k, v := range state {
		if rec, ok := t.records.Get(k); ok {
			t.setExpanded(rec, v)
		}
	}
}

func (t *Tree) setExpanded(rec *Record, expanded bool) {
	t.expansion[rec.Key] = expanded
	rec.Expanded = expanded
}

func restoreField(row Row, name string, value any, existed bool) {
	if existed {
		row[name] = value
	} else {
		delete(row, name)
	}
}

func sameRow(a, b Row) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
