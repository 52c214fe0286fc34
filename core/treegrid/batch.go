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

package treegrid

import (
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/ids"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/transactions"
)

var (
	// ErrNotBatch is returned by batch operations on a grid without batch
	// editing.
	ErrNotBatch = errors.New("grid is not in batch editing mode")
	// ErrPendingDelete is returned when editing a row pending deletion.
	ErrPendingDelete = errors.New("row is pending deletion")
)

// PendingState is the batch editing state of a displayed row.
type PendingState int

const (
	PendingNone PendingState = iota
	PendingAdded
	PendingEdited
	PendingDeleted
)

func (p PendingState) String() string {
	return [...]string{"", "added", "edited", "deleted"}[p]
}

func (g *Grid) startBatch() error {
	if g.opts.Journal != nil {
		txlog, err := transactions.Restore(g.opts.Journal,
			transactions.WithIDs(ids.NewUUIDAllocator()),
			transactions.WithLogger(g.logger))
		if err != nil {
			return err
		}
		g.txlog = txlog
	} else {
		g.txlog = transactions.NewLog(transactions.WithLogger(g.logger))
	}
	return g.rebuildPreview()
}

// rebuildPreview materializes a copy of the committed data with the pending
// additions and updates applied. Pending deletions stay visible and are
// flagged in the view.
func (g *Grid) rebuildPreview() error {
	opts := g.opts.Tree
	opts.IDs = ids.NewSequence("preview")
	preview, err := records.NewTree(cloneRows(g.tree.Data(), opts.ChildDataKey), opts)
	if err != nil {
		return err
	}

	for _, st := range g.txlog.Pending() {
		switch st.Kind {
		case transactions.Add:
			err = preview.AddRow(cloneRow(st.Value, opts.ChildDataKey), st.ParentKey)
		case transactions.Update:
			err = preview.UpdateRow(st.RowKey, st.Value)
		default:
			continue
		}
		if err != nil {
			level.Warn(g.logger).Log("msg", "cannot preview pending change", "kind", st.Kind, "key", st.RowKey, "err", err)
		}
	}
	preview.SetPending(g.txlog)

	if g.preview != nil {
		preview.RestoreExpansion(g.preview.ExpansionState())
	} else {
		preview.RestoreExpansion(g.tree.ExpansionState())
	}
	g.preview = preview
	g.pruneSelection()
	return nil
}

func (g *Grid) batchAdd(row records.Row, parentKey any) error {
	pk := g.opts.Tree.PrimaryKey
	candidate := cloneRow(row, g.opts.Tree.ChildDataKey)
	if candidate[pk] == nil {
		candidate[pk] = g.opts.IDs.Next()
	}
	if err := g.preview.AddRow(candidate, parentKey); err != nil {
		return err
	}
	tx := transactions.Transaction{
		Kind:      transactions.Add,
		RowKey:    candidate[pk],
		Value:     candidate,
		ParentKey: parentKey,
		Path:      g.path(candidate[pk]),
	}
	if err := g.txlog.Add(tx); err != nil {
		return err
	}
	row[pk] = candidate[pk]
	return g.rebuildPreview()
}

func (g *Grid) batchUpdate(key any, changes records.Row) error {
	rec, ok := g.preview.Record(key)
	if !ok {
		return errors.Wrapf(records.ErrRowNotFound, "key %v", key)
	}
	if g.txlog.IsDeleted(rec.Key) {
		return errors.Wrapf(ErrPendingDelete, "key %v", key)
	}
	rowKey, path := rec.Key, g.path(rec.Key)
	if err := g.preview.UpdateRow(key, changes); err != nil {
		return err
	}
	tx := transactions.Transaction{
		Kind:   transactions.Update,
		RowKey: rowKey,
		Value:  cloneRow(changes, g.opts.Tree.ChildDataKey),
		Path:   path,
	}
	if err := g.txlog.Add(tx); err != nil {
		return err
	}
	return g.rebuildPreview()
}

// batchDelete records the deletion of a row. With cascading deletes, and
// always for rows that were added in the batch, the descendants are deleted
// in the same step.
func (g *Grid) batchDelete(key any) error {
	rec, ok := g.preview.Record(key)
	if !ok {
		return errors.Wrapf(records.ErrRowNotFound, "key %v", key)
	}
	if g.txlog.IsDeleted(rec.Key) {
		return nil
	}

	targets := []*records.Record{rec}
	if st, _ := g.txlog.State(rec.Key); g.opts.Tree.CascadeOnDelete || st.Kind == transactions.Add {
		descendants, err := g.preview.Descendants(rec.Key)
		if err != nil {
			return err
		}
		targets = append(targets, descendants...)
	}

	txs := make([]transactions.Transaction, 0, len(targets))
	for _, r := range targets {
		if g.txlog.IsDeleted(r.Key) {
			continue
		}
		txs = append(txs, transactions.Transaction{Kind: transactions.Delete, RowKey: r.Key, Path: g.path(r.Key)})
	}
	if err := g.txlog.Add(txs...); err != nil {
		return err
	}
	return g.rebuildPreview()
}

// path returns the ancestor keys of a previewed row for hierarchical data.
func (g *Grid) path(key any) []any {
	if g.opts.Tree.Mode() != records.ModeHierarchical {
		return nil
	}
	path, err := g.preview.Path(key)
	if err != nil {
		return nil
	}
	return path
}

// Commit applies all pending changes. The changes are applied to a copy of
// the data first, so a failing change leaves both the data and the log as
// they were.
func (g *Grid) Commit() error {
	return g.CommitTo(nil)
}

// CommitTo commits like Commit and hands the committed data to persist
// before the pending changes are dropped. When persist fails, the data and
// the log stay as they were.
func (g *Grid) CommitTo(persist func(data []records.Row) error) error {
	if g.txlog == nil {
		return ErrNotBatch
	}
	childKey := g.opts.Tree.ChildDataKey
	next, err := records.NewTree(cloneRows(g.tree.Data(), childKey), g.opts.Tree)
	if err != nil {
		return err
	}
	var persistNext func() error
	if persist != nil {
		persistNext = func() error { return persist(next.Data()) }
	}
	err = g.txlog.CommitWith(func(st transactions.State) error {
		switch st.Kind {
		case transactions.Add:
			return next.AddRow(cloneRow(st.Value, childKey), st.ParentKey)
		case transactions.Update:
			return next.UpdateRow(st.RowKey, st.Value)
		case transactions.Delete:
			err := next.DeleteRow(st.RowKey)
			if errors.Is(err, records.ErrRowNotFound) {
				// Removed with a cascading delete of an ancestor.
				return nil
			}
			return err
		}
		return nil
	}, persistNext)
	if err != nil {
		level.Warn(g.logger).Log("msg", "commit failed", "err", err)
		return err
	}
	next.RestoreExpansion(g.preview.ExpansionState())
	g.tree = next
	return g.rebuildPreview()
}

// Undo reverts the last batch step.
func (g *Grid) Undo() error {
	if g.txlog == nil {
		return ErrNotBatch
	}
	if err := g.txlog.Undo(); err != nil {
		return err
	}
	return g.rebuildPreview()
}

// Redo reapplies the last undone batch step.
func (g *Grid) Redo() error {
	if g.txlog == nil {
		return ErrNotBatch
	}
	if err := g.txlog.Redo(); err != nil {
		return err
	}
	return g.rebuildPreview()
}

// Discard drops all pending changes.
func (g *Grid) Discard() error {
	if g.txlog == nil {
		return ErrNotBatch
	}
	if err := g.txlog.Clear(); err != nil {
		return err
	}
	return g.rebuildPreview()
}

func (g *Grid) pendingState(key any) PendingState {
	if g.txlog == nil {
		return PendingNone
	}
	st, ok := g.txlog.State(key)
	if !ok {
		return PendingNone
	}
	switch st.Kind {
	case transactions.Add:
		return PendingAdded
	case transactions.Delete:
		return PendingDeleted
	}
	return PendingEdited
}

// cloneRows deep-copies rows and their child collections so that the
// preview never writes to committed data.
func cloneRows(rows []records.Row, childKey string) []records.Row {
	if rows == nil {
		return nil
	}
	out := make([]records.Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r, childKey)
	}
	return out
}

func cloneRow(row records.Row, childKey string) records.Row {
	if row == nil {
		return nil
	}
	out := make(records.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	if childKey == "" {
		return out
	}
	switch children := row[childKey].(type) {
	case []records.Row:
		out[childKey] = cloneRows(children, childKey)
	case []any:
		list := make([]any, len(children))
		for i, c := range children {
			if r, ok := c.(records.Row); ok {
				list[i] = cloneRow(r, childKey)
			} else {
				list[i] = c
			}
		}
		out[childKey] = list
	}
	return out
}
