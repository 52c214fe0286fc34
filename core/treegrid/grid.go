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
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/filtering"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/selection"
	"github.com/google/hierarchia/core/sorting"
	"github.com/google/hierarchia/core/transactions"
)

// Grid is the state of one tree grid. A Grid is not safe for concurrent use.
type Grid struct {
	opts   Options
	logger log.Logger

	tree    *records.Tree
	txlog   *transactions.Log
	preview *records.Tree

	filter  *filtering.Tree
	matcher filtering.Matcher
	sort    []sorting.Expression
	groupBy []sorting.Expression
	// groupExpansion holds explicitly expanded or collapsed group rows;
	// the others follow groupDefault.
	groupExpansion map[GroupID]bool
	groupDefault   bool

	pageIndex int
	perPage   int

	selected *selection.Set[any]
}

// New materializes data and creates a grid over it.
func New(data []records.Row, opts Options) (*Grid, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	tree, err := records.NewTree(data, opts.Tree)
	if err != nil {
		return nil, err
	}
	g := &Grid{
		opts:           opts,
		logger:         opts.Logger,
		tree:           tree,
		groupExpansion: make(map[GroupID]bool),
		groupDefault:   true,
		perPage:        opts.PerPage,
	}
	g.selected = selection.New[any](g.selectable)

	if opts.BatchEditing {
		if err := g.startBatch(); err != nil {
			return nil, err
		}
	}
	level.Debug(g.logger).Log("msg", "created grid", "records", tree.Len(), "batch", opts.BatchEditing)
	return g, nil
}

// Tree returns the committed record tree.
func (g *Grid) Tree() *records.Tree {
	return g.tree
}

// Transactions returns the pending-change log, nil without batch editing.
func (g *Grid) Transactions() *transactions.Log {
	return g.txlog
}

// Columns returns the column metadata.
func (g *Grid) Columns() columns.Provider {
	return g.opts.Columns
}

// Options returns the grid options.
func (g *Grid) Options() Options {
	return g.opts
}

// working is the tree the grid displays: the batch preview if there is one.
func (g *Grid) working() *records.Tree {
	if g.preview != nil {
		return g.preview
	}
	return g.tree
}

// Record looks up a record of the displayed tree.
func (g *Grid) Record(key any) (*records.Record, bool) {
	return g.working().Record(key)
}

// AddRow adds row under parentKey, nil for a top-level row.
func (g *Grid) AddRow(row records.Row, parentKey any) error {
	if g.txlog != nil {
		return g.batchAdd(row, parentKey)
	}
	return g.tree.AddRow(row, parentKey)
}

// UpdateRow merges changes into the row with the given key.
func (g *Grid) UpdateRow(key any, changes records.Row) error {
	if g.txlog != nil {
		return g.batchUpdate(key, changes)
	}
	if err := g.tree.UpdateRow(key, changes); err != nil {
		return err
	}
	g.pruneSelection()
	return nil
}

// DeleteRow deletes the row with the given key, with or without its
// descendants depending on the cascade option.
func (g *Grid) DeleteRow(key any) error {
	if g.txlog != nil {
		return g.batchDelete(key)
	}
	if err := g.tree.DeleteRow(key); err != nil {
		return err
	}
	g.pruneSelection()
	return nil
}

// Expand expands a record or a group row.
func (g *Grid) Expand(key any) error {
	if id, ok := key.(GroupID); ok {
		g.groupExpansion[id] = true
		return nil
	}
	if g.preview != nil {
		// Children loaded on demand belong to the committed data, or the
		// next preview rebuild would drop them.
		if rec, ok := g.tree.Record(key); ok && rec.HasChildren && len(rec.Children) == 0 {
			if err := g.tree.Expand(key); err != nil {
				return err
			}
			if err := g.rebuildPreview(); err != nil {
				return err
			}
		}
	}
	return g.working().Expand(key)
}

// Collapse collapses a record or a group row.
func (g *Grid) Collapse(key any) error {
	if id, ok := key.(GroupID); ok {
		g.groupExpansion[id] = false
		return nil
	}
	return g.working().Collapse(key)
}

// Toggle flips the expansion state of a record or a group row.
func (g *Grid) Toggle(key any) error {
	if id, ok := key.(GroupID); ok {
		g.groupExpansion[id] = !g.groupExpanded(id)
		return nil
	}
	if g.working().IsExpanded(key) {
		return g.working().Collapse(key)
	}
	return g.Expand(key)
}

// IsExpanded reports the expansion state of a record or a group row.
func (g *Grid) IsExpanded(key any) bool {
	if id, ok := key.(GroupID); ok {
		return g.groupExpanded(id)
	}
	return g.working().IsExpanded(key)
}

func (g *Grid) groupExpanded(id GroupID) bool {
	if expanded, ok := g.groupExpansion[id]; ok {
		return expanded
	}
	return g.groupDefault
}

// ExpandAll expands every record and group row.
func (g *Grid) ExpandAll() {
	g.working().ExpandAll()
	g.groupExpansion = make(map[GroupID]bool)
	g.groupDefault = true
}

// CollapseAll collapses every record and group row.
func (g *Grid) CollapseAll() {
	g.working().CollapseAll()
	g.groupExpansion = make(map[GroupID]bool)
	g.groupDefault = false
}

// Filter replaces the filter. A nil or empty tree clears it.
func (g *Grid) Filter(tree *filtering.Tree) error {
	if tree.Empty() {
		g.ClearFilter()
		return nil
	}
	m, err := tree.Compile(g.opts.Columns)
	if err != nil {
		return err
	}
	g.filter, g.matcher = tree, m
	g.pageIndex = 0
	return nil
}

// QuickFilter adds a quick filter on one field to the current filter.
func (g *Grid) QuickFilter(field, expr string, ignoreCase bool) error {
	quick, err := filtering.Parse(field, expr, ignoreCase)
	if err != nil {
		return err
	}
	combined := filtering.NewTree(filtering.And)
	if !g.filter.Empty() {
		combined.Add(g.filter)
	}
	return g.Filter(combined.Add(quick))
}

// ClearFilter removes the filter.
func (g *Grid) ClearFilter() {
	g.filter, g.matcher = nil, nil
}

// Sort replaces the sorting expressions. Every level of the hierarchy is
// sorted among its siblings.
func (g *Grid) Sort(exprs ...sorting.Expression) {
	g.sort = exprs
}

// ClearSort removes all sorting expressions.
func (g *Grid) ClearSort() {
	g.sort = nil
}

// GroupBy replaces the grouping expressions. Top-level records are grouped;
// their descendants stay below them.
func (g *Grid) GroupBy(exprs ...sorting.Expression) {
	g.groupBy = exprs
	g.groupExpansion = make(map[GroupID]bool)
	g.groupDefault = true
	g.pageIndex = 0
}

// ClearGrouping removes all grouping expressions.
func (g *Grid) ClearGrouping() {
	g.GroupBy()
}

// Paginate selects the page to display. perPage <= 0 disables paging.
func (g *Grid) Paginate(index, perPage int) {
	g.pageIndex = index
	g.perPage = perPage
}

// Selection returns the row selection. Keys are normalized record keys.
func (g *Grid) Selection() *selection.Set[any] {
	return g.selected
}

// Select adds rows to the selection. Group rows, unknown rows and rows
// pending deletion are skipped.
func (g *Grid) Select(keys ...any) {
	g.selected.Add(normalizeKeys(keys)...)
}

// Deselect removes rows from the selection.
func (g *Grid) Deselect(keys ...any) {
	g.selected.Remove(normalizeKeys(keys)...)
}

func normalizeKeys(keys []any) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		if id, ok := k.(GroupID); ok {
			out[i] = id
			continue
		}
		out[i] = columns.Normalize(k)
	}
	return out
}

func (g *Grid) selectable(key any) bool {
	if _, ok := key.(GroupID); ok {
		return false
	}
	if _, ok := g.working().Record(key); !ok {
		return false
	}
	return g.pendingState(key) != PendingDeleted
}

func (g *Grid) pruneSelection() {
	g.selected.Retain(g.selectable)
}
