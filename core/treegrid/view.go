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
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log/level"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/filtering"
	"github.com/google/hierarchia/core/grouping"
	"github.com/google/hierarchia/core/paging"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/sorting"
)

// GroupID identifies a group row by the keys of the groups enclosing it,
// for example "Team=Sales/OnPTO=true". String keys that read like another
// type are quoted, so the number 7 is "Code=7" and the string "7" is
// "Code=\"7\"". '%', '/' and '=' in fields and '%' and '/' in values are
// percent-escaped.
type GroupID string

var (
	fieldEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "=", "%3D")
	valueEscaper = strings.NewReplacer("%", "%25", "/", "%2F")
)

func (id GroupID) child(key grouping.Key) GroupID {
	part := fieldEscaper.Replace(key.Field) + "=" + valueEscaper.Replace(groupValue(key.Value))
	if id == "" {
		return GroupID(part)
	}
	return id + "/" + GroupID(part)
}

func groupValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return columns.FormatValue(v)
	}
	if s == "" || strings.HasPrefix(s, `"`) {
		return strconv.Quote(s)
	}
	if _, err := strconv.ParseBool(s); err == nil {
		return strconv.Quote(s)
	}
	if _, ok := columns.ParseNumber(s); ok {
		return strconv.Quote(s)
	}
	if _, ok := columns.ToTime(s, time.UTC); ok {
		return strconv.Quote(s)
	}
	return s
}

// Depth is the nesting level of the group, 0 for outermost groups.
func (id GroupID) Depth() int {
	return strings.Count(string(id), "/")
}

// RowKind tells data rows from group rows.
type RowKind int

const (
	DataRow RowKind = iota
	GroupRow
)

// GroupInfo describes a group row.
type GroupInfo struct {
	Label string
	Key   grouping.Key
	// Count is the number of top-level records in the group.
	Count      int
	Aggregates map[string]any
}

// ViewRow is one displayed row.
type ViewRow struct {
	Kind        RowKind
	Key         any // record key, or GroupID for group rows
	Level       int
	Data        records.Row
	Expanded    bool
	HasChildren bool
	Group       *GroupInfo

	Pending PendingState
	// FilteredOutParent marks records displayed only because a descendant
	// matched the filter.
	FilteredOutParent bool
	Selected          bool
}

// View is the current page of the grid.
type View struct {
	Rows []ViewRow
	Page paging.Info
	// TotalRecords is the number of records before filtering.
	TotalRecords int
	// Matched is the number of records matching the filter, or
	// TotalRecords without one.
	Matched int
	// Pending is the number of rows with pending changes.
	Pending int
}

// View runs the pipeline: filter, sort, group, flatten and page.
func (g *Grid) View() (View, error) {
	tree := g.working()
	roots := tree.Roots()
	view := View{TotalRecords: tree.Len(), Matched: tree.Len()}
	if g.txlog != nil {
		view.Pending = len(g.txlog.Pending())
	}

	var filteredOut map[any]bool
	if g.matcher != nil {
		res := filtering.Hierarchical(roots, g.matcher)
		roots, filteredOut = res.Roots, res.FilteredOutParents
		view.Matched = res.Matched
	}

	order := sorting.Siblings(g.sort)
	var rows []ViewRow
	if len(g.groupBy) > 0 {
		var err error
		rows, err = g.groupedRows(roots, order, filteredOut)
		if err != nil {
			return View{}, err
		}
	} else {
		for _, rec := range records.FlattenWith(roots, order) {
			rows = append(rows, g.dataRow(rec, 0, filteredOut))
		}
	}

	view.Rows, view.Page = paging.Page(rows, g.pageIndex, g.perPage)
	g.pageIndex = view.Page.Index
	level.Debug(g.logger).Log("msg", "built view", "rows", len(rows), "page", view.Page.Index, "pages", view.Page.TotalPages)
	return view, nil
}

func (g *Grid) dataRow(rec *records.Record, offset int, filteredOut map[any]bool) ViewRow {
	return ViewRow{
		Kind:              DataRow,
		Key:               rec.Key,
		Level:             rec.Level + offset,
		Data:              rec.Data,
		Expanded:          rec.Expanded,
		HasChildren:       rec.HasChildren,
		Pending:           g.pendingState(rec.Key),
		FilteredOutParent: filteredOut[rec.Key],
		Selected:          g.selected.Has(rec.Key),
	}
}

// groupedRows groups the top-level records and flattens the groups with the
// hierarchies of their members below them.
func (g *Grid) groupedRows(roots []*records.Record, order func([]*records.Record) []*records.Record, filteredOut map[any]bool) ([]ViewRow, error) {
	roots = sorting.Records(roots, append(append([]sorting.Expression(nil), g.groupBy...), g.sort...))
	byRow := make(map[uintptr]*records.Record, len(roots))
	data := make([]records.Row, len(roots))
	for i, rec := range roots {
		data[i] = rec.Data
		byRow[rowID(rec.Data)] = rec
	}

	groups, err := g.groups(data)
	if err != nil {
		return nil, err
	}

	var rows []ViewRow
	var visit func(members []records.Row, parent GroupID, depth int)
	visit = func(members []records.Row, parent GroupID, depth int) {
		for _, m := range members {
			key, ok := grouping.RawKey(m)
			if !ok {
				rec := byRow[rowID(m)]
				for _, r := range records.FlattenWith([]*records.Record{rec}, order) {
					rows = append(rows, g.dataRow(r, depth, filteredOut))
				}
				continue
			}
			id := parent.child(key)
			expanded := g.groupExpanded(id)
			rows = append(rows, ViewRow{
				Kind:        GroupRow,
				Key:         id,
				Level:       depth,
				Data:        m,
				Expanded:    expanded,
				HasChildren: true,
				Group:       g.groupInfo(m, key),
			})
			if expanded {
				visit(grouping.Members(m, g.opts.GroupChildrenKey), id, depth+1)
			}
		}
	}
	visit(groups, "", 0)
	return rows, nil
}

func (g *Grid) groups(data []records.Row) ([]records.Row, error) {
	return grouping.Pipe(data, g.groupBy, grouping.Options{
		GroupKey:     g.opts.GroupKey,
		ChildDataKey: g.opts.GroupChildrenKey,
		Columns:      g.opts.Columns,
		Aggregations: g.opts.Aggregations,
		Logger:       g.logger,
	})
}

func (g *Grid) groupInfo(group records.Row, key grouping.Key) *GroupInfo {
	info := &GroupInfo{
		Key:        key,
		Count:      len(grouping.Leaves(group, g.opts.GroupChildrenKey)),
		Aggregates: make(map[string]any, len(g.opts.Aggregations)),
	}
	info.Label, _ = group[g.opts.GroupKey].(string)
	for _, agg := range g.opts.Aggregations {
		info.Aggregates[agg.Field] = group[agg.Field]
	}
	return info
}

// GroupIDs returns the ids of every group row of the current grouping,
// expanded or not.
func (g *Grid) GroupIDs() ([]GroupID, error) {
	if len(g.groupBy) == 0 {
		return nil, nil
	}
	roots := g.working().Roots()
	if g.matcher != nil {
		roots = filtering.Hierarchical(roots, g.matcher).Roots
	}
	roots = sorting.Records(roots, g.groupBy)
	data := make([]records.Row, len(roots))
	for i, rec := range roots {
		data[i] = rec.Data
	}
	groups, err := g.groups(data)
	if err != nil {
		return nil, err
	}

	var ids []GroupID
	var visit func(members []records.Row, parent GroupID)
	visit = func(members []records.Row, parent GroupID) {
		for _, m := range members {
			if key, ok := grouping.RawKey(m); ok {
				id := parent.child(key)
				ids = append(ids, id)
				visit(grouping.Members(m, g.opts.GroupChildrenKey), id)
			}
		}
	}
	visit(groups, "")
	return ids, nil
}

func rowID(row records.Row) uintptr {
	return reflect.ValueOf(row).Pointer()
}
