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

// Package query maps the URL of a served grid page to the grid settings it
// shows, and builds the links that change one setting at a time.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"
)

const filterPrefix = "filter:"

// Query represents the parsed state of a grid page URL
type Query struct {
	// Base path (e.g., "/")
	Path string

	Fields []string // Displayed fields in display order (grouped first)
	Group  []string // Group expressions, field[:asc|desc][:i]
	Sort   []string // Sort expressions, field[:asc|desc][:i]
	// Filters maps a field to its quick filter expression.
	Filters map[string]string
	// CollapseAll collapses every row before Collapsed and Toggled apply.
	CollapseAll bool
	// Collapsed lists row keys and group ids to collapse.
	Collapsed []string
	// Toggled lists row keys and group ids whose expansion state is flipped
	// from the configured one.
	Toggled []string
	Page    int // 1-based
	PerPage int // 0 keeps the configured page size
}

// NewQuery creates a Query from a URL. Malformed numbers are ignored.
func NewQuery(u *url.URL) *Query {
	s := &Query{
		Path:    u.Path,
		Filters: make(map[string]string),
		Page:    1,
	}
	q := u.Query()

	s.Fields = splitList(q.Get("fields"))
	s.Group = splitList(q.Get("group"))
	s.Sort = splitList(q.Get("sort"))
	// Keys may contain commas, so each toggle is its own parameter.
	s.Collapsed = append([]string(nil), q["collapse"]...)
	s.Toggled = append([]string(nil), q["toggle"]...)
	s.CollapseAll, _ = strconv.ParseBool(q.Get("collapseAll"))

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		s.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("perPage")); err == nil && perPage >= 0 {
		s.PerPage = perPage
	}

	// Format: filter:Field=expr
	for key, values := range q {
		if strings.HasPrefix(key, filterPrefix) && len(values) > 0 {
			s.Filters[strings.TrimPrefix(key, filterPrefix)] = values[0]
		}
	}

	s.reorderFields()
	return s
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := &Query{
		Path:    s.Path,
		Fields:  append([]string(nil), s.Fields...),
		Group:   append([]string(nil), s.Group...),
		Sort:    append([]string(nil), s.Sort...),
		Filters: make(map[string]string, len(s.Filters)),
		Toggled: append([]string(nil), s.Toggled...),
		Page:    s.Page,
		PerPage: s.PerPage,

		CollapseAll: s.CollapseAll,
		Collapsed:   append([]string(nil), s.Collapsed...),
	}
	for field, expr := range s.Filters {
		clone.Filters[field] = expr
	}
	return clone
}

// FilterArgs returns the filters as field=expr pairs sorted by field.
func (s *Query) FilterArgs() []string {
	fields := make([]string, 0, len(s.Filters))
	for field := range s.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	args := make([]string, 0, len(fields))
	for _, field := range fields {
		args = append(args, field+"="+s.Filters[field])
	}
	return args
}

func exprField(expr string) string {
	field, _, _ := strings.Cut(expr, ":")
	return field
}

// reorderFields keeps the displayed fields in the order:
// 1. Filtered fields that are not grouped
// 2. Grouped fields, in grouping order
// 3. Other fields
func (s *Query) reorderFields() {
	if len(s.Fields) == 0 {
		return
	}
	grouped := make(map[string]bool, len(s.Group))
	for _, g := range s.Group {
		grouped[exprField(g)] = true
	}
	visible := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		visible[f] = true
	}

	var filtered, others, groupedFields []string
	for _, f := range s.Fields {
		switch {
		case grouped[f]:
			// Added below in grouping order.
		case s.Filters[f] != "":
			filtered = append(filtered, f)
		default:
			others = append(others, f)
		}
	}
	for _, g := range s.Group {
		if f := exprField(g); visible[f] {
			groupedFields = append(groupedFields, f)
		}
	}

	s.Fields = make([]string, 0, len(s.Fields))
	s.Fields = append(s.Fields, filtered...)
	s.Fields = append(s.Fields, groupedFields...)
	s.Fields = append(s.Fields, others...)
}

// WithPage returns a URL showing the given 1-based page
func (s *Query) WithPage(page int) safehtml.URL {
	next := s.Clone()
	next.Page = page
	return next.ToSafeURL()
}

// WithToggled returns a URL with the expansion state of key flipped
func (s *Query) WithToggled(key string) safehtml.URL {
	next := s.Clone()
	next.Toggled = toggle(s.Toggled, key)
	return next.ToSafeURL()
}

// WithGroupToggled returns a URL with grouping by field added at the end
// of the grouping order, or removed when the field is grouped already.
// Toggled group rows are reset since their ids change with the grouping.
func (s *Query) WithGroupToggled(field string) safehtml.URL {
	next := s.Clone()
	next.Group = next.Group[:0]
	found := false
	for _, g := range s.Group {
		if exprField(g) == field {
			found = true
			continue
		}
		next.Group = append(next.Group, g)
	}
	if !found {
		next.Group = append(next.Group, field)
	}
	next.Toggled = nil
	next.Page = 1
	next.reorderFields()
	return next.ToSafeURL()
}

// WithFilter returns a URL with the filter of field replaced; an empty
// expression removes it.
func (s *Query) WithFilter(field, expr string) safehtml.URL {
	next := s.Clone()
	if expr == "" {
		delete(next.Filters, field)
	} else {
		next.Filters[field] = expr
	}
	next.Page = 1
	next.reorderFields()
	return next.ToSafeURL()
}

func toggle(list []string, item string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, v := range list {
		if v == item {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, item)
	}
	return out
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{Path: s.Path}
	q := url.Values{}

	if len(s.Fields) > 0 {
		q.Set("fields", strings.Join(s.Fields, ","))
	}
	if len(s.Group) > 0 {
		q.Set("group", strings.Join(s.Group, ","))
	}
	if len(s.Sort) > 0 {
		q.Set("sort", strings.Join(s.Sort, ","))
	}
	for field, expr := range s.Filters {
		if expr != "" {
			q.Set(filterPrefix+field, expr)
		}
	}
	if s.CollapseAll {
		q.Set("collapseAll", "true")
	}
	for _, key := range s.Collapsed {
		q.Add("collapse", key)
	}
	for _, key := range s.Toggled {
		q.Add("toggle", key)
	}
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(s.PerPage))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// IsGrouped reports whether field is one of the grouping fields
func (s *Query) IsGrouped(field string) bool {
	for _, g := range s.Group {
		if exprField(g) == field {
			return true
		}
	}
	return false
}
