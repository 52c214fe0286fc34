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

package rendering

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/treegrid"
)

// ASCIIRenderer draws a view as a bordered text table. The first column
// carries the hierarchy: indentation, expander glyph and group labels.
type ASCIIRenderer struct {
	// Fields lists the displayed fields in order.
	Fields []string
	// Columns supplies headers and value formatting; optional.
	Columns columns.Provider
	// Indent is the number of spaces per level, 2 when zero.
	Indent int
}

// Render writes the table and a one-line footer to w.
func (r *ASCIIRenderer) Render(w io.Writer, v treegrid.View) error {
	table := make([][]string, 0, len(v.Rows)+1)
	table = append(table, r.headers())
	for _, row := range v.Rows {
		table = append(table, r.cells(row))
	}
	widths := columnWidths(table)

	var sb strings.Builder
	border(&sb, widths)
	for i, cells := range table {
		line(&sb, cells, widths)
		if i == 0 {
			border(&sb, widths)
		}
	}
	border(&sb, widths)
	fmt.Fprintf(&sb, "page %d/%d, %d rows, %d/%d records", v.Page.Index+1, v.Page.TotalPages, v.Page.TotalItems, v.Matched, v.TotalRecords)
	if v.Pending > 0 {
		fmt.Fprintf(&sb, ", %d pending", v.Pending)
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *ASCIIRenderer) headers() []string {
	headers := make([]string, len(r.Fields)+1)
	for i, f := range r.Fields {
		headers[i+1] = header(r.Columns, f)
	}
	return headers
}

func (r *ASCIIRenderer) cells(row treegrid.ViewRow) []string {
	values := valueCells(row, r.Fields, r.Columns)
	if len(values) > 0 {
		indent := r.Indent
		if indent == 0 {
			indent = 2
		}
		values[0] = strings.Repeat(" ", indent*row.Level) + glyph(row) + values[0]
	}
	return append([]string{markers(row)}, values...)
}

// valueCells formats the displayed fields of a row. Group rows show their
// label in the first field and aggregates where they have one.
func valueCells(row treegrid.ViewRow, fields []string, cols columns.Provider) []string {
	cells := make([]string, len(fields))
	for i, f := range fields {
		if row.Kind == treegrid.GroupRow {
			if v, ok := row.Group.Aggregates[f]; ok && i > 0 {
				cells[i] = format(cols, f, v)
			}
			continue
		}
		cells[i] = format(cols, f, row.Data[f])
	}
	if row.Kind == treegrid.GroupRow && len(cells) > 0 {
		cells[0] = row.Group.Label
	}
	return cells
}

func glyph(row treegrid.ViewRow) string {
	switch {
	case !row.HasChildren:
		return "  "
	case row.Expanded:
		return "- "
	}
	return "+ "
}

// markers flags pending changes, selection and ancestors shown only for
// their matching descendants.
func markers(row treegrid.ViewRow) string {
	var sb strings.Builder
	switch row.Pending {
	case treegrid.PendingAdded:
		sb.WriteByte('+')
	case treegrid.PendingEdited:
		sb.WriteByte('~')
	case treegrid.PendingDeleted:
		sb.WriteByte('x')
	}
	if row.Selected {
		sb.WriteByte('*')
	}
	if row.FilteredOutParent {
		sb.WriteByte('.')
	}
	return sb.String()
}

func columnWidths(table [][]string) []int {
	widths := make([]int, len(table[0]))
	for i := range widths {
		widths[i] = 1
	}
	for _, cells := range table {
		for i, c := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}
	return widths
}

func border(sb *strings.Builder, widths []int) {
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
}

func line(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteString("|")
	for i, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(c)
		sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func header(p columns.Provider, field string) string {
	if col, ok := columns.Lookup(p, field); ok {
		return col.DisplayName()
	}
	return field
}

func format(p columns.Provider, field string, v any) string {
	if col, ok := columns.Lookup(p, field); ok {
		return col.FormatValue(v)
	}
	return columns.FormatValue(v)
}
