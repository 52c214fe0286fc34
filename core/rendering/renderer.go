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

// Package rendering draws snapshots of a grid view as text or HTML.
package rendering

import (
	"embed"
	"fmt"
	"io"
	"strings"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/treegrid"
)

//go:embed templates/*
var templateFS embed.FS

// HTMLRenderer renders a view to an HTML page.
type HTMLRenderer struct {
	gridTemplate *template.Template
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)
	gridTemplate, err := template.New("grid.html").ParseFS(trustedFS, "templates/grid.html")
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{gridTemplate: gridTemplate}, nil
}

// PageModel is the data of the grid template.
type PageModel struct {
	Title   string
	Headers []string
	Rows    []RowModel
	Page    int
	Pages   int
	Summary string

	// Navigation, set by AddLinks.
	PrevURL, NextURL safehtml.URL
	HasPrev, HasNext bool
}

// Links builds the navigation URLs of a served page.
type Links interface {
	// WithPage returns the URL of the 1-based page.
	WithPage(page int) safehtml.URL
	// WithToggled returns the URL with the expansion of a row flipped.
	WithToggled(key string) safehtml.URL
}

// RowModel is one table row of the grid template.
type RowModel struct {
	Class string
	// Indent is made of non-breaking spaces, two per level.
	Indent  string
	Glyph   string
	Markers string
	Cells   []string

	// Toggles is set by AddLinks on expandable rows.
	ToggleURL safehtml.URL
	Toggles   bool

	expandable bool
	key        string
}

// Render writes the page for v. fields lists the displayed fields, cols
// supplies headers and formatting.
func (r *HTMLRenderer) Render(w io.Writer, title string, v treegrid.View, fields []string, cols columns.Provider) error {
	return r.RenderModel(w, NewPageModel(title, v, fields, cols))
}

// RenderModel writes the page for a prepared model.
func (r *HTMLRenderer) RenderModel(w io.Writer, pm PageModel) error {
	return r.gridTemplate.Execute(w, pm)
}

// NewPageModel converts a view into the template model.
func NewPageModel(title string, v treegrid.View, fields []string, cols columns.Provider) PageModel {
	pm := PageModel{
		Title:   title,
		Page:    v.Page.Index + 1,
		Pages:   v.Page.TotalPages,
		Summary: fmt.Sprintf("%d of %d records", v.Matched, v.TotalRecords),
	}
	if v.Pending > 0 {
		pm.Summary += fmt.Sprintf(", %d pending", v.Pending)
	}
	for _, f := range fields {
		pm.Headers = append(pm.Headers, header(cols, f))
	}
	for _, row := range v.Rows {
		pm.Rows = append(pm.Rows, RowModel{
			Class:      rowClass(row),
			Indent:     strings.Repeat("\u00a0", 2*row.Level),
			Glyph:      glyph(row),
			Markers:    markers(row),
			Cells:      valueCells(row, fields, cols),
			expandable: row.Kind == treegrid.GroupRow || row.HasChildren,
			key:        fmt.Sprint(row.Key),
		})
	}
	return pm
}

// AddLinks sets the page navigation and the expand and collapse links of
// expandable rows.
func (pm *PageModel) AddLinks(links Links) {
	if pm.HasPrev = pm.Page > 1; pm.HasPrev {
		pm.PrevURL = links.WithPage(pm.Page - 1)
	}
	if pm.HasNext = pm.Page < pm.Pages; pm.HasNext {
		pm.NextURL = links.WithPage(pm.Page + 1)
	}
	for i := range pm.Rows {
		if pm.Rows[i].Toggles = pm.Rows[i].expandable; pm.Rows[i].Toggles {
			pm.Rows[i].ToggleURL = links.WithToggled(pm.Rows[i].key)
		}
	}
}

func rowClass(row treegrid.ViewRow) string {
	class := "data"
	if row.Kind == treegrid.GroupRow {
		class = "group"
	}
	if row.Pending != treegrid.PendingNone {
		class += " " + row.Pending.String()
	}
	if row.Selected {
		class += " selected"
	}
	if row.FilteredOutParent {
		class += " context"
	}
	return class
}
