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

package cli

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/google/hierarchia/core/query"
	"github.com/google/hierarchia/core/rendering"
	"github.com/google/hierarchia/core/server"
	"github.com/google/hierarchia/core/treegrid"
)

// viewFlags are the pipeline settings shared by view, demo and serve.
type viewFlags struct {
	group       []string
	sort        []string
	filters     []string
	collapse    []string
	toggle      []string
	collapseAll bool
	page        int
	perPage     int
	fields      []string
	html        bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.group, "group", "g", nil, "Group top-level rows by field[:asc|desc][:i], repeatable")
	fs.StringArrayVarP(&f.sort, "sort", "s", nil, "Sort siblings by field[:asc|desc][:i], repeatable")
	fs.StringArrayVarP(&f.filters, "filter", "f", nil, `Quick filter field=expr, e.g. 'Team="Sales" | "Support"', repeatable`)
	fs.StringArrayVar(&f.collapse, "collapse", nil, "Collapse a row by key, or a group by its id such as Team=Sales, repeatable")
	fs.StringArrayVar(&f.toggle, "toggle", nil, "Flip the expansion of a row or group, repeatable")
	fs.BoolVar(&f.collapseAll, "collapse-all", false, "Collapse every row and group")
	fs.IntVar(&f.page, "page", 1, "Page to show, 1-based")
	fs.IntVar(&f.perPage, "per-page", 0, "Rows per page, overrides the configuration; 0 keeps it")
	fs.StringSliceVar(&f.fields, "fields", nil, "Displayed fields, comma separated")
	fs.BoolVar(&f.html, "html", false, "Render HTML instead of text")
}

// query converts the flags into the settings a served page carries in its
// URL.
func (f *viewFlags) query() (*query.Query, error) {
	q := &query.Query{
		Group:       f.group,
		Sort:        f.sort,
		Filters:     make(map[string]string, len(f.filters)),
		CollapseAll: f.collapseAll,
		Collapsed:   f.collapse,
		Toggled:     f.toggle,
		Page:        f.page,
		PerPage:     f.perPage,
	}
	for _, filter := range f.filters {
		field, expr, ok := strings.Cut(filter, "=")
		if !ok || field == "" {
			return nil, errors.Errorf("filter %q is not field=expr", filter)
		}
		q.Filters[field] = expr
	}
	return q, nil
}

// apply sets the flags on g, on top of the configured state.
func (f *viewFlags) apply(g *treegrid.Grid) error {
	q, err := f.query()
	if err != nil {
		return err
	}
	return server.ApplyQuery(g, q)
}

func (s *session) render(cmd *cobra.Command, g *treegrid.Grid, f *viewFlags, title string) error {
	v, err := g.View()
	if err != nil {
		return err
	}
	fields := s.fields
	if len(f.fields) > 0 {
		fields = f.fields
	}
	if f.html {
		r, err := rendering.NewHTMLRenderer()
		if err != nil {
			return err
		}
		return r.Render(cmd.OutOrStdout(), title, v, fields, s.cols)
	}
	r := &rendering.ASCIIRenderer{Fields: fields, Columns: s.cols}
	return r.Render(cmd.OutOrStdout(), v)
}

func newViewCmd(opts *rootOptions) *cobra.Command {
	flags := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render the grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			g, err := s.grid(nil)
			if err != nil {
				return err
			}
			if err := flags.apply(g); err != nil {
				return err
			}
			return s.render(cmd, g, flags, "hierarchia")
		},
	}
	flags.register(cmd)
	return cmd
}
