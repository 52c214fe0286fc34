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

// Package server serves HTML snapshots of a grid. Every request starts from
// a fresh grid and applies the settings encoded in its URL.
package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/query"
	"github.com/google/hierarchia/core/rendering"
	"github.com/google/hierarchia/core/sorting"
	"github.com/google/hierarchia/core/treegrid"
)

// GridFactory creates the grid a request starts from.
type GridFactory func() (*treegrid.Grid, error)

// Server renders grid pages.
type Server struct {
	// mu serializes grid creation, which may write allocated keys into
	// shared rows.
	mu       sync.Mutex
	newGrid  GridFactory
	renderer *rendering.HTMLRenderer
	title    string
	fields   []string
	cols     columns.Provider
	logger   log.Logger
}

// NewServer creates a server. fields are the fields displayed when the URL
// names none.
func NewServer(title string, newGrid GridFactory, fields []string, cols columns.Provider, logger log.Logger) (*Server, error) {
	renderer, err := rendering.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{
		newGrid:  newGrid,
		renderer: renderer,
		title:    title,
		fields:   fields,
		cols:     cols,
		logger:   logger,
	}, nil
}

// GridHandlerResult represents a failed grid request
type GridHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for the stages of a request
type TimingCollector struct {
	keyvals []interface{}
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records the duration of one stage
func (tc *TimingCollector) Record(stage string, duration time.Duration) {
	tc.keyvals = append(tc.keyvals, stage, fmt.Sprintf("%.2fms", float64(duration.Microseconds())/1000.0))
}

// Log writes all recorded stages and the total time as one debug line.
func (tc *TimingCollector) Log(logger log.Logger, msg string) {
	keyvals := append([]interface{}{"msg", msg}, tc.keyvals...)
	keyvals = append(keyvals, "total", fmt.Sprintf("%.2fms", float64(time.Since(tc.start).Microseconds())/1000.0))
	level.Debug(logger).Log(keyvals...)
}

// ServeHTTP serves the grid page at "/".
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	res := s.HandleGridRequest(w, r.URL, w.Header().Set)
	if res == nil {
		return
	}
	if res.StatusCode != 0 {
		http.Error(w, res.Message, res.StatusCode)
		return
	}
	// The response may be partly written already.
	level.Error(s.logger).Log("msg", "rendering failed", "err", res.Error)
}

// HandleGridRequest renders the page for requestURL. It returns nil on
// success.
func (s *Server) HandleGridRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *GridHandlerResult {
	timing := NewTimingCollector()
	defer timing.Log(s.logger, "served grid")

	q := query.NewQuery(requestURL)
	fields := s.fields
	if len(q.Fields) > 0 {
		fields = q.Fields
	}

	s.mu.Lock()
	gridStart := time.Now()
	g, err := s.newGrid()
	s.mu.Unlock()
	timing.Record("grid", time.Since(gridStart))
	if err != nil {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}

	if err := ApplyQuery(g, q); err != nil {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusBadRequest, Message: err.Error()}
	}

	viewStart := time.Now()
	v, err := g.View()
	timing.Record("view", time.Since(viewStart))
	if err != nil {
		return &GridHandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}

	pm := rendering.NewPageModel(s.title, v, fields, s.cols)
	pm.AddLinks(q)

	renderStart := time.Now()
	setHeader("Content-Type", "text/html; charset=utf-8")
	err = s.renderer.RenderModel(w, pm)
	timing.Record("render", time.Since(renderStart))
	if err != nil {
		return &GridHandlerResult{Error: err}
	}
	return nil
}

// ApplyQuery sets the grouping, sorting, filters, expansion and page of q
// on g, on top of the grid's configured state.
func ApplyQuery(g *treegrid.Grid, q *query.Query) error {
	if len(q.Group) > 0 {
		exprs, err := parseExpressions(q.Group)
		if err != nil {
			return err
		}
		g.GroupBy(exprs...)
	}
	if len(q.Sort) > 0 {
		exprs, err := parseExpressions(q.Sort)
		if err != nil {
			return err
		}
		g.Sort(exprs...)
	}
	for _, field := range sortedKeys(q.Filters) {
		if err := g.QuickFilter(field, q.Filters[field], false); err != nil {
			return err
		}
	}

	if q.CollapseAll {
		g.CollapseAll()
	}
	groups, err := g.GroupIDs()
	if err != nil {
		return err
	}
	for _, key := range q.Collapsed {
		if err := g.Collapse(RowKey(key, groups)); err != nil {
			return err
		}
	}
	for _, key := range q.Toggled {
		if err := g.Toggle(RowKey(key, groups)); err != nil {
			return err
		}
	}

	perPage := q.PerPage
	if perPage == 0 {
		perPage = g.Options().PerPage
	}
	g.Paginate(q.Page-1, perPage)
	return nil
}

func parseExpressions(specs []string) ([]sorting.Expression, error) {
	exprs := make([]sorting.Expression, 0, len(specs))
	for _, s := range specs {
		e, err := sorting.ParseExpression(s)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// RowKey maps a key taken from a URL or command line to a group id when it
// names one of groups, to a number when it parses as one and to a string
// otherwise.
func RowKey(s string, groups []treegrid.GroupID) any {
	for _, id := range groups {
		if string(id) == s {
			return id
		}
	}
	if f, ok := columns.ParseNumber(s); ok {
		return f
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
