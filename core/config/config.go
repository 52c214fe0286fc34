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

// Package config reads the YAML description of a grid: hierarchy keys,
// column metadata and the initial sorting, grouping, filtering and paging
// state.
package config

import (
	"bytes"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/google/hierarchia/core/aggregates"
	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/filtering"
	"github.com/google/hierarchia/core/grouping"
	"github.com/google/hierarchia/core/logging"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/sorting"
	"github.com/google/hierarchia/core/treegrid"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid grid configuration")

// Config is the root of a grid configuration file.
type Config struct {
	PrimaryKey      string `yaml:"primaryKey"`
	ForeignKey      string `yaml:"foreignKey"`
	ChildDataKey    string `yaml:"childDataKey"`
	HasChildrenKey  string `yaml:"hasChildrenKey"`
	CascadeOnDelete bool   `yaml:"cascadeOnDelete"`
	// ExpansionDepth is the number of levels that start expanded. Omitted
	// means every level.
	ExpansionDepth *int `yaml:"expansionDepth"`
	BatchEditing   bool `yaml:"batchEditing"`

	Columns      []Column      `yaml:"columns"`
	Grouping     []Expression  `yaml:"grouping"`
	Sorting      []Expression  `yaml:"sorting"`
	Filters      []Filter      `yaml:"filters"`
	Paging       Paging        `yaml:"paging"`
	Aggregations []Aggregation `yaml:"aggregations"`

	GroupKey         string `yaml:"groupKey"`
	GroupChildrenKey string `yaml:"groupChildrenKey"`

	Logging Logging `yaml:"logging"`
}

// Column describes one column.
type Column struct {
	Field    string `yaml:"field"`
	Header   string `yaml:"header"`
	DataType string `yaml:"dataType"`
	// Format is a Go time layout for temporal columns.
	Format   string `yaml:"format"`
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
	Currency string `yaml:"currency"`
}

// Expression is a sorting or grouping expression.
type Expression struct {
	Field      string `yaml:"field"`
	Dir        string `yaml:"dir"`
	IgnoreCase bool   `yaml:"ignoreCase"`
}

// Filter is a quick filter on one field, e.g. `"Sales" | "Support"`.
type Filter struct {
	Field      string `yaml:"field"`
	Expr       string `yaml:"expr"`
	IgnoreCase bool   `yaml:"ignoreCase"`
}

type Paging struct {
	PerPage int `yaml:"perPage"`
}

type Aggregation struct {
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value that the conversions below would reject.
func (c *Config) Validate() error {
	switch {
	case c.ChildDataKey != "" && c.ForeignKey != "":
		return invalid("foreignKey and childDataKey are mutually exclusive")
	case c.ChildDataKey == "" && (c.PrimaryKey == "" || c.ForeignKey == ""):
		return invalid("flat data needs primaryKey and foreignKey, nested data needs childDataKey")
	case c.BatchEditing && c.PrimaryKey == "":
		return invalid("batchEditing needs primaryKey")
	case c.ExpansionDepth != nil && *c.ExpansionDepth < 0:
		return invalid("expansionDepth cannot be negative")
	case c.Paging.PerPage < 0:
		return invalid("paging.perPage cannot be negative")
	case c.GroupKey != "" && c.GroupKey == c.GroupChildrenKey:
		return errors.Wrap(ErrInvalidConfig, grouping.ErrSameKeys.Error())
	}

	if _, err := c.ColumnSet(); err != nil {
		return err
	}
	if _, err := c.SortExpressions(); err != nil {
		return err
	}
	if _, err := c.GroupExpressions(); err != nil {
		return err
	}
	if _, err := c.FilterTree(); err != nil {
		return err
	}
	for _, a := range c.Aggregations {
		if a.Field == "" {
			return invalid("aggregation without field")
		}
		if _, err := aggregates.ParseAggregateType(a.Type); err != nil {
			return errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}
	if _, err := logging.New(io.Discard, c.Logging.Level, c.Logging.Format); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

func invalid(msg string) error {
	return errors.Wrap(ErrInvalidConfig, msg)
}

// ColumnSet builds the column metadata.
func (c *Config) ColumnSet() (*columns.Set, error) {
	set := columns.NewSet()
	for _, col := range c.Columns {
		if col.Field == "" {
			return nil, invalid("column without field")
		}
		dt, err := columns.ParseDataType(col.DataType)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "column %s: unknown data type %q", col.Field, col.DataType)
		}
		def := columns.NewColumnDef(col.Field, col.Header, dt)
		if col.Format != "" {
			def.WithFormat(col.Format)
		}
		if col.Locale != "" {
			tag, err := language.Parse(col.Locale)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidConfig, "column %s: locale %q", col.Field, col.Locale)
			}
			def.WithLocale(tag)
		}
		if col.Timezone != "" {
			loc, err := time.LoadLocation(col.Timezone)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidConfig, "column %s: timezone %q", col.Field, col.Timezone)
			}
			def.WithLocation(loc)
		}
		if col.Currency != "" {
			def.WithCurrency(col.Currency)
		}
		set.Add(def)
	}
	return set, nil
}

// SortExpressions converts the sorting section. The direction defaults to
// ascending.
func (c *Config) SortExpressions() ([]sorting.Expression, error) {
	return expressions("sorting", c.Sorting)
}

// GroupExpressions converts the grouping section. The direction defaults to
// ascending.
func (c *Config) GroupExpressions() ([]sorting.Expression, error) {
	return expressions("grouping", c.Grouping)
}

func expressions(section string, in []Expression) ([]sorting.Expression, error) {
	var out []sorting.Expression
	for _, e := range in {
		if e.Field == "" {
			return nil, errors.Wrapf(ErrInvalidConfig, "%s expression without field", section)
		}
		dir := sorting.Ascending
		if e.Dir != "" {
			d, err := sorting.ParseDirection(e.Dir)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidConfig, "%s: %v", section, err)
			}
			dir = d
		}
		out = append(out, sorting.Expression{Field: e.Field, Dir: dir, IgnoreCase: e.IgnoreCase})
	}
	return out, nil
}

// FilterTree combines the quick filters with and. It returns nil without
// filters.
func (c *Config) FilterTree() (*filtering.Tree, error) {
	if len(c.Filters) == 0 {
		return nil, nil
	}
	tree := filtering.NewTree(filtering.And)
	for _, f := range c.Filters {
		if f.Field == "" {
			return nil, invalid("filter without field")
		}
		quick, err := filtering.Parse(f.Field, f.Expr, f.IgnoreCase)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "filter on %s: %v", f.Field, err)
		}
		tree.Add(quick)
	}
	return tree, nil
}

// TreeOptions converts the hierarchy settings.
func (c *Config) TreeOptions() records.Options {
	depth := records.ExpandAll
	if c.ExpansionDepth != nil {
		depth = *c.ExpansionDepth
	}
	return records.Options{
		PrimaryKey:      c.PrimaryKey,
		ForeignKey:      c.ForeignKey,
		ChildDataKey:    c.ChildDataKey,
		HasChildrenKey:  c.HasChildrenKey,
		CascadeOnDelete: c.CascadeOnDelete,
		ExpansionDepth:  depth,
	}
}

// GridOptions converts the configuration into grid options. Journal, IDs
// and LoadChildren are left to the caller.
func (c *Config) GridOptions(logger log.Logger) (treegrid.Options, error) {
	set, err := c.ColumnSet()
	if err != nil {
		return treegrid.Options{}, err
	}
	opts := treegrid.Options{
		Tree:             c.TreeOptions(),
		Columns:          set,
		BatchEditing:     c.BatchEditing,
		GroupKey:         c.GroupKey,
		GroupChildrenKey: c.GroupChildrenKey,
		PerPage:          c.Paging.PerPage,
		Logger:           logger,
	}
	for _, a := range c.Aggregations {
		t, err := aggregates.ParseAggregateType(a.Type)
		if err != nil {
			return treegrid.Options{}, errors.Wrap(ErrInvalidConfig, err.Error())
		}
		col, _ := set.Column(a.Field)
		opts.Aggregations = append(opts.Aggregations, aggregates.NewAggregation(a.Field, t, col))
	}
	return opts, nil
}

// Apply sets the configured sorting, grouping and filters on a grid.
func (c *Config) Apply(g *treegrid.Grid) error {
	sort, err := c.SortExpressions()
	if err != nil {
		return err
	}
	group, err := c.GroupExpressions()
	if err != nil {
		return err
	}
	filter, err := c.FilterTree()
	if err != nil {
		return err
	}
	g.Sort(sort...)
	g.GroupBy(group...)
	return g.Filter(filter)
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger(w io.Writer) (log.Logger, error) {
	return logging.New(w, c.Logging.Level, c.Logging.Format)
}
