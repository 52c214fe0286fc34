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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/sorting"
	"github.com/google/hierarchia/core/treegrid"
)

const sample = `
primaryKey: ID
foreignKey: ParentID
expansionDepth: 1
batchEditing: true
columns:
  - field: Name
    header: Full name
  - field: Salary
    dataType: currency
    locale: de-DE
    currency: EUR
  - field: HireDate
    dataType: date
    format: 02.01.2006
    timezone: Europe/Berlin
sorting:
  - field: Name
    dir: desc
    ignoreCase: true
grouping:
  - field: Team
filters:
  - field: Team
    expr: '"Sales" | "Support"'
paging:
  perPage: 25
aggregations:
  - field: Salary
    type: sum
logging:
  level: debug
  format: json
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "ID", cfg.PrimaryKey)
	require.NotNil(t, cfg.ExpansionDepth)
	assert.Equal(t, 1, *cfg.ExpansionDepth)
	assert.Equal(t, 25, cfg.Paging.PerPage)

	set, err := cfg.ColumnSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Salary", "HireDate"}, set.Names())
	salary, _ := set.Column("Salary")
	assert.Equal(t, columns.TypeCurrency, salary.DataType())
	hired, _ := set.Column("HireDate")
	assert.Equal(t, "02.01.2006", hired.Format())
	assert.Equal(t, "Europe/Berlin", hired.Location().String())
	name, _ := set.Column("Name")
	assert.Equal(t, "Full name", name.DisplayName())

	sort, err := cfg.SortExpressions()
	require.NoError(t, err)
	assert.Equal(t, []sorting.Expression{{Field: "Name", Dir: sorting.Descending, IgnoreCase: true}}, sort)
	group, err := cfg.GroupExpressions()
	require.NoError(t, err)
	assert.Equal(t, []sorting.Expression{{Field: "Team", Dir: sorting.Ascending}}, group)

	filter, err := cfg.FilterTree()
	require.NoError(t, err)
	assert.False(t, filter.Empty())
}

func TestTreeOptionsExpansionDepth(t *testing.T) {
	cfg := &Config{PrimaryKey: "ID", ForeignKey: "ParentID"}
	assert.Equal(t, records.ExpandAll, cfg.TreeOptions().ExpansionDepth)

	zero := 0
	cfg.ExpansionDepth = &zero
	assert.Equal(t, 0, cfg.TreeOptions().ExpansionDepth)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "primaryKey: ID\nforeignKey: P\nprimary: x\n"},
		{"no keys", "cascadeOnDelete: true\n"},
		{"both shapes", "primaryKey: ID\nforeignKey: P\nchildDataKey: C\n"},
		{"batch without primary key", "childDataKey: C\nbatchEditing: true\n"},
		{"negative depth", "childDataKey: C\nexpansionDepth: -1\n"},
		{"negative page size", "childDataKey: C\npaging:\n  perPage: -5\n"},
		{"same group keys", "childDataKey: C\ngroupKey: g\ngroupChildrenKey: g\n"},
		{"data type", "childDataKey: C\ncolumns:\n  - field: A\n    dataType: blob\n"},
		{"locale", "childDataKey: C\ncolumns:\n  - field: A\n    locale: '!!'\n"},
		{"timezone", "childDataKey: C\ncolumns:\n  - field: A\n    timezone: Mars/Olympus\n"},
		{"direction", "childDataKey: C\nsorting:\n  - field: A\n    dir: sideways\n"},
		{"filter", "childDataKey: C\nfilters:\n  - field: A\n    expr: '\"open'\n"},
		{"aggregate", "childDataKey: C\naggregations:\n  - field: A\n    type: median\n"},
		{"log level", "childDataKey: C\nlogging:\n  level: loud\n"},
		{"log format", "childDataKey: C\nlogging:\n  format: xml\n"},
		{"malformed", "primaryKey: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.BatchEditing)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGridOptionsAndApply(t *testing.T) {
	cfg, err := Parse([]byte(`
primaryKey: ID
foreignKey: ParentID
columns:
  - field: Salary
    dataType: number
grouping:
  - field: Team
filters:
  - field: Team
    expr: Sales
aggregations:
  - field: Salary
    type: sum
`))
	require.NoError(t, err)

	opts, err := cfg.GridOptions(nil)
	require.NoError(t, err)
	require.Len(t, opts.Aggregations, 1)

	g, err := treegrid.New([]records.Row{
		{"ID": 1, "Team": "Sales", "Salary": 10},
		{"ID": 2, "Team": "Sales", "Salary": 20},
		{"ID": 3, "Team": "Support", "Salary": 40},
	}, opts)
	require.NoError(t, err)
	require.NoError(t, cfg.Apply(g))

	v, err := g.View()
	require.NoError(t, err)
	require.Len(t, v.Rows, 3)
	group := v.Rows[0].Group
	require.NotNil(t, group)
	assert.Equal(t, "Sales (2)", group.Label)
	assert.Equal(t, float64(30), group.Aggregates["Salary"])
}
