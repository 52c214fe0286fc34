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

package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/sorting"
	"github.com/google/hierarchia/core/treegrid"
)

func TestEmployees(t *testing.T) {
	cfg, err := Config()
	require.NoError(t, err)
	rows, err := Employees()
	require.NoError(t, err)
	require.Len(t, rows, 15)
	assert.Equal(t, float64(1), rows[0]["ID"])
	assert.Nil(t, rows[0]["ParentID"])
	assert.Equal(t, true, rows[1]["OnPTO"])

	tree, err := records.NewTree(rows, cfg.TreeOptions())
	require.NoError(t, err)
	var roots []any
	for _, r := range tree.Roots() {
		roots = append(roots, r.Key)
	}
	assert.Equal(t, []any{float64(1), float64(12), float64(15)}, roots)

	rec, ok := tree.Record(5)
	require.True(t, ok)
	assert.Equal(t, 3, rec.Level)
}

func TestNestedEmployees(t *testing.T) {
	cfg, err := NestedConfig()
	require.NoError(t, err)
	rows, err := NestedEmployees()
	require.NoError(t, err)

	tree, err := records.NewTree(rows, cfg.TreeOptions())
	require.NoError(t, err)
	assert.Equal(t, 8, tree.Len())
	path, err := tree.Path("tanya")
	require.NoError(t, err)
	assert.Equal(t, []any{"casey", "gilberto"}, path)
}

func TestDemoGrid(t *testing.T) {
	cfg, err := Config()
	require.NoError(t, err)
	opts, err := cfg.GridOptions(nil)
	require.NoError(t, err)
	rows, err := Employees()
	require.NoError(t, err)

	g, err := treegrid.New(rows, opts)
	require.NoError(t, err)
	g.GroupBy(sorting.Expression{Field: "Team", Dir: sorting.Ascending})
	v, err := g.View()
	require.NoError(t, err)

	var labels []string
	for _, r := range v.Rows {
		if r.Kind == treegrid.GroupRow {
			labels = append(labels, r.Group.Label)
		}
	}
	assert.Equal(t, []string{"Finance (1)", "Management (1)", "Operations (1)"}, labels)
	assert.Equal(t, float64(180000), v.Rows[findGroup(v, "Management (1)")].Group.Aggregates["Salary"])
}

func findGroup(v treegrid.View, label string) int {
	for i, r := range v.Rows {
		if r.Group != nil && r.Group.Label == label {
			return i
		}
	}
	return -1
}
