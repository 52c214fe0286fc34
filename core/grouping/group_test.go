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

package grouping

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/sorting"
)

// staff returns 18 rows, 13 of them with OnPTO false.
func staff() []Row {
	rows := make([]Row, 0, 18)
	for i := 0; i < 18; i++ {
		team := "Sales"
		if i%3 == 0 {
			team = "Engineering"
		}
		rows = append(rows, Row{
			"ID":     i + 1,
			"OnPTO":  i%4 == 1,
			"Team":   team,
			"Salary": 1000 * (i + 1),
		})
	}
	return rows
}

func by(fields ...string) []sorting.Expression {
	exprs := make([]sorting.Expression, len(fields))
	for i, f := range fields {
		exprs[i] = sorting.Expression{Field: f, Dir: sorting.Ascending}
	}
	return exprs
}

func labels(groups []Row) []any {
	out := make([]any, len(groups))
	for i, g := range groups {
		out[i] = g[DefaultGroupKey]
	}
	return out
}

func TestPipeIdentity(t *testing.T) {
	rows := staff()
	got, err := Pipe(rows, nil, Options{})
	require.NoError(t, err)
	assert.Same(t, &rows[0], &got[0])
	assert.Len(t, got, len(rows))
}

func TestPipeSameKeys(t *testing.T) {
	_, err := Pipe(staff(), by("OnPTO"), Options{GroupKey: "x", ChildDataKey: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSameKeys))
	assert.Equal(t, "Group key and child data key cannot be the same", err.Error())
}

func TestPipeBoolean(t *testing.T) {
	rows := staff()
	groups, err := Pipe(rows, by("OnPTO"), Options{})
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, []any{"false (13)", "true (5)"}, labels(groups))
	assert.Len(t, Members(groups[0], DefaultChildDataKey), 13)
	assert.Len(t, Members(groups[1], DefaultChildDataKey), 5)

	key, ok := RawKey(groups[1])
	require.True(t, ok)
	assert.Equal(t, Key{Field: "OnPTO", Value: true}, key)

	// Leaves are the original rows, in input order.
	first := Members(groups[0], DefaultChildDataKey)[0]
	first["marker"] = 1
	assert.Equal(t, 1, rows[0]["marker"])
	assert.False(t, IsGroup(first))
}

func TestPipeNested(t *testing.T) {
	groups, err := Pipe(staff(), by("Team", "OnPTO"), Options{})
	require.NoError(t, err)

	assert.Equal(t, []any{"Engineering (6)", "Sales (12)"}, labels(groups))
	sales := Members(groups[1], DefaultChildDataKey)
	assert.Equal(t, []any{"true (4)", "false (8)"}, labels(sales))
	assert.True(t, IsGroup(sales[0]))
	assert.Len(t, Leaves(groups[1], DefaultChildDataKey), 12)
	assert.Len(t, Leaves(sales[0], DefaultChildDataKey), 4)
}

func TestPipeIgnoreCase(t *testing.T) {
	rows := []Row{
		{"City": "Sofia"},
		{"City": "SOFIA"},
		{"City": "Plovdiv"},
		{"City": "sofia"},
	}
	exprs := []sorting.Expression{{Field: "City", IgnoreCase: true}}
	groups, err := Pipe(rows, exprs, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"Sofia (3)", "Plovdiv (1)"}, labels(groups))

	groups, err = Pipe(rows, by("City"), Options{})
	require.NoError(t, err)
	assert.Len(t, groups, 4)
}

func TestPipeDates(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{"Hired": day.Add(9 * time.Hour)},
		{"Hired": day.Add(17 * time.Hour)},
		{"Hired": day.Add(30 * time.Hour)},
	}
	cols := columns.NewSet(columns.NewColumnDef("Hired", "", columns.TypeDate))

	groups, err := Pipe(rows, by("Hired"), Options{Columns: cols})
	require.NoError(t, err)
	assert.Equal(t, []any{"2024-05-02 (2)", "2024-05-03 (1)"}, labels(groups))
	key, _ := RawKey(groups[0])
	assert.Equal(t, day.Add(9*time.Hour), key.Value)

	// Without column metadata every timestamp is its own group.
	groups, err = Pipe(rows, by("Hired"), Options{})
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestPipeBlankAndNumbers(t *testing.T) {
	rows := []Row{{"N": 1}, {"N": 1.0}, {"N": nil}, {"N": int64(2)}}
	groups, err := Pipe(rows, by("N"), Options{GroupKey: "label", ChildDataKey: "rows"})
	require.NoError(t, err)
	var got []any
	for _, g := range groups {
		got = append(got, g["label"])
	}
	assert.Equal(t, []any{"1 (2)", "(Blank) (1)", "2 (1)"}, got)
}

func TestPipeAggregations(t *testing.T) {
	var seen []string
	sum := Aggregation{
		Field: "Total",
		Reduce: func(group Row, leaves []Row) any {
			seen = append(seen, fmt.Sprint(group[DefaultGroupKey]))
			total := 0
			for _, l := range leaves {
				total += l["Salary"].(int)
			}
			return total
		},
	}
	count := Aggregation{
		Field: "Both",
		Reduce: func(group Row, leaves []Row) any {
			return fmt.Sprintf("%d/%d", group["Total"], len(leaves))
		},
	}

	groups, err := Pipe(staff(), by("Team", "OnPTO"), Options{Aggregations: []Aggregation{sum, count}})
	require.NoError(t, err)

	// 1000 * (1 + 2 + ... + 18)
	assert.Equal(t, 171000, groups[0]["Total"].(int)+groups[1]["Total"].(int))
	assert.Equal(t, "51000/6", groups[0]["Both"])
	// Inner groups are aggregated before their parent.
	assert.Equal(t, []string{"false (5)", "true (1)", "Engineering (6)", "true (4)", "false (8)", "Sales (12)"}, seen)
}

func TestPipeIdempotent(t *testing.T) {
	rows := staff()
	a, err := Pipe(rows, by("Team", "OnPTO"), Options{})
	require.NoError(t, err)
	b, err := Pipe(rows, by("Team", "OnPTO"), Options{})
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Pipe() is not repeatable (-first +second):\n%s", diff)
	}
}
