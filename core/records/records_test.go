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

package records

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatOptions() Options {
	return Options{PrimaryKey: "ID", ForeignKey: "ParentID", ExpansionDepth: ExpandAll}
}

func employees() []Row {
	return []Row{
		{"ID": 1, "ParentID": -1, "Name": "Casey Houston"},
		{"ID": 2, "ParentID": 1, "Name": "Gilberto Todd"},
		{"ID": 3, "ParentID": 2, "Name": "Tanya Bennett"},
		{"ID": 4, "ParentID": 1, "Name": "Jack Simon"},
		{"ID": 5, "ParentID": -1, "Name": "Debra Morton"},
		{"ID": 6, "ParentID": 5, "Name": "Erma Walsh"},
		{"ID": 7, "ParentID": 42, "Name": "Orphan Row"},
	}
}

func nested() []Row {
	return []Row{
		{"ID": "a", "Employees": []Row{
			{"ID": "a1"},
			{"ID": "a2", "Employees": []any{Row{"ID": "a2x"}}},
		}},
		{"ID": "b", "Employees": nil},
		{"ID": "c"},
	}
}

func keysOf(recs []*Record) []any {
	keys := make([]any, len(recs))
	for i, r := range recs {
		keys[i] = r.Key
	}
	return keys
}

func levelOf(t *testing.T, tree *Tree, key any) int {
	t.Helper()
	rec, ok := tree.Record(key)
	require.True(t, ok, "record %v", key)
	return rec.Level
}

func checkTree(t *testing.T, tree *Tree, rows int) {
	t.Helper()
	require.Equal(t, rows, tree.Len())
	total := 0
	for _, r := range tree.Roots() {
		total += r.Size()
	}
	assert.Equal(t, tree.Len(), total, "every record reachable from exactly one root")
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"flat", Options{PrimaryKey: "ID", ForeignKey: "ParentID"}, true},
		{"nested", Options{ChildDataKey: "Children"}, true},
		{"nested with key", Options{PrimaryKey: "ID", ChildDataKey: "Children"}, true},
		{"flat without foreign key", Options{PrimaryKey: "ID"}, false},
		{"same keys", Options{PrimaryKey: "ID", ForeignKey: "ID"}, false},
		{"both shapes", Options{PrimaryKey: "ID", ForeignKey: "P", ChildDataKey: "C"}, false},
		{"child key is primary key", Options{PrimaryKey: "C", ChildDataKey: "C"}, false},
		{"negative depth", Options{ChildDataKey: "C", ExpansionDepth: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidOptions), "got %v", err)
			}
		})
	}
}

func TestFlatMaterialize(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)
	checkTree(t, tree, 7)

	assert.Equal(t, []any{1.0, 5.0, 7.0}, keysOf(tree.Roots()))
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0}, keysOf(tree.Records()))

	rec, _ := tree.Record(3)
	assert.Equal(t, 2, rec.Level)
	assert.Equal(t, 2.0, rec.ParentKey)

	path, err := tree.Path(3)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, path)

	desc, err := tree.Descendants(1)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0, 3.0, 4.0}, keysOf(desc))
}

func TestRootClassification(t *testing.T) {
	data := employees()
	tree, err := NewTree(data, flatOptions())
	require.NoError(t, err)

	keys := map[any]bool{}
	for _, row := range data {
		keys[float64(row["ID"].(int))] = true
	}
	for _, rec := range tree.Records() {
		parent := float64(rec.Data["ParentID"].(int))
		assert.Equal(t, !keys[parent], rec.IsRoot(), "record %v", rec.Key)
	}
}

func TestFlatMaterializeErrors(t *testing.T) {
	_, err := NewTree([]Row{{"ID": 1}, {"ID": 1.0}}, flatOptions())
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	_, err = NewTree([]Row{{"ParentID": 1}}, flatOptions())
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestForeignKeyCycle(t *testing.T) {
	data := []Row{
		{"ID": 1, "ParentID": 2},
		{"ID": 2, "ParentID": 1},
		{"ID": 3, "ParentID": -1},
	}
	tree, err := NewTree(data, flatOptions())
	require.NoError(t, err)
	checkTree(t, tree, 3)
	assert.Equal(t, []any{1.0, 3.0}, keysOf(tree.Roots()))
	assert.Equal(t, 1, levelOf(t, tree, 2))

	// A row pointing into a cycle stays below it.
	tail, err := NewTree([]Row{
		{"ID": "c", "ParentID": "a"},
		{"ID": "a", "ParentID": "b"},
		{"ID": "b", "ParentID": "a"},
	}, flatOptions())
	require.NoError(t, err)
	checkTree(t, tail, 3)
	assert.Equal(t, []any{"a"}, keysOf(tail.Roots()))
	assert.Equal(t, 1, levelOf(t, tail, "b"))
	assert.Equal(t, 1, levelOf(t, tail, "c"))
	c, _ := tail.Record("c")
	assert.Equal(t, "a", c.ParentKey)
}

func TestNestedMaterialize(t *testing.T) {
	tree, err := NewTree(nested(), Options{PrimaryKey: "ID", ChildDataKey: "Employees", ExpansionDepth: 1})
	require.NoError(t, err)
	checkTree(t, tree, 6)

	assert.Equal(t, []any{"a", "b", "c"}, keysOf(tree.Roots()))
	assert.Equal(t, 2, levelOf(t, tree, "a2x"))

	b, _ := tree.Record("b")
	assert.False(t, b.HasChildren)

	// Only the first level starts expanded.
	assert.Equal(t, []any{"a", "a1", "a2", "b", "c"}, keysOf(tree.Flatten()))
}

func TestNestedIdentityKeys(t *testing.T) {
	data := []Row{{"Name": "x", "Kids": []Row{{"Name": "y"}}}}
	tree, err := NewTree(data, Options{ChildDataKey: "Kids", ExpansionDepth: ExpandAll})
	require.NoError(t, err)
	before := keysOf(tree.Records())

	require.NoError(t, tree.Materialize())
	assert.Equal(t, before, keysOf(tree.Records()), "identity keys are stable")
	assert.Equal(t, []any{"row-1", "row-2"}, before)
}

func TestFlatten(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0}, keysOf(tree.Flatten()))

	require.NoError(t, tree.Collapse(2))
	assert.Equal(t, []any{1.0, 2.0, 4.0, 5.0, 6.0, 7.0}, keysOf(tree.Flatten()))

	require.NoError(t, tree.Collapse(1))
	assert.Equal(t, []any{1.0, 5.0, 6.0, 7.0}, keysOf(tree.Flatten()))

	// Expanding a parent restores the collapsed state of its children.
	require.NoError(t, tree.Toggle(1))
	assert.Equal(t, []any{1.0, 2.0, 4.0, 5.0, 6.0, 7.0}, keysOf(tree.Flatten()))

	tree.CollapseAll()
	assert.Equal(t, []any{1.0, 5.0, 7.0}, keysOf(tree.Flatten()))
	tree.ExpandAll()
	assert.Len(t, tree.Flatten(), 7)

	tree.SetExpansionDepth(0)
	assert.False(t, tree.IsExpanded(1))
}

func TestFlattenWithOrder(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)
	reverse := func(s []*Record) []*Record {
		out := make([]*Record, len(s))
		for i, r := range s {
			out[len(s)-1-i] = r
		}
		return out
	}
	got := keysOf(FlattenWith(tree.Roots(), reverse))
	want := []any{7.0, 5.0, 6.0, 1.0, 4.0, 2.0, 3.0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FlattenWith() mismatch (-want +got):\n%s", diff)
	}
}

func TestExpansionSurvivesMaterialize(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)
	require.NoError(t, tree.Collapse(5))
	require.NoError(t, tree.AddRow(Row{"ID": 8, "Name": "New"}, 1))
	assert.False(t, tree.IsExpanded(5))
	assert.True(t, tree.IsExpanded(1))
}

func TestAddRow(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)

	row := Row{"Name": "Generated"}
	require.NoError(t, tree.AddRow(row, 2))
	checkTree(t, tree, 8)
	assert.Equal(t, "row-1", row["ID"])
	assert.Equal(t, 2, row["ParentID"])
	assert.Equal(t, 2, levelOf(t, tree, "row-1"))

	require.NoError(t, tree.AddRow(Row{"ID": 100, "ParentID": -1}, nil))
	assert.Equal(t, 0, levelOf(t, tree, 100))

	err = tree.AddRow(Row{"ID": 100}, nil)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	checkTree(t, tree, 9)
}

func TestAddRowInvalidParent(t *testing.T) {
	data := employees()
	tree, err := NewTree(data, flatOptions())
	require.NoError(t, err)

	row := Row{"ID": 50}
	err = tree.AddRow(row, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParent))
	assert.Equal(t, "Invalid parent row ID!", errors.Cause(err).Error())
	checkTree(t, tree, len(data))
	assert.Len(t, tree.Data(), len(data))
	assert.NotContains(t, row, "ParentID")
}

type deleted map[any]bool

func (d deleted) IsDeleted(key any) bool { return d[key] }

func TestAddRowDeletedParent(t *testing.T) {
	opts := flatOptions()
	opts.Pending = deleted{5.0: true}
	tree, err := NewTree(employees(), opts)
	require.NoError(t, err)

	err = tree.AddRow(Row{"ID": 50}, 5)
	assert.True(t, errors.Is(err, ErrParentDeleted))
	assert.Equal(t, "Cannot add child row to deleted parent row!", errors.Cause(err).Error())
	assert.Equal(t, 7, tree.Len())
}

func TestAddRowNested(t *testing.T) {
	data := nested()
	tree, err := NewTree(data, Options{PrimaryKey: "ID", ChildDataKey: "Employees"})
	require.NoError(t, err)

	// A nil child collection is created on demand.
	require.NoError(t, tree.AddRow(Row{"ID": "b1"}, "b"))
	require.NoError(t, tree.AddRow(Row{"ID": "c1"}, "c"))
	require.NoError(t, tree.AddRow(Row{"ID": "d"}, nil))
	checkTree(t, tree, 9)
	assert.Equal(t, 1, levelOf(t, tree, "c1"))
	assert.Len(t, data[2]["Employees"], 1)
	assert.Equal(t, []any{"a", "b", "c", "d"}, keysOf(tree.Roots()))

	err = tree.AddRow(Row{"ID": "a1"}, "d")
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	checkTree(t, tree, 9)
}

func TestAddRowNestedRollback(t *testing.T) {
	data := nested()
	tree, err := NewTree(data, Options{PrimaryKey: "ID", ChildDataKey: "Employees"})
	require.NoError(t, err)

	// The new row carries a child whose key already exists.
	err = tree.AddRow(Row{"ID": "n", "Employees": []Row{{"ID": "a1"}}}, "c")
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.NotContains(t, data[2], "Employees")
	checkTree(t, tree, 6)
}

func TestChainKeyChange(t *testing.T) {
	data := []Row{
		{"ID": 1, "ParentID": -1},
		{"ID": 2, "ParentID": 1},
		{"ID": 3, "ParentID": 2},
	}
	tree, err := NewTree(data, flatOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, levelOf(t, tree, 1))
	assert.Equal(t, 1, levelOf(t, tree, 2))
	assert.Equal(t, 2, levelOf(t, tree, 3))

	require.NoError(t, tree.UpdateRow(1, Row{"ID": 99}))
	checkTree(t, tree, 3)
	assert.Equal(t, []any{99.0, 2.0}, keysOf(tree.Roots()))
	assert.Equal(t, 0, levelOf(t, tree, 99))
	assert.Equal(t, 0, levelOf(t, tree, 2))
	assert.Equal(t, 1, levelOf(t, tree, 3))
	_, ok := tree.Record(1)
	assert.False(t, ok)
}

func TestUpdateRowReparent(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)

	require.NoError(t, tree.UpdateRow(2, Row{"ParentID": 5}))
	assert.Equal(t, 1, levelOf(t, tree, 2))
	assert.Equal(t, 2, levelOf(t, tree, 3), "descendants move with the row")
	path, _ := tree.Path(3)
	assert.Equal(t, []any{5.0, 2.0}, path)

	err = tree.UpdateRow(5, Row{"ParentID": 3})
	assert.True(t, errors.Is(err, ErrInvalidParent))
	rec, _ := tree.Record(5)
	assert.Equal(t, -1, rec.Data["ParentID"])

	err = tree.UpdateRow(5, Row{"ID": 1})
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	err = tree.UpdateRow(404, Row{"Name": "x"})
	assert.True(t, errors.Is(err, ErrRowNotFound))
}

func TestDeleteRowPromotes(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)

	require.NoError(t, tree.DeleteRow(1))
	checkTree(t, tree, 6)
	assert.Equal(t, []any{2.0, 4.0, 5.0, 7.0}, keysOf(tree.Roots()))
	assert.Equal(t, 0, levelOf(t, tree, 2))
	assert.Equal(t, 0, levelOf(t, tree, 4))
	assert.Equal(t, 1, levelOf(t, tree, 3))
}

func TestDeleteRowPromotesToGrandparent(t *testing.T) {
	tree, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)

	require.NoError(t, tree.DeleteRow(2))
	path, _ := tree.Path(3)
	assert.Equal(t, []any{1.0}, path)
	rec, _ := tree.Record(1)
	assert.Equal(t, []any{3.0, 4.0}, rec.ChildKeys())
}

func TestDeleteRowCascade(t *testing.T) {
	opts := flatOptions()
	opts.CascadeOnDelete = true
	tree, err := NewTree(employees(), opts)
	require.NoError(t, err)

	rec, _ := tree.Record(1)
	size := rec.Size()
	before := tree.Len()
	require.NoError(t, tree.DeleteRow(1))
	checkTree(t, tree, before-size)
	assert.Equal(t, []any{5.0, 7.0}, keysOf(tree.Roots()))

	assert.True(t, errors.Is(tree.DeleteRow(1), ErrRowNotFound))
}

func TestDeleteRowNested(t *testing.T) {
	tests := []struct {
		name    string
		cascade bool
		key     any
		roots   []any
		count   int
	}{
		{"promote root children", false, "a", []any{"a1", "a2", "b", "c"}, 5},
		{"cascade root", true, "a", []any{"b", "c"}, 2},
		{"promote inner", false, "a2", []any{"a", "b", "c"}, 5},
		{"cascade inner", true, "a2", []any{"a", "b", "c"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewTree(nested(), Options{PrimaryKey: "ID", ChildDataKey: "Employees", CascadeOnDelete: tt.cascade})
			require.NoError(t, err)
			require.NoError(t, tree.DeleteRow(tt.key))
			checkTree(t, tree, tt.count)
			assert.Equal(t, tt.roots, keysOf(tree.Roots()))
		})
	}
}

func TestLazyChildren(t *testing.T) {
	calls := 0
	opts := flatOptions()
	opts.ExpansionDepth = 0
	opts.HasChildrenKey = "HasEmployees"
	opts.LoadChildren = func(parent Row) ([]Row, error) {
		calls++
		return []Row{{"ID": 10}, {"ID": 11}}, nil
	}
	tree, err := NewTree([]Row{{"ID": 1, "ParentID": -1, "HasEmployees": true}}, opts)
	require.NoError(t, err)

	rec, _ := tree.Record(1)
	assert.True(t, rec.HasChildren)
	assert.Empty(t, rec.Children)

	require.NoError(t, tree.Expand(1))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []any{1.0, 10.0, 11.0}, keysOf(tree.Flatten()))

	require.NoError(t, tree.Collapse(1))
	require.NoError(t, tree.Expand(1))
	assert.Equal(t, 1, calls, "children are loaded once")
}

func TestLazyChildrenError(t *testing.T) {
	opts := Options{PrimaryKey: "ID", ChildDataKey: "Kids"}
	opts.HasChildren = func(r Row) bool { return r["ID"] == "p" }
	opts.LoadChildren = func(Row) ([]Row, error) { return nil, errors.New("backend down") }
	tree, err := NewTree([]Row{{"ID": "p"}}, opts)
	require.NoError(t, err)

	err = tree.Expand("p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	assert.False(t, tree.IsExpanded("p"))
}

func TestLazyChildrenRejectedLeavesTreeUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		data   []Row
		loaded []Row
	}{
		{
			name:   "duplicate keys in loaded rows",
			opts:   Options{PrimaryKey: "ID", ForeignKey: "ParentID", HasChildrenKey: "More"},
			data:   []Row{{"ID": 1, "More": true}, {"ID": 2}},
			loaded: []Row{{"ID": 10}, {"ID": 10}},
		},
		{
			name:   "loaded row reuses an existing key",
			opts:   Options{PrimaryKey: "ID", ForeignKey: "ParentID", HasChildrenKey: "More"},
			data:   []Row{{"ID": 1, "More": true}, {"ID": 2}},
			loaded: []Row{{"ID": 2}},
		},
		{
			name:   "nested duplicate keys",
			opts:   Options{PrimaryKey: "ID", ChildDataKey: "Kids", HasChildrenKey: "More"},
			data:   []Row{{"ID": 1, "More": true}, {"ID": 2}},
			loaded: []Row{{"ID": 10}, {"ID": 10}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.LoadChildren = func(Row) ([]Row, error) { return tt.loaded, nil }
			tree, err := NewTree(tt.data, opts)
			require.NoError(t, err)

			err = tree.Expand(1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateKey))
			assert.Len(t, tree.Data(), 2)
			assert.Equal(t, 2, tree.Len())
			assert.False(t, tree.IsExpanded(1))
			_, hasKids := tree.Data()[0]["Kids"]
			assert.False(t, hasKids)

			require.NoError(t, tree.AddRow(Row{"ID": 3}, 1))
			require.NoError(t, tree.DeleteRow(2))
			assert.Equal(t, 2, tree.Len())
		})
	}
}

func TestSeparateTrees(t *testing.T) {
	data := employees()
	a, err := NewTree(data, flatOptions())
	require.NoError(t, err)
	b, err := NewTree(data, flatOptions())
	require.NoError(t, err)

	require.NoError(t, a.Collapse(1))
	assert.True(t, b.IsExpanded(1))
	ra, _ := a.Record(1)
	rb, _ := b.Record(1)
	assert.NotSame(t, ra, rb)
}

func TestRestoreExpansion(t *testing.T) {
	a, err := NewTree(employees(), flatOptions())
	require.NoError(t, err)
	require.NoError(t, a.Collapse(1))
	require.NoError(t, a.Expand(5))

	b, err := NewTree(employees(), Options{PrimaryKey: "ID", ForeignKey: "ParentID"})
	require.NoError(t, err)
	b.RestoreExpansion(a.ExpansionState())
	b.RestoreExpansion(map[any]bool{404.0: true})
	assert.False(t, b.IsExpanded(1))
	assert.True(t, b.IsExpanded(5))
	assert.Equal(t, map[any]bool{1.0: false, 5.0: true}, b.ExpansionState())
}
