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

// Package records materializes grid data into a tree of records. Data comes
// either flat, where every row carries a primary key and a foreign key
// pointing at its parent's primary key, or nested, where every row holds its
// children in a child-collection field.
package records

// Row is one plain data object as handed to the grid.
type Row = map[string]any

// Record wraps one data row with its position in the hierarchy.
type Record struct {
	Key       any // normalized primary key or allocated identity
	ParentKey any // nil for roots
	Data      Row
	Parent    *Record
	Children  []*Record
	Level     int
	Expanded  bool
	// HasChildren is set when the record has loaded children or the row
	// reports children that can be loaded on demand.
	HasChildren bool
}

// IsRoot reports whether the record has no parent.
func (r *Record) IsRoot() bool {
	return r.Parent == nil
}

// ChildKeys returns the keys of the direct children in order.
func (r *Record) ChildKeys() []any {
	keys := make([]any, len(r.Children))
	for i, c := range r.Children {
		keys[i] = c.Key
	}
	return keys
}

// Size returns the number of records in the subtree rooted at r, r included.
func (r *Record) Size() int {
	n := 1
	for _, c := range r.Children {
		n += c.Size()
	}
	return n
}

// Walk visits the subtree rooted at r in pre-order. Returning false from fn
// skips the children of the visited record.
func (r *Record) Walk(fn func(*Record) bool) {
	if !fn(r) {
		return
	}
	for _, c := range r.Children {
		c.Walk(fn)
	}
}

// isAncestorOf reports whether r is a proper ancestor of other.
func (r *Record) isAncestorOf(other *Record) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == r {
			return true
		}
	}
	return false
}
