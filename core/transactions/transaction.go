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

// Package transactions records pending row changes of a grid in batch
// editing mode. Changes are kept in an append-only log of steps that can be
// undone, redone and finally committed to the data.
package transactions

import (
	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/records"
)

// Kind is the kind of change a transaction records.
type Kind int

const (
	Add Kind = iota
	Update
	Delete
)

var kindNames = []string{"add", "update", "delete"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func parseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Transaction is one change of one row.
type Transaction struct {
	ID     string
	Kind   Kind
	RowKey any
	// Value is the new row for Add and the changed fields for Update.
	Value records.Row
	// ParentKey is the parent an added row goes under, nil for roots.
	ParentKey any
	// Path holds the ancestor keys of the row, outermost first, for
	// hierarchical data.
	Path []any
}

// State is the combined effect of all pending transactions of one row.
type State struct {
	Kind      Kind
	RowKey    any
	Value     records.Row
	ParentKey any
	Path      []any
}

// merge folds tx into the state. It returns false when the row has no
// remaining effect, which happens when an added row is deleted again.
func (s *State) merge(tx Transaction) bool {
	switch tx.Kind {
	case Update:
		if s.Kind == Delete {
			return true
		}
		s.Value = mergeRows(s.Value, tx.Value)
	case Delete:
		if s.Kind == Add {
			return false
		}
		s.Kind = Delete
		s.Value = nil
	case Add:
		// Re-adding a deleted row replaces its content.
		if s.Kind == Delete {
			s.Kind = Update
		}
		s.Value = mergeRows(nil, tx.Value)
		s.ParentKey = tx.ParentKey
	}
	if tx.Path != nil {
		s.Path = tx.Path
	}
	return true
}

func newState(tx Transaction) *State {
	return &State{
		Kind:      tx.Kind,
		RowKey:    tx.RowKey,
		Value:     mergeRows(nil, tx.Value),
		ParentKey: tx.ParentKey,
		Path:      tx.Path,
	}
}

func mergeRows(base, changes records.Row) records.Row {
	if base == nil && changes == nil {
		return nil
	}
	merged := make(records.Row, len(base)+len(changes))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range changes {
		merged[k] = v
	}
	return merged
}

func keyOf(v any) any {
	return columns.Normalize(v)
}
