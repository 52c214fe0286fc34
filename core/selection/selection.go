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

// Package selection keeps the set of selected items of a component and
// notifies observers whenever it changes.
package selection

import (
	"github.com/google/hierarchia/core/events"
	"github.com/google/hierarchia/core/orderedmap"
)

// Change describes one effective change of a selection.
type Change[K comparable] struct {
	Old     []K
	New     []K
	Added   []K
	Removed []K
}

// Guard reports whether an item may be selected. Header and disabled items
// are rejected by the guard of their component.
type Guard[K comparable] func(K) bool

// Set is an ordered set of selected items.
type Set[K comparable] struct {
	items   *orderedmap.Map[K, struct{}]
	guard   Guard[K]
	changes events.Emitter[Change[K]]
}

// New creates an empty selection. A nil guard accepts every item.
func New[K comparable](guard Guard[K]) *Set[K] {
	return &Set[K]{items: orderedmap.New[K, struct{}](), guard: guard}
}

// Changes returns the emitter notified after every effective change.
func (s *Set[K]) Changes() *events.Emitter[Change[K]] {
	return &s.changes
}

func (s *Set[K]) allowed(k K) bool {
	return s.guard == nil || s.guard(k)
}

// Add selects the given items. Items rejected by the guard are skipped.
// It returns the items that were newly selected.
func (s *Set[K]) Add(keys ...K) []K {
	old := s.Items()
	var added []K
	for _, k := range keys {
		if s.items.Has(k) || !s.allowed(k) {
			continue
		}
		s.items.Set(k, struct{}{})
		added = append(added, k)
	}
	s.emit(old, added, nil)
	return added
}

// Remove deselects the given items and returns the ones that were selected.
func (s *Set[K]) Remove(keys ...K) []K {
	old := s.Items()
	var removed []K
	for _, k := range keys {
		if !s.items.Has(k) {
			continue
		}
		s.items.Delete(k)
		removed = append(removed, k)
	}
	s.emit(old, nil, removed)
	return removed
}

// Toggle flips the selection of one item and reports whether it is
// selected afterwards.
func (s *Set[K]) Toggle(k K) bool {
	if s.items.Has(k) {
		s.Remove(k)
		return false
	}
	return len(s.Add(k)) == 1
}

// Select replaces the selection with the given items.
func (s *Set[K]) Select(keys ...K) {
	old := s.Items()
	next := orderedmap.New[K, struct{}]()
	for _, k := range keys {
		if s.allowed(k) {
			next.Set(k, struct{}{})
		}
	}

	var added, removed []K
	for _, k := range next.Keys() {
		if !s.items.Has(k) {
			added = append(added, k)
		}
	}
	for _, k := range old {
		if !next.Has(k) {
			removed = append(removed, k)
		}
	}
	s.items = next
	s.emit(old, added, removed)
}

// Clear deselects everything.
func (s *Set[K]) Clear() {
	s.Remove(s.Items()...)
}

// Has reports whether k is selected.
func (s *Set[K]) Has(k K) bool {
	return s.items.Has(k)
}

// Items returns the selected items in selection order.
func (s *Set[K]) Items() []K {
	return s.items.Keys()
}

// Len returns the number of selected items.
func (s *Set[K]) Len() int {
	return s.items.Len()
}

// Retain deselects every item keep rejects, e.g. rows that no longer exist.
func (s *Set[K]) Retain(keep func(K) bool) {
	var gone []K
	for _, k := range s.items.Keys() {
		if !keep(k) {
			gone = append(gone, k)
		}
	}
	if len(gone) > 0 {
		s.Remove(gone...)
	}
}

func (s *Set[K]) emit(old, added, removed []K) {
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	s.changes.Emit(Change[K]{Old: old, New: s.Items(), Added: added, Removed: removed})
}
