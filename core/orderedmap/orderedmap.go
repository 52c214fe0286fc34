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

// Package orderedmap provides a generic map that remembers insertion order.
// Records are kept in encounter order and grouping partitions in first-seen
// order, so both rely on it for deterministic output.
package orderedmap

import "iter"

// Map is a map that preserves the order of insertion.
type Map[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// New creates an empty ordered map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		keys:   make([]K, 0),
		values: make(map[K]V),
	}
}

// Set adds or updates a key-value pair. Updating an existing key keeps its
// original position.
func (m *Map[K, V]) Set(key K, value V) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	val, exists := m.values[key]
	return val, exists
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) bool {
	_, exists := m.values[key]
	return exists
}

// Delete removes a key-value pair.
func (m *Map[K, V]) Delete(key K) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns all keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	result := make([]K, len(m.keys))
	copy(result, m.keys)
	return result
}

// Values returns all values in insertion order.
func (m *Map[K, V]) Values() []V {
	result := make([]V, len(m.keys))
	for i, k := range m.keys {
		result[i] = m.values[k]
	}
	return result
}

// Len returns the number of key-value pairs.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Clear removes all key-value pairs.
func (m *Map[K, V]) Clear() {
	m.keys = m.keys[:0]
	m.values = make(map[K]V)
}

// Range iterates over the map in insertion order.
// If f returns false, iteration stops.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	for _, k := range m.keys {
		if !f(k, m.values[k]) {
			break
		}
	}
}

// All returns an iterator over the pairs in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.Range(yield)
	}
}
