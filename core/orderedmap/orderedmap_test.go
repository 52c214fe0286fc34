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

package orderedmap

import (
	"testing"
)

func TestMap(t *testing.T) {
	om := New[string, int]()

	om.Set("first", 1)
	om.Set("second", 2)
	om.Set("third", 3)

	if om.Len() != 3 {
		t.Errorf("Expected length 3, got %d", om.Len())
	}

	val, exists := om.Get("second")
	if !exists || val != 2 {
		t.Errorf("Expected Get('second') to return 2, got %d", val)
	}

	keys := om.Keys()
	expected := []string{"first", "second", "third"}
	if len(keys) != len(expected) {
		t.Fatalf("Expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range keys {
		if key != expected[i] {
			t.Errorf("Expected key[%d] = %s, got %s", i, expected[i], key)
		}
	}

	// Updating an existing key must not move it
	om.Set("first", 10)
	keys = om.Keys()
	if keys[0] != "first" {
		t.Errorf("Updating value should not change key order")
	}
	if v, _ := om.Get("first"); v != 10 {
		t.Errorf("Expected updated value 10, got %d", v)
	}

	om.Delete("second")
	om.Delete("missing")
	keys = om.Keys()
	expected = []string{"first", "third"}
	if len(keys) != len(expected) {
		t.Fatalf("Expected %d keys after delete, got %d", len(expected), len(keys))
	}
	for i, key := range keys {
		if key != expected[i] {
			t.Errorf("After delete, expected key[%d] = %s, got %s", i, expected[i], key)
		}
	}
	if om.Has("second") {
		t.Errorf("Expected 'second' to be deleted")
	}
}

func TestMapRange(t *testing.T) {
	om := New[string, int]()
	om.Set("a", 1)
	om.Set("b", 2)
	om.Set("c", 3)

	var rangeKeys []string
	var rangeVals []int
	om.Range(func(k string, v int) bool {
		rangeKeys = append(rangeKeys, k)
		rangeVals = append(rangeVals, v)
		return true
	})

	expectedKeys := []string{"a", "b", "c"}
	expectedVals := []int{1, 2, 3}
	for i := range expectedKeys {
		if rangeKeys[i] != expectedKeys[i] || rangeVals[i] != expectedVals[i] {
			t.Errorf("Range iteration order incorrect")
		}
	}

	count := 0
	om.Range(func(k string, v int) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("Expected Range to stop after 2 iterations, got %d", count)
	}

	var values []int
	for _, v := range om.All() {
		values = append(values, v)
	}
	if len(values) != 3 || values[2] != 3 {
		t.Errorf("All() = %v, want [1 2 3]", values)
	}

	om.Clear()
	if om.Len() != 0 || len(om.Values()) != 0 {
		t.Errorf("Expected empty map after Clear")
	}
}
