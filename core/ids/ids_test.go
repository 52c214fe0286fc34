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

package ids

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	s := NewSequence("tx")
	assert.Equal(t, "tx-1", s.Next())
	assert.Equal(t, "tx-2", s.Next())

	bare := NewSequence("")
	assert.Equal(t, "1", bare.Next())
}

func TestUUIDAllocatorFromReader(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 64)
	a := NewUUIDAllocatorFromReader(bytes.NewReader(seed))
	b := NewUUIDAllocatorFromReader(bytes.NewReader(seed))

	first := a.Next()
	assert.Equal(t, first, b.Next(), "same seed must give same id")

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestUUIDAllocatorUnique(t *testing.T) {
	a := NewUUIDAllocator()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := a.Next()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
