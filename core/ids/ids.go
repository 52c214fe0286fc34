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

// Package ids provides identifier allocators that are injected into the
// components that need fresh identities (transactions, rows added without a
// primary key, hierarchical rows keyed by identity).
package ids

import (
	"io"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Allocator hands out identifiers that are unique for its lifetime.
type Allocator interface {
	Next() string
}

// Sequence allocates deterministic identifiers of the form prefix-N, starting
// at 1.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   uint64
}

// NewSequence creates a sequence allocator with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if s.prefix == "" {
		return strconv.FormatUint(s.next, 10)
	}
	return s.prefix + "-" + strconv.FormatUint(s.next, 10)
}

// UUIDAllocator allocates random version 4 UUIDs.
type UUIDAllocator struct {
	mu   sync.Mutex
	rand io.Reader
}

// NewUUIDAllocator creates an allocator backed by crypto/rand.
func NewUUIDAllocator() *UUIDAllocator {
	return &UUIDAllocator{}
}

// NewUUIDAllocatorFromReader creates an allocator that draws its randomness
// from r. Tests pass a seeded reader to get reproducible identifiers.
func NewUUIDAllocatorFromReader(r io.Reader) *UUIDAllocator {
	return &UUIDAllocator{rand: r}
}

// Next returns a new UUID string. If the configured reader fails, it falls
// back to the default random source.
func (a *UUIDAllocator) Next() string {
	if a.rand == nil {
		return uuid.NewString()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id, err := uuid.NewRandomFromReader(a.rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
