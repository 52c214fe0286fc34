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

package transactions

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// StoredStep is one journaled step.
type StoredStep struct {
	Seq          uint64
	Transactions []Transaction
	// Undone marks a step that was undone and can be redone.
	Undone bool
}

// Store journals the steps of a Log so that pending changes survive the
// process.
type Store interface {
	// Append stores a step and returns its sequence number, greater than
	// every sequence number handed out before.
	Append(txs []Transaction) (uint64, error)
	// Remove deletes the step with the given sequence number.
	Remove(seq uint64) error
	// SetUndone marks the step with the given sequence number as undone or
	// active again.
	SetUndone(seq uint64, undone bool) error
	// Steps returns all steps ordered by sequence number.
	Steps() ([]StoredStep, error)
	// Clear deletes all steps.
	Clear() error
	Close() error
}

// MemoryStore is a Store kept in memory. Steps are stored in their encoded
// form so that a restored log sees the same values a BoltStore returns.
type MemoryStore struct {
	mu     sync.Mutex
	seq    uint64
	steps  map[uint64][]byte
	undone map[uint64]bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{steps: make(map[uint64][]byte), undone: make(map[uint64]bool)}
}

func (m *MemoryStore) Append(txs []Transaction) (uint64, error) {
	data, err := encodeStep(txs)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.steps[m.seq] = data
	return m.seq, nil
}

func (m *MemoryStore) Remove(seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.steps, seq)
	delete(m.undone, seq)
	return nil
}

func (m *MemoryStore) SetUndone(seq uint64, undone bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.steps[seq]; !ok {
		return errors.Errorf("no step %d", seq)
	}
	if undone {
		m.undone[seq] = true
	} else {
		delete(m.undone, seq)
	}
	return nil
}

func (m *MemoryStore) Steps() ([]StoredStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seqs := make([]uint64, 0, len(m.steps))
	for seq := range m.steps {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	result := make([]StoredStep, 0, len(seqs))
	for _, seq := range seqs {
		txs, err := decodeStep(m.steps[seq])
		if err != nil {
			return nil, err
		}
		result = append(result, StoredStep{Seq: seq, Transactions: txs, Undone: m.undone[seq]})
	}
	return result, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = make(map[uint64][]byte)
	m.undone = make(map[uint64]bool)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
