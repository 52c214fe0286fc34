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
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/events"
	"github.com/google/hierarchia/core/ids"
	"github.com/google/hierarchia/core/orderedmap"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// EventKind tells what happened to the log.
type EventKind int

const (
	EventAdd EventKind = iota
	EventUndo
	EventRedo
	EventCommit
	EventClear
)

func (e EventKind) String() string {
	return [...]string{"add", "undo", "redo", "commit", "clear"}[e]
}

// Event is emitted after every change of the log.
type Event struct {
	Kind         EventKind
	Transactions []Transaction
}

// step is a group of transactions added, undone and redone together.
type step struct {
	seq uint64 // journal sequence, zero without a store
	txs []Transaction
}

// Log is the pending-change log of one grid.
type Log struct {
	ids    ids.Allocator
	store  Store
	logger log.Logger

	steps   []step
	redo    []step
	states  *orderedmap.Map[any, *State]
	changes *events.Emitter[Event]
}

// Option configures a Log.
type Option func(*Log)

// WithIDs sets the allocator for transaction ids.
func WithIDs(a ids.Allocator) Option {
	return func(l *Log) { l.ids = a }
}

// WithStore journals every step in s.
func WithStore(s Store) Option {
	return func(l *Log) { l.store = s }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// NewLog creates an empty log.
func NewLog(opts ...Option) *Log {
	l := &Log{
		ids:     ids.NewSequence("tx"),
		logger:  log.NewNopLogger(),
		states:  orderedmap.New[any, *State](),
		changes: &events.Emitter[Event]{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore rebuilds a log from the steps journaled in store. The returned
// log keeps journaling to store.
func Restore(store Store, opts ...Option) (*Log, error) {
	l := NewLog(append(opts, WithStore(store))...)
	stored, err := store.Steps()
	if err != nil {
		return nil, errors.Wrap(err, "restoring transaction log")
	}
	for _, s := range stored {
		if s.Undone {
			l.redo = append(l.redo, step{seq: s.Seq, txs: s.Transactions})
			continue
		}
		l.steps = append(l.steps, step{seq: s.Seq, txs: s.Transactions})
	}
	// The earliest undone step is redone first.
	for i, j := 0, len(l.redo)-1; i < j; i, j = i+1, j-1 {
		l.redo[i], l.redo[j] = l.redo[j], l.redo[i]
	}
	l.rebuild()
	level.Info(l.logger).Log("msg", "restored transaction log", "steps", len(l.steps), "undone", len(l.redo), "pending", l.states.Len())
	return l, nil
}

// Changes returns the emitter notified after every change.
func (l *Log) Changes() *events.Emitter[Event] {
	return l.changes
}

// Add records one step made of the given transactions. Missing ids are
// allocated. Adding a step drops everything that could be redone.
func (l *Log) Add(txs ...Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	s := step{txs: make([]Transaction, len(txs))}
	for i, tx := range txs {
		if tx.ID == "" {
			tx.ID = l.ids.Next()
		}
		s.txs[i] = tx
	}
	if err := l.dropRedo(); err != nil {
		return err
	}
	if err := l.journal(&s); err != nil {
		return err
	}
	l.steps = append(l.steps, s)
	for _, tx := range s.txs {
		l.apply(tx)
	}
	level.Debug(l.logger).Log("msg", "added transactions", "count", len(s.txs), "pending", l.states.Len())
	l.changes.Emit(Event{Kind: EventAdd, Transactions: s.txs})
	return nil
}

// dropRedo forgets the undone steps.
func (l *Log) dropRedo() error {
	for len(l.redo) > 0 {
		s := l.redo[len(l.redo)-1]
		if l.store != nil && s.seq != 0 {
			if err := l.store.Remove(s.seq); err != nil {
				return errors.Wrap(err, "dropping undone transactions")
			}
		}
		l.redo = l.redo[:len(l.redo)-1]
	}
	return nil
}

func (l *Log) journal(s *step) error {
	if l.store == nil {
		return nil
	}
	seq, err := l.store.Append(s.txs)
	if err != nil {
		return errors.Wrap(err, "journaling transactions")
	}
	s.seq = seq
	return nil
}

func (l *Log) apply(tx Transaction) {
	key := keyOf(tx.RowKey)
	st, ok := l.states.Get(key)
	if !ok {
		l.states.Set(key, newState(tx))
		return
	}
	if !st.merge(tx) {
		l.states.Delete(key)
	}
}

func (l *Log) rebuild() {
	l.states.Clear()
	for _, s := range l.steps {
		for _, tx := range s.txs {
			l.apply(tx)
		}
	}
}

// Transactions returns every transaction in the order it was added.
func (l *Log) Transactions() []Transaction {
	var all []Transaction
	for _, s := range l.steps {
		all = append(all, s.txs...)
	}
	return all
}

// Len returns the number of transactions.
func (l *Log) Len() int {
	n := 0
	for _, s := range l.steps {
		n += len(s.txs)
	}
	return n
}

// State returns the combined pending state of a row.
func (l *Log) State(key any) (State, bool) {
	st, ok := l.states.Get(keyOf(key))
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Pending returns the states of all rows with pending changes, ordered by
// their first change.
func (l *Log) Pending() []State {
	result := make([]State, 0, l.states.Len())
	for _, st := range l.states.Values() {
		result = append(result, *st)
	}
	return result
}

// IsPending reports whether a row has pending changes.
func (l *Log) IsPending(key any) bool {
	return l.states.Has(keyOf(key))
}

// IsDeleted reports whether a row is pending deletion.
func (l *Log) IsDeleted(key any) bool {
	st, ok := l.states.Get(keyOf(key))
	return ok && st.Kind == Delete
}

// CanUndo reports whether there is a step to undo.
func (l *Log) CanUndo() bool { return len(l.steps) > 0 }

// CanRedo reports whether there is an undone step to redo.
func (l *Log) CanRedo() bool { return len(l.redo) > 0 }

// Undo removes the last step.
func (l *Log) Undo() error {
	if !l.CanUndo() {
		return ErrNothingToUndo
	}
	last := l.steps[len(l.steps)-1]
	if l.store != nil && last.seq != 0 {
		if err := l.store.SetUndone(last.seq, true); err != nil {
			return errors.Wrap(err, "undoing transactions")
		}
	}
	l.steps = l.steps[:len(l.steps)-1]
	l.redo = append(l.redo, last)
	l.rebuild()
	level.Debug(l.logger).Log("msg", "undid transactions", "count", len(last.txs))
	l.changes.Emit(Event{Kind: EventUndo, Transactions: last.txs})
	return nil
}

// Redo restores the last undone step.
func (l *Log) Redo() error {
	if !l.CanRedo() {
		return ErrNothingToRedo
	}
	s := l.redo[len(l.redo)-1]
	if l.store != nil {
		var err error
		if s.seq == 0 {
			err = l.journal(&s)
		} else {
			err = l.store.SetUndone(s.seq, false)
		}
		if err != nil {
			return errors.Wrap(err, "redoing transactions")
		}
	}
	l.redo = l.redo[:len(l.redo)-1]
	l.steps = append(l.steps, s)
	for _, tx := range s.txs {
		l.apply(tx)
	}
	level.Debug(l.logger).Log("msg", "redid transactions", "count", len(s.txs))
	l.changes.Emit(Event{Kind: EventRedo, Transactions: s.txs})
	return nil
}

// Commit calls apply for every pending state and clears the log once all of
// them succeeded. Adds are applied first, then updates, then deletes, each
// in the order of their first change, so a row added under a parent that is
// deleted later is promoted like the parent's other children. On error the
// log is left untouched; states applied before the failing one stay applied.
func (l *Log) Commit(apply func(State) error) error {
	return l.CommitWith(apply, nil)
}

// CommitWith is Commit with a persist step that runs after every state was
// applied and before the log is cleared. When persist fails the log keeps
// all pending changes.
func (l *Log) CommitWith(apply func(State) error, persist func() error) error {
	pending := commitOrder(l.Pending())
	for _, st := range pending {
		if err := apply(st); err != nil {
			return errors.Wrapf(err, "committing %s of row %v", st.Kind, st.RowKey)
		}
	}
	if persist != nil {
		if err := persist(); err != nil {
			return errors.Wrap(err, "persisting committed rows")
		}
	}
	committed := l.Transactions()
	if err := l.reset(); err != nil {
		return err
	}
	level.Info(l.logger).Log("msg", "committed transactions", "rows", len(pending), "transactions", len(committed))
	l.changes.Emit(Event{Kind: EventCommit, Transactions: committed})
	return nil
}

func commitOrder(pending []State) []State {
	ordered := make([]State, 0, len(pending))
	for _, kind := range []Kind{Add, Update, Delete} {
		for _, st := range pending {
			if st.Kind == kind {
				ordered = append(ordered, st)
			}
		}
	}
	return ordered
}

// Clear drops every pending change without applying it.
func (l *Log) Clear() error {
	dropped := l.Transactions()
	if err := l.reset(); err != nil {
		return err
	}
	l.changes.Emit(Event{Kind: EventClear, Transactions: dropped})
	return nil
}

func (l *Log) reset() error {
	if l.store != nil {
		if err := l.store.Clear(); err != nil {
			return errors.Wrap(err, "clearing transaction journal")
		}
	}
	l.steps = nil
	l.redo = nil
	l.states.Clear()
	return nil
}
