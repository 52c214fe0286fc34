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
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketJournal = "transactions"
	// bucketUndone holds an empty value for each undone step.
	bucketUndone = "undone"
)

// BoltStore journals steps in a bbolt database, one key per step.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the journal database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening journal %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketJournal, bucketUndone} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing journal")
	}
	return &BoltStore{db: db}, nil
}

// Append implements Store.
func (s *BoltStore) Append(txs []Transaction) (uint64, error) {
	data, err := encodeStep(txs)
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketJournal))
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return seq, err
}

// Remove implements Store.
func (s *BoltStore) Remove(seq uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketUndone)).Delete(marshalSeq(seq)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketJournal)).Delete(marshalSeq(seq))
	})
}

// SetUndone implements Store.
func (s *BoltStore) SetUndone(seq uint64, undone bool) error {
	key := marshalSeq(seq)
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketJournal)).Get(key) == nil {
			return errors.Errorf("no step %d", seq)
		}
		b := tx.Bucket([]byte(bucketUndone))
		if undone {
			return b.Put(key, []byte{})
		}
		return b.Delete(key)
	})
}

// Steps implements Store.
func (s *BoltStore) Steps() ([]StoredStep, error) {
	var steps []StoredStep
	err := s.db.View(func(tx *bolt.Tx) error {
		undone := tx.Bucket([]byte(bucketUndone))
		return tx.Bucket([]byte(bucketJournal)).ForEach(func(k, v []byte) error {
			txs, err := decodeStep(v)
			if err != nil {
				return errors.Wrapf(err, "step %d", unmarshalSeq(k))
			}
			steps = append(steps, StoredStep{
				Seq:          unmarshalSeq(k),
				Transactions: txs,
				Undone:       undone.Get(k) != nil,
			})
			return nil
		})
	})
	return steps, err
}

// Clear implements Store. The sequence keeps counting.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketJournal, bucketUndone} {
			if err := clearBucket(tx.Bucket([]byte(name))); err != nil {
				return err
			}
		}
		return nil
	})
}

func clearBucket(b *bolt.Bucket) error {
	var keys [][]byte
	err := b.ForEach(func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Sequence keys are big-endian so that bbolt's byte order is step order.
func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
