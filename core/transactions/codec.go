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
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/hierarchia/core/records"
)

// Steps are journaled as the protojson form of a google.protobuf.Struct:
//
//	{"transactions": [{"id": "tx-1", "kind": "add", "rowKey": 7,
//	  "value": {...}, "parentKey": 3, "path": [1, 3]}]}
//
// JSON has a single number type, so numeric keys and values come back as
// float64 and times come back as RFC 3339 strings.

func encodeStep(txs []Transaction) ([]byte, error) {
	list := make([]any, len(txs))
	for i, tx := range txs {
		m := map[string]any{
			"id":     tx.ID,
			"kind":   tx.Kind.String(),
			"rowKey": records.Plain(tx.RowKey),
		}
		if tx.Value != nil {
			m["value"] = records.Plain(tx.Value)
		}
		if tx.ParentKey != nil {
			m["parentKey"] = records.Plain(tx.ParentKey)
		}
		if tx.Path != nil {
			m["path"] = records.Plain(tx.Path)
		}
		list[i] = m
	}
	s, err := structpb.NewStruct(map[string]any{"transactions": list})
	if err != nil {
		return nil, errors.Wrap(err, "encoding transactions")
	}
	return protojson.Marshal(s)
}

func decodeStep(data []byte) ([]Transaction, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decoding transactions")
	}
	list, _ := s.AsMap()["transactions"].([]any)
	txs := make([]Transaction, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.New("decoding transactions: entry is not an object")
		}
		kindName, _ := m["kind"].(string)
		kind, ok := parseKind(kindName)
		if !ok {
			return nil, errors.Errorf("decoding transactions: unknown kind %q", kindName)
		}
		tx := Transaction{Kind: kind, RowKey: m["rowKey"], ParentKey: m["parentKey"]}
		tx.ID, _ = m["id"].(string)
		if v, ok := m["value"].(map[string]any); ok {
			tx.Value = records.Row(v)
		}
		if p, ok := m["path"].([]any); ok {
			tx.Path = p
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
