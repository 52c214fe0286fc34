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

// Package treegrid is the data pipeline of a tree grid. It owns the record
// tree of one data set and turns it into the rows to display: pending
// batch edits are previewed, then the tree is filtered, sorted, optionally
// grouped, flattened according to expansion state and cut into pages.
package treegrid

import (
	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/grouping"
	"github.com/google/hierarchia/core/ids"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/core/transactions"
)

// Options configures a Grid.
type Options struct {
	// Tree holds the hierarchy keys and expansion settings. Its Pending and
	// Logger fields are set by the grid.
	Tree    records.Options
	Columns columns.Provider

	// BatchEditing records mutations in a transaction log instead of
	// applying them. Requires a primary key.
	BatchEditing bool
	// Journal persists the transaction log; pending changes found in it are
	// restored on creation.
	Journal transactions.Store

	// GroupKey and GroupChildrenKey name the label and member fields of
	// group rows.
	GroupKey         string
	GroupChildrenKey string
	Aggregations     []grouping.Aggregation

	PerPage int

	IDs    ids.Allocator
	Logger log.Logger
}

func (o *Options) defaults() error {
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	if o.IDs == nil {
		o.IDs = ids.NewSequence("row")
	}
	if o.GroupKey == "" {
		o.GroupKey = grouping.DefaultGroupKey
	}
	if o.GroupChildrenKey == "" {
		o.GroupChildrenKey = grouping.DefaultChildDataKey
	}
	if o.GroupKey == o.GroupChildrenKey {
		return grouping.ErrSameKeys
	}
	if o.BatchEditing && o.Tree.PrimaryKey == "" {
		return errors.Wrap(records.ErrInvalidOptions, "batch editing requires a primary key")
	}
	if o.Journal != nil && !o.BatchEditing {
		return errors.Wrap(records.ErrInvalidOptions, "a journal requires batch editing")
	}
	o.Tree.Logger = o.Logger
	o.Tree.IDs = o.IDs
	return nil
}
