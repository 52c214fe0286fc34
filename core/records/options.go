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

package records

import (
	"math"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/ids"
)

// ExpandAll as ExpansionDepth starts every level expanded.
const ExpandAll = math.MaxInt

// Mode is the shape of the input data.
type Mode int

const (
	// ModeFlat links rows through primary and foreign keys.
	ModeFlat Mode = iota
	// ModeHierarchical reads children from a child-collection field.
	ModeHierarchical
)

func (m Mode) String() string {
	if m == ModeHierarchical {
		return "hierarchical"
	}
	return "flat"
}

// PendingLookup reports rows that are pending deletion in a transaction log.
type PendingLookup interface {
	IsDeleted(key any) bool
}

// Options configures a Tree.
type Options struct {
	// PrimaryKey names the field holding the unique row key. Required in
	// flat mode; in hierarchical mode rows without it are keyed by identity.
	PrimaryKey string
	// ForeignKey names the field holding the parent's primary key.
	ForeignKey string
	// ChildDataKey names the child-collection field of nested data.
	ChildDataKey string

	// ExpansionDepth is the number of levels that start expanded. Zero
	// starts everything collapsed; use ExpandAll to expand every level.
	ExpansionDepth int

	// HasChildrenKey names a boolean field telling that a row has children
	// that are not loaded yet.
	HasChildrenKey string
	// HasChildren is an alternative predicate for the same purpose.
	HasChildren func(Row) bool
	// LoadChildren is called when a record with unloaded children is
	// expanded.
	LoadChildren func(parent Row) ([]Row, error)

	// CascadeOnDelete removes the whole subtree of a deleted row. When false
	// the children are promoted to the deleted row's parent.
	CascadeOnDelete bool

	// IDs allocates identities for nested rows without a primary key and
	// primary keys for flat rows added without one.
	IDs ids.Allocator
	// Pending blocks adding children under rows pending deletion.
	Pending PendingLookup

	Logger log.Logger
}

// Mode derives the data shape from the configured keys.
func (o Options) Mode() Mode {
	if o.ChildDataKey != "" {
		return ModeHierarchical
	}
	return ModeFlat
}

func (o Options) validate() error {
	if o.ExpansionDepth < 0 {
		return errors.Wrap(ErrInvalidOptions, "expansion depth cannot be negative")
	}
	if o.ChildDataKey != "" {
		if o.ForeignKey != "" {
			return errors.Wrap(ErrInvalidOptions, "foreign key and child data key are mutually exclusive")
		}
		if o.ChildDataKey == o.PrimaryKey {
			return errors.Wrap(ErrInvalidOptions, "child data key cannot be the primary key")
		}
		return nil
	}
	if o.PrimaryKey == "" || o.ForeignKey == "" {
		return errors.Wrap(ErrInvalidOptions, "flat data requires a primary key and a foreign key")
	}
	if o.PrimaryKey == o.ForeignKey {
		return errors.Wrap(ErrInvalidOptions, "primary key and foreign key cannot be the same")
	}
	return nil
}
