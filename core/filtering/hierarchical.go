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

package filtering

import (
	"github.com/google/hierarchia/core/records"
)

// Result is a record tree reduced to matching records and their ancestors.
type Result struct {
	// Roots are copies of the original records whose children are limited
	// to the kept records. Data maps are shared with the originals.
	Roots []*records.Record
	// Matched counts records that matched the filter themselves.
	Matched int
	// FilteredOutParents holds the keys of ancestors kept only because a
	// descendant matched.
	FilteredOutParents map[any]bool
}

// Hierarchical applies match to every record below roots. A record is kept
// when it matches or when any of its descendants does.
func Hierarchical(roots []*records.Record, match Matcher) Result {
	res := Result{FilteredOutParents: make(map[any]bool)}
	res.Roots = res.filter(roots, nil, match)
	return res
}

func (res *Result) filter(siblings []*records.Record, parent *records.Record, match Matcher) []*records.Record {
	var kept []*records.Record
	for _, rec := range siblings {
		clone := *rec
		clone.Parent = parent
		clone.Children = res.filter(rec.Children, &clone, match)

		matched := match(rec.Data)
		if matched {
			res.Matched++
		}
		if !matched && len(clone.Children) == 0 {
			continue
		}
		if !matched {
			res.FilteredOutParents[rec.Key] = true
		}
		kept = append(kept, &clone)
	}
	return kept
}

// Keys returns the keys of every kept record in pre-order.
func (res Result) Keys() []any {
	var keys []any
	for _, r := range res.Roots {
		r.Walk(func(n *records.Record) bool {
			keys = append(keys, n.Key)
			return true
		})
	}
	return keys
}
