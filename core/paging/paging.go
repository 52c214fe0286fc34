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

// Package paging cuts the display sequence of a grid into pages.
package paging

// Info describes the page that was cut.
type Info struct {
	Index      int // zero-based
	PerPage    int
	TotalPages int
	TotalItems int
}

// Page returns page index of items. perPage <= 0 disables paging and
// returns all items as the single page. An index past the end is clamped to
// the last page, a negative index to the first.
func Page[T any](items []T, index, perPage int) ([]T, Info) {
	info := Info{TotalItems: len(items), PerPage: perPage}
	if perPage <= 0 {
		info.TotalPages = 1
		return items, info
	}

	info.TotalPages = len(items) / perPage
	if len(items)%perPage != 0 || info.TotalPages == 0 {
		info.TotalPages++
	}
	switch {
	case index < 0:
		index = 0
	case index >= info.TotalPages:
		index = info.TotalPages - 1
	}
	info.Index = index

	// index < TotalPages, so start < len(items) unless items is empty.
	start := index * perPage
	end := len(items)
	if perPage < end-start {
		end = start + perPage
	}
	return items[start:end], info
}
