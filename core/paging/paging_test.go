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

package paging

import (
	"math"
	"reflect"
	"testing"
)

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	tests := []struct {
		index, perPage int
		want           []int
		info           Info
	}{
		{0, 3, []int{1, 2, 3}, Info{Index: 0, PerPage: 3, TotalPages: 3, TotalItems: 7}},
		{2, 3, []int{7}, Info{Index: 2, PerPage: 3, TotalPages: 3, TotalItems: 7}},
		{9, 3, []int{7}, Info{Index: 2, PerPage: 3, TotalPages: 3, TotalItems: 7}},
		{-1, 5, []int{1, 2, 3, 4, 5}, Info{Index: 0, PerPage: 5, TotalPages: 2, TotalItems: 7}},
		{1, 0, items, Info{Index: 0, PerPage: 0, TotalPages: 1, TotalItems: 7}},
		{0, 7, items, Info{Index: 0, PerPage: 7, TotalPages: 1, TotalItems: 7}},
		{0, math.MaxInt - 1, items, Info{Index: 0, PerPage: math.MaxInt - 1, TotalPages: 1, TotalItems: 7}},
		{4, math.MaxInt, items, Info{Index: 0, PerPage: math.MaxInt, TotalPages: 1, TotalItems: 7}},
	}
	for _, tt := range tests {
		got, info := Page(items, tt.index, tt.perPage)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Page(%d, %d) = %v; expected %v", tt.index, tt.perPage, got, tt.want)
		}
		if info != tt.info {
			t.Errorf("Page(%d, %d) info = %+v; expected %+v", tt.index, tt.perPage, info, tt.info)
		}
	}

	got, info := Page([]string{}, 3, 10)
	if len(got) != 0 || info.TotalPages != 1 || info.Index != 0 {
		t.Errorf("empty page = %v, %+v", got, info)
	}
}
