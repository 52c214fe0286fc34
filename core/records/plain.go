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
	"time"

	"github.com/google/hierarchia/core/columns"
)

// Plain converts a cell value into the plain JSON types structpb accepts:
// numbers become float64 and times RFC 3339 strings.
func Plain(v any) any {
	switch x := v.(type) {
	case nil, bool, string, float64:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Plain(e)
		}
		return m
	case []Row:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = Plain(e)
		}
		return list
	case []any:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = Plain(e)
		}
		return list
	}
	if f, ok := columns.ToFloat(v); ok {
		return f
	}
	return columns.FormatValue(v)
}
