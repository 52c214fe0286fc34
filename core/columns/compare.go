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

package columns

import (
	"math"
	"strings"
	"time"
)

// Compare orders two cell values. Returns -1 if a < b, 0 if equal, 1 if a > b.
// Empty values sort first, then values are compared by kind: numbers,
// times, booleans (false < true) and finally strings. Values of different
// kinds fall back to their string form.
func Compare(a, b any, ignoreCase bool) int {
	aEmpty, bEmpty := a == nil, b == nil
	if aEmpty || bEmpty {
		switch {
		case aEmpty && bEmpty:
			return 0
		case aEmpty:
			return -1
		default:
			return 1
		}
	}

	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return compareFloat64s(fa, fb)
		}
	}

	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return compareTimes(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBools(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return compareStrings(x, y, ignoreCase)
		}
	}
	return compareStrings(stringOf(a), stringOf(b), ignoreCase)
}

func compareStrings(a, b string, ignoreCase bool) int {
	if ignoreCase {
		return strings.Compare(FoldString(a), FoldString(b))
	}
	return strings.Compare(a, b)
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareBools compares two bool values (false < true)
func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// compareFloat64s compares two float64 values with NaN handling.
// NaN values are considered greater than all other values (sort to end).
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)

	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
