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
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
)

// ErrUnknownCondition is returned for condition names the data type of the
// filtered column does not define.
var ErrUnknownCondition = errors.New("unknown filtering condition")

// Condition is one named predicate of a data type.
type Condition struct {
	Name string
	// Unary conditions ignore the search value.
	Unary bool
	match func(value, search any, ignoreCase bool) bool
}

// Match applies the condition to a cell value.
func (c Condition) Match(value, search any, ignoreCase bool) bool {
	return c.match(value, search, ignoreCase)
}

type conditionSet map[string]Condition

func (s conditionSet) add(name string, unary bool, fn func(value, search any, ignoreCase bool) bool) conditionSet {
	s[name] = Condition{Name: name, Unary: unary, match: fn}
	return s
}

var (
	stringConditions  = newStringConditions()
	numberConditions  = newNumberConditions()
	booleanConditions = newBooleanConditions()
	dateConditions    = newDateConditions(true)
	instantConditions = newDateConditions(false)
)

func conditionsFor(dt columns.DataType) conditionSet {
	switch dt {
	case columns.TypeNumber, columns.TypeCurrency, columns.TypePercent:
		return numberConditions
	case columns.TypeBoolean:
		return booleanConditions
	case columns.TypeDate:
		return dateConditions
	case columns.TypeDateTime, columns.TypeTime:
		return instantConditions
	}
	return stringConditions
}

// Conditions lists the condition names of a data type, sorted.
func Conditions(dt columns.DataType) []string {
	set := conditionsFor(dt)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupCondition finds a condition by name for a data type.
func LookupCondition(dt columns.DataType, name string) (Condition, error) {
	c, ok := conditionsFor(dt)[name]
	if !ok {
		return Condition{}, errors.Wrapf(ErrUnknownCondition, "%q for %s columns", name, dt)
	}
	return c, nil
}

func empty(v, _ any, _ bool) bool    { return columns.IsEmpty(v) }
func notEmpty(v, _ any, _ bool) bool { return !columns.IsEmpty(v) }

func text(v any, ignoreCase bool) string {
	s := columns.FormatValue(v)
	if ignoreCase {
		return columns.FoldString(s)
	}
	return s
}

func newStringConditions() conditionSet {
	s := conditionSet{}
	s.add("contains", false, func(v, q any, ic bool) bool {
		return strings.Contains(text(v, ic), text(q, ic))
	})
	s.add("doesNotContain", false, func(v, q any, ic bool) bool {
		return !strings.Contains(text(v, ic), text(q, ic))
	})
	s.add("startsWith", false, func(v, q any, ic bool) bool {
		return strings.HasPrefix(text(v, ic), text(q, ic))
	})
	s.add("endsWith", false, func(v, q any, ic bool) bool {
		return strings.HasSuffix(text(v, ic), text(q, ic))
	})
	s.add("equals", false, func(v, q any, ic bool) bool {
		return text(v, ic) == text(q, ic)
	})
	s.add("doesNotEqual", false, func(v, q any, ic bool) bool {
		return text(v, ic) != text(q, ic)
	})
	s.add("empty", true, empty)
	s.add("notEmpty", true, notEmpty)
	return s
}

func number(v any) (float64, bool) {
	if f, ok := columns.ToFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return columns.ParseNumber(strings.TrimSpace(s))
	}
	return 0, false
}

func numeric(cmp func(a, b float64) bool) func(v, q any, _ bool) bool {
	return func(v, q any, _ bool) bool {
		a, ok := number(v)
		if !ok {
			return false
		}
		b, ok := number(q)
		return ok && cmp(a, b)
	}
}

func newNumberConditions() conditionSet {
	s := conditionSet{}
	s.add("equals", false, numeric(func(a, b float64) bool { return a == b }))
	s.add("doesNotEqual", false, func(v, q any, ic bool) bool {
		return !numeric(func(a, b float64) bool { return a == b })(v, q, ic)
	})
	s.add("greaterThan", false, numeric(func(a, b float64) bool { return a > b }))
	s.add("lessThan", false, numeric(func(a, b float64) bool { return a < b }))
	s.add("greaterThanOrEqualTo", false, numeric(func(a, b float64) bool { return a >= b }))
	s.add("lessThanOrEqualTo", false, numeric(func(a, b float64) bool { return a <= b }))
	s.add("empty", true, empty)
	s.add("notEmpty", true, notEmpty)
	return s
}

func boolean(v any) (value, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

func newBooleanConditions() conditionSet {
	s := conditionSet{}
	s.add("all", true, func(any, any, bool) bool { return true })
	s.add("true", true, func(v, _ any, _ bool) bool {
		b, ok := boolean(v)
		return ok && b
	})
	s.add("false", true, func(v, _ any, _ bool) bool {
		b, ok := boolean(v)
		return ok && !b
	})
	s.add("empty", true, empty)
	s.add("notEmpty", true, notEmpty)
	return s
}

// newDateConditions compares calendar days when byDay is set, instants
// otherwise.
func newDateConditions(byDay bool) conditionSet {
	compare := func(cmp func(a, b time.Time) bool) func(v, q any, _ bool) bool {
		return func(v, q any, _ bool) bool {
			a, ok := columns.ToTime(v, time.UTC)
			if !ok {
				return false
			}
			b, ok := columns.ToTime(q, time.UTC)
			if !ok {
				return false
			}
			if byDay {
				a, b = day(a), day(b)
			}
			return cmp(a, b)
		}
	}
	equal := compare(func(a, b time.Time) bool { return a.Equal(b) })

	s := conditionSet{}
	s.add("equals", false, equal)
	s.add("doesNotEqual", false, func(v, q any, ic bool) bool { return !equal(v, q, ic) })
	s.add("before", false, compare(func(a, b time.Time) bool { return a.Before(b) }))
	s.add("after", false, compare(func(a, b time.Time) bool { return a.After(b) }))
	s.add("empty", true, empty)
	s.add("notEmpty", true, notEmpty)
	return s
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
