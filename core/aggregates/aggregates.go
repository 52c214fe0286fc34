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

// Package aggregates provides aggregate state types used to compute the
// aggregate values of group rows. A state accumulates the values of one
// field over the leaves of a group and reports the selected aggregate.
package aggregates

import (
	"math"
	"time"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/grouping"
)

// AggregateState accumulates cell values of one data type.
type AggregateState interface {
	// AddValue adds one cell value. Values of the wrong kind and empty
	// values are skipped.
	AddValue(v any)
	// Value returns the raw aggregate, or nil when it is not defined for
	// the state or no value was added.
	Value(aggType AggregateType) any
}

// NumericAggState stores intermediate state for numeric column aggregates.
// It can derive sum, avg, stddev, min, max, and count.
type NumericAggState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of values
	SumSq float64 // Sum of squared values (for stddev)
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState() *NumericAggState {
	return &NumericAggState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Add adds a single value to the aggregate state.
func (s *NumericAggState) Add(value float64) {
	s.Count++
	s.Sum += value
	s.SumSq += value * value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// AddValue adds numbers and numeric strings.
func (s *NumericAggState) AddValue(v any) {
	if f, ok := columns.ToFloat(v); ok {
		s.Add(f)
		return
	}
	if str, ok := v.(string); ok {
		if f, ok := columns.ParseNumber(str); ok {
			s.Add(f)
		}
	}
}

// Avg returns the average (mean) of the values.
func (s *NumericAggState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the population standard deviation.
func (s *NumericAggState) StdDev() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := s.Avg()
	// Variance = E[X²] - (E[X])²
	variance := (s.SumSq / float64(s.Count)) - (mean * mean)
	if variance < 0 {
		// Handle floating point precision issues
		variance = 0
	}
	return math.Sqrt(variance)
}

// Value implements AggregateState.
func (s *NumericAggState) Value(aggType AggregateType) any {
	if aggType == AggCount {
		return s.Count
	}
	if s.Count == 0 {
		return nil
	}
	switch aggType {
	case AggSum:
		return s.Sum
	case AggAvg:
		return s.Avg()
	case AggStdDev:
		return s.StdDev()
	case AggMin:
		return s.Min
	case AggMax:
		return s.Max
	}
	return nil
}

// BoolAggState stores intermediate state for boolean column aggregates.
// It can derive count, true count, false count, and ratio.
type BoolAggState struct {
	Count      int64 // Total count
	TrueCount  int64 // Count of true values
	FalseCount int64 // Count of false values
}

// NewBoolAggState creates a new empty boolean aggregate state.
func NewBoolAggState() *BoolAggState {
	return &BoolAggState{}
}

// Add adds a single boolean value to the aggregate state.
func (s *BoolAggState) Add(value bool) {
	s.Count++
	if value {
		s.TrueCount++
	} else {
		s.FalseCount++
	}
}

// AddValue adds bool values only.
func (s *BoolAggState) AddValue(v any) {
	if b, ok := v.(bool); ok {
		s.Add(b)
	}
}

// Ratio returns the ratio of true values to total (0.0 to 1.0).
func (s *BoolAggState) Ratio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TrueCount) / float64(s.Count)
}

// Value implements AggregateState.
func (s *BoolAggState) Value(aggType AggregateType) any {
	switch aggType {
	case AggCount:
		return s.Count
	case AggTrue:
		return s.TrueCount
	case AggFalse:
		return s.FalseCount
	case AggRatio:
		if s.Count == 0 {
			return nil
		}
		return s.Ratio()
	}
	return nil
}

// StringAggState stores intermediate state for string column aggregates.
// It can derive count, unique count, min (alphabetically smallest), and max (alphabetically largest).
type StringAggState struct {
	Count     int64               // Total count
	UniqueSet map[string]struct{} // Set of unique values
	Min       string              // Alphabetically smallest value
	Max       string              // Alphabetically largest value
	HasValues bool                // Whether Min/Max have been set
}

// NewStringAggState creates a new empty string aggregate state.
func NewStringAggState() *StringAggState {
	return &StringAggState{
		UniqueSet: make(map[string]struct{}),
	}
}

// Add adds a single string value to the aggregate state.
func (s *StringAggState) Add(value string) {
	if !s.HasValues {
		s.Min = value
		s.Max = value
		s.HasValues = true
	} else {
		if value < s.Min {
			s.Min = value
		}
		if value > s.Max {
			s.Max = value
		}
	}
	s.Count++
	s.UniqueSet[value] = struct{}{}
}

// AddValue adds the string form of any non-empty value.
func (s *StringAggState) AddValue(v any) {
	if columns.IsEmpty(v) {
		return
	}
	s.Add(columns.FormatValue(v))
}

// UniqueCount returns the number of unique values.
func (s *StringAggState) UniqueCount() int {
	return len(s.UniqueSet)
}

// Value implements AggregateState.
func (s *StringAggState) Value(aggType AggregateType) any {
	switch aggType {
	case AggCount:
		return s.Count
	case AggUnique:
		return int64(s.UniqueCount())
	}
	if !s.HasValues {
		return nil
	}
	switch aggType {
	case AggMin:
		return s.Min
	case AggMax:
		return s.Max
	}
	return nil
}

// DatetimeAggState stores intermediate state for datetime column aggregates.
// Values are stored as nanoseconds since Unix epoch for consistent math.
// It can derive count, min, max, avg, stddev, and span.
type DatetimeAggState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of epoch nanoseconds (as float64 for precision)
	SumSq float64 // Sum of squared epoch nanoseconds (for stddev)
	Min   int64   // Minimum epoch nanoseconds
	Max   int64   // Maximum epoch nanoseconds

	loc *time.Location
}

// NewDatetimeAggState creates a new empty datetime aggregate state. Strings
// are parsed in loc.
func NewDatetimeAggState(loc *time.Location) *DatetimeAggState {
	if loc == nil {
		loc = time.UTC
	}
	return &DatetimeAggState{
		Min: math.MaxInt64,
		Max: math.MinInt64,
		loc: loc,
	}
}

// Add adds a single time value to the aggregate state.
func (s *DatetimeAggState) Add(value time.Time) {
	nanos := value.UnixNano()
	s.Count++
	s.Sum += float64(nanos)
	s.SumSq += float64(nanos) * float64(nanos)
	if nanos < s.Min {
		s.Min = nanos
	}
	if nanos > s.Max {
		s.Max = nanos
	}
}

// AddValue adds anything columns.ToTime understands.
func (s *DatetimeAggState) AddValue(v any) {
	if t, ok := columns.ToTime(v, s.loc); ok {
		s.Add(t)
	}
}

// Avg returns the average time.
func (s *DatetimeAggState) Avg() time.Time {
	if s.Count == 0 {
		return time.Time{}
	}
	avgNanos := int64(s.Sum / float64(s.Count))
	return time.Unix(0, avgNanos).UTC()
}

// StdDev returns the standard deviation as a duration.
func (s *DatetimeAggState) StdDev() time.Duration {
	if s.Count == 0 {
		return 0
	}
	mean := s.Sum / float64(s.Count)
	variance := (s.SumSq / float64(s.Count)) - (mean * mean)
	if variance < 0 {
		variance = 0
	}
	return time.Duration(math.Sqrt(variance))
}

// Span returns the time span (max - min).
func (s *DatetimeAggState) Span() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return time.Duration(s.Max - s.Min)
}

// MinTime returns the minimum time value.
func (s *DatetimeAggState) MinTime() time.Time {
	if s.Count == 0 {
		return time.Time{}
	}
	return time.Unix(0, s.Min).UTC()
}

// MaxTime returns the maximum time value.
func (s *DatetimeAggState) MaxTime() time.Time {
	if s.Count == 0 {
		return time.Time{}
	}
	return time.Unix(0, s.Max).UTC()
}

// Value implements AggregateState.
func (s *DatetimeAggState) Value(aggType AggregateType) any {
	if aggType == AggCount {
		return s.Count
	}
	if s.Count == 0 {
		return nil
	}
	switch aggType {
	case AggMin:
		return s.MinTime()
	case AggMax:
		return s.MaxTime()
	case AggAvg:
		return s.Avg()
	case AggStdDev:
		return s.StdDev()
	case AggSpan:
		return s.Span()
	}
	return nil
}

// CreateAggState creates a new aggregate state for a column. A nil column
// aggregates strings.
func CreateAggState(col *columns.ColumnDef) AggregateState {
	if col == nil {
		return NewStringAggState()
	}
	switch dt := col.DataType(); {
	case dt.IsNumeric():
		return NewNumericAggState()
	case dt == columns.TypeBoolean:
		return NewBoolAggState()
	case dt.IsTemporal():
		return NewDatetimeAggState(col.Location())
	}
	return NewStringAggState()
}

// NewAggregation returns a grouping aggregation computing aggType over the
// field values of a group's leaves. The column selects the state type.
func NewAggregation(field string, aggType AggregateType, col *columns.ColumnDef) grouping.Aggregation {
	return grouping.Aggregation{
		Field: field,
		Reduce: func(_ grouping.Row, leaves []grouping.Row) any {
			state := CreateAggState(col)
			for _, leaf := range leaves {
				state.AddValue(leaf[field])
			}
			return state.Value(aggType)
		},
	}
}
