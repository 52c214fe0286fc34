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

package aggregates

import (
	"math"
	"testing"
	"time"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/grouping"
	"github.com/google/hierarchia/core/sorting"
)

func TestNumericAggState(t *testing.T) {
	s := NewNumericAggState()
	if got := s.Value(AggSum); got != nil {
		t.Errorf("empty sum = %v; expected nil", got)
	}
	for _, v := range []any{2, 4.0, "4", int64(4), 5, uint8(5), 7, 9, "n/a", nil} {
		s.AddValue(v)
	}
	tests := []struct {
		agg  AggregateType
		want any
	}{
		{AggCount, int64(8)},
		{AggSum, 40.0},
		{AggAvg, 5.0},
		{AggStdDev, 2.0},
		{AggMin, 2.0},
		{AggMax, 9.0},
		{AggSpan, nil},
	}
	for _, tt := range tests {
		if got := s.Value(tt.agg); got != tt.want {
			t.Errorf("Value(%s) = %v; expected %v", tt.agg, got, tt.want)
		}
	}
}

func TestBoolAggState(t *testing.T) {
	s := NewBoolAggState()
	for _, v := range []any{true, false, true, true, "true", nil} {
		s.AddValue(v)
	}
	if got := s.Value(AggTrue); got != int64(3) {
		t.Errorf("true count = %v; expected 3", got)
	}
	if got := s.Value(AggFalse); got != int64(1) {
		t.Errorf("false count = %v; expected 1", got)
	}
	if got := s.Value(AggRatio); got != 0.75 {
		t.Errorf("ratio = %v; expected 0.75", got)
	}
}

func TestStringAggState(t *testing.T) {
	s := NewStringAggState()
	for _, v := range []any{"pear", "apple", "pear", "", nil, 3} {
		s.AddValue(v)
	}
	if got := s.Value(AggCount); got != int64(4) {
		t.Errorf("count = %v; expected 4", got)
	}
	if got := s.Value(AggUnique); got != int64(3) {
		t.Errorf("unique = %v; expected 3", got)
	}
	if got := s.Value(AggMin); got != "3" {
		t.Errorf("min = %v; expected 3", got)
	}
	if got := s.Value(AggMax); got != "pear" {
		t.Errorf("max = %v; expected pear", got)
	}
}

func TestDatetimeAggState(t *testing.T) {
	s := NewDatetimeAggState(nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.AddValue(start)
	s.AddValue("2024-01-03")
	s.AddValue("not a date")
	if got := s.Value(AggSpan); got != 48*time.Hour {
		t.Errorf("span = %v; expected 48h", got)
	}
	if got := s.Value(AggAvg).(time.Time); !got.Equal(start.Add(24 * time.Hour)) {
		t.Errorf("avg = %v", got)
	}
	if got := s.Value(AggMax).(time.Time); !got.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("max = %v", got)
	}
}

func TestStdDevPrecision(t *testing.T) {
	s := NewNumericAggState()
	for i := 0; i < 3; i++ {
		s.Add(0.1)
	}
	if sd := s.StdDev(); math.IsNaN(sd) || sd > 1e-9 {
		t.Errorf("StdDev() = %v; expected 0", sd)
	}
}

func TestParseAggregateType(t *testing.T) {
	for agg := range aggregateInfos {
		got, err := ParseAggregateType(agg.String())
		if err != nil || got != agg {
			t.Errorf("ParseAggregateType(%q) = %v, %v", agg.String(), got, err)
		}
	}
	if got, _ := ParseAggregateType(" SUM "); got != AggSum {
		t.Errorf("ParseAggregateType is case-insensitive, got %v", got)
	}
	if _, err := ParseAggregateType("median"); err == nil {
		t.Errorf("expected error for unknown aggregate")
	}
	if AggSum.Symbol() != "Σ" || AggAvg.Title() != "Average" {
		t.Errorf("unexpected symbol or title")
	}
}

func TestNewAggregation(t *testing.T) {
	rows := []grouping.Row{
		{"Team": "A", "Salary": 100, "Hired": "2020-01-01"},
		{"Team": "B", "Salary": 300, "Hired": "2021-01-01"},
		{"Team": "A", "Salary": 200, "Hired": "2020-01-11"},
	}
	salary := columns.NewColumnDef("Salary", "", columns.TypeCurrency)
	hired := columns.NewColumnDef("Hired", "", columns.TypeDate)
	groups, err := grouping.Pipe(rows, []sorting.Expression{{Field: "Team"}}, grouping.Options{
		Aggregations: []grouping.Aggregation{
			NewAggregation("Salary", AggSum, salary),
			NewAggregation("Hired", AggSpan, hired),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := groups[0]["Salary"]; got != 300.0 {
		t.Errorf("team A salary = %v; expected 300", got)
	}
	if got := groups[0]["Hired"]; got != 10*24*time.Hour {
		t.Errorf("team A span = %v; expected 240h", got)
	}
	if got := groups[1]["Salary"]; got != 300.0 {
		t.Errorf("team B salary = %v; expected 300", got)
	}
}
