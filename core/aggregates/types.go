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
	"strings"

	"github.com/pkg/errors"
)

// AggregateType selects what an aggregate state reports.
type AggregateType int

const (
	AggCount AggregateType = iota
	AggSum
	AggAvg
	AggMin
	AggMax
	AggStdDev
	AggTrue
	AggFalse
	AggRatio
	AggUnique
	AggSpan
)

type aggregateInfo struct {
	name   string
	symbol string
	title  string
}

var aggregateInfos = map[AggregateType]aggregateInfo{
	AggCount:  {"count", "#", "Count"},
	AggSum:    {"sum", "Σ", "Sum"},
	AggAvg:    {"avg", "μ", "Average"},
	AggMin:    {"min", "↓", "Minimum"},
	AggMax:    {"max", "↑", "Maximum"},
	AggStdDev: {"stddev", "σ", "Standard deviation"},
	AggTrue:   {"true", "✓", "True count"},
	AggFalse:  {"false", "✗", "False count"},
	AggRatio:  {"ratio", "%", "True ratio"},
	AggUnique: {"unique", "≠", "Unique values"},
	AggSpan:   {"span", "↔", "Time span"},
}

func (a AggregateType) String() string {
	return aggregateInfos[a].name
}

// Symbol is the short glyph shown next to an aggregate value.
func (a AggregateType) Symbol() string {
	return aggregateInfos[a].symbol
}

// Title is the human readable name of the aggregate.
func (a AggregateType) Title() string {
	return aggregateInfos[a].title
}

// ParseAggregateType parses an aggregate name such as "sum" or "stddev".
func ParseAggregateType(s string) (AggregateType, error) {
	for t, info := range aggregateInfos {
		if strings.EqualFold(info.name, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return AggCount, errors.Errorf("unknown aggregate type %q", s)
}
