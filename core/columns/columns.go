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

// Package columns describes the columns of a grid: their data type and the
// formatting parameters used when values are displayed or turned into
// grouping keys. It also holds the value helpers shared by sorting,
// filtering and grouping.
package columns

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ErrUnknownDataType is returned when a data type name cannot be parsed.
var ErrUnknownDataType = errors.New("unknown data type")

// DataType is the declared type of a column.
type DataType int

const (
	TypeString DataType = iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeTime
	TypeCurrency
	TypePercent
)

var dataTypeNames = map[DataType]string{
	TypeString:   "string",
	TypeNumber:   "number",
	TypeBoolean:  "boolean",
	TypeDate:     "date",
	TypeDateTime: "dateTime",
	TypeTime:     "time",
	TypeCurrency: "currency",
	TypePercent:  "percent",
}

// String returns the configuration name of the data type.
func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsTemporal reports whether values of this type are points in time.
func (t DataType) IsTemporal() bool {
	return t == TypeDate || t == TypeDateTime || t == TypeTime
}

// IsNumeric reports whether values of this type are numbers.
func (t DataType) IsNumeric() bool {
	return t == TypeNumber || t == TypeCurrency || t == TypePercent
}

// ParseDataType parses a data type name. Matching is case-insensitive and
// the empty string means string.
func ParseDataType(s string) (DataType, error) {
	if s == "" {
		return TypeString, nil
	}
	for t, name := range dataTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return TypeString, ErrUnknownDataType
}

// ColumnDef holds the metadata of one column.
type ColumnDef struct {
	name        string // must not contain any of the following characters: & = : ,
	displayName string
	dataType    DataType
	format      string // Go time layout for temporal columns
	locale      language.Tag
	location    *time.Location
	currency    string // ISO 4217 code, derived from the locale when empty
}

// NewColumnDef creates a new ColumnDef with the given name, display name and
// data type. The locale defaults to English and the location to UTC.
func NewColumnDef(name, displayName string, dataType DataType) *ColumnDef {
	if displayName == "" {
		displayName = name
	}
	return &ColumnDef{
		name:        name,
		displayName: displayName,
		dataType:    dataType,
		locale:      language.English,
		location:    time.UTC,
	}
}

func (cd *ColumnDef) Name() string {
	return cd.name
}

func (cd *ColumnDef) DisplayName() string {
	return cd.displayName
}

func (cd *ColumnDef) DataType() DataType {
	return cd.dataType
}

func (cd *ColumnDef) Locale() language.Tag {
	return cd.locale
}

func (cd *ColumnDef) Location() *time.Location {
	return cd.location
}

// Format returns the time layout used for temporal values. Columns without an
// explicit layout fall back to a default per data type.
func (cd *ColumnDef) Format() string {
	if cd.format != "" {
		return cd.format
	}
	switch cd.dataType {
	case TypeDate:
		return DatetimeFormatDate
	case TypeTime:
		return DatetimeFormatTime
	default:
		return DatetimeFormatDateTime
	}
}

// WithFormat sets the time layout and returns the column for chaining.
func (cd *ColumnDef) WithFormat(layout string) *ColumnDef {
	cd.format = layout
	return cd
}

// WithLocale sets the locale used for number formatting.
func (cd *ColumnDef) WithLocale(tag language.Tag) *ColumnDef {
	cd.locale = tag
	return cd
}

// WithLocation sets the time zone temporal values are displayed in.
func (cd *ColumnDef) WithLocation(loc *time.Location) *ColumnDef {
	if loc != nil {
		cd.location = loc
	}
	return cd
}

// WithCurrency sets the ISO 4217 currency code of a currency column.
func (cd *ColumnDef) WithCurrency(code string) *ColumnDef {
	cd.currency = code
	return cd
}

// Provider looks up column metadata by field name.
type Provider interface {
	Column(name string) (*ColumnDef, bool)
}

// Set is a Provider backed by a map, remembering definition order.
type Set struct {
	order []string
	defs  map[string]*ColumnDef
}

// NewSet creates a Set from the given definitions.
func NewSet(defs ...*ColumnDef) *Set {
	s := &Set{defs: make(map[string]*ColumnDef)}
	for _, d := range defs {
		s.Add(d)
	}
	return s
}

// Add registers a definition, replacing any previous one with the same name.
func (s *Set) Add(def *ColumnDef) {
	if _, exists := s.defs[def.Name()]; !exists {
		s.order = append(s.order, def.Name())
	}
	s.defs[def.Name()] = def
}

// Column implements Provider. A nil Set has no columns.
func (s *Set) Column(name string) (*ColumnDef, bool) {
	if s == nil {
		return nil, false
	}
	def, ok := s.defs[name]
	return def, ok
}

// Names returns the column names in definition order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Lookup is a nil-safe helper around Provider.Column.
func Lookup(p Provider, name string) (*ColumnDef, bool) {
	if p == nil {
		return nil, false
	}
	return p.Column(name)
}
