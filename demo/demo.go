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

// Package demo holds a sample employee hierarchy, once as flat rows linked by
// primary and foreign keys and once as nested rows, with the grid
// configuration that goes with it.
package demo

import (
	"bytes"
	_ "embed"

	"github.com/google/hierarchia/core/config"
	"github.com/google/hierarchia/core/records"
	"github.com/google/hierarchia/datasources"
)

//go:embed data/employees.csv
var employeesCSV []byte

//go:embed data/employees.json
var employeesJSON []byte

//go:embed data/grid.yaml
var gridYAML []byte

// ChildDataKey is the child-collection field of the nested employees.
const ChildDataKey = "Employees"

// Config returns the configuration of the flat employee grid.
func Config() (*config.Config, error) {
	return config.Parse(gridYAML)
}

// NestedConfig returns the configuration of the nested employee grid.
func NestedConfig() (*config.Config, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	cfg.ForeignKey = ""
	cfg.ChildDataKey = ChildDataKey
	for i, col := range cfg.Columns {
		// Nested rows are keyed by name, not by number.
		if col.Field == "ID" {
			cfg.Columns[i].DataType = "string"
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Employees returns a fresh copy of the flat employee rows.
func Employees() ([]records.Row, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	cols, err := cfg.ColumnSet()
	if err != nil {
		return nil, err
	}
	return datasources.NewCsvLoader(cols).Read(bytes.NewReader(employeesCSV), nil)
}

// NestedEmployees returns a fresh copy of the nested employee rows.
func NestedEmployees() ([]records.Row, error) {
	return datasources.DecodeJSON(employeesJSON, "employees")
}
