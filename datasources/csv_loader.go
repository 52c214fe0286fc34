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

package datasources

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/records"
)

// CsvLoader implements Loader for CSV files. Cells of columns known to the
// column metadata are parsed by their data type; the type of other columns
// is inferred from the data. Empty cells load as nil.
//
// Required config keys:
//   - file_path: Path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: Field delimiter (default: ",")
type CsvLoader struct {
	cols columns.Provider
}

// NewCsvLoader creates a new CSV loader. cols may be nil.
func NewCsvLoader(cols columns.Provider) *CsvLoader {
	return &CsvLoader{cols: cols}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// Load reads the CSV file into rows.
func (l *CsvLoader) Load(config map[string]string) ([]records.Row, error) {
	path, err := filePath(config)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()
	return l.Read(file, config)
}

// Read parses CSV from r. The file_path key of config is ignored.
func (l *CsvLoader) Read(r io.Reader, config map[string]string) ([]records.Row, error) {
	reader := csv.NewReader(r)
	if d := config["delimiter"]; d != "" {
		reader.Comma = rune(d[0])
	}
	lines, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	if len(lines) == 0 {
		return nil, errors.New("CSV file is empty")
	}

	var names []string
	data := lines
	if config["has_header"] != "false" {
		names, data = lines[0], lines[1:]
	} else {
		for i := range lines[0] {
			names = append(names, fmt.Sprintf("col_%d", i))
		}
	}

	parsers := make([]func(string) (any, error), len(names))
	for i, name := range names {
		parsers[i] = l.parser(name, i, data)
	}

	rows := make([]records.Row, 0, len(data))
	for n, line := range data {
		row := make(records.Row, len(names))
		for i, name := range names {
			if i >= len(line) || line[i] == "" {
				row[name] = nil
				continue
			}
			v, err := parsers[i](line[i])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d, column %s", n+1, name)
			}
			row[name] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *CsvLoader) parser(name string, idx int, data [][]string) func(string) (any, error) {
	dt, loc := columns.TypeString, time.UTC
	if col, ok := columns.Lookup(l.cols, name); ok {
		dt, loc = col.DataType(), col.Location()
	} else {
		dt = inferColumnType(idx, data)
	}

	switch {
	case dt.IsNumeric():
		return func(s string) (any, error) {
			f, ok := columns.ParseNumber(s)
			if !ok {
				return nil, errors.Errorf("cannot parse %q as number", s)
			}
			return f, nil
		}
	case dt == columns.TypeBoolean:
		return func(s string) (any, error) { return parseBool(s) }
	case dt.IsTemporal():
		return func(s string) (any, error) { return columns.ParseDatetime(s, loc) }
	}
	return func(s string) (any, error) { return s, nil }
}

// inferColumnType samples up to 100 rows of a column without metadata.
func inferColumnType(colIdx int, data [][]string) columns.DataType {
	sampleSize := min(len(data), 100)
	isNumber, isBool, seen := true, true, false
	for _, line := range data[:sampleSize] {
		if colIdx >= len(line) || line[colIdx] == "" {
			continue
		}
		val := line[colIdx]
		seen = true
		if isNumber {
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				isNumber = false
			}
		}
		if isBool {
			if _, err := parseBool(val); err != nil {
				isBool = false
			}
		}
	}
	switch {
	case !seen:
		return columns.TypeString
	case isNumber:
		return columns.TypeNumber
	case isBool:
		return columns.TypeBoolean
	}
	return columns.TypeString
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "t", "y":
		return true, nil
	case "false", "no", "f", "n":
		return false, nil
	}
	return false, errors.Errorf("cannot parse %q as boolean", s)
}
