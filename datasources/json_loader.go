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
	"io"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/hierarchia/core/records"
)

// JSONLoader implements Loader for JSON files holding an array of objects.
// Nested arrays of objects load as child collections. JSON numbers load as
// float64.
//
// Required config keys:
//   - file_path: Path to the JSON file
//
// Optional config keys:
//   - field: Name of the top-level field holding the array when the file
//     holds an object
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// SourceType returns "json".
func (l *JSONLoader) SourceType() string {
	return "json"
}

// Load reads the JSON file into rows.
func (l *JSONLoader) Load(config map[string]string) ([]records.Row, error) {
	path, err := filePath(config)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read JSON file")
	}
	return DecodeJSON(data, config["field"])
}

// DecodeJSON decodes an array of objects, or the array stored under field
// of an object.
func DecodeJSON(data []byte, field string) ([]records.Row, error) {
	var v structpb.Value
	if err := protojson.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON")
	}
	decoded := v.AsInterface()
	if field != "" {
		obj, ok := decoded.(map[string]any)
		if !ok {
			return nil, errors.Errorf("expected an object with field %q", field)
		}
		decoded = obj[field]
	}
	list, ok := decoded.([]any)
	if !ok {
		return nil, errors.New("expected an array of objects")
	}
	rows := make([]records.Row, len(list))
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Errorf("element %d is not an object", i)
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteJSON writes rows as an indented JSON array that JSONLoader reads
// back. Times are written as RFC 3339 strings.
func WriteJSON(w io.Writer, rows []records.Row) error {
	list, err := structpb.NewList(records.Plain(rows).([]any))
	if err != nil {
		return errors.Wrap(err, "encoding rows")
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(structpb.NewListValue(list))
	if err != nil {
		return errors.Wrap(err, "encoding rows")
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
