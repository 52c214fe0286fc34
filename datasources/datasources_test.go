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
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/protoloader/protoloadertest"
	"github.com/google/hierarchia/core/records"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCsvLoaderTypesByColumns(t *testing.T) {
	path := writeFile(t, "staff.csv", "ID,Name,Hired,Remote\n1,Alice,2021-03-04,yes\n2,Bob,,no\n")
	cols := columns.NewSet(
		columns.NewColumnDef("Hired", "", columns.TypeDate),
		columns.NewColumnDef("ID", "", columns.TypeString),
	)

	rows, err := NewCsvLoader(cols).Load(map[string]string{"file_path": path})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0]["ID"])
	assert.Equal(t, "Alice", rows[0]["Name"])
	assert.True(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC).Equal(rows[0]["Hired"].(time.Time)))
	assert.Equal(t, true, rows[0]["Remote"])
	assert.Nil(t, rows[1]["Hired"])
	assert.Equal(t, false, rows[1]["Remote"])
}

func TestCsvLoaderInfersTypes(t *testing.T) {
	path := writeFile(t, "data.csv", "1;2.5;x\n2;;y\n")
	rows, err := NewCsvLoader(nil).Load(map[string]string{
		"file_path":  path,
		"has_header": "false",
		"delimiter":  ";",
	})
	require.NoError(t, err)
	assert.Equal(t, []records.Row{
		{"col_0": float64(1), "col_1": 2.5, "col_2": "x"},
		{"col_0": float64(2), "col_1": nil, "col_2": "y"},
	}, rows)
}

func TestCsvLoaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]string
	}{
		{"no path", map[string]string{}},
		{"missing file", map[string]string{"file_path": filepath.Join(t.TempDir(), "nope.csv")}},
		{"empty file", map[string]string{"file_path": writeFile(t, "empty.csv", "")}},
		{"bad number", map[string]string{"file_path": writeFile(t, "bad.csv", "Salary\nlots\n")}},
	}
	cols := columns.NewSet(columns.NewColumnDef("Salary", "", columns.TypeNumber))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCsvLoader(cols).Load(tt.config)
			assert.Error(t, err)
		})
	}
}

func TestJSONLoader(t *testing.T) {
	path := writeFile(t, "tree.json", `{"employees": [
		{"ID": 1, "Name": "Alice", "Reports": [{"ID": 2, "Name": "Bob"}]},
		{"ID": 3, "Name": "Carol", "Active": true}
	]}`)
	rows, err := NewJSONLoader().Load(map[string]string{"file_path": path, "field": "employees"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, float64(1), rows[0]["ID"])
	assert.Equal(t, true, rows[1]["Active"])

	tree, err := records.NewTree(rows, records.Options{PrimaryKey: "ID", ChildDataKey: "Reports", ExpansionDepth: records.ExpandAll})
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Len())
}

func TestDecodeJSONRejects(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"malformed", `[{"a":`, ""},
		{"not an array", `{"a": 1}`, ""},
		{"not objects", `[1, 2]`, ""},
		{"field on array", `[]`, "rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.data), tt.field)
			assert.Error(t, err)
		})
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	hired := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []records.Row{
		{"ID": 1, "Hired": hired, "Children": []records.Row{{"ID": 2}}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rows))

	got, err := DecodeJSON(buf.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, []records.Row{
		{"ID": float64(1), "Hired": "2020-01-02T03:04:05Z", "Children": []any{map[string]any{"ID": float64(2)}}},
	}, got)
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(nil, nil)
	assert.Equal(t, []string{"csv", "json", "proto"}, r.SourceTypes())

	path := writeFile(t, "rows.json", `[{"ID": "a"}]`)
	rows, err := r.Load("json", map[string]string{"file_path": path})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = r.Load("parquet", nil)
	assert.True(t, errors.Is(err, ErrUnknownSource))
}

func TestProtoLoader(t *testing.T) {
	set, err := protoloadertest.OrgDescriptorSet()
	require.NoError(t, err)
	dir := t.TempDir()
	descriptors := filepath.Join(dir, "org.pb")
	require.NoError(t, os.WriteFile(descriptors, set, 0o644))
	data := filepath.Join(dir, "org.txtpb")
	require.NoError(t, os.WriteFile(data, []byte(protoloadertest.OrgTextproto), 0o644))

	l := NewProtoLoader()
	config := map[string]string{
		"file_path":      data,
		"message_type":   protoloadertest.OrgMessage,
		"descriptor_set": descriptors,
	}
	rows, err := l.Load(config)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Casey", rows[0]["name"])
	assert.Equal(t, "SENIOR", rows[0]["level"])
	assert.Equal(t, []string{"hierarchia.test.Employee", "hierarchia.test.Org"}, l.GetRegisteredMessages())

	tree, err := records.NewTree(rows, records.Options{PrimaryKey: "id", ChildDataKey: "reports"})
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Len())
	path, err := tree.Path(3)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, path)

	// A second load reuses the registered descriptors.
	config["field"] = "employees"
	_, err = l.Load(config)
	require.NoError(t, err)

	config["format"] = "yaml"
	_, err = l.Load(config)
	assert.ErrorContains(t, err, "unknown format")

	_, err = l.Load(map[string]string{"file_path": data})
	assert.ErrorContains(t, err, "message_type is required")
}
