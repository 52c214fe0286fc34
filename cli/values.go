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

package cli

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
	"github.com/google/hierarchia/core/records"
)

// parseAssignments reads field=value pairs, typing each value by the column
// metadata. An empty value clears the field.
func parseAssignments(cols columns.Provider, assignments []string) (records.Row, error) {
	row := make(records.Row, len(assignments))
	for _, a := range assignments {
		field, raw, ok := strings.Cut(a, "=")
		if !ok || field == "" {
			return nil, errors.Errorf("%q is not field=value", a)
		}
		v, err := parseValue(cols, field, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", field)
		}
		row[field] = v
	}
	return row, nil
}

func parseValue(cols columns.Provider, field, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	col, ok := columns.Lookup(cols, field)
	if !ok {
		return raw, nil
	}
	switch dt := col.DataType(); {
	case dt.IsNumeric():
		f, ok := columns.ParseNumber(raw)
		if !ok {
			return nil, errors.Errorf("cannot parse %q as number", raw)
		}
		return f, nil
	case dt == columns.TypeBoolean:
		return strconv.ParseBool(raw)
	case dt.IsTemporal():
		return columns.ParseDatetime(raw, col.Location())
	}
	return raw, nil
}
