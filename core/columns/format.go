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

package columns

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrorLabel is shown for values that cannot be formatted for their column.
const ErrorLabel = "#ERROR"

// stringOf is the plain string form of a value, used when no column
// metadata is available.
func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(DatetimeFormatISO)
	}
	if f, ok := ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// FormatValue renders a value without column metadata.
func FormatValue(v any) string {
	return stringOf(v)
}

// FormatValue renders a cell value the way the column displays it.
// Temporal values are rendered with the column layout in the column
// location; numeric values are rendered for the column locale.
func (cd *ColumnDef) FormatValue(v any) string {
	if v == nil {
		return ""
	}
	switch {
	case cd.dataType.IsTemporal():
		t, ok := ToTime(v, cd.location)
		if !ok {
			if s, isString := v.(string); isString && s == "" {
				return ""
			}
			return ErrorLabel
		}
		return t.In(cd.location).Format(cd.Format())
	case cd.dataType.IsNumeric():
		f, ok := ToFloat(v)
		if !ok {
			s, isString := v.(string)
			if !isString {
				return stringOf(v)
			}
			if f, ok = ParseNumber(s); !ok {
				return s
			}
		}
		return cd.formatNumber(f)
	}
	return stringOf(v)
}

func (cd *ColumnDef) formatNumber(f float64) string {
	p := message.NewPrinter(cd.locale)
	switch cd.dataType {
	case TypePercent:
		return p.Sprint(number.Percent(f))
	case TypeCurrency:
		unit, ok := cd.currencyUnit()
		if !ok {
			return p.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
		}
		return p.Sprint(currency.Symbol(unit.Amount(f)))
	default:
		return p.Sprint(number.Decimal(f))
	}
}

func (cd *ColumnDef) currencyUnit() (currency.Unit, bool) {
	if cd.currency != "" {
		unit, err := currency.ParseISO(cd.currency)
		return unit, err == nil
	}
	unit, conf := currency.FromTag(cd.locale)
	return unit, conf != 0
}
