// Copyright 2025 Caio Bellizze
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// referenceMonthField is the column holding the reference month in both
// the API payload and the spreadsheet extracts
const referenceMonthField = "MES_REFERENCIA"

// canonicalDateLayout is the day-first layout every source is normalized to
const canonicalDateLayout = "02/01/2006"

// dateLayouts are tried in order when parsing a date-like value. Day-first
// layouts come first because the upstream data is Brazilian.
var dateLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// NormalizeReferenceMonth converts a reference month value from any source
// into the canonical dd/mm/yyyy form.
//
// The API encodes months as the number YYYYMM, which maps to the first day
// of that month. The spreadsheet extracts carry real dates in day-first or
// ISO order. Values already in canonical form pass through unchanged, and
// anything unparseable is returned as-is so the caller can decide.
func NormalizeReferenceMonth(value any) string {
	s := strings.TrimSpace(stringifyValue(value))
	if s == "" {
		return s
	}

	// Compact YYYYMM month code
	if code, ok := parseMonthCode(s); ok {
		return code
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalDateLayout)
		}
	}

	return s
}

// parseMonthCode interprets a six-digit YYYYMM value as the first day of
// that month
func parseMonthCode(s string) (string, bool) {
	// Numbers arriving through JSON may carry a float suffix
	s = strings.TrimSuffix(s, ".0")
	if len(s) != 6 {
		return "", false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", false
	}
	year := n / 100
	month := n % 100
	if month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("01/%02d/%04d", month, year), true
}

// ParseReferenceMonth parses a canonical dd/mm/yyyy reference month
func ParseReferenceMonth(s string) (time.Time, bool) {
	t, err := time.Parse(canonicalDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// stringifyValue renders a raw cell value as a string
func stringifyValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
