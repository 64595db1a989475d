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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReferenceMonth_MonthCode(t *testing.T) {
	assert.Equal(t, "01/01/2024", NormalizeReferenceMonth("202401"))
	assert.Equal(t, "01/12/2023", NormalizeReferenceMonth("202312"))

	// JSON numbers arrive as float64
	assert.Equal(t, "01/04/2024", NormalizeReferenceMonth(float64(202404)))
	assert.Equal(t, "01/04/2024", NormalizeReferenceMonth("202404.0"))
}

func TestNormalizeReferenceMonth_DateForms(t *testing.T) {
	// Day-first spreadsheet dates
	assert.Equal(t, "15/03/2024", NormalizeReferenceMonth("15/03/2024"))
	assert.Equal(t, "15/03/2024", NormalizeReferenceMonth("15/03/2024 00:00:00"))

	// ISO dates
	assert.Equal(t, "01/04/2024", NormalizeReferenceMonth("2024-04-01"))
	assert.Equal(t, "01/04/2024", NormalizeReferenceMonth("2024-04-01 00:00:00"))
	assert.Equal(t, "01/04/2024", NormalizeReferenceMonth("2024-04-01T00:00:00"))
}

func TestNormalizeReferenceMonth_Idempotent(t *testing.T) {
	inputs := []any{"202401", "2024-04-01", "15/03/2024", float64(202312)}
	for _, input := range inputs {
		once := NormalizeReferenceMonth(input)
		twice := NormalizeReferenceMonth(once)
		assert.Equal(t, once, twice, "normalizing %v twice changed the value", input)
	}
}

func TestNormalizeReferenceMonth_Unparseable(t *testing.T) {
	assert.Equal(t, "not a date", NormalizeReferenceMonth("not a date"))
	assert.Equal(t, "", NormalizeReferenceMonth(nil))
	assert.Equal(t, "", NormalizeReferenceMonth("   "))

	// A six digit number with an impossible month is not a month code
	assert.Equal(t, "202413", NormalizeReferenceMonth("202413"))
}

func TestParseReferenceMonth(t *testing.T) {
	parsed, ok := ParseReferenceMonth("01/04/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), parsed)

	_, ok = ParseReferenceMonth("garbage")
	assert.False(t, ok)
}
