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
	"sort"
	"strconv"
	"strings"
	"time"
)

// Consolidator merges records from every source into a single dataset
type Consolidator struct {
	exclusions []OverlapExclusion
	logger     *Logger
}

// NewConsolidator creates a new consolidator
func NewConsolidator(config *Config, logger *Logger) *Consolidator {
	return &Consolidator{
		exclusions: config.OverlapExclusions,
		logger:     logger,
	}
}

// Consolidate normalizes every source, applies the overlap exclusions and
// returns the merged dataset sorted by reference month, newest first.
func (c *Consolidator) Consolidate(sources []Source) (*Dataset, error) {
	type pending struct {
		raw   RawRecord
		month time.Time
	}

	var rows []pending
	columns := make(map[string]bool)
	skipped := 0

	for _, source := range sources {
		kept := 0
		for _, raw := range source.Records {
			normalized := NormalizeReferenceMonth(raw[referenceMonthField])
			month, ok := ParseReferenceMonth(normalized)
			if !ok {
				skipped++
				c.logger.Warn("Skipping row with unparseable reference month",
					"source", source.Kind,
					"year", source.Year,
					"value", raw[referenceMonthField])
				continue
			}
			if c.excluded(source.Kind, month) {
				continue
			}
			for key := range raw {
				columns[key] = true
			}
			rows = append(rows, pending{raw: raw, month: month})
			kept++
		}
		c.logger.Debug("Source consolidated", "kind", source.Kind, "year", source.Year, "kept", kept)
	}

	if len(rows) == 0 {
		return &Dataset{}, nil
	}
	if skipped > 0 {
		c.logger.Warn("Dropped rows with unparseable reference months", "count", skipped)
	}

	consumptionColumn, hasConsumption := resolveConsumptionColumn(columns)
	if !hasConsumption {
		c.logger.Warn("No total consumption column found in any source")
	}

	records := make([]ConsumptionRecord, 0, len(rows))
	for seq, row := range rows {
		hours := hoursInMonth(row.month)
		record := ConsumptionRecord{
			Company:        fieldString(row.raw, "NOME_EMPRESARIAL"),
			UnitCode:       fieldString(row.raw, "SIGLA_PARCELA_CARGA"),
			City:           fieldString(row.raw, "CIDADE"),
			State:          fieldString(row.raw, "ESTADO_UF", "ESTADO"),
			Submarket:      fieldString(row.raw, "SUBMERCADO"),
			Capacity:       fieldFloat(row.raw, "CAPACIDADE_CARGA"),
			TaxID:          fieldString(row.raw, "CNPJ_CARGA", "CNPJ"),
			ReferenceMonth: row.month,
			HoursInMonth:   hours,
			Seq:            seq,
		}
		if hasConsumption {
			if total, ok := fieldFloatOK(row.raw, consumptionColumn); ok {
				record.TotalConsumption = &total
				if hours > 0 {
					mwm := total / float64(hours)
					record.ConsumptionMWm = &mwm
				}
			}
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ReferenceMonth.After(records[j].ReferenceMonth)
	})

	ds := &Dataset{
		Records:           records,
		ConsumptionColumn: consumptionColumn,
		HasConsumption:    hasConsumption,
		From:              records[len(records)-1].ReferenceMonth,
		To:                records[0].ReferenceMonth,
	}
	c.logger.Info("Dataset consolidated",
		"records", len(records),
		"from", ds.From.Format(canonicalDateLayout),
		"to", ds.To.Format(canonicalDateLayout))
	return ds, nil
}

// excluded reports whether the overlap rules drop this month for the source
func (c *Consolidator) excluded(kind SourceKind, month time.Time) bool {
	for _, ex := range c.exclusions {
		if ex.Source == kind && ex.Year == month.Year() && time.Month(ex.Month) == month.Month() {
			return true
		}
	}
	return false
}

// resolveConsumptionColumn finds the column whose name contains both
// CONSUMO and TOTAL, ignoring case. Column order in a map is not stable,
// so candidates are sorted before picking the first.
func resolveConsumptionColumn(columns map[string]bool) (string, bool) {
	var candidates []string
	for name := range columns {
		upper := strings.ToUpper(name)
		if strings.Contains(upper, "CONSUMO") && strings.Contains(upper, "TOTAL") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

// hoursInMonth returns the number of hours in the month of t
func hoursInMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	lastDay := firstOfNext.AddDate(0, 0, -1).Day()
	return lastDay * 24
}

// fieldString returns the first non-empty string value among the named
// columns, matching names case-insensitively
func fieldString(record RawRecord, names ...string) string {
	for _, name := range names {
		if value, ok := lookupField(record, name); ok {
			if s := strings.TrimSpace(stringifyValue(value)); s != "" {
				return s
			}
		}
	}
	return ""
}

// fieldFloat returns the first parseable numeric value among the named
// columns, or zero when none parses
func fieldFloat(record RawRecord, names ...string) float64 {
	for _, name := range names {
		if value, ok := lookupField(record, name); ok {
			if f, ok := coerceFloat(value); ok {
				return f
			}
		}
	}
	return 0
}

// fieldFloatOK is fieldFloat with an explicit found flag, for columns
// where absence must stay distinguishable from zero
func fieldFloatOK(record RawRecord, names ...string) (float64, bool) {
	for _, name := range names {
		if value, ok := lookupField(record, name); ok {
			if f, ok := coerceFloat(value); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// lookupField finds a column by name, trying an exact match before a
// case-insensitive scan
func lookupField(record RawRecord, name string) (any, bool) {
	if value, ok := record[name]; ok {
		return value, true
	}
	for key, value := range record {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

// coerceFloat converts a raw cell value to a float64 where possible.
// Brazilian sources sometimes use a comma decimal separator.
func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
