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
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// headquartersBranch is the branch code of a company's head office
const headquartersBranch = "0001"

// Resolver derives companies, units and submarkets from raw records
type Resolver struct {
	windowMonths int
	logger       *Logger
}

// NewResolver creates a new entity resolver
func NewResolver(config *Config, logger *Logger) *Resolver {
	return &Resolver{
		windowMonths: config.WindowMonths,
		logger:       logger,
	}
}

// FormatCNPJ renders a numeric-like tax ID as NN.NNN.NNN/NNNN-NN.
// Sources deliver the value stripped of leading zeros and sometimes as a
// float, so it is parsed numerically and padded back to 14 digits. Any
// value that does not fit 14 digits formats to an empty string.
func FormatCNPJ(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return ""
	}
	digits := fmt.Sprintf("%014d", int64(f))
	if len(digits) != 14 {
		return ""
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s",
		digits[0:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14])
}

// isHeadquarters reports whether a formatted tax ID carries the head
// office branch code
func isHeadquarters(formatted string) bool {
	if len(formatted) != 18 {
		return false
	}
	return formatted[11:15] == headquartersBranch
}

// Resolve summarizes the given records over the trailing window ending at
// the newest reference month. Records are expected to already be filtered
// to the selected companies.
func (r *Resolver) Resolve(records []ConsumptionRecord) *Resolution {
	if len(records) == 0 {
		return &Resolution{}
	}

	windowEnd := records[0].ReferenceMonth
	for _, record := range records {
		if record.ReferenceMonth.After(windowEnd) {
			windowEnd = record.ReferenceMonth
		}
	}
	windowStart := windowEnd.AddDate(0, -r.windowMonths, 0)

	var window []ConsumptionRecord
	for _, record := range records {
		if !record.ReferenceMonth.Before(windowStart) {
			window = append(window, record)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Seq < window[j].Seq
	})

	r.logger.LogAnalysisStage("resolving entities")

	return &Resolution{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Companies:   r.resolveCompanies(window),
		Submarkets:  r.resolveSubmarkets(window),
		Units:       r.resolveUnits(window),
	}
}

// resolveCompanies builds one summary per company in first-seen order
func (r *Resolver) resolveCompanies(window []ConsumptionRecord) []CompanySummary {
	var order []string
	grouped := make(map[string][]ConsumptionRecord)
	for _, record := range window {
		if _, seen := grouped[record.Company]; !seen {
			order = append(order, record.Company)
		}
		grouped[record.Company] = append(grouped[record.Company], record)
	}

	summaries := make([]CompanySummary, 0, len(order))
	for _, company := range order {
		rows := grouped[company]

		units := make(map[string]bool)
		submarkets := make(map[string]bool)
		for _, row := range rows {
			units[row.UnitCode] = true
			if row.Submarket != "" {
				submarkets[row.Submarket] = true
			}
		}

		summaries = append(summaries, CompanySummary{
			Company:        company,
			UnitCount:      len(units),
			MixedSubmarket: len(submarkets) > 1,
			DecisionCenter: resolveDecisionCenter(rows),
		})
	}
	return summaries
}

// resolveDecisionCenter locates the row that best represents where a
// company is run from. A head office branch wins outright; otherwise the
// tax ID with the highest mean consumption is taken, keeping the first
// occurrence on ties.
func resolveDecisionCenter(rows []ConsumptionRecord) DecisionCenter {
	for _, row := range rows {
		formatted := FormatCNPJ(row.TaxID)
		if isHeadquarters(formatted) {
			return DecisionCenter{
				City:  row.City,
				State: row.State,
				TaxID: formatted,
			}
		}
	}

	// No head office in the window. Fall back to the heaviest consumer.
	var order []string
	sums := make(map[string]float64)
	counts := make(map[string]int)
	first := make(map[string]ConsumptionRecord)
	for _, row := range rows {
		formatted := FormatCNPJ(row.TaxID)
		if _, seen := first[formatted]; !seen {
			order = append(order, formatted)
			first[formatted] = row
		}
		if row.ConsumptionMWm != nil {
			sums[formatted] += *row.ConsumptionMWm
			counts[formatted]++
		}
	}

	best := ""
	bestMean := math.NaN()
	for _, formatted := range order {
		mean := math.NaN()
		if counts[formatted] > 0 {
			mean = sums[formatted] / float64(counts[formatted])
		}
		if best == "" || (!math.IsNaN(mean) && (math.IsNaN(bestMean) || mean > bestMean)) {
			best = formatted
			bestMean = mean
		}
	}
	if best == "" {
		return DecisionCenter{}
	}

	row := first[best]
	return DecisionCenter{
		City:  row.City,
		State: row.State,
		TaxID: best,
	}
}

// resolveSubmarkets aggregates units and consumption per submarket,
// sorted by submarket name
func (r *Resolver) resolveSubmarkets(window []ConsumptionRecord) []SubmarketSummary {
	units := make(map[string]map[string]bool)
	totals := make(map[string]float64)
	grandTotal := 0.0

	for _, record := range window {
		submarket := record.Submarket
		if units[submarket] == nil {
			units[submarket] = make(map[string]bool)
		}
		units[submarket][record.UnitCode] = true
		if record.ConsumptionMWm != nil {
			totals[submarket] += *record.ConsumptionMWm
			grandTotal += *record.ConsumptionMWm
		}
	}

	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]SubmarketSummary, 0, len(names))
	for _, name := range names {
		share := 0.0
		if grandTotal != 0 {
			share = totals[name] / grandTotal * 100
		}
		summaries = append(summaries, SubmarketSummary{
			Submarket:      name,
			UnitCount:      len(units[name]),
			TotalMWm:       totals[name],
			MeanMonthlyMWm: totals[name] / float64(r.windowMonths),
			SharePct:       share,
		})
	}
	return summaries
}

// resolveUnits builds one summary per unit in first-seen order, with the
// attributes of the unit's first row and its mean consumption over the
// window
func (r *Resolver) resolveUnits(window []ConsumptionRecord) []UnitSummary {
	var order []string
	first := make(map[string]ConsumptionRecord)
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, record := range window {
		if _, seen := first[record.UnitCode]; !seen {
			order = append(order, record.UnitCode)
			first[record.UnitCode] = record
		}
		if record.ConsumptionMWm != nil {
			sums[record.UnitCode] += *record.ConsumptionMWm
			counts[record.UnitCode]++
		}
	}

	summaries := make([]UnitSummary, 0, len(order))
	for _, code := range order {
		row := first[code]
		mean := 0.0
		if counts[code] > 0 {
			mean = math.Round(sums[code]/float64(counts[code])*100) / 100
		}
		summaries = append(summaries, UnitSummary{
			UnitCode:  code,
			TaxID:     FormatCNPJ(row.TaxID),
			City:      row.City,
			State:     row.State,
			Submarket: row.Submarket,
			Capacity:  row.Capacity,
			MeanMWm:   mean,
		})
	}
	return summaries
}

// windowLabel renders a window boundary for logs and reports
func windowLabel(t time.Time) string {
	return t.Format(canonicalDateLayout)
}
