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
	"math"
	"sort"
	"strings"
	"time"
)

// Analyzer computes flexibility band statistics over the dataset
type Analyzer struct {
	logger *Logger
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(logger *Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze aggregates the selected companies' consumption by month inside
// the query window and classifies each month against the flexibility band.
//
// The band is computed in exactly two passes. The first mean covers every
// month in the window; the second covers only months that fell inside the
// first band. If no month survives the first band, the adjusted mean is
// NaN and every month is reported as out of band.
func (a *Analyzer) Analyze(ds *Dataset, companies []string, start, end time.Time, flexPct int) (*BandAnalysis, error) {
	if len(companies) == 0 {
		return nil, &EmptySelectionError{Reason: "no companies selected"}
	}

	selected := make(map[string]bool, len(companies))
	for _, name := range companies {
		if name = strings.TrimSpace(name); name != "" {
			selected[name] = true
		}
	}
	if len(selected) == 0 {
		return nil, &EmptySelectionError{Reason: "no companies selected"}
	}

	if !ds.HasConsumption {
		return nil, &MissingColumnError{Column: "CONSUMO TOTAL"}
	}

	a.logger.LogAnalysisStage("aggregating monthly consumption")

	monthly := make(map[time.Time]float64)
	for _, record := range ds.Records {
		if !selected[record.Company] {
			continue
		}
		if record.ReferenceMonth.Before(start) || record.ReferenceMonth.After(end) {
			continue
		}
		if record.ConsumptionMWm == nil {
			continue
		}
		monthly[record.ReferenceMonth] += *record.ConsumptionMWm
	}

	if len(monthly) == 0 {
		return nil, &EmptySelectionError{Reason: "no consumption records in the selected window"}
	}

	series := make([]MonthlyPoint, 0, len(monthly))
	for month, value := range monthly {
		series = append(series, MonthlyPoint{Month: month, ValueMWm: value})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Month.Before(series[j].Month)
	})

	a.logger.LogAnalysisStage("computing flexibility band")

	flex := float64(flexPct) / 100

	// First pass over every month in the window
	firstMean := meanOf(series, func(MonthlyPoint) bool { return true })
	firstLower := firstMean * (1 - flex)
	firstUpper := firstMean * (1 + flex)

	// Second pass restricted to months inside the first band
	mean := meanOf(series, func(p MonthlyPoint) bool {
		return p.ValueMWm >= firstLower && p.ValueMWm <= firstUpper
	})
	lower := mean * (1 - flex)
	upper := mean * (1 + flex)

	for i := range series {
		inBand := series[i].ValueMWm >= lower && series[i].ValueMWm <= upper
		series[i].OutOfBand = !inBand
		if !inBand {
			a.logger.LogOutOfBandMonth(series[i].Month.Format("01/2006"), series[i].ValueMWm)
		}
	}

	return &BandAnalysis{
		Series:     series,
		Mean:       mean,
		LowerBound: lower,
		UpperBound: upper,
		FlexPct:    flexPct,
	}, nil
}

// meanOf averages the months accepted by the filter, NaN when none are
func meanOf(series []MonthlyPoint, accept func(MonthlyPoint) bool) float64 {
	sum := 0.0
	count := 0
	for _, p := range series {
		if accept(p) {
			sum += p.ValueMWm
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// AnnualGrowthTable collapses the monthly series into yearly means with
// the percentage variation against the previous year
func (a *Analyzer) AnnualGrowthTable(series []MonthlyPoint) []AnnualGrowth {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, p := range series {
		year := p.Month.Year()
		sums[year] += p.ValueMWm
		counts[year]++
	}

	years := make([]int, 0, len(sums))
	for year := range sums {
		years = append(years, year)
	}
	sort.Ints(years)

	table := make([]AnnualGrowth, 0, len(years))
	for i, year := range years {
		entry := AnnualGrowth{
			Year:        year,
			MeanMonthly: sums[year] / float64(counts[year]),
		}
		if i > 0 {
			prev := table[i-1].MeanMonthly
			if prev != 0 {
				pct := (entry.MeanMonthly/prev - 1) * 100
				entry.VariationPct = &pct
			}
		}
		table = append(table, entry)
	}
	return table
}
