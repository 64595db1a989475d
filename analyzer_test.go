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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mwm(v float64) *float64 {
	return &v
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func bandDataset(company string, values map[time.Time]float64) *Dataset {
	ds := &Dataset{
		ConsumptionColumn: "CONSUMO_TOTAL",
		HasConsumption:    true,
	}
	for ref, value := range values {
		ds.Records = append(ds.Records, ConsumptionRecord{
			Company:        company,
			ReferenceMonth: ref,
			ConsumptionMWm: mwm(value),
		})
	}
	return ds
}

func TestAnalyze_TwoPassBand(t *testing.T) {
	ds := bandDataset("ACME", map[time.Time]float64{
		month(2024, time.January):  100,
		month(2024, time.February): 100,
		month(2024, time.March):    100,
		month(2024, time.April):    1000,
	})

	analyzer := NewAnalyzer(NewLogger(false))
	band, err := analyzer.Analyze(ds, []string{"ACME"}, month(2024, time.January), month(2024, time.December), 70)
	require.NoError(t, err)

	// First mean is 325; with 70% flexibility the spike falls outside the
	// first band, so the adjusted mean covers only the 100s.
	assert.InDelta(t, 100.0, band.Mean, 1e-9)
	assert.InDelta(t, 30.0, band.LowerBound, 1e-9)
	assert.InDelta(t, 170.0, band.UpperBound, 1e-9)

	require.Len(t, band.Series, 4)
	assert.False(t, band.Series[0].OutOfBand)
	assert.False(t, band.Series[1].OutOfBand)
	assert.False(t, band.Series[2].OutOfBand)
	assert.True(t, band.Series[3].OutOfBand)
}

func TestAnalyze_AllMonthsOutsideFirstBand(t *testing.T) {
	// With 10% flexibility around the first mean of 325, neither the 100s
	// nor the spike stay in band, so the adjusted mean is undefined.
	ds := bandDataset("ACME", map[time.Time]float64{
		month(2024, time.January):  100,
		month(2024, time.February): 100,
		month(2024, time.March):    100,
		month(2024, time.April):    1000,
	})

	analyzer := NewAnalyzer(NewLogger(false))
	band, err := analyzer.Analyze(ds, []string{"ACME"}, month(2024, time.January), month(2024, time.December), 10)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(band.Mean))
	for _, point := range band.Series {
		assert.True(t, point.OutOfBand)
	}
}

func TestAnalyze_SumsUnitsPerMonth(t *testing.T) {
	ds := &Dataset{HasConsumption: true}
	ref := month(2024, time.January)
	for i := 0; i < 3; i++ {
		ds.Records = append(ds.Records, ConsumptionRecord{
			Company:        "ACME",
			ReferenceMonth: ref,
			ConsumptionMWm: mwm(2.5),
		})
	}
	// Records with null consumption are ignored, not treated as zero
	ds.Records = append(ds.Records, ConsumptionRecord{
		Company:        "ACME",
		ReferenceMonth: ref,
	})

	analyzer := NewAnalyzer(NewLogger(false))
	band, err := analyzer.Analyze(ds, []string{"ACME"}, ref, ref, 30)
	require.NoError(t, err)

	require.Len(t, band.Series, 1)
	assert.InDelta(t, 7.5, band.Series[0].ValueMWm, 1e-9)
}

func TestAnalyze_EmptySelection(t *testing.T) {
	ds := bandDataset("ACME", map[time.Time]float64{
		month(2024, time.January): 100,
	})
	analyzer := NewAnalyzer(NewLogger(false))

	var empty *EmptySelectionError

	_, err := analyzer.Analyze(ds, nil, month(2024, time.January), month(2024, time.December), 30)
	assert.ErrorAs(t, err, &empty)

	_, err = analyzer.Analyze(ds, []string{" ", ""}, month(2024, time.January), month(2024, time.December), 30)
	assert.ErrorAs(t, err, &empty)

	// Unknown company matches no records
	_, err = analyzer.Analyze(ds, []string{"NOBODY"}, month(2024, time.January), month(2024, time.December), 30)
	assert.ErrorAs(t, err, &empty)

	// Window before any data
	_, err = analyzer.Analyze(ds, []string{"ACME"}, month(2020, time.January), month(2020, time.December), 30)
	assert.ErrorAs(t, err, &empty)
}

func TestAnalyze_MissingConsumptionColumn(t *testing.T) {
	ds := &Dataset{
		Records: []ConsumptionRecord{{Company: "ACME", ReferenceMonth: month(2024, time.January)}},
	}
	analyzer := NewAnalyzer(NewLogger(false))

	_, err := analyzer.Analyze(ds, []string{"ACME"}, month(2024, time.January), month(2024, time.December), 30)

	var missing *MissingColumnError
	assert.ErrorAs(t, err, &missing)
}

func TestAnnualGrowthTable(t *testing.T) {
	var series []MonthlyPoint
	for m := time.January; m <= time.December; m++ {
		series = append(series, MonthlyPoint{Month: month(2023, m), ValueMWm: 100})
		series = append(series, MonthlyPoint{Month: month(2024, m), ValueMWm: 110})
	}

	analyzer := NewAnalyzer(NewLogger(false))
	table := analyzer.AnnualGrowthTable(series)

	require.Len(t, table, 2)

	assert.Equal(t, 2023, table[0].Year)
	assert.InDelta(t, 100.0, table[0].MeanMonthly, 1e-9)
	assert.Nil(t, table[0].VariationPct)

	assert.Equal(t, 2024, table[1].Year)
	assert.InDelta(t, 110.0, table[1].MeanMonthly, 1e-9)
	require.NotNil(t, table[1].VariationPct)
	assert.InDelta(t, 10.0, *table[1].VariationPct, 1e-9)
}
