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

	charts "github.com/vicanso/go-charts/v2"
)

// ChartGenerator handles chart generation
type ChartGenerator struct {
	theme string
}

// NewChartGenerator creates a new chart generator
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{
		theme: "light",
	}
}

// GenerateBandChart creates a line chart of the monthly consumption series
// with the flexibility band drawn as constant mean, upper and lower lines.
// Returns PNG bytes.
func (cg *ChartGenerator) GenerateBandChart(analysis *BandAnalysis) ([]byte, error) {
	if len(analysis.Series) == 0 {
		return nil, fmt.Errorf("no monthly consumption data available")
	}

	var labels []string
	var consumption []float64
	for _, point := range analysis.Series {
		labels = append(labels, point.Month.Format("Jan 2006"))
		consumption = append(consumption, point.ValueMWm)
	}

	values := [][]float64{consumption}
	legendLabels := []string{"Consumption (MWm)"}

	// Band lines are meaningless when the adjusted mean is undefined
	if !math.IsNaN(analysis.Mean) {
		values = append(values,
			constantSeries(analysis.Mean, len(labels)),
			constantSeries(analysis.UpperBound, len(labels)),
			constantSeries(analysis.LowerBound, len(labels)),
		)
		legendLabels = append(legendLabels,
			"Mean (MWm)",
			fmt.Sprintf("Upper +%d%%", analysis.FlexPct),
			fmt.Sprintf("Lower -%d%%", analysis.FlexPct),
		)
	}

	// Create the chart
	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc("Monthly Consumption and Flexibility Band"),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc(legendLabels, charts.PositionRight),
		charts.ThemeOptionFunc(cg.getTheme()),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render band chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	return buf, nil
}

// constantSeries repeats a value so it renders as a horizontal line
func constantSeries(value float64, length int) []float64 {
	series := make([]float64, length)
	for i := range series {
		series[i] = value
	}
	return series
}

// getTheme returns the chart theme name
func (cg *ChartGenerator) getTheme() string {
	return cg.theme
}
