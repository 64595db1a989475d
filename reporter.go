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
	"io"
	"math"
	"os"
	"strings"
)

// Reporter generates markdown reports from query results
type Reporter struct {
	logger *Logger
}

// NewReporter creates a new report generator
func NewReporter(logger *Logger) *Reporter {
	return &Reporter{
		logger: logger,
	}
}

// GenerateReport creates a markdown report from a query result
func (r *Reporter) GenerateReport(result *QueryResult, outputPath string) error {
	r.logger.Info("Generating report")

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	// Generate report content
	r.writeHeader(writer, result)
	r.writeDatasetStatus(writer, result)
	r.writeConsumptionSeries(writer, result)
	r.writeBandAnalysis(writer, result)
	r.writeAnnualGrowth(writer, result)
	r.writeCompanies(writer, result)
	r.writeSubmarkets(writer, result)
	r.writeUnits(writer, result)
	r.writeFooter(writer)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}

	return nil
}

// writeHeader writes the report header
func (r *Reporter) writeHeader(w io.Writer, result *QueryResult) {
	fmt.Fprintf(w, "# Consumer Flexibility Analysis Report\n\n")
	fmt.Fprintf(w, "**Generated:** %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "**Companies:** %s\n\n", strings.Join(result.Companies, ", "))
	fmt.Fprintf(w, "**Query Window:** %s to %s\n\n",
		windowLabel(result.StartDate),
		windowLabel(result.EndDate),
	)
	fmt.Fprintf(w, "**repositorio-consumidores version:** %s\n\n", GetVersion())
	fmt.Fprintf(w, "---\n\n")
}

// writeDatasetStatus writes the dataset status section
func (r *Reporter) writeDatasetStatus(w io.Writer, result *QueryResult) {
	fmt.Fprintf(w, "## 📊 Dataset\n\n")
	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| 📦 Consolidated records | %d |\n", result.RecordCount)
	fmt.Fprintf(w, "| 📅 Coverage | %s to %s |\n",
		windowLabel(result.DatasetFrom),
		windowLabel(result.DatasetTo),
	)
	fmt.Fprintf(w, "\n")
}

// writeConsumptionSeries writes the monthly consumption table
func (r *Reporter) writeConsumptionSeries(w io.Writer, result *QueryResult) {
	if result.Band == nil || len(result.Band.Series) == 0 {
		return
	}

	fmt.Fprintf(w, "## ⚡ Monthly Consumption\n\n")
	fmt.Fprintf(w, "| Month | Consumption (MWm) | Status |\n")
	fmt.Fprintf(w, "|-------|-------------------|--------|\n")
	for _, point := range result.Band.Series {
		status := "✅ in band"
		if point.OutOfBand {
			status = "⚠️ out of band"
		}
		fmt.Fprintf(w, "| %s | %.2f | %s |\n",
			point.Month.Format("01/2006"),
			point.ValueMWm,
			status,
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeBandAnalysis writes the flexibility band section
func (r *Reporter) writeBandAnalysis(w io.Writer, result *QueryResult) {
	if result.Band == nil {
		return
	}

	fmt.Fprintf(w, "## 🎯 Flexibility Band (%d%%)\n\n", result.Band.FlexPct)

	if math.IsNaN(result.Band.Mean) {
		fmt.Fprintf(w, "> ⚠️ No month stayed inside the initial band, so the adjusted mean is undefined and every month is reported as out of band.\n\n")
		return
	}

	outOfBand := 0
	for _, point := range result.Band.Series {
		if point.OutOfBand {
			outOfBand++
		}
	}

	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| 📈 Adjusted mean | %.2f MWm |\n", result.Band.Mean)
	fmt.Fprintf(w, "| ⬆️ Upper bound | %.2f MWm |\n", result.Band.UpperBound)
	fmt.Fprintf(w, "| ⬇️ Lower bound | %.2f MWm |\n", result.Band.LowerBound)
	fmt.Fprintf(w, "| ⚠️ Months out of band | %d of %d |\n", outOfBand, len(result.Band.Series))
	fmt.Fprintf(w, "\n")
}

// writeAnnualGrowth writes the annual growth table
func (r *Reporter) writeAnnualGrowth(w io.Writer, result *QueryResult) {
	if len(result.AnnualGrowth) == 0 {
		return
	}

	fmt.Fprintf(w, "## 📅 Annual Growth\n\n")
	fmt.Fprintf(w, "| Year | Mean Monthly (MWm) | Variation |\n")
	fmt.Fprintf(w, "|------|--------------------|-----------|\n")
	for _, entry := range result.AnnualGrowth {
		variation := "-"
		if entry.VariationPct != nil {
			arrow := "↗️"
			if *entry.VariationPct < 0 {
				arrow = "↘️"
			}
			variation = fmt.Sprintf("%s %+.1f%%", arrow, *entry.VariationPct)
		}
		fmt.Fprintf(w, "| %d | %.2f | %s |\n", entry.Year, entry.MeanMonthly, variation)
	}
	fmt.Fprintf(w, "\n")
}

// writeCompanies writes the company resolution section
func (r *Reporter) writeCompanies(w io.Writer, result *QueryResult) {
	if result.Resolution == nil || len(result.Resolution.Companies) == 0 {
		return
	}

	fmt.Fprintf(w, "## 🏢 Companies\n\n")
	fmt.Fprintf(w, "Resolved over the window %s to %s.\n\n",
		windowLabel(result.Resolution.WindowStart),
		windowLabel(result.Resolution.WindowEnd),
	)

	for _, company := range result.Resolution.Companies {
		fmt.Fprintf(w, "### %s\n\n", company.Company)
		fmt.Fprintf(w, "| Metric | Value |\n")
		fmt.Fprintf(w, "|--------|-------|\n")
		fmt.Fprintf(w, "| 🏭 Consumer units | %d |\n", company.UnitCount)
		if company.MixedSubmarket {
			fmt.Fprintf(w, "| 🗺️ Submarkets | multiple |\n")
		} else {
			fmt.Fprintf(w, "| 🗺️ Submarkets | single |\n")
		}
		if company.DecisionCenter.TaxID != "" {
			fmt.Fprintf(w, "| 📍 Decision center | %s / %s |\n",
				company.DecisionCenter.City,
				company.DecisionCenter.State,
			)
			fmt.Fprintf(w, "| 🆔 Tax ID | %s |\n", company.DecisionCenter.TaxID)
		}
		fmt.Fprintf(w, "\n")
	}
}

// writeSubmarkets writes the submarket share section
func (r *Reporter) writeSubmarkets(w io.Writer, result *QueryResult) {
	if result.Resolution == nil || len(result.Resolution.Submarkets) == 0 {
		return
	}

	fmt.Fprintf(w, "## 🗺️ Submarkets\n\n")
	fmt.Fprintf(w, "| Submarket | Units | Total (MWm) | Mean Monthly (MWm) | Share |\n")
	fmt.Fprintf(w, "|-----------|-------|-------------|--------------------|-------|\n")
	for _, submarket := range result.Resolution.Submarkets {
		name := submarket.Submarket
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(w, "| %s | %d | %.2f | %.2f | %.1f%% |\n",
			name,
			submarket.UnitCount,
			submarket.TotalMWm,
			submarket.MeanMonthlyMWm,
			submarket.SharePct,
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeUnits writes the consumer unit detail section
func (r *Reporter) writeUnits(w io.Writer, result *QueryResult) {
	if result.Resolution == nil || len(result.Resolution.Units) == 0 {
		return
	}

	fmt.Fprintf(w, "## 🏭 Consumer Units\n\n")
	fmt.Fprintf(w, "| Unit | Tax ID | City | State | Submarket | Capacity (MW) | Mean (MWm) |\n")
	fmt.Fprintf(w, "|------|--------|------|-------|-----------|---------------|------------|\n")
	for _, unit := range result.Resolution.Units {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %.2f | %.2f |\n",
			unit.UnitCode,
			unit.TaxID,
			unit.City,
			unit.State,
			unit.Submarket,
			unit.Capacity,
			unit.MeanMWm,
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeFooter writes the report footer
func (r *Reporter) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "*Data from the CCEE open data portal and national consumption extracts.*\n")
}
