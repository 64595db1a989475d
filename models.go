// Copyright 2025 Caio Bellizze
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"time"
)

// RawRecord is a single row as delivered by a source (API page or
// spreadsheet extract) before consolidation. Column names vary between
// sources, so values stay keyed by their original column name.
type RawRecord map[string]any

// SourceKind identifies where a table of raw records came from.
type SourceKind string

const (
	SourceAPI     SourceKind = "api"
	SourceExtract SourceKind = "extract"
)

// Source is one table of raw records plus its provenance.
type Source struct {
	Kind    SourceKind
	Year    int
	Records []RawRecord
}

// ConsumptionRecord is a row of the consolidated table.
type ConsumptionRecord struct {
	Company        string    `json:"company"`
	UnitCode       string    `json:"unitCode"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Submarket      string    `json:"submarket"`
	Capacity       float64   `json:"capacity"`
	TaxID          string    `json:"taxId"`
	ReferenceMonth time.Time `json:"referenceMonth"`
	HoursInMonth   int       `json:"hoursInMonth"`

	// TotalConsumption is the source consumption figure; nil when the
	// source value is missing or non-numeric.
	TotalConsumption *float64 `json:"totalConsumption"`

	// ConsumptionMWm is TotalConsumption / HoursInMonth; nil when the
	// total is nil or the consumption column was not found.
	ConsumptionMWm *float64 `json:"consumptionMWm"`

	// Seq is the record's position in the original concatenation order.
	// Downstream tie-breaks ("first occurrence wins") depend on it.
	Seq int `json:"seq"`
}

// Dataset is the session-lifetime consolidated table.
type Dataset struct {
	Records []ConsumptionRecord `json:"records"`

	// ConsumptionColumn is the discovered total-consumption column name;
	// empty (with HasConsumption false) when no source carried one.
	ConsumptionColumn string `json:"consumptionColumn"`
	HasConsumption    bool   `json:"hasConsumption"`

	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MonthlyPoint is one month of the aggregated consumption series.
type MonthlyPoint struct {
	Month     time.Time `json:"month"`
	ValueMWm  float64   `json:"valueMWm"`
	OutOfBand bool      `json:"outOfBand"`
}

// BandAnalysis is the flexibility-band result for one query.
type BandAnalysis struct {
	Series     []MonthlyPoint `json:"series"`
	Mean       float64        `json:"mean"`
	LowerBound float64        `json:"lowerBound"`
	UpperBound float64        `json:"upperBound"`
	FlexPct    int            `json:"flexPct"`
}

// AnnualGrowth is one row of the year-over-year growth table.
type AnnualGrowth struct {
	Year        int     `json:"year"`
	MeanMonthly float64 `json:"meanMonthly"`

	// VariationPct is nil for the first year (no prior year to compare).
	VariationPct *float64 `json:"variationPct"`
}

// DecisionCenter is the inferred headquarters-like unit of a company.
type DecisionCenter struct {
	City  string `json:"city"`
	State string `json:"state"`
	TaxID string `json:"taxId"`
}

// CompanySummary describes one selected company over the resolution window.
type CompanySummary struct {
	Company        string         `json:"company"`
	UnitCount      int            `json:"unitCount"`
	MixedSubmarket bool           `json:"mixedSubmarket"`
	DecisionCenter DecisionCenter `json:"decisionCenter"`
}

// SubmarketSummary describes one submarket's share of window consumption.
type SubmarketSummary struct {
	Submarket      string  `json:"submarket"`
	UnitCount      int     `json:"unitCount"`
	TotalMWm       float64 `json:"totalMWm"`
	MeanMonthlyMWm float64 `json:"meanMonthlyMWm"`
	SharePct       float64 `json:"sharePct"`
}

// UnitSummary describes one distinct load unit over the window.
type UnitSummary struct {
	UnitCode  string  `json:"unitCode"`
	TaxID     string  `json:"taxId"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Submarket string  `json:"submarket"`
	Capacity  float64 `json:"capacity"`
	MeanMWm   float64 `json:"meanMWm"`
}

// Resolution is the entity-resolution output for one query window.
type Resolution struct {
	WindowStart time.Time          `json:"windowStart"`
	WindowEnd   time.Time          `json:"windowEnd"`
	Companies   []CompanySummary   `json:"companies"`
	Submarkets  []SubmarketSummary `json:"submarkets"`
	Units       []UnitSummary      `json:"units"`
}

// QueryResult bundles everything a single user query produces.
type QueryResult struct {
	GeneratedAt  time.Time      `json:"generatedAt"`
	Companies    []string       `json:"companies"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	RecordCount  int            `json:"recordCount"`
	DatasetFrom  time.Time      `json:"datasetFrom"`
	DatasetTo    time.Time      `json:"datasetTo"`
	Band         *BandAnalysis  `json:"band"`
	AnnualGrowth []AnnualGrowth `json:"annualGrowth"`
	Resolution   *Resolution    `json:"resolution"`
}

// DatastoreResponse is the CKAN datastore_search JSON envelope.
type DatastoreResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []RawRecord `json:"records"`
		Total   int         `json:"total"`
	} `json:"result"`
}
