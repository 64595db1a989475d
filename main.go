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
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "", "Path to configuration file (default: built-in settings)")
	companiesFlag := flag.String("companies", "", "Comma-separated company names to analyze")
	startFlag := flag.String("start", "01/01/2024", "Start of the query window (dd/mm/yyyy)")
	endFlag := flag.String("end", "", "End of the query window (dd/mm/yyyy, default: newest month in the dataset)")
	flexFlag := flag.Int("flex", 0, "Flexibility percentage 1-100 (overrides config)")
	outputPath := flag.String("output", "", "Output file for report (default: stdout)")
	chartPath := flag.String("chart", "", "Write a PNG chart of the band analysis to this file")
	clearCache := flag.Bool("clear-cache", false, "Clear cached source records and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("repositorio-consumidores %s\n", GetVersion())
		os.Exit(0)
	}

	// Initialize logger
	logger := NewLogger(*debug)
	logger.Info("Starting repositorio-consumidores", "version", GetVersion())

	// Check for updates (non-blocking)
	go CheckForUpdates(logger)

	// Load configuration
	config, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Override with command-line flags
	if *flexFlag != 0 {
		config.DefaultFlexPct = *flexFlag
	}
	if *debug {
		config.Debug = true
		logger = NewLogger(true)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	logger.Info("Initializing storage", "path", config.StoragePath)
	storage, err := NewStorage(config.StoragePath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	if *clearCache {
		if err := storage.ClearCache(); err != nil {
			logger.Error("Failed to clear cache", "error", err)
			os.Exit(1)
		}
		logger.UserMessage("Cache cleared")
		return
	}

	companies := splitCompanies(*companiesFlag)
	if len(companies) == 0 {
		logger.Error("No companies selected, use -companies \"NAME A,NAME B\"")
		os.Exit(1)
	}

	startDate, ok := ParseReferenceMonth(*startFlag)
	if !ok {
		logger.Error("Invalid start date", "value", *startFlag)
		os.Exit(1)
	}

	ctx := context.Background()

	// Collect raw records from every source
	logger.Info("Collecting data from configured sources")
	client := NewCCEEClient(config, logger)
	loader := NewExtractLoader(logger)
	collector := NewCollector(client, loader, storage, config, logger)
	sources, err := collector.CollectSources(ctx)
	if err != nil {
		logger.Error("Failed to collect data", "error", err)
		os.Exit(1)
	}

	// Consolidate into a single dataset
	consolidator := NewConsolidator(config, logger)
	dataset, err := consolidator.Consolidate(sources)
	if err != nil {
		logger.Error("Failed to consolidate dataset", "error", err)
		os.Exit(1)
	}
	if len(dataset.Records) == 0 {
		logger.Error("Consolidated dataset is empty")
		os.Exit(1)
	}

	// The query window defaults to everything up to the newest month
	endDate := dataset.To
	if *endFlag != "" {
		endDate, ok = ParseReferenceMonth(*endFlag)
		if !ok {
			logger.Error("Invalid end date", "value", *endFlag)
			os.Exit(1)
		}
	}

	// Flexibility band analysis
	analyzer := NewAnalyzer(logger)
	band, err := analyzer.Analyze(dataset, companies, startDate, endDate, config.DefaultFlexPct)
	if err != nil {
		var empty *EmptySelectionError
		if errors.As(err, &empty) {
			logger.UserMessage("Nothing to analyze: %s", empty.Reason)
			return
		}
		var missing *MissingColumnError
		if errors.As(err, &missing) {
			logger.UserMessage("Consumption analysis unavailable: %v", missing)
			return
		}
		logger.Error("Failed to analyze consumption", "error", err)
		os.Exit(1)
	}

	// Entity resolution over the trailing window
	resolver := NewResolver(config, logger)
	resolution := resolver.Resolve(selectCompanyRecords(dataset, companies))

	result := &QueryResult{
		GeneratedAt:  time.Now(),
		Companies:    companies,
		StartDate:    startDate,
		EndDate:      endDate,
		RecordCount:  len(dataset.Records),
		DatasetFrom:  dataset.From,
		DatasetTo:    dataset.To,
		Band:         band,
		AnnualGrowth: analyzer.AnnualGrowthTable(band.Series),
		Resolution:   resolution,
	}

	// Save the result for later inspection
	if err := storage.SaveQueryResult(result); err != nil {
		logger.Warn("Failed to save query result", "error", err)
	}

	// Optional band chart
	if *chartPath != "" {
		chartGen := NewChartGenerator()
		png, err := chartGen.GenerateBandChart(band)
		if err != nil {
			logger.Warn("Failed to generate chart", "error", err)
		} else if err := os.WriteFile(*chartPath, png, 0644); err != nil {
			logger.Warn("Failed to write chart file", "error", err)
		} else {
			logger.Info("Chart saved", "path", *chartPath)
		}
	}

	// Markdown report
	reporter := NewReporter(logger)
	if err := reporter.GenerateReport(result, *outputPath); err != nil {
		logger.Error("Failed to generate report", "error", err)
		os.Exit(1)
	}

	logger.Info("Query completed successfully")
}

// splitCompanies parses the -companies flag into trimmed, non-empty names
func splitCompanies(value string) []string {
	var companies []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			companies = append(companies, name)
		}
	}
	return companies
}

// selectCompanyRecords filters the dataset to the selected companies
func selectCompanyRecords(ds *Dataset, companies []string) []ConsumptionRecord {
	selected := make(map[string]bool, len(companies))
	for _, name := range companies {
		selected[name] = true
	}
	var records []ConsumptionRecord
	for _, record := range ds.Records {
		if selected[record.Company] {
			records = append(records, record)
		}
	}
	return records
}
