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
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResourceConfig identifies one yearly dataset on the open-data API
type ResourceConfig struct {
	Year       int    `yaml:"year"`
	ResourceID string `yaml:"resource_id"`
}

// ExtractConfig identifies one static spreadsheet extract
type ExtractConfig struct {
	Year int    `yaml:"year"`
	Path string `yaml:"path"`
}

// OverlapExclusion drops rows of a given month from a source when a
// static extract is authoritative for the overlapping period
type OverlapExclusion struct {
	Source SourceKind `yaml:"source"`
	Year   int        `yaml:"year"`
	Month  int        `yaml:"month"`
}

// Config holds the application configuration
type Config struct {
	// Open-data API
	BaseURL   string           `yaml:"base_url"`
	Resources []ResourceConfig `yaml:"resources"`

	// Static historical extracts
	Extracts []ExtractConfig `yaml:"extracts"`

	// Overlap rules between API sources and extracts
	OverlapExclusions []OverlapExclusion `yaml:"overlap_exclusions"`

	// Pagination settings
	PageSize          int `yaml:"page_size"`
	MaxPages          int `yaml:"max_pages"`
	MaxRetries        int `yaml:"max_retries"`
	MaxEmptyPages     int `yaml:"max_empty_pages"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`

	// Analysis settings
	WindowMonths   int `yaml:"window_months"`
	DefaultFlexPct int `yaml:"default_flex_pct"`

	// Storage
	StoragePath   string `yaml:"storage_path"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`

	// Debugging
	Debug bool `yaml:"debug"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Set defaults
	config := &Config{
		BaseURL: "https://dadosabertos.ccee.org.br/api/3/action/datastore_search",
		Resources: []ResourceConfig{
			{Year: 2025, ResourceID: "c88d04a6-fe42-413b-b7bf-86e390494fb0"},
			{Year: 2024, ResourceID: "b854f7bc-94a3-423a-96b7-2d4756ec77d1"},
		},
		Extracts: []ExtractConfig{
			{Year: 2024, Path: "base_de_dados_nacional_2024.xlsx"},
			{Year: 2023, Path: "base_de_dados_nacional_2023.xlsx"},
		},
		// The 2024 extract covers April; the API copy of that month is
		// dropped in its favour.
		OverlapExclusions: []OverlapExclusion{
			{Source: SourceAPI, Year: 2024, Month: 4},
		},
		PageSize:          10000,
		MaxPages:          50,
		MaxRetries:        5,
		MaxEmptyPages:     3,
		RetryDelaySeconds: 5,
		WindowMonths:      12,
		DefaultFlexPct:    30,
		StoragePath:       getDefaultStoragePath(),
		CacheTTLHours:     12,
		Debug:             false,
	}

	// If no path provided, return defaults with env var overrides
	if path == "" {
		config.applyEnvironmentVariables()
		return config, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentVariables()

	return config, nil
}

// getDefaultStoragePath returns the default storage path
func getDefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".consumo"
	}
	return filepath.Join(home, ".config", "consumo")
}

// applyEnvironmentVariables overrides config with environment variables
func (c *Config) applyEnvironmentVariables() {
	if val := os.Getenv("CCEE_BASE_URL"); val != "" {
		c.BaseURL = val
	}
	if val := os.Getenv("CCEE_STORAGE_PATH"); val != "" {
		c.StoragePath = val
	}
	if val := os.Getenv("CCEE_DEBUG"); val == "true" || val == "1" {
		c.Debug = true
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if c.BaseURL == "" {
		errors = append(errors, "base_url is required")
	} else if !strings.HasPrefix(c.BaseURL, "http") {
		errors = append(errors, "base_url must be an http(s) URL")
	}

	if len(c.Resources) == 0 && len(c.Extracts) == 0 {
		errors = append(errors, "at least one resource or extract is required")
	}
	for _, r := range c.Resources {
		if r.ResourceID == "" {
			errors = append(errors, fmt.Sprintf("resource for year %d is missing resource_id", r.Year))
		}
	}
	for _, e := range c.Extracts {
		if e.Path == "" {
			errors = append(errors, fmt.Sprintf("extract for year %d is missing path", e.Year))
		}
	}

	if c.PageSize < 1 {
		errors = append(errors, "page_size must be at least 1")
	}
	if c.MaxPages < 1 {
		errors = append(errors, "max_pages must be at least 1")
	}
	if c.MaxRetries < 1 {
		errors = append(errors, "max_retries must be at least 1")
	}
	if c.MaxEmptyPages < 1 {
		errors = append(errors, "max_empty_pages must be at least 1")
	}

	if c.DefaultFlexPct < 1 || c.DefaultFlexPct > 100 {
		errors = append(errors, "default_flex_pct must be between 1 and 100")
	}
	if c.WindowMonths < 1 {
		errors = append(errors, "window_months must be at least 1")
	}

	for _, ex := range c.OverlapExclusions {
		if ex.Month < 1 || ex.Month > 12 {
			errors = append(errors, fmt.Sprintf("overlap exclusion month %d is out of range", ex.Month))
		}
		if ex.Source != SourceAPI && ex.Source != SourceExtract {
			errors = append(errors, fmt.Sprintf("overlap exclusion source %q is unknown", ex.Source))
		}
	}

	// Set default storage path if empty
	if c.StoragePath == "" {
		c.StoragePath = getDefaultStoragePath()
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
