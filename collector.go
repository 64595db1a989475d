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
	"context"
	"fmt"
	"time"
)

// Collector gathers raw records from every configured source
type Collector struct {
	client  *CCEEClient
	loader  *ExtractLoader
	storage *Storage
	config  *Config
	logger  *Logger
}

// NewCollector creates a new source collector
func NewCollector(client *CCEEClient, loader *ExtractLoader, storage *Storage, config *Config, logger *Logger) *Collector {
	return &Collector{
		client:  client,
		loader:  loader,
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// CollectSources fetches every configured API resource and spreadsheet
// extract, memoizing records through the storage cache so repeated runs
// within the TTL skip the network.
func (c *Collector) CollectSources(ctx context.Context) ([]Source, error) {
	ttl := time.Duration(c.config.CacheTTLHours) * time.Hour
	sources := make([]Source, 0, len(c.config.Resources)+len(c.config.Extracts))

	for _, resource := range c.config.Resources {
		records, err := c.collectResource(ctx, resource, ttl)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{
			Kind:    SourceAPI,
			Year:    resource.Year,
			Records: records,
		})
	}

	for _, extract := range c.config.Extracts {
		records, err := c.collectExtract(extract, ttl)
		if err != nil {
			c.logger.Warn("Skipping unreadable extract", "path", extract.Path, "error", err)
			continue
		}
		sources = append(sources, Source{
			Kind:    SourceExtract,
			Year:    extract.Year,
			Records: records,
		})
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources could be collected")
	}
	return sources, nil
}

// collectResource returns the records of one API resource, cached per
// resource id
func (c *Collector) collectResource(ctx context.Context, resource ResourceConfig, ttl time.Duration) ([]RawRecord, error) {
	cacheKey := fmt.Sprintf("api_%s", resource.ResourceID)

	var cached []RawRecord
	if hit, err := c.storage.LoadCache(cacheKey, &cached); err == nil && hit {
		c.logger.Debug("Using cached API records", "resource_id", resource.ResourceID, "count", len(cached))
		return cached, nil
	}

	records, err := c.client.FetchAllRecords(ctx, resource.ResourceID)
	if err != nil {
		return nil, err
	}

	if len(records) > 0 {
		if err := c.storage.SaveCache(cacheKey, records, ttl); err != nil {
			c.logger.Warn("Failed to cache API records", "resource_id", resource.ResourceID, "error", err)
		}
	}
	return records, nil
}

// collectExtract returns the records of one spreadsheet extract, cached
// per file path
func (c *Collector) collectExtract(extract ExtractConfig, ttl time.Duration) ([]RawRecord, error) {
	cacheKey := fmt.Sprintf("extract_%s", extract.Path)

	var cached []RawRecord
	if hit, err := c.storage.LoadCache(cacheKey, &cached); err == nil && hit {
		c.logger.Debug("Using cached extract records", "path", extract.Path, "count", len(cached))
		return cached, nil
	}

	records, err := c.loader.Load(extract.Path)
	if err != nil {
		return nil, err
	}

	if len(records) > 0 {
		if err := c.storage.SaveCache(cacheKey, records, ttl); err != nil {
			c.logger.Warn("Failed to cache extract records", "path", extract.Path, "error", err)
		}
	}
	return records, nil
}
