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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CCEEClient fetches consumption records from the CCEE open-data API
type CCEEClient struct {
	httpClient    *http.Client
	baseURL       string
	pageSize      int
	maxPages      int
	maxRetries    int
	maxEmptyPages int
	retryDelay    time.Duration
	logger        *Logger
}

// NewCCEEClient creates a new open-data API client
func NewCCEEClient(config *Config, logger *Logger) *CCEEClient {
	return &CCEEClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:       config.BaseURL,
		pageSize:      config.PageSize,
		maxPages:      config.MaxPages,
		maxRetries:    config.MaxRetries,
		maxEmptyPages: config.MaxEmptyPages,
		retryDelay:    time.Duration(config.RetryDelaySeconds) * time.Second,
		logger:        logger,
	}
}

// FetchAllRecords pages through a datastore resource until one of the
// termination conditions is met and returns every record collected.
//
// The fetch stops when:
//   - maxEmptyPages consecutive pages come back empty
//   - maxPages pages have been fetched
//   - retries for a single page are exhausted
//
// Only a malformed response body aborts the fetch with an error; transport
// failures degrade to whatever was collected so far.
func (c *CCEEClient) FetchAllRecords(ctx context.Context, resourceID string) ([]RawRecord, error) {
	var records []RawRecord

	offset := 0
	pagesFetched := 0
	emptyPages := 0

	for pagesFetched < c.maxPages {
		page, err := c.fetchPage(ctx, resourceID, offset)
		if err != nil {
			if _, ok := err.(*MalformedResponseError); ok {
				return nil, err
			}
			// Retries exhausted for this page. Keep what we have.
			c.logger.Warn("Stopping fetch after repeated request failures",
				"resource_id", resourceID,
				"offset", offset,
				"collected", len(records),
				"error", err)
			return records, nil
		}

		pagesFetched++

		if len(page) == 0 {
			emptyPages++
			c.logger.Debug("Received empty page", "offset", offset, "consecutive_empty", emptyPages)
			if emptyPages >= c.maxEmptyPages {
				c.logger.Debug("Reached consecutive empty page limit", "limit", c.maxEmptyPages)
				break
			}
			// The offset only advances on pages that carried data
			continue
		}

		emptyPages = 0
		records = append(records, page...)
		c.logger.LogPageFetched(offset, len(page))
		offset += c.pageSize
	}

	c.logger.LogDataCollection(resourceID, len(records))
	return records, nil
}

// fetchPage requests a single page, retrying transient failures
func (c *CCEEClient) fetchPage(ctx context.Context, resourceID string, offset int) ([]RawRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		page, err := c.doRequest(ctx, resourceID, offset)
		if err == nil {
			return page, nil
		}

		if apiErr, ok := err.(*APIError); ok && !apiErr.IsRetryable() {
			return nil, err
		}
		if _, ok := err.(*MalformedResponseError); ok {
			return nil, err
		}

		lastErr = err
		status := 0
		if apiErr, ok := err.(*APIError); ok {
			status = apiErr.StatusCode
		}
		c.logger.LogAPIError(c.baseURL, status, err)
		if attempt < c.maxRetries {
			c.logger.Debug("Retrying request", "attempt", attempt, "max_retries", c.maxRetries, "delay", c.retryDelay)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

// doRequest performs one datastore_search call
func (c *CCEEClient) doRequest(ctx context.Context, resourceID string, offset int) ([]RawRecord, error) {
	params := url.Values{}
	params.Set("resource_id", resourceID)
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))

	requestURL := c.baseURL + "?" + params.Encode()
	c.logger.LogAPIRequest(http.MethodGet, requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &APIError{
			Endpoint: c.baseURL,
			Message:  "failed to create request",
			Err:      err,
		}
	}
	req.Header.Set("User-Agent", GetUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			Endpoint: c.baseURL,
			Message:  "request failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   c.baseURL,
			Message:    "failed to read response body",
			Err:        err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   c.baseURL,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	var envelope DatastoreResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponseError{
			Endpoint: c.baseURL,
			Err:      err,
		}
	}
	if !envelope.Success {
		return nil, &MalformedResponseError{
			Endpoint: c.baseURL,
			Err:      fmt.Errorf("datastore reported success=false"),
		}
	}

	return envelope.Result.Records, nil
}
