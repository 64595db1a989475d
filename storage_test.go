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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_CacheRoundTrip(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), NewLogger(false))
	require.NoError(t, err)
	defer storage.Close()

	records := []RawRecord{
		{"MES_REFERENCIA": "202401", "NOME_EMPRESARIAL": "ACME"},
	}
	require.NoError(t, storage.SaveCache("api_res-1", records, time.Hour))

	var loaded []RawRecord
	hit, err := storage.LoadCache("api_res-1", &loaded)
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ACME", loaded[0]["NOME_EMPRESARIAL"])
}

func TestStorage_CacheExpiry(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), NewLogger(false))
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.SaveCache("api_res-1", []RawRecord{{"a": "b"}}, -time.Minute))

	var loaded []RawRecord
	hit, err := storage.LoadCache("api_res-1", &loaded)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStorage_ClearCache(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), NewLogger(false))
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.SaveCache("extract_file.xlsx", []RawRecord{{"a": "b"}}, time.Hour))
	require.NoError(t, storage.ClearCache())

	var loaded []RawRecord
	hit, err := storage.LoadCache("extract_file.xlsx", &loaded)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStorage_QueryResultRoundTrip(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), NewLogger(false))
	require.NoError(t, err)
	defer storage.Close()

	result := &QueryResult{
		GeneratedAt: time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC),
		Companies:   []string{"ACME"},
		RecordCount: 42,
	}
	require.NoError(t, storage.SaveQueryResult(result))

	loaded, err := storage.LoadLatestQueryResult()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"ACME"}, loaded.Companies)
	assert.Equal(t, 42, loaded.RecordCount)
}
