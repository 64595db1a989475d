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

func rawRow(month string, company string, consumption any) RawRecord {
	return RawRecord{
		"_id":                 float64(1),
		"MES_REFERENCIA":      month,
		"NOME_EMPRESARIAL":    company,
		"SIGLA_PARCELA_CARGA": company + "-01",
		"CIDADE":              "Campinas",
		"ESTADO_UF":           "SP",
		"SUBMERCADO":          "SUDESTE",
		"CAPACIDADE_CARGA":    float64(5),
		"CNPJ_CARGA":          "12345678000195",
		"CONSUMO_TOTAL":       consumption,
	}
}

func testConsolidator(exclusions ...OverlapExclusion) *Consolidator {
	config := &Config{OverlapExclusions: exclusions}
	return NewConsolidator(config, NewLogger(false))
}

func TestConsolidate_OverlapExclusion(t *testing.T) {
	sources := []Source{
		{
			Kind: SourceAPI,
			Year: 2024,
			Records: []RawRecord{
				rawRow("202403", "ACME", float64(744)),
				rawRow("202404", "ACME", float64(720)),
			},
		},
		{
			Kind: SourceExtract,
			Year: 2024,
			Records: []RawRecord{
				rawRow("01/04/2024", "ACME", float64(1440)),
			},
		},
	}

	consolidator := testConsolidator(OverlapExclusion{Source: SourceAPI, Year: 2024, Month: 4})
	ds, err := consolidator.Consolidate(sources)
	require.NoError(t, err)

	require.Len(t, ds.Records, 2)

	// The extract copy of April survives, the API copy is dropped
	april := ds.Records[0]
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), april.ReferenceMonth)
	require.NotNil(t, april.TotalConsumption)
	assert.Equal(t, 1440.0, *april.TotalConsumption)
}

func TestConsolidate_SortedNewestFirst(t *testing.T) {
	sources := []Source{
		{
			Kind: SourceAPI,
			Year: 2024,
			Records: []RawRecord{
				rawRow("202401", "ACME", float64(744)),
				rawRow("202403", "ACME", float64(744)),
				rawRow("202402", "ACME", float64(696)),
			},
		},
	}

	ds, err := testConsolidator().Consolidate(sources)
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	assert.Equal(t, time.March, ds.Records[0].ReferenceMonth.Month())
	assert.Equal(t, time.February, ds.Records[1].ReferenceMonth.Month())
	assert.Equal(t, time.January, ds.Records[2].ReferenceMonth.Month())

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), ds.From)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), ds.To)
}

func TestConsolidate_HoursAndMWm(t *testing.T) {
	sources := []Source{
		{
			Kind: SourceAPI,
			Year: 2024,
			Records: []RawRecord{
				// February 2024 is a leap month: 29 days, 696 hours
				rawRow("202402", "ACME", float64(1392)),
				// February 2023: 28 days, 672 hours
				rawRow("202302", "ACME", float64(672)),
			},
		},
	}

	ds, err := testConsolidator().Consolidate(sources)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	leap := ds.Records[0]
	assert.Equal(t, 696, leap.HoursInMonth)
	require.NotNil(t, leap.ConsumptionMWm)
	assert.InDelta(t, 2.0, *leap.ConsumptionMWm, 1e-9)

	regular := ds.Records[1]
	assert.Equal(t, 672, regular.HoursInMonth)
	require.NotNil(t, regular.ConsumptionMWm)
	assert.InDelta(t, 1.0, *regular.ConsumptionMWm, 1e-9)
}

func TestConsolidate_ConsumptionColumnResolution(t *testing.T) {
	row := rawRow("202401", "ACME", nil)
	delete(row, "CONSUMO_TOTAL")
	row["Consumo Total (MWh)"] = float64(744)

	ds, err := testConsolidator().Consolidate([]Source{
		{Kind: SourceExtract, Year: 2024, Records: []RawRecord{row}},
	})
	require.NoError(t, err)

	assert.True(t, ds.HasConsumption)
	assert.Equal(t, "Consumo Total (MWh)", ds.ConsumptionColumn)
	require.NotNil(t, ds.Records[0].ConsumptionMWm)
	assert.InDelta(t, 1.0, *ds.Records[0].ConsumptionMWm, 1e-9)
}

func TestConsolidate_MissingConsumptionColumn(t *testing.T) {
	row := rawRow("202401", "ACME", nil)
	delete(row, "CONSUMO_TOTAL")

	ds, err := testConsolidator().Consolidate([]Source{
		{Kind: SourceAPI, Year: 2024, Records: []RawRecord{row}},
	})
	require.NoError(t, err)

	assert.False(t, ds.HasConsumption)
	assert.Nil(t, ds.Records[0].TotalConsumption)
	assert.Nil(t, ds.Records[0].ConsumptionMWm)
}

func TestConsolidate_NonNumericConsumption(t *testing.T) {
	sources := []Source{
		{
			Kind: SourceAPI,
			Year: 2024,
			Records: []RawRecord{
				rawRow("202401", "ACME", "n/d"),
				rawRow("202402", "ACME", float64(696)),
			},
		},
	}

	ds, err := testConsolidator().Consolidate(sources)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	// Non-numeric totals become null instead of crashing
	assert.Nil(t, ds.Records[1].TotalConsumption)
	assert.Nil(t, ds.Records[1].ConsumptionMWm)
	assert.NotNil(t, ds.Records[0].ConsumptionMWm)
}

func TestConsolidate_SkipsUnparseableMonths(t *testing.T) {
	sources := []Source{
		{
			Kind: SourceAPI,
			Year: 2024,
			Records: []RawRecord{
				rawRow("202401", "ACME", float64(744)),
				rawRow("soon", "ACME", float64(744)),
			},
		},
	}

	ds, err := testConsolidator().Consolidate(sources)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
}

func TestConsolidate_CommaDecimalSeparator(t *testing.T) {
	sources := []Source{
		{
			Kind: SourceExtract,
			Year: 2024,
			Records: []RawRecord{
				rawRow("202401", "ACME", "1.488,0"),
			},
		},
	}

	ds, err := testConsolidator().Consolidate(sources)
	require.NoError(t, err)

	require.NotNil(t, ds.Records[0].TotalConsumption)
	assert.InDelta(t, 1488.0, *ds.Records[0].TotalConsumption, 1e-9)
}

func TestConsolidate_Empty(t *testing.T) {
	ds, err := testConsolidator().Consolidate(nil)
	require.NoError(t, err)
	assert.Empty(t, ds.Records)
}
