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
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExtractLoader reads static spreadsheet extracts into raw records
type ExtractLoader struct {
	logger *Logger
}

// NewExtractLoader creates a new spreadsheet extract loader
func NewExtractLoader(logger *Logger) *ExtractLoader {
	return &ExtractLoader{logger: logger}
}

// Load reads the first sheet of a spreadsheet extract. The first row is
// taken as the header; each following row becomes one record keyed by the
// header names. Blank header cells are skipped, trailing short rows are
// padded with empty values.
func (l *ExtractLoader) Load(path string) ([]RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &StorageError{
			Operation: "open extract",
			Path:      path,
			Err:       err,
		}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &StorageError{
			Operation: "read extract",
			Path:      path,
			Err:       fmt.Errorf("workbook has no sheets"),
		}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &StorageError{
			Operation: "read extract",
			Path:      path,
			Err:       err,
		}
	}
	if len(rows) < 2 {
		l.logger.Warn("Extract has no data rows", "path", path, "sheet", sheets[0])
		return nil, nil
	}

	header := rows[0]
	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(RawRecord, len(header))
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if i < len(row) {
				record[name] = row[i]
			} else {
				record[name] = ""
			}
		}
		records = append(records, record)
	}

	l.logger.LogDataCollection(path, len(records))
	return records, nil
}

// isBlankRow reports whether every cell in the row is empty
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
