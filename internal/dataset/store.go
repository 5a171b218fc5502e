// Package dataset persists customer-visit records in a single xlsx master
// sheet with a fixed column set. The store is strictly append-only: rows
// are keyed by insertion order, never updated, never deduplicated.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"visit-insights-go/internal/logger"
	"visit-insights-go/internal/slots"
	"visit-insights-go/internal/types"
)

const sheetName = "Sheet1"

var fixedColumns = []string{
	"date", "customer_id", "customer_name", "sales_rep_code", "raw_filename", "intention",
}

// SchemaError reports an existing dataset whose columns do not match the
// CustomerRecord shape. The file is left untouched; nothing is coerced.
type SchemaError struct {
	Path string
	Want []string
	Got  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset %q: header mismatch: want %v, got %v", e.Path, e.Want, e.Got)
}

// Header returns the fixed column set: record fields followed by the 15
// slot keys in schema order. Identical across every load and write.
func Header() []string {
	return append(append([]string{}, fixedColumns...), slots.Keys()...)
}

// Load reads the dataset at path. A missing file yields an empty dataset;
// a present file with a mismatched header yields a SchemaError.
func Load(path string) ([]types.CustomerRecord, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &SchemaError{Path: path, Want: Header()}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read dataset %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Path: path, Want: Header()}
	}
	if err := checkHeader(path, rows[0]); err != nil {
		return nil, err
	}

	var out []types.CustomerRecord
	for _, r := range rows[1:] {
		out = append(out, fromRow(r))
	}
	return out, nil
}

// Append loads the existing dataset, concatenates rec as the last row, and
// rewrites the whole file atomically (temp file in the same directory,
// then rename). Returns the resulting total row count. On any error the
// destination is left exactly as it was.
func Append(path string, rec types.CustomerRecord) (int, error) {
	log := logger.New().WithComponent("dataset").WithField("path", path)

	records, err := Load(path)
	if err != nil {
		return 0, err
	}
	records = append(records, rec)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow(sheetName, "A1", rowPtr(headerRow())); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, rowPtr(toRow(r))); err != nil {
			return 0, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	if err := f.SaveAs(tmp); err != nil {
		return 0, fmt.Errorf("save dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("replace dataset: %w", err)
	}

	log.WithField("total_rows", len(records)).Info("dataset appended")
	return len(records), nil
}

// Count returns the current row count without exposing the records.
func Count(path string) (int, error) {
	records, err := Load(path)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func checkHeader(path string, got []string) error {
	want := Header()
	trimmed := make([]string, len(got))
	for i, h := range got {
		trimmed[i] = strings.TrimSpace(h)
	}
	if len(trimmed) != len(want) {
		return &SchemaError{Path: path, Want: want, Got: trimmed}
	}
	for i := range want {
		if trimmed[i] != want[i] {
			return &SchemaError{Path: path, Want: want, Got: trimmed}
		}
	}
	return nil
}

func headerRow() []interface{} {
	hdr := Header()
	row := make([]interface{}, len(hdr))
	for i, h := range hdr {
		row[i] = h
	}
	return row
}

func toRow(rec types.CustomerRecord) []interface{} {
	row := []interface{}{
		rec.Date, rec.CustomerID, rec.CustomerName,
		rec.SalesRepCode, rec.RawFilename, string(rec.Intention),
	}
	for _, key := range slots.Keys() {
		row = append(row, rec.Answers[key])
	}
	return row
}

// fromRow tolerates trailing empty cells being dropped by the xlsx reader.
func fromRow(r []string) types.CustomerRecord {
	cell := func(i int) string {
		if i < len(r) {
			return r[i]
		}
		return ""
	}
	rec := types.CustomerRecord{
		Date:         cell(0),
		CustomerID:   cell(1),
		CustomerName: cell(2),
		SalesRepCode: cell(3),
		RawFilename:  cell(4),
		Intention:    types.Intent(cell(5)),
		Answers:      make(map[string]string, len(slots.All())),
	}
	for i, key := range slots.Keys() {
		rec.Answers[key] = cell(len(fixedColumns) + i)
	}
	return rec
}

func rowPtr(row []interface{}) *[]interface{} {
	return &row
}
