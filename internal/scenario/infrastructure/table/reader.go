package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	scenario "microgrid-scenarios/internal/scenario/domain"
)

// Options controls how a scenario table is read.
type Options struct {
	// HasHeader drops the first non-empty record.
	HasHeader bool
	// Sheet selects the worksheet of an XLSX file; empty means the first one.
	Sheet string
}

// Table is a scenario table split into header and data rows.
type Table struct {
	Header []string
	Rows   []scenario.Row
}

// Read loads a CSV or XLSX scenario table, chosen by file extension.
func Read(path string, opts Options) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, opts)
	default:
		return readCSV(path, opts)
	}
}

func readCSV(path string, opts Options) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open %s: %w", scenario.ErrIO, path, err)
	}
	defer file.Close()

	tbl, err := ParseCSV(file, opts)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// ParseCSV reads comma-separated records. Rows may have differing widths;
// short rows surface later as missing fields.
func ParseCSV(r io.Reader, opts Options) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: read csv: %w", scenario.ErrIO, err)
	}
	return build(records, opts), nil
}

func readXLSX(path string, opts Options) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open %s: %w", scenario.ErrIO, path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("%w: %s: workbook has no sheets", scenario.ErrIO, path)
		}
		sheet = sheets[0]
	}
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s: read sheet %s: %w", scenario.ErrIO, path, sheet, err)
	}
	if err := restoreBooleans(f, sheet, records); err != nil {
		return Table{}, fmt.Errorf("%w: %s: read sheet %s: %w", scenario.ErrIO, path, sheet, err)
	}
	return build(padRecords(records), opts), nil
}

// restoreBooleans turns raw boolean cells ("1"/"0") back into TRUE/FALSE,
// the text a CSV export of the same sheet carries.
func restoreBooleans(f *excelize.File, sheet string, records [][]string) error {
	for r, record := range records {
		for c, value := range record {
			if value != "0" && value != "1" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			if typ != excelize.CellTypeBool {
				continue
			}
			record[c] = "FALSE"
			if value == "1" {
				record[c] = "TRUE"
			}
		}
	}
	return nil
}

// padRecords restores the empty trailing cells GetRows trims, so every
// record is as wide as the widest row of the sheet.
func padRecords(records [][]string) [][]string {
	width := 0
	for _, record := range records {
		width = max(width, len(record))
	}
	for i, record := range records {
		if len(record) < width {
			padded := make([]string, width)
			copy(padded, record)
			records[i] = padded
		}
	}
	return records
}

func build(records [][]string, opts Options) Table {
	var tbl Table
	headerPending := opts.HasHeader
	for _, record := range records {
		if blank(record) {
			continue
		}
		if headerPending {
			tbl.Header = record
			headerPending = false
			continue
		}
		tbl.Rows = append(tbl.Rows, scenario.Row{Index: len(tbl.Rows), Cells: record})
	}
	return tbl
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// IsNotExist reports whether err comes from a missing input file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
