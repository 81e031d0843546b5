package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	results "microgrid-scenarios/internal/results/domain"
)

// SheetName is the worksheet holding the combined table in XLSX exports.
const SheetName = "results"

// Options controls the exported layout.
type Options struct {
	// WithSource prepends the source document name to every row.
	WithSource bool
}

// IsXLSX reports whether path selects the XLSX writer.
func IsXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// WriteFile exports the table to path, creating parent directories.
func WriteFile(path string, table results.Table, opts Options) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create %s: %w", results.ErrIO, dir, err)
		}
	}
	var (
		data []byte
		err  error
	)
	if IsXLSX(path) {
		data, err = BuildXLSX(table, opts)
	} else {
		var buf bytes.Buffer
		err = WriteCSV(&buf, table, opts)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("%w: export %s: %w", results.ErrIO, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", results.ErrIO, path, err)
	}
	return nil
}

// WriteCSV writes a header row followed by one row per document.
func WriteCSV(w io.Writer, table results.Table, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header(opts.WithSource)); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Strings(opts.WithSource)); err != nil {
		return err
	}
	return cw.Error()
}

// BuildXLSX renders the table on a single sheet. Numbers and booleans keep
// their cell types; null cells stay blank.
func BuildXLSX(table results.Table, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	header := table.Header(opts.WithSource)
	for i, name := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return nil, err
		}
	}

	offset := 1
	if !opts.WithSource {
		offset = 0
	}
	for r, row := range table.Values() {
		line := r + 2
		if opts.WithSource {
			cell, _ := excelize.CoordinatesToCellName(1, line)
			if err := f.SetCellValue(SheetName, cell, table.Rows[r].Source); err != nil {
				return nil, err
			}
		}
		for c, value := range row {
			if value.Kind == results.KindNull {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1+offset, line)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, xlsxValue(value)); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xlsxValue(v results.Value) any {
	switch v.Kind {
	case results.KindNumber:
		if n, err := strconv.ParseInt(v.Text, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v.Text, 64); err == nil {
			return f
		}
		return v.Text
	case results.KindBool:
		return v.Text == "true"
	default:
		return v.Text
	}
}
