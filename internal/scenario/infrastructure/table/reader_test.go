package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	scenario "microgrid-scenarios/internal/scenario/domain"
)

func TestParseCSVWithHeader(t *testing.T) {
	input := "lon,lat,node\n40.1,-74.2,node1\n\n41.0,-75.0\n"
	tbl, err := ParseCSV(strings.NewReader(input), Options{HasHeader: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.Join(tbl.Header, ",") != "lon,lat,node" {
		t.Fatalf("unexpected header %v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[1].Index != 1 || len(tbl.Rows[1].Cells) != 2 {
		t.Fatalf("expected short second row with index 1, got %+v", tbl.Rows[1])
	}
}

func TestParseCSVHeaderless(t *testing.T) {
	tbl, err := ParseCSV(strings.NewReader("1,2\n3,4\n"), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.Header != nil || len(tbl.Rows) != 2 || tbl.Rows[0].Cells[0] != "1" {
		t.Fatalf("unexpected table %+v", tbl)
	}
}

func TestParseCSVMalformed(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,\"b\n"), Options{})
	if !errors.Is(err, scenario.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.csv"), Options{HasHeader: true})
	if !errors.Is(err, scenario.ErrIO) || !IsNotExist(err) {
		t.Fatalf("expected ErrIO wrapping not-exist, got %v", err)
	}
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doe.csv")
	if err := os.WriteFile(path, []byte("h1,h2\nx,y\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	tbl, err := Read(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0].Cells[1] != "y" {
		t.Fatalf("unexpected rows %+v", tbl.Rows)
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doe.xlsx")
	f := excelize.NewFile()
	sheet := "DoE"
	f.SetSheetName("Sheet1", sheet)
	rows := [][]any{
		{"longitude", "latitude", "node"},
		{"40.1", "-74.2", "node1"},
		{"41.5", "-75.5", "node2"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = f.Close()

	tbl, err := Read(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[1].Cells[2] != "node2" || tbl.Rows[1].Index != 1 {
		t.Fatalf("unexpected second row %+v", tbl.Rows[1])
	}

	if _, err := Read(path, Options{Sheet: "Missing"}); !errors.Is(err, scenario.ErrIO) {
		t.Fatalf("expected ErrIO for unknown sheet, got %v", err)
	}
}

func scenarioValues() []any {
	return []any{
		40.1, -74.2, 1000, 2, "node1",
		0.4, 1600, 20, 0.005, 5, 0.26, 0, 1, 16, 0, 180, 100,
		2023, 0.95,
		10, 7, true, 0.6, 300, 200, 900, 450, 0.3, 0.96,
		0.02, 0.06, 0.07, 0.26, 0.21, 0.025,
	}
}

func TestReadXLSXRawValuesAndTrailingBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	f := excelize.NewFile()
	sheet := "Sheet1"
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	if err != nil {
		t.Fatalf("new style: %v", err)
	}

	full := scenarioValues()
	trimmed := scenarioValues()
	trimmed = trimmed[:len(trimmed)-1]
	for i, row := range [][]any{full, trimmed} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
		itc, _ := excelize.CoordinatesToCellName(11, i+1)
		if err := f.SetCellStyle(sheet, itc, itc, percent); err != nil {
			t.Fatalf("set style: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = f.Close()

	tbl, err := Read(path, Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if got := tbl.Rows[0].Cells[10]; got != "0.26" {
		t.Fatalf("expected raw value 0.26 for percent cell, got %q", got)
	}
	if got := tbl.Rows[0].Cells[21]; got != "TRUE" {
		t.Fatalf("expected boolean cell as TRUE, got %q", got)
	}
	if len(tbl.Rows[1].Cells) != len(full) || tbl.Rows[1].Cells[34] != "" {
		t.Fatalf("expected trailing blank padded, got %d cells", len(tbl.Rows[1].Cells))
	}

	mapper, err := scenario.NewMapper(scenario.DefaultMapping(), scenario.ProfileTyped, scenario.Settings{
		URDBLabel:       "label",
		LoadProfilePath: "load.csv",
	}, nil)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	for _, row := range tbl.Rows {
		doc, err := mapper.Map(row)
		if err != nil {
			t.Fatalf("map row %d: %v", row.Index, err)
		}
		if v, _ := doc.Lookup("PV", "federal_itc_fraction"); v != 0.26 {
			t.Fatalf("expected federal_itc_fraction 0.26, got %#v", v)
		}
		if v, _ := doc.Lookup("ElectricStorage", "can_grid_charge"); v != true {
			t.Fatalf("expected can_grid_charge true, got %#v", v)
		}
	}
	last, _ := mapper.Map(tbl.Rows[1])
	if v, ok := last.Lookup("Financial", "om_cost_escalation_rate_fraction"); !ok || v != nil {
		t.Fatalf("expected empty trailing cell to map to null, got %#v", v)
	}
}

func TestPadRecords(t *testing.T) {
	records := padRecords([][]string{{"a", "b", "c"}, {"d"}, {}})
	for i, record := range records {
		if len(record) != 3 {
			t.Fatalf("record %d: expected 3 cells, got %d", i, len(record))
		}
	}
	if records[1][0] != "d" || records[1][2] != "" {
		t.Fatalf("unexpected padded record %v", records[1])
	}
}
