package runreport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// maxListedFailures caps the failure table so huge runs stay printable.
const maxListedFailures = 200

// Failure is one row or document that did not make it into the output.
type Failure struct {
	Item  string
	Error string
}

// Report summarizes one batch run.
type Report struct {
	Tool      string
	RunID     string
	Started   time.Time
	Duration  time.Duration
	Input     string
	Output    string
	Total     int
	Succeeded int
	Columns   int
	Failures  []Failure
}

// BuildPDF renders a minimal PDF for a run.
func BuildPDF(r Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Run Report: %s", r.Tool))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", r.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", r.Started.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Duration: %s", r.Duration.Round(time.Millisecond)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Input: %s", r.Input))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Output: %s", r.Output))
	pdf.Ln(5)

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Items: %d", r.Total))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Succeeded: %d", r.Succeeded))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Failed: %d", len(r.Failures)))
	pdf.Ln(5)
	if r.Columns > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Columns: %d", r.Columns))
		pdf.Ln(5)
	}

	if len(r.Failures) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, "Item", "1", 0, "C", false, 0, "")
		pdf.CellFormat(130, 6, "Error", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for i, failure := range r.Failures {
			if i == maxListedFailures {
				pdf.CellFormat(180, 6, fmt.Sprintf("... %d more", len(r.Failures)-maxListedFailures), "1", 0, "L", false, 0, "")
				pdf.Ln(-1)
				break
			}
			pdf.CellFormat(50, 6, failure.Item, "1", 0, "L", false, 0, "")
			pdf.CellFormat(130, 6, truncate(failure.Error, 90), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report to path.
func WriteFile(path string, r Report) error {
	data, err := BuildPDF(r)
	if err != nil {
		return fmt.Errorf("runreport: render: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("runreport: create dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
