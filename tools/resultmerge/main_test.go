package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SCENARIO_CONFIG", "RESULTS_DIR", "RESULTS_OUTPUT", "RESULTS_CURATED", "RESULTS_CURATED_COLUMNS", "RESULTS_WITH_SOURCE", "RESULTS_POSTGRES_DSN", "RESULTS_DOCUMENT_EXT"} {
		t.Setenv(key, "")
	}
}

func resultsDir(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestRunCombinesDirectory(t *testing.T) {
	isolateEnv(t)
	dir := resultsDir(t, map[string]string{
		"case_1.json": `{"PV": {"size_kw": 10}, "Financial": {"lcc": 100}}`,
		"case_2.json": `{"PV": {"size_kw": 12}, "ElectricStorage": {"size_kwh": 4}}`,
	})
	out := filepath.Join(t.TempDir(), "combined.csv")
	report := filepath.Join(t.TempDir(), "run.pdf")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-results", dir, "-out", out, "-with-source", "-report", report}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "source,PV.size_kw,Financial.lcc,ElectricStorage.size_kwh\n" +
		"case_1.json,10,100,\n" +
		"case_2.json,12,,4\n"
	if string(data) != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, data)
	}
	if _, err := os.Stat(report); err != nil {
		t.Fatalf("expected report: %v", err)
	}
}

func TestRunSkipsMalformedDocuments(t *testing.T) {
	isolateEnv(t)
	dir := resultsDir(t, map[string]string{
		"case_1.json": `{"PV": {"size_kw": 10}}`,
		"case_2.json": `{"PV": `,
	})
	out := filepath.Join(t.TempDir(), "combined.csv")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-results", dir, "-out", out}, &stdout, &stderr)
	if code != exitFailures {
		t.Fatalf("expected exit 1, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "skipped case_2.json") {
		t.Fatalf("expected skipped line, got %q", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "PV.size_kw\n10\n" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestRunCuratedColumns(t *testing.T) {
	isolateEnv(t)
	dir := resultsDir(t, map[string]string{
		"case_1.json": `{"PV": {"size_kw": 10}, "Financial": {"lcc": 100}, "extra": 1}`,
	})
	out := filepath.Join(t.TempDir(), "combined.csv")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-results", dir, "-out", out, "-columns", "Financial.lcc,PV.size_kw"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "Financial.lcc,PV.size_kw\n100,10\n" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestRunCuratedMissingColumnIsFatal(t *testing.T) {
	isolateEnv(t)
	dir := resultsDir(t, map[string]string{"case_1.json": `{"PV": {"size_kw": 10}}`})
	out := filepath.Join(t.TempDir(), "combined.csv")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-results", dir, "-out", out, "-curated"}, &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "ElectricStorage.size_kw") {
		t.Fatalf("expected missing column named, got %q", stderr.String())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output on projection failure, got %v", err)
	}
}

func TestRunMissingDirectoryIsFatal(t *testing.T) {
	isolateEnv(t)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-results", filepath.Join(t.TempDir(), "absent"), "-out", filepath.Join(t.TempDir(), "o.csv")}, &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("expected exit 2, got %d", code)
	}
}
