package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"microgrid-scenarios/internal/config"
	"microgrid-scenarios/internal/observability/metrics"
	"microgrid-scenarios/internal/runreport"
	"microgrid-scenarios/internal/scenario/application"
	scenario "microgrid-scenarios/internal/scenario/domain"
	"microgrid-scenarios/internal/scenario/infrastructure/filestore"
	"microgrid-scenarios/internal/scenario/infrastructure/objectstore"
	"microgrid-scenarios/internal/scenario/infrastructure/table"
)

const (
	exitOK       = 0
	exitFailures = 1
	exitFatal    = 2
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", log.LstdFlags)

	cfg, err := loadConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitFatal
	}
	sc := cfg.Scenario
	if err := sc.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}

	mapper, err := buildMapper(sc)
	if err != nil {
		fmt.Fprintln(stderr, "mapping:", err)
		return exitFatal
	}

	tbl, err := table.Read(sc.InputPath, table.Options{HasHeader: sc.HasHeader, Sheet: sc.Sheet})
	if err != nil {
		fmt.Fprintln(stderr, "read table:", err)
		return exitFatal
	}

	sink, err := buildSink(ctx, sc)
	if err != nil {
		fmt.Fprintln(stderr, "sink:", err)
		return exitFatal
	}

	runID := uuid.NewString()
	m := metrics.New()
	gen, err := application.NewGenerator(mapper, sink,
		application.WithNamePattern(sc.OutputNamePattern),
		application.WithWorkers(cfg.Workers),
		application.WithDryRun(sc.DryRun),
		application.WithRunID(runID),
		application.WithMetrics(m),
		application.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}

	summary, runErr := gen.Run(ctx, tbl.Rows)

	code := exitOK
	result := metrics.ResultSuccess
	switch {
	case runErr != nil:
		code, result = exitFatal, metrics.ResultError
		logger.Printf("event=generate_aborted run_id=%s error=%q", runID, runErr.Error())
	case summary.HasFailures():
		code, result = exitFailures, metrics.ResultError
	}
	m.ObserveRun(metrics.ToolGenerate, result, summary.Duration)
	if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Printf("event=metrics_write_failed path=%s error=%q", cfg.MetricsTextfile, err.Error())
	}
	if cfg.ReportPDF != "" {
		if err := runreport.WriteFile(cfg.ReportPDF, report(sc, summary)); err != nil {
			logger.Printf("event=report_write_failed path=%s error=%q", cfg.ReportPDF, err.Error())
		}
	}

	printSummary(stdout, sc, summary)
	return code
}

// loadConfig parses flags, loads the config file and lets explicitly set
// flags win over file and environment values.
func loadConfig(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("scenariogen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (or SCENARIO_CONFIG)")
	input := fs.String("input", "", "scenario table (.csv or .xlsx)")
	output := fs.String("out", "", "output directory for documents")
	pattern := fs.String("pattern", "", "document name pattern, {n} is the 1-based row")
	urdb := fs.String("urdb-label", "", "utility rate identifier for ElectricTariff.urdb_label")
	loadProfile := fs.String("load-profile", "", "load profile CSV path for ElectricLoad.path_to_csv")
	profile := fs.String("profile", "", "coercion profile: typed or all-string")
	mapping := fs.String("mapping", "", "built-in mapping: default or annual-load")
	mappingFile := fs.String("mapping-file", "", "YAML mapping file, overrides -mapping")
	optional := fs.String("optional", "", "comma separated optional sections to emit")
	hasHeader := fs.Bool("header", true, "first non-empty record is a header")
	sheet := fs.String("sheet", "", "XLSX worksheet, default first")
	workers := fs.Int("workers", 0, "rows processed concurrently")
	dryRun := fs.Bool("dry-run", false, "map rows without writing documents")
	metricsPath := fs.String("metrics-textfile", "", "write run metrics in prometheus text format")
	reportPath := fs.String("report", "", "write a PDF run report")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	sc := &cfg.Scenario
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			sc.InputPath = *input
		case "out":
			sc.OutputDir = *output
		case "pattern":
			sc.OutputNamePattern = *pattern
		case "urdb-label":
			sc.URDBLabel = *urdb
		case "load-profile":
			sc.LoadProfilePath = *loadProfile
		case "profile":
			sc.CoercionProfile = *profile
		case "mapping":
			sc.Mapping = *mapping
		case "mapping-file":
			sc.MappingFile = *mappingFile
		case "optional":
			sc.OptionalSections = config.SplitCSV(*optional)
		case "header":
			sc.HasHeader = *hasHeader
		case "sheet":
			sc.Sheet = *sheet
		case "workers":
			cfg.Workers = *workers
		case "dry-run":
			sc.DryRun = *dryRun
		case "metrics-textfile":
			cfg.MetricsTextfile = *metricsPath
		case "report":
			cfg.ReportPDF = *reportPath
		}
	})
	return cfg, nil
}

func buildMapper(sc config.ScenarioConfig) (*scenario.Mapper, error) {
	mapping, err := sc.ResolveMapping()
	if err != nil {
		return nil, err
	}
	profile, err := sc.Profile()
	if err != nil {
		return nil, err
	}
	return scenario.NewMapper(mapping, profile, sc.Settings(), sc.OptionalSections)
}

func buildSink(ctx context.Context, sc config.ScenarioConfig) (application.DocumentSink, error) {
	if sc.DryRun {
		return nil, nil
	}
	var sinks []application.DocumentSink
	store, err := filestore.New(sc.OutputDir)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, store)
	if sc.ObjectStore.Enabled() {
		bucket, err := objectstore.NewSink(ctx, sc.ObjectStore)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, bucket)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return application.NewMultiSink(sinks...), nil
}

func report(sc config.ScenarioConfig, summary application.Summary) runreport.Report {
	r := runreport.Report{
		Tool:      metrics.ToolGenerate,
		RunID:     summary.RunID,
		Started:   summary.Started,
		Duration:  summary.Duration,
		Input:     sc.InputPath,
		Output:    sc.OutputDir,
		Total:     summary.Rows,
		Succeeded: len(summary.Succeeded),
	}
	for _, failure := range summary.Failed {
		r.Failures = append(r.Failures, runreport.Failure{Item: failure.Document, Error: failure.Err.Error()})
	}
	return r
}

func printSummary(w io.Writer, sc config.ScenarioConfig, summary application.Summary) {
	verb := "wrote"
	if sc.DryRun {
		verb = "validated"
	}
	fmt.Fprintf(w, "%s %d of %d documents in %s (run %s)\n", verb, len(summary.Succeeded), summary.Rows, summary.Duration.Round(time.Millisecond), summary.RunID)
	for _, failure := range summary.Failed {
		fmt.Fprintf(w, "row %d -> %s: %v\n", failure.Row+1, failure.Document, failure.Err)
	}
}
