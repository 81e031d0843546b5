package main

import (
	"context"
	"database/sql"
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
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"microgrid-scenarios/internal/config"
	"microgrid-scenarios/internal/observability/metrics"
	"microgrid-scenarios/internal/results/application"
	results "microgrid-scenarios/internal/results/domain"
	"microgrid-scenarios/internal/results/infrastructure/export"
	"microgrid-scenarios/internal/results/infrastructure/postgres"
	"microgrid-scenarios/internal/runreport"
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
	rc := cfg.Results
	if err := rc.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}

	runID := uuid.NewString()
	m := metrics.New()
	combiner, err := application.NewCombiner(rc.ResultsDir,
		application.WithExtension(rc.DocumentExt),
		application.WithWorkers(cfg.Workers),
		application.WithRunID(runID),
		application.WithMetrics(m),
		application.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}

	started := time.Now()
	result, err := combiner.Combine(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "combine:", err)
		finish(cfg, m, logger, result, metrics.ResultError, time.Since(started))
		return exitFatal
	}

	combined := result.Table
	if columns := rc.Columns(); columns != nil {
		combined, err = combined.Project(columns)
		if err != nil {
			logger.Printf("event=projection_failed run_id=%s error=%q", runID, err.Error())
			fmt.Fprintln(stderr, "curated export:", err)
			finish(cfg, m, logger, result, metrics.ResultError, time.Since(started))
			return exitFatal
		}
	}

	if err := export.WriteFile(rc.OutputPath, combined, export.Options{WithSource: rc.WithSource}); err != nil {
		fmt.Fprintln(stderr, err)
		finish(cfg, m, logger, result, metrics.ResultError, time.Since(started))
		return exitFatal
	}
	logger.Printf("event=export_done run_id=%s path=%s rows=%d columns=%d", runID, rc.OutputPath, len(combined.Rows), len(combined.Columns))

	if rc.PostgresDSN != "" {
		if err := persist(ctx, rc.PostgresDSN, runID, combined); err != nil {
			fmt.Fprintln(stderr, "persist:", err)
			finish(cfg, m, logger, result, metrics.ResultError, time.Since(started))
			return exitFatal
		}
		logger.Printf("event=persist_done run_id=%s rows=%d", runID, len(combined.Rows))
	}

	code, outcome := exitOK, metrics.ResultSuccess
	if result.HasFailures() {
		code, outcome = exitFailures, metrics.ResultError
	}
	finish(cfg, m, logger, result, outcome, time.Since(started))

	fmt.Fprintf(stdout, "combined %d documents into %s (%d columns, run %s)\n", len(result.Files), rc.OutputPath, len(combined.Columns), runID)
	for _, failure := range result.Failed {
		fmt.Fprintf(stdout, "skipped %s: %v\n", failure.File, failure.Err)
	}
	return code
}

// loadConfig parses flags, loads the config file and lets explicitly set
// flags win over file and environment values.
func loadConfig(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("resultmerge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (or SCENARIO_CONFIG)")
	dir := fs.String("results", "", "directory of result documents")
	ext := fs.String("ext", "", "result document suffix")
	output := fs.String("out", "", "combined table path (.csv or .xlsx)")
	curated := fs.Bool("curated", false, "export only the built-in metric columns")
	columns := fs.String("columns", "", "comma separated curated columns")
	withSource := fs.Bool("with-source", false, "prepend the source document name")
	dsn := fs.String("pg", "", "Postgres DSN to store combined rows")
	workers := fs.Int("workers", 0, "documents parsed concurrently")
	metricsPath := fs.String("metrics-textfile", "", "write run metrics in prometheus text format")
	reportPath := fs.String("report", "", "write a PDF run report")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	rc := &cfg.Results
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "results":
			rc.ResultsDir = *dir
		case "ext":
			rc.DocumentExt = *ext
		case "out":
			rc.OutputPath = *output
		case "curated":
			rc.Curated = *curated
		case "columns":
			rc.CuratedColumns = config.SplitCSV(*columns)
		case "with-source":
			rc.WithSource = *withSource
		case "pg":
			rc.PostgresDSN = *dsn
		case "workers":
			cfg.Workers = *workers
		case "metrics-textfile":
			cfg.MetricsTextfile = *metricsPath
		case "report":
			cfg.ReportPDF = *reportPath
		}
	})
	return cfg, nil
}

func persist(ctx context.Context, dsn, runID string, table results.Table) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.SaveTable(ctx, runID, table)
}

func finish(cfg config.Config, m *metrics.Metrics, logger *log.Logger, result application.Result, outcome string, duration time.Duration) {
	m.ObserveRun(metrics.ToolCombine, outcome, duration)
	if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Printf("event=metrics_write_failed path=%s error=%q", cfg.MetricsTextfile, err.Error())
	}
	if cfg.ReportPDF == "" {
		return
	}
	r := runreport.Report{
		Tool:      metrics.ToolCombine,
		RunID:     result.RunID,
		Started:   result.Started,
		Duration:  duration,
		Input:     cfg.Results.ResultsDir,
		Output:    cfg.Results.OutputPath,
		Total:     len(result.Files) + len(result.Failed),
		Succeeded: len(result.Files),
		Columns:   len(result.Table.Columns),
	}
	for _, failure := range result.Failed {
		r.Failures = append(r.Failures, runreport.Failure{Item: failure.File, Error: failure.Err.Error()})
	}
	if err := runreport.WriteFile(cfg.ReportPDF, r); err != nil {
		logger.Printf("event=report_write_failed path=%s error=%q", cfg.ReportPDF, err.Error())
	}
}
