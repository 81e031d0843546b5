package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"microgrid-scenarios/internal/observability/metrics"
	scenario "microgrid-scenarios/internal/scenario/domain"
)

// RowFailure records why one row produced no document.
type RowFailure struct {
	Row      int
	Document string
	Err      error
}

// Summary is the outcome of one generation run.
type Summary struct {
	RunID     string
	Rows      int
	Succeeded []string
	Failed    []RowFailure
	Started   time.Time
	Duration  time.Duration
}

// HasFailures reports whether any row failed.
func (s Summary) HasFailures() bool { return len(s.Failed) > 0 }

// Generator maps scenario rows to documents and hands them to a sink.
type Generator struct {
	mapper  *scenario.Mapper
	sink    DocumentSink
	pattern string
	workers int
	dryRun  bool
	runID   string
	metrics *metrics.Metrics
	logger  *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithNamePattern sets the document name pattern ({n} is the 1-based row).
func WithNamePattern(pattern string) Option {
	return func(g *Generator) {
		if pattern != "" {
			g.pattern = pattern
		}
	}
}

// WithWorkers sets how many rows are processed concurrently.
func WithWorkers(workers int) Option {
	return func(g *Generator) {
		if workers > 0 {
			g.workers = workers
		}
	}
}

// WithDryRun maps rows without writing documents.
func WithDryRun(dryRun bool) Option {
	return func(g *Generator) { g.dryRun = dryRun }
}

// WithRunID tags log lines and the summary.
func WithRunID(runID string) Option {
	return func(g *Generator) { g.runID = runID }
}

// WithMetrics records row outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithLogger sets the run logger.
func WithLogger(logger *log.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator constructs a Generator.
func NewGenerator(mapper *scenario.Mapper, sink DocumentSink, opts ...Option) (*Generator, error) {
	if mapper == nil {
		return nil, errors.New("scenario generator: nil mapper")
	}
	g := &Generator{
		mapper:  mapper,
		sink:    sink,
		pattern: scenario.DefaultNamePattern,
		workers: 1,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sink == nil && !g.dryRun {
		return nil, errors.New("scenario generator: nil sink")
	}
	return g, nil
}

// Run maps every row. A failing row never stops its siblings; the error
// return is reserved for cancellation.
func (g *Generator) Run(ctx context.Context, rows []scenario.Row) (Summary, error) {
	summary := Summary{RunID: g.runID, Rows: len(rows), Started: time.Now().UTC()}
	g.logf("event=generate_start run_id=%s rows=%d width=%d profile=%s dry_run=%t", g.runID, len(rows), g.mapper.Width(), g.mapper.Profile(), g.dryRun)

	failures := make([]error, len(rows))
	done := make([]bool, len(rows))
	names := make([]string, len(rows))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)
	for i, row := range rows {
		i, row := i, row
		names[i] = scenario.DocumentName(g.pattern, row.Index)
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			failures[i] = g.processRow(groupCtx, row, names[i])
			done[i] = true
			return nil
		})
	}
	waitErr := group.Wait()

	for i, row := range rows {
		switch {
		case failures[i] != nil:
			summary.Failed = append(summary.Failed, RowFailure{Row: row.Index, Document: names[i], Err: failures[i]})
		case done[i]:
			summary.Succeeded = append(summary.Succeeded, names[i])
		}
	}
	summary.Duration = time.Since(summary.Started)
	g.logf("event=generate_done run_id=%s succeeded=%d failed=%d duration=%s", g.runID, len(summary.Succeeded), len(summary.Failed), summary.Duration)
	if waitErr != nil {
		return summary, waitErr
	}
	return summary, ctx.Err()
}

func (g *Generator) processRow(ctx context.Context, row scenario.Row, name string) error {
	doc, err := g.mapper.Map(row)
	if err != nil {
		return g.fail(row, name, err)
	}
	doc.Name = name
	data, err := doc.Encode()
	if err != nil {
		return g.fail(row, name, fmt.Errorf("%w: encode %s: %w", scenario.ErrIO, name, err))
	}
	if g.dryRun {
		g.metrics.ObserveRow(metrics.ResultSkipped)
		return nil
	}
	if err := g.sink.Put(ctx, name, data); err != nil {
		return g.fail(row, name, fmt.Errorf("%w: write %s: %w", scenario.ErrIO, name, err))
	}
	g.metrics.ObserveRow(metrics.ResultSuccess)
	return nil
}

func (g *Generator) fail(row scenario.Row, name string, err error) error {
	g.metrics.ObserveRow(metrics.ResultError)
	g.logf("event=row_failed run_id=%s row=%d document=%s error=%q", g.runID, row.Index+1, name, err.Error())
	return err
}

func (g *Generator) logf(format string, args ...any) {
	if g.logger == nil {
		return
	}
	g.logger.Printf(format, args...)
}
