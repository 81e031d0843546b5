package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"microgrid-scenarios/internal/observability/metrics"
	results "microgrid-scenarios/internal/results/domain"
)

// DefaultExtension selects result documents in the results directory.
const DefaultExtension = ".json"

// FileFailure records a result document that was skipped.
type FileFailure struct {
	File string
	Err  error
}

// Result is the outcome of one combine run.
type Result struct {
	RunID    string
	Table    results.Table
	Files    []string
	Failed   []FileFailure
	Started  time.Time
	Duration time.Duration
}

// HasFailures reports whether any document was skipped.
func (r Result) HasFailures() bool { return len(r.Failed) > 0 }

// Combiner flattens every result document in a directory into one table.
type Combiner struct {
	dir       string
	extension string
	workers   int
	runID     string
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithExtension sets the file suffix that marks a result document.
func WithExtension(ext string) Option {
	return func(c *Combiner) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extension = ext
	}
}

// WithWorkers sets how many documents are parsed concurrently.
func WithWorkers(workers int) Option {
	return func(c *Combiner) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithRunID tags log lines and the result.
func WithRunID(runID string) Option {
	return func(c *Combiner) { c.runID = runID }
}

// WithMetrics records document outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Combiner) { c.metrics = m }
}

// WithLogger sets the run logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Combiner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCombiner constructs a Combiner over dir.
func NewCombiner(dir string, opts ...Option) (*Combiner, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("results combiner: results dir required")
	}
	c := &Combiner{
		dir:       dir,
		extension: DefaultExtension,
		workers:   1,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Discover lists the result documents in directory order.
func (c *Combiner) Discover() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %w", results.ErrIO, c.dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), c.extension) || !c.isFile(entry) {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

// isFile accepts regular files and symlinks that resolve to one.
func (c *Combiner) isFile(entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(c.dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// Combine parses every discovered document. Unparseable documents are
// skipped and reported; the error return is reserved for discovery failures
// and cancellation.
func (c *Combiner) Combine(ctx context.Context) (Result, error) {
	result := Result{RunID: c.runID, Started: time.Now().UTC()}
	files, err := c.Discover()
	if err != nil {
		return result, err
	}
	c.logf("event=combine_start run_id=%s dir=%s files=%d", c.runID, c.dir, len(files))

	records := make([]results.Record, len(files))
	failures := make([]error, len(files))
	done := make([]bool, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)
	for i, name := range files {
		i, name := i, name
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			records[i], failures[i] = c.parse(name)
			done[i] = true
			return nil
		})
	}
	waitErr := group.Wait()

	var parsed []results.Record
	for i, name := range files {
		switch {
		case failures[i] != nil:
			result.Failed = append(result.Failed, FileFailure{File: name, Err: failures[i]})
		case done[i]:
			result.Files = append(result.Files, name)
			parsed = append(parsed, records[i])
		}
	}
	result.Table = results.Union(parsed)
	c.metrics.SetColumns(len(result.Table.Columns))
	result.Duration = time.Since(result.Started)
	c.logf("event=combine_done run_id=%s documents=%d skipped=%d columns=%d duration=%s", c.runID, len(result.Files), len(result.Failed), len(result.Table.Columns), result.Duration)
	if waitErr != nil {
		return result, waitErr
	}
	return result, ctx.Err()
}

func (c *Combiner) parse(name string) (results.Record, error) {
	f, err := os.Open(filepath.Join(c.dir, name))
	if err != nil {
		return results.Record{}, c.fail(name, fmt.Errorf("%w: open %s: %w", results.ErrIO, name, err))
	}
	defer f.Close()

	cells, err := results.Flatten(f)
	if err != nil {
		return results.Record{}, c.fail(name, &results.ParseError{File: name, Err: err})
	}
	c.metrics.ObserveDocument(metrics.ResultSuccess)
	return results.NewRecord(name, cells), nil
}

func (c *Combiner) fail(name string, err error) error {
	c.metrics.ObserveDocument(metrics.ResultError)
	c.logf("event=document_skipped run_id=%s file=%s error=%q", c.runID, name, err.Error())
	return err
}

func (c *Combiner) logf(format string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Printf(format, args...)
}
