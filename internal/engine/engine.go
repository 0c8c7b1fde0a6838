// Package engine orchestrates validation runs. It streams rows into
// per-column accumulators, finalizes them into dataset statistics, and
// drives the detector and drift phases into one ordered report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"datacheck/domain/core"
	"datacheck/domain/dataset"
	"datacheck/domain/validation"
	"datacheck/internal"
	"datacheck/internal/accumulate"
	"datacheck/internal/detect"
	"datacheck/internal/drift"
	"datacheck/ports"
)

// batchSize is the row granularity for worker hand-off and cancellation
const batchSize = 1024

// Engine drives validation runs. It holds no per-run state; concurrent
// runs over independent sources are safe on one Engine.
type Engine struct {
	cfg        validation.Config
	rng        ports.RNG
	logger     *internal.Logger
	detectors  []detect.Detector
	comparator *drift.DriftComparator
}

// New creates an engine after validating the configuration. A nil rng
// selects the deterministic default; a nil logger selects the process
// logger.
func New(cfg validation.Config, rng ports.RNG, logger *internal.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewDeterministicRNG()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{
		cfg:        cfg,
		rng:        rng,
		logger:     logger.Named("engine"),
		detectors:  detect.All(),
		comparator: drift.NewDriftComparator(cfg),
	}, nil
}

// Outcome bundles the artifacts of a single-dataset run
type Outcome struct {
	Stats  validation.DatasetStats `json:"stats"`
	Report validation.Report       `json:"report"`
}

// PairOutcome bundles the artifacts of a train/test run
type PairOutcome struct {
	Train  validation.DatasetStats `json:"train"`
	Test   validation.DatasetStats `json:"test"`
	Report validation.Report       `json:"report"`
}

// Run validates one dataset end to end
func (e *Engine) Run(ctx context.Context, source ports.RowSource) (*Outcome, error) {
	started := time.Now()
	stats, err := e.Consume(ctx, source)
	if err != nil {
		return nil, err
	}
	findings := e.Detect(ctx, stats)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := validation.NewReport(core.NewRunID(), findings)
	e.logger.Info("run complete in %.2fms (%d rows, %d columns, %d findings)",
		float64(time.Since(started).Nanoseconds())/1e6,
		stats.RowCount, len(stats.Columns), len(report.Findings))
	return &Outcome{Stats: stats, Report: report}, nil
}

// RunPair validates the test dataset against train. Detector findings
// are computed on the test side; drift findings cover every column the
// two schemas share by name.
func (e *Engine) RunPair(ctx context.Context, train, test ports.RowSource) (*PairOutcome, error) {
	started := time.Now()
	trainStats, err := e.Consume(ctx, train)
	if err != nil {
		return nil, fmt.Errorf("train dataset: %w", err)
	}
	testStats, err := e.Consume(ctx, test)
	if err != nil {
		return nil, fmt.Errorf("test dataset: %w", err)
	}
	findings := e.Detect(ctx, testStats)
	findings = append(findings, e.Compare(ctx, trainStats, testStats)...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := validation.NewReport(core.NewRunID(), findings)
	e.logger.Info("pair run complete in %.2fms (%d train rows, %d test rows, %d findings)",
		float64(time.Since(started).Nanoseconds())/1e6,
		trainStats.RowCount, testStats.RowCount, len(report.Findings))
	return &PairOutcome{Train: trainStats, Test: testStats, Report: report}, nil
}

// Consume streams every row of source into per-column accumulators and
// finalizes them. A row whose width disagrees with the schema aborts the
// run with a SchemaViolation; nothing partial is returned. Row order is
// preserved per column, so results do not depend on the worker count.
func (e *Engine) Consume(ctx context.Context, source ports.RowSource) (validation.DatasetStats, error) {
	schema := source.Schema()
	if schema.Width() == 0 {
		return validation.DatasetStats{}, core.NewConfigError("schema", "source has no columns")
	}

	accs := make([]*accumulate.ColumnAccumulator, schema.Width())
	for i, spec := range schema.Columns {
		stream := e.rng.SeededStream(streamName(spec), e.cfg.Seed)
		accs[i] = accumulate.NewColumnAccumulator(spec, e.cfg, stream)
	}

	var sem *semaphore.Weighted
	if workers := e.workerLimit(len(accs)); workers > 1 {
		sem = semaphore.NewWeighted(int64(workers))
	}

	dupes := newDuplicateTracker(e.cfg.TrackDuplicates)
	batch := make([]dataset.Row, 0, batchSize)
	rows := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := e.observeBatch(ctx, sem, accs, batch)
		batch = batch[:0]
		return err
	}

	for {
		row, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return validation.DatasetStats{}, fmt.Errorf("row %d: %w", rows, err)
		}
		if len(row) != schema.Width() {
			return validation.DatasetStats{}, core.NewSchemaViolationError(rows, schema.Width(), len(row))
		}
		dupes.observe(row)
		batch = append(batch, row)
		rows++
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return validation.DatasetStats{}, err
			}
		}
	}
	if err := flush(); err != nil {
		return validation.DatasetStats{}, err
	}

	columns := make(map[string]validation.ColumnStats, len(accs))
	for _, acc := range accs {
		snapshot := acc.Finalize()
		columns[snapshot.Name] = snapshot
	}
	return validation.DatasetStats{
		DatasetID:      core.NewDatasetID(),
		Schema:         schema,
		RowCount:       int64(rows),
		DuplicateCount: dupes.duplicates,
		Columns:        columns,
	}, nil
}

// observeBatch feeds one batch to every column, fanning out per column
// when a semaphore is present. Each worker owns exactly one accumulator
// and walks the batch in row order.
func (e *Engine) observeBatch(ctx context.Context, sem *semaphore.Weighted, accs []*accumulate.ColumnAccumulator, batch []dataset.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sem == nil {
		for _, acc := range accs {
			if err := observeColumn(acc, batch); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make(chan error, len(accs))
	var wg sync.WaitGroup
	for _, acc := range accs {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(acc *accumulate.ColumnAccumulator) {
			defer wg.Done()
			defer sem.Release(1)
			if err := observeColumn(acc, batch); err != nil {
				errs <- err
			}
		}(acc)
	}
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func observeColumn(acc *accumulate.ColumnAccumulator, batch []dataset.Row) error {
	pos := acc.Spec().Position
	for _, row := range batch {
		if err := acc.Observe(row[pos]); err != nil {
			return err
		}
	}
	return nil
}

// Detect runs every detector over every column of a finalized dataset,
// plus the dataset-scope duplicate check. Read-only over stats; parallel
// per column under the worker bound.
func (e *Engine) Detect(ctx context.Context, stats validation.DatasetStats) []validation.Finding {
	columns := stats.ByPosition()
	perColumn := make([][]validation.Finding, len(columns))

	e.forEachColumn(ctx, len(columns), func(i int) {
		for _, d := range e.detectors {
			perColumn[i] = append(perColumn[i], d.Detect(columns[i], e.cfg)...)
		}
	})

	var findings []validation.Finding
	if dup := e.duplicateFinding(stats); dup != nil {
		findings = append(findings, *dup)
	}
	for _, fs := range perColumn {
		findings = append(findings, fs...)
	}
	return findings
}

// Compare runs the drift comparator over every column the two datasets
// share by name. A kind mismatch invalidates that comparison alone; the
// remaining columns still compare.
func (e *Engine) Compare(ctx context.Context, train, test validation.DatasetStats) []validation.Finding {
	columns := test.ByPosition()
	results := make([]*validation.Finding, len(columns))

	e.forEachColumn(ctx, len(columns), func(i int) {
		testCol := columns[i]
		trainCol, ok := train.Column(testCol.Name)
		if !ok {
			e.logger.Debug("column %q absent from train dataset, drift skipped", testCol.Name)
			return
		}
		finding, err := e.comparator.Compare(trainCol, testCol)
		switch {
		case err == nil:
			results[i] = finding
		case core.IsSkip(err):
			e.logger.Debug("drift skipped for column %q: %v", testCol.Name, err)
		default:
			e.logger.Warn("drift comparison failed for column %q: %v", testCol.Name, err)
		}
	})

	var findings []validation.Finding
	for _, f := range results {
		if f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

// forEachColumn fans fn out over column indexes under the worker bound,
// or runs inline on the sequential path. fn must touch only its index.
func (e *Engine) forEachColumn(ctx context.Context, n int, fn func(i int)) {
	workers := e.workerLimit(n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			fn(i)
		}(i)
	}
	wg.Wait()
}

// duplicateFinding emits at most one dataset-scope finding. Zero
// duplicates, or tracking disabled, means no finding at all.
func (e *Engine) duplicateFinding(stats validation.DatasetStats) *validation.Finding {
	if !e.cfg.TrackDuplicates || stats.DuplicateCount == 0 {
		return nil
	}
	rate := stats.DuplicateRate()
	severity := validation.SeverityInfo
	switch {
	case rate >= e.cfg.DuplicateCriticalRatio:
		severity = validation.SeverityCritical
	case rate >= e.cfg.DuplicateWarningRatio:
		severity = validation.SeverityWarning
	}
	return &validation.Finding{
		Kind:           validation.FindingDuplicateRows,
		ColumnPosition: -1,
		Severity:       severity,
		Score:          rate,
		Description: fmt.Sprintf("%d of %d rows are exact duplicates (%.1f%%)",
			stats.DuplicateCount, stats.RowCount, rate*100),
		Duplicates: &validation.DuplicateDetail{
			DuplicateCount: stats.DuplicateCount,
			RowCount:       stats.RowCount,
			Rate:           rate,
		},
	}
}

// workerLimit caps concurrency at the column count; at most one task per
// column ever runs.
func (e *Engine) workerLimit(columns int) int {
	w := e.cfg.Workers
	if w > columns {
		w = columns
	}
	if w < 1 {
		w = 1
	}
	return w
}

// streamName gives each column a stable sampling stream identity so a
// rerun with the same seed reproduces every reservoir decision.
func streamName(spec dataset.ColumnSpec) string {
	return fmt.Sprintf("column/%d/%s", spec.Position, spec.Name)
}

// duplicateTracker counts exact row re-occurrences via canonical row
// hashes. Cost is one hash per distinct row; a nil set means disabled.
type duplicateTracker struct {
	seen       map[core.RowHash]struct{}
	duplicates int64
}

func newDuplicateTracker(enabled bool) *duplicateTracker {
	t := &duplicateTracker{}
	if enabled {
		t.seen = make(map[core.RowHash]struct{})
	}
	return t
}

func (t *duplicateTracker) observe(row dataset.Row) {
	if t.seen == nil {
		return
	}
	h := row.Hash()
	if _, dup := t.seen[h]; dup {
		t.duplicates++
		return
	}
	t.seen[h] = struct{}{}
}
