package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacheck/domain/core"
	"datacheck/domain/dataset"
	"datacheck/domain/validation"
	"datacheck/internal"
	"datacheck/internal/testkit"
)

func newTestEngine(t *testing.T, mutate func(*validation.Config)) *Engine {
	t.Helper()
	cfg := validation.DefaultConfig()
	cfg.LabelColumns = []string{"label"}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg, nil, internal.NewLogger(internal.LogLevelError))
	require.NoError(t, err)
	return e
}

// unhealthyTable builds a deterministic dataset tripping the missing,
// outlier, and imbalance detectors at once.
func unhealthyTable() (dataset.Schema, []dataset.Row) {
	amount := make([]float64, 50)
	for i := range amount {
		amount[i] = 10 + float64(i%7)*0.5
	}
	amount[49] = 1000 // far outside the cluster

	freq := make([]float64, 50)
	labels := make([]string, 50)
	for i := range freq {
		freq[i] = float64(i)
		if i < 10 {
			freq[i] = math.NaN() // 20% missing
		}
		labels[i] = "a"
		if i >= 48 {
			labels[i] = "b" // 48:2 imbalance
		}
	}

	return testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: amount},
		testkit.Column{Name: "freq", Kind: dataset.KindNumeric, Numeric: freq},
		testkit.Column{Name: "label", Kind: dataset.KindCategorical, Labels: labels},
	)
}

func TestRunFindsEveryIssueKind(t *testing.T) {
	e := newTestEngine(t, nil)
	schema, rows := unhealthyTable()

	out, err := e.Run(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)

	kinds := make(map[validation.FindingKind]bool)
	for _, f := range out.Report.Findings {
		kinds[f.Kind] = true
	}
	assert.True(t, kinds[validation.FindingOutlier], "outlier on amount")
	assert.True(t, kinds[validation.FindingMissingValues], "missing on freq")
	assert.True(t, kinds[validation.FindingClassImbalance], "imbalance on label")

	assert.Equal(t, int64(50), out.Stats.RowCount)
	assert.NotEmpty(t, out.Report.RunID.String())
}

func TestRunReportOrderedByPositionThenKind(t *testing.T) {
	e := newTestEngine(t, nil)
	schema, rows := unhealthyTable()

	out, err := e.Run(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)
	require.NotEmpty(t, out.Report.Findings)

	lastPos := -2
	for _, f := range out.Report.Findings {
		assert.GreaterOrEqual(t, f.ColumnPosition, lastPos, "positions must not decrease")
		lastPos = f.ColumnPosition
	}
}

func TestRunSchemaViolationAborts(t *testing.T) {
	e := newTestEngine(t, nil)
	schema, rows := unhealthyTable()
	rows[2] = rows[2][:2] // ragged row

	out, err := e.Run(context.Background(), testkit.NewMemorySource(schema, rows))
	require.Error(t, err)
	assert.Nil(t, out, "no partial report for a structurally invalid dataset")
	assert.True(t, errors.Is(err, core.ErrSchemaViolation))
	assert.Contains(t, err.Error(), "row 2")
}

func TestParallelMatchesSequential(t *testing.T) {
	gen := testkit.NewGenerator(7)
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "a", Kind: dataset.KindNumeric, Numeric: gen.Gaussian(3000, 50, 12)},
		testkit.Column{Name: "b", Kind: dataset.KindNumeric, Numeric: gen.Uniform(3000, 0, 1)},
		testkit.Column{Name: "label", Kind: dataset.KindCategorical, Labels: gen.WeightedLabels(3000, []testkit.LabelWeight{
			{Label: "x", Weight: 3},
			{Label: "y", Weight: 1},
		})},
	)

	// Small reservoir forces eviction so sampling decisions are exercised.
	sequential := newTestEngine(t, func(c *validation.Config) {
		c.Workers = 1
		c.ReservoirCapacity = 256
	})
	parallel := newTestEngine(t, func(c *validation.Config) {
		c.Workers = 8
		c.ReservoirCapacity = 256
	})

	seqStats, err := sequential.Consume(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)
	parStats, err := parallel.Consume(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)

	assert.Equal(t, seqStats.RowCount, parStats.RowCount)
	assert.Equal(t, seqStats.Columns, parStats.Columns, "worker count must not change results")
}

func TestConsumeReproducibleAcrossRuns(t *testing.T) {
	gen := testkit.NewGenerator(11)
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "v", Kind: dataset.KindNumeric, Numeric: gen.Gaussian(2000, 0, 1)},
	)
	e := newTestEngine(t, func(c *validation.Config) { c.ReservoirCapacity = 128 })

	source := testkit.NewMemorySource(schema, rows)
	first, err := e.Consume(context.Background(), source)
	require.NoError(t, err)

	source.Rewind()
	second, err := e.Consume(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, first.Columns["v"].Sample, second.Columns["v"].Sample,
		"same seed and data must reproduce the reservoir exactly")
}

func TestDuplicateRowsCounted(t *testing.T) {
	// 20 rows cycling through 10 distinct patterns: 10 duplicates, 50%.
	amount := make([]float64, 20)
	labels := make([]string, 20)
	for i := range amount {
		amount[i] = float64(i % 10)
		labels[i] = string(rune('a' + i%10))
	}
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: amount},
		testkit.Column{Name: "label", Kind: dataset.KindCategorical, Labels: labels},
	)

	e := newTestEngine(t, nil)
	out, err := e.Run(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)

	assert.Equal(t, int64(10), out.Stats.DuplicateCount)
	require.NotEmpty(t, out.Report.Findings)

	first := out.Report.Findings[0]
	assert.Equal(t, validation.FindingDuplicateRows, first.Kind, "dataset-scope finding sorts first")
	assert.Equal(t, -1, first.ColumnPosition)
	assert.Equal(t, validation.SeverityCritical, first.Severity, "50%% duplication is critical")
	require.NotNil(t, first.Duplicates)
	assert.Equal(t, int64(10), first.Duplicates.DuplicateCount)
}

func TestDuplicateTrackingDisabled(t *testing.T) {
	amount := []float64{1, 1, 1, 1}
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: amount},
	)

	e := newTestEngine(t, func(c *validation.Config) { c.TrackDuplicates = false })
	out, err := e.Run(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)

	assert.Equal(t, int64(0), out.Stats.DuplicateCount)
	for _, f := range out.Report.Findings {
		assert.NotEqual(t, validation.FindingDuplicateRows, f.Kind)
	}
}

func TestDuplicateInfoBelowWarningRate(t *testing.T) {
	amount := make([]float64, 100)
	for i := range amount {
		amount[i] = float64(i)
	}
	amount[99] = amount[0] // one duplicate, 1%
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: amount},
	)

	e := newTestEngine(t, nil)
	out, err := e.Run(context.Background(), testkit.NewMemorySource(schema, rows))
	require.NoError(t, err)

	var dup *validation.Finding
	for i := range out.Report.Findings {
		if out.Report.Findings[i].Kind == validation.FindingDuplicateRows {
			dup = &out.Report.Findings[i]
		}
	}
	require.NotNil(t, dup, "any duplication is worth a note")
	assert.Equal(t, validation.SeverityInfo, dup.Severity)
}

func TestRunPairEmitsDriftForShiftedColumn(t *testing.T) {
	gen := testkit.NewGenerator(3)
	stable := gen.Uniform(500, 0, 1)

	schema, trainRows := testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: gen.Gaussian(500, 0, 1)},
		testkit.Column{Name: "stable", Kind: dataset.KindNumeric, Numeric: stable},
	)
	_, testRows := testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: gen.Gaussian(500, 5, 1)},
		testkit.Column{Name: "stable", Kind: dataset.KindNumeric, Numeric: stable},
	)

	e := newTestEngine(t, nil)
	out, err := e.RunPair(context.Background(),
		testkit.NewMemorySource(schema, trainRows),
		testkit.NewMemorySource(schema, testRows))
	require.NoError(t, err)

	var amountDrift *validation.Finding
	for _, f := range out.Report.ForColumn("amount") {
		if f.Kind == validation.FindingDrift {
			f := f
			amountDrift = &f
		}
	}
	require.NotNil(t, amountDrift, "five-sigma mean shift must register")
	assert.Equal(t, validation.SeverityCritical, amountDrift.Severity)
	require.NotNil(t, amountDrift.Drift)
	assert.Equal(t, int64(500), amountDrift.Drift.TrainRowCount)
	assert.Greater(t, amountDrift.Drift.PSI, 0.25)

	for _, f := range out.Report.ForColumn("stable") {
		assert.NotEqual(t, validation.FindingDrift, f.Kind, "identical samples must not drift")
	}
}

func TestRunPairDetectorsCoverTestSide(t *testing.T) {
	full := make([]float64, 100)
	holey := make([]float64, 100)
	for i := range full {
		full[i] = float64(i)
		holey[i] = float64(i)
		if i%2 == 0 {
			holey[i] = math.NaN()
		}
	}

	schema, trainRows := testkit.MustTable(
		testkit.Column{Name: "m", Kind: dataset.KindNumeric, Numeric: holey},
	)
	_, testRows := testkit.MustTable(
		testkit.Column{Name: "m", Kind: dataset.KindNumeric, Numeric: full},
	)

	e := newTestEngine(t, nil)
	out, err := e.RunPair(context.Background(),
		testkit.NewMemorySource(schema, trainRows),
		testkit.NewMemorySource(schema, testRows))
	require.NoError(t, err)

	// Train-side missingness is not the test dataset's problem.
	for _, f := range out.Report.ForColumn("m") {
		assert.NotEqual(t, validation.FindingMissingValues, f.Kind)
	}

	// Swapped, the missingness sits on the validated side.
	swapped, err := e.RunPair(context.Background(),
		testkit.NewMemorySource(schema, testRows[:100]),
		testkit.NewMemorySource(schema, trainRows[:100]))
	require.NoError(t, err)

	found := false
	for _, f := range swapped.Report.ForColumn("m") {
		if f.Kind == validation.FindingMissingValues {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunPairKindMismatchSkipsColumnOnly(t *testing.T) {
	gen := testkit.NewGenerator(5)

	trainSchema, trainRows := testkit.MustTable(
		testkit.Column{Name: "mixed", Kind: dataset.KindNumeric, Numeric: gen.Uniform(200, 0, 1)},
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: gen.Gaussian(200, 0, 1)},
	)
	testSchema, testRows := testkit.MustTable(
		testkit.Column{Name: "mixed", Kind: dataset.KindCategorical, Labels: gen.WeightedLabels(200, []testkit.LabelWeight{{Label: "x", Weight: 1}})},
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: gen.Gaussian(200, 8, 1)},
	)

	e := newTestEngine(t, nil)
	out, err := e.RunPair(context.Background(),
		testkit.NewMemorySource(trainSchema, trainRows),
		testkit.NewMemorySource(testSchema, testRows))
	require.NoError(t, err, "one bad column must not sink the pair run")

	for _, f := range out.Report.ForColumn("mixed") {
		assert.NotEqual(t, validation.FindingDrift, f.Kind)
	}

	found := false
	for _, f := range out.Report.ForColumn("amount") {
		if f.Kind == validation.FindingDrift {
			found = true
		}
	}
	assert.True(t, found, "healthy columns still compare")
}

func TestRunHonorsCancellation(t *testing.T) {
	e := newTestEngine(t, nil)
	schema, rows := unhealthyTable()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.Run(ctx, testkit.NewMemorySource(schema, rows))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := validation.DefaultConfig()
	cfg.DriftBinCount = 1

	_, err := New(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
}

func TestWorkerLimitCapsAtColumns(t *testing.T) {
	e := newTestEngine(t, func(c *validation.Config) { c.Workers = 16 })
	assert.Equal(t, 3, e.workerLimit(3))

	e = newTestEngine(t, func(c *validation.Config) { c.Workers = 0 })
	assert.Equal(t, 1, e.workerLimit(3))
}

func TestSeededStreamsAreStable(t *testing.T) {
	rng := NewDeterministicRNG()

	a := rng.SeededStream("column/0/amount", 42)
	b := rng.SeededStream("column/0/amount", 42)
	for i := 0; i < 8; i++ {
		assert.Equal(t, a.Int63(), b.Int63(), "same name and seed must replay")
	}

	assert.NotEqual(t, hashString("column/0/amount"), hashString("column/1/age"),
		"distinct columns get distinct stream seeds")
}
