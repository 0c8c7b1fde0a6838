package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
	"datacheck/internal"
	"datacheck/internal/errors"
	"datacheck/internal/testkit"
)

func newTestService(labels ...string) *ValidationService {
	cfg := validation.DefaultConfig()
	cfg.Seed = 42
	cfg.LabelColumns = labels
	return NewValidationService(cfg, internal.NewLogger(internal.LogLevelError))
}

func TestRunProducesRenderableResult(t *testing.T) {
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: []float64{1, 2, 3, 4, 5}},
	)
	svc := newTestService()

	res, err := svc.Run(context.Background(), testkit.NewMemorySource(schema, rows), "tiny.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID.String())
	assert.Equal(t, int64(5), res.Stats.RowCount)
	require.NotNil(t, res.Profile)
	assert.Equal(t, int64(5), res.Profile.RowCount)

	text, err := svc.Render(res, FormatText)
	require.NoError(t, err)
	assert.Contains(t, string(text), "✓ Validating: tiny.csv")

	raw, err := svc.Render(res, FormatJSON)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "run_id")
	assert.Contains(t, decoded, "stats")
}

func TestRunPairIncludesTrainStatsAndDrift(t *testing.T) {
	schema, trainRows, testRows := testkit.NewGenerator(42).Demo(300)
	svc := newTestService("label")

	res, err := svc.RunPair(context.Background(),
		testkit.NewMemorySource(schema, trainRows),
		testkit.NewMemorySource(schema, testRows),
		"demo")
	require.NoError(t, err)

	require.NotNil(t, res.TrainStats)
	assert.Equal(t, int64(300), res.TrainStats.RowCount)
	assert.Equal(t, int64(303), res.Stats.RowCount)

	var sawDrift bool
	for _, f := range res.Report.Findings {
		if f.Kind == validation.FindingDrift {
			sawDrift = true
		}
	}
	assert.True(t, sawDrift, "shifted amount column should drift")
}

func TestInspectSkipsDetectors(t *testing.T) {
	gen := testkit.NewGenerator(7)
	values := gen.WithOutliers(gen.Gaussian(100, 0, 1), 40)
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "v", Kind: dataset.KindNumeric, Numeric: values},
	)
	svc := newTestService()

	res, err := svc.Inspect(context.Background(), testkit.NewMemorySource(schema, rows), "raw.csv")
	require.NoError(t, err)

	assert.Empty(t, res.RunID.String())
	assert.Empty(t, res.Report.Findings)
	require.NotNil(t, res.Profile)

	text, err := svc.Render(res, FormatText)
	require.NoError(t, err)
	assert.Contains(t, string(text), "🔍 Inspecting: raw.csv")
	assert.NotContains(t, string(text), "🚨 Findings")
}

func TestRenderAllFormats(t *testing.T) {
	schema, rows := testkit.MustTable(
		testkit.Column{Name: "v", Kind: dataset.KindNumeric, Numeric: []float64{1, 2, 3}},
	)
	svc := newTestService()
	res, err := svc.Run(context.Background(), testkit.NewMemorySource(schema, rows), "x.csv")
	require.NoError(t, err)

	for _, format := range []OutputFormat{FormatJSON, FormatText, FormatMarkdown, FormatHTML} {
		out, err := svc.Render(res, format)
		require.NoError(t, err, string(format))
		assert.NotEmpty(t, out, string(format))
	}

	_, err = svc.Render(res, OutputFormat("yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeRenderFailed, errors.CodeOf(err))
}

func TestParseOutputFormat(t *testing.T) {
	got, err := ParseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, got)

	got, err = ParseOutputFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, got)

	_, err = ParseOutputFormat("pdf")
	require.Error(t, err)
}
