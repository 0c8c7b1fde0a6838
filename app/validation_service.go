package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"datacheck/domain/core"
	"datacheck/domain/validation"
	"datacheck/internal"
	"datacheck/internal/engine"
	"datacheck/internal/errors"
	"datacheck/internal/profile"
	"datacheck/internal/report"
	"datacheck/ports"
)

// ValidationService orchestrates one-shot validation runs: it streams
// rows through the engine, profiles the finalized stats, and renders the
// outcome for CLI and API callers.
type ValidationService struct {
	cfg      validation.Config
	logger   *internal.Logger
	profiler *profile.Profiler
}

// NewValidationService creates a validation service. The service is
// cheap to construct; callers build one per configuration.
func NewValidationService(cfg validation.Config, logger *internal.Logger) *ValidationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ValidationService{
		cfg:      cfg,
		logger:   logger,
		profiler: profile.NewProfiler(),
	}
}

// RunResult is the complete output of one run
type RunResult struct {
	RunID      core.RunID               `json:"run_id"`
	Source     string                   `json:"source,omitempty"`
	Report     validation.Report        `json:"report"`
	Stats      validation.DatasetStats  `json:"stats"`
	TrainStats *validation.DatasetStats `json:"train_stats,omitempty"`
	Profile    *profile.DatasetProfile  `json:"profile,omitempty"`
	RuntimeMs  int64                    `json:"runtime_ms"`
}

// Run validates one dataset
func (s *ValidationService) Run(ctx context.Context, source ports.RowSource, label string) (*RunResult, error) {
	started := time.Now()

	eng, err := engine.New(s.cfg, nil, s.logger)
	if err != nil {
		return nil, err
	}
	out, err := eng.Run(ctx, source)
	if err != nil {
		return nil, err
	}

	prof := s.profiler.Profile(out.Stats)
	return &RunResult{
		RunID:     out.Report.RunID,
		Source:    label,
		Report:    out.Report,
		Stats:     out.Stats,
		Profile:   &prof,
		RuntimeMs: time.Since(started).Milliseconds(),
	}, nil
}

// RunPair validates the test dataset against the train dataset, adding
// per-column drift findings.
func (s *ValidationService) RunPair(ctx context.Context, train, test ports.RowSource, label string) (*RunResult, error) {
	started := time.Now()

	eng, err := engine.New(s.cfg, nil, s.logger)
	if err != nil {
		return nil, err
	}
	out, err := eng.RunPair(ctx, train, test)
	if err != nil {
		return nil, err
	}

	prof := s.profiler.Profile(out.Test)
	return &RunResult{
		RunID:      out.Report.RunID,
		Source:     label,
		Report:     out.Report,
		Stats:      out.Test,
		TrainStats: &out.Train,
		Profile:    &prof,
		RuntimeMs:  time.Since(started).Milliseconds(),
	}, nil
}

// Inspect profiles a dataset without running detectors. The result has
// no run ID and an empty report.
func (s *ValidationService) Inspect(ctx context.Context, source ports.RowSource, label string) (*RunResult, error) {
	started := time.Now()

	eng, err := engine.New(s.cfg, nil, s.logger)
	if err != nil {
		return nil, err
	}
	stats, err := eng.Consume(ctx, source)
	if err != nil {
		return nil, err
	}

	prof := s.profiler.Profile(stats)
	return &RunResult{
		Source:    label,
		Stats:     stats,
		Profile:   &prof,
		RuntimeMs: time.Since(started).Milliseconds(),
	}, nil
}

// OutputFormat selects how a result is rendered
type OutputFormat string

const (
	FormatJSON     OutputFormat = "json"
	FormatText     OutputFormat = "text"
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

// ParseOutputFormat validates a user-supplied format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", errors.ConfigInvalid(fmt.Sprintf("unknown output format %q", s))
	}
}

// Render serializes a result in the requested format
func (s *ValidationService) Render(res *RunResult, format OutputFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, errors.RenderFailed(string(format), err)
		}
		return out, nil
	case FormatText:
		return []byte(report.Text(res.document())), nil
	case FormatMarkdown:
		return []byte(report.Markdown(res.document())), nil
	case FormatHTML:
		return report.HTML(res.document()), nil
	default:
		return nil, errors.RenderFailed(string(format), fmt.Errorf("unsupported format"))
	}
}

func (r *RunResult) document() report.Document {
	return report.Document{
		Source:    r.Source,
		Report:    r.Report,
		Stats:     r.Stats,
		Profile:   r.Profile,
		RuntimeMs: float64(r.RuntimeMs),
	}
}
