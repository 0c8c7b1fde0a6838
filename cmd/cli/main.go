package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"datacheck/adapters/file"
	"datacheck/app"
	"datacheck/domain/validation"
	"datacheck/internal"
	"datacheck/internal/config"
	"datacheck/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "datacheck",
		Short: "Statistical validation for tabular ML datasets",
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newValidateCmd(),
		newCompareCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newInspectCmd() *cobra.Command {
	var format string
	var fileFormat string
	var labels string
	var seed int64

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Profile a dataset without running detectors",
		Long: `Stream a CSV or XLSX file once and print its shape, per-column
statistics, quantiles, and memory estimate. No findings are produced.

Example: datacheck inspect data.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd, args[0], fileFormat, labels, seed, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json|markdown|html")
	cmd.Flags().StringVar(&fileFormat, "file-format", "auto", "Input format: auto|csv|xlsx")
	cmd.Flags().StringVar(&labels, "labels", "", "Comma separated label columns (forced categorical)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic sampling")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var format string
	var fileFormat string
	var labels string
	var output string
	var seed int64
	var workers int

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Run all detectors over a single dataset",
		Long: `Stream a CSV or XLSX file once, accumulate per-column statistics, and
report missing values, outliers, class imbalance, and duplicate rows.

Example: datacheck validate train.csv --labels label --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd, args[0], fileFormat, labels, seed, workers, format, output)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json|markdown|html")
	cmd.Flags().StringVar(&fileFormat, "file-format", "auto", "Input format: auto|csv|xlsx")
	cmd.Flags().StringVar(&labels, "labels", "", "Comma separated label columns (forced categorical)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic sampling")
	cmd.Flags().IntVar(&workers, "workers", 0, "Column workers per batch (0 uses NumCPU)")

	return cmd
}

func newCompareCmd() *cobra.Command {
	var format string
	var fileFormat string
	var labels string
	var output string
	var seed int64
	var workers int

	cmd := &cobra.Command{
		Use:   "compare [train-file] [test-file]",
		Short: "Validate a test dataset against a train baseline",
		Long: `Run the full detector suite over the test dataset and compare each
shared numeric column against the train distribution for drift.

Example: datacheck compare train.csv test.csv --labels label`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), cmd, args[0], args[1], fileFormat, labels, seed, workers, format, output)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json|markdown|html")
	cmd.Flags().StringVar(&fileFormat, "file-format", "auto", "Input format: auto|csv|xlsx")
	cmd.Flags().StringVar(&labels, "labels", "", "Comma separated label columns (forced categorical)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic sampling")
	cmd.Flags().IntVar(&workers, "workers", 0, "Column workers per batch (0 uses NumCPU)")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var format string
	var rows int
	var seed int64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Validate a generated synthetic dataset",
		Long: `Generate a seeded train/test pair with injected quality problems
(missing values, outliers, a skewed label, drift) and run the full
comparison against it. Exercises the whole pipeline offline.

Example: datacheck demo --rows 500 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cmd, rows, seed, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json|markdown|html")
	cmd.Flags().IntVar(&rows, "rows", 500, "Rows to generate per dataset")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic sampling")

	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, path, fileFormat, labels string, seed int64, format string) error {
	cfg, logger, err := engineSetup(cmd, labels, seed, 0)
	if err != nil {
		return err
	}

	source, err := openSource(path, fileFormat, cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	svc := app.NewValidationService(cfg, logger)
	result, err := svc.Inspect(ctx, source, filepath.Base(path))
	if err != nil {
		return err
	}
	return emit(svc, result, format, "")
}

func runValidate(ctx context.Context, cmd *cobra.Command, path, fileFormat, labels string, seed int64, workers int, format, output string) error {
	cfg, logger, err := engineSetup(cmd, labels, seed, workers)
	if err != nil {
		return err
	}

	source, err := openSource(path, fileFormat, cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	svc := app.NewValidationService(cfg, logger)
	result, err := svc.Run(ctx, source, filepath.Base(path))
	if err != nil {
		return err
	}
	return emit(svc, result, format, output)
}

func runCompare(ctx context.Context, cmd *cobra.Command, trainPath, testPath, fileFormat, labels string, seed int64, workers int, format, output string) error {
	cfg, logger, err := engineSetup(cmd, labels, seed, workers)
	if err != nil {
		return err
	}

	train, err := openSource(trainPath, fileFormat, cfg, logger)
	if err != nil {
		return err
	}
	defer train.Close()

	test, err := openSource(testPath, fileFormat, cfg, logger)
	if err != nil {
		return err
	}
	defer test.Close()

	svc := app.NewValidationService(cfg, logger)
	result, err := svc.RunPair(ctx, train, test, filepath.Base(testPath))
	if err != nil {
		return err
	}
	return emit(svc, result, format, output)
}

func runDemo(ctx context.Context, cmd *cobra.Command, rows int, seed int64, format string) error {
	cfg, logger, err := engineSetup(cmd, "label", seed, 0)
	if err != nil {
		return err
	}
	cfg.Seed = seed

	schema, trainRows, testRows := testkit.NewGenerator(seed).Demo(rows)
	train := testkit.NewMemorySource(schema, trainRows)
	test := testkit.NewMemorySource(schema, testRows)

	svc := app.NewValidationService(cfg, logger)
	result, err := svc.RunPair(ctx, train, test, fmt.Sprintf("demo (%d rows, seed %d)", len(testRows), seed))
	if err != nil {
		return err
	}
	return emit(svc, result, format, "")
}

// engineSetup loads env-backed configuration, then applies flags the user
// set explicitly. Flags win over environment values.
func engineSetup(cmd *cobra.Command, labels string, seed int64, workers int) (validation.Config, *internal.Logger, error) {
	loaded, err := config.Load()
	if err != nil {
		return validation.Config{}, nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(loaded.Server.LogLevel))

	cfg := loaded.Engine
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if labelList := splitLabels(labels); len(labelList) > 0 {
		cfg.LabelColumns = labelList
	}
	return cfg, logger, nil
}

func openSource(path, fileFormat string, cfg validation.Config, logger *internal.Logger) (*file.DataReader, error) {
	format, err := file.ParseFormat(fileFormat)
	if err != nil {
		return nil, err
	}
	return file.Open(path, file.Options{
		Format:       format,
		LabelColumns: cfg.LabelColumns,
		Logger:       logger,
	})
}

func emit(svc *app.ValidationService, result *app.RunResult, format, output string) error {
	parsed, err := app.ParseOutputFormat(format)
	if err != nil {
		return err
	}
	rendered, err := svc.Render(result, parsed)
	if err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, rendered, 0644); err != nil {
			return fmt.Errorf("failed to write report to %s: %w", output, err)
		}
		fmt.Printf("Report saved to %s\n", output)
		return nil
	}

	if _, err := os.Stdout.Write(rendered); err != nil {
		return err
	}
	if len(rendered) > 0 && rendered[len(rendered)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

func splitLabels(v string) []string {
	if v == "" {
		return nil
	}
	var labels []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
