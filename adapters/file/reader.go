package file

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"datacheck/domain/dataset"
	"datacheck/internal"
	"datacheck/internal/errors"
	"datacheck/ports"
)

const (
	// inferenceSampleRows bounds how many data rows are read ahead to
	// infer column kinds before streaming begins.
	inferenceSampleRows = 256

	// numericInferenceRate is the fraction of non-missing sampled values
	// that must parse as float for a column to be declared numeric.
	numericInferenceRate = 0.90
)

// missingMarkers are compared lower-cased after trimming
var missingMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"none": true,
	"nan":  true,
}

// Format selects the file decoder
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a decoder from the file extension, defaulting to CSV
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// ParseFormat validates a user-supplied format name. Empty and "auto"
// defer to extension detection.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", errors.ConfigInvalid(fmt.Sprintf("unknown format %q", s))
	}
}

// Options tune how a file is opened
type Options struct {
	// Format forces a decoder; empty selects by file extension.
	Format Format

	// LabelColumns are accumulated categorically even when their values
	// look numeric.
	LabelColumns []string

	// KindOverrides re-declare inferred kinds by column name. They win
	// over both inference and label forcing.
	KindOverrides map[string]dataset.ColumnKind

	Logger *internal.Logger
}

// DataReader streams CSV and XLSX files as a row source. The first row
// is the header; column kinds are inferred from a bounded sample of data
// rows unless the caller overrides them.
type DataReader struct {
	path   string
	format Format
	logger *internal.Logger

	schema dataset.Schema

	// pending holds records read ahead of streaming: the inference
	// prefix for CSV, the whole first sheet for XLSX.
	pending [][]string
	cursor  int

	file      *os.File    // csv only
	csvReader *csv.Reader // csv only
	closed    bool
}

var _ ports.RowSource = (*DataReader)(nil)

// Open reads the header, infers the schema, and positions the reader at
// the first data row.
func Open(path string, opts Options) (*DataReader, error) {
	format := opts.Format
	if format == "" {
		format = DetectFormat(path)
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.IngestFailed(path, err)
	}

	r := &DataReader{path: path, format: format, logger: logger.Named("reader")}

	started := time.Now()
	var err error
	switch format {
	case FormatCSV:
		err = r.openCSV()
	case FormatXLSX:
		err = r.openXLSX()
	default:
		return nil, errors.IngestFailed(path, fmt.Errorf("unsupported format %q", format))
	}
	if err != nil {
		return nil, err
	}

	if err := r.applyOverrides(opts); err != nil {
		r.Close()
		return nil, err
	}

	r.logger.Info("%s opened in %.2fms (%d columns, %d rows sampled)",
		strings.ToUpper(string(format)),
		float64(time.Since(started).Nanoseconds())/1e6,
		r.schema.Width(), len(r.pending))
	return r, nil
}

func (r *DataReader) openCSV() error {
	f, err := os.Open(r.path)
	if err != nil {
		return errors.IngestFailed(r.path, err)
	}

	reader := csv.NewReader(f)
	// ragged records pass through so the engine can report the row index
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		f.Close()
		if stderrors.Is(err, io.EOF) {
			return errors.IngestFailed(r.path, fmt.Errorf("file has no header row"))
		}
		return errors.IngestFailed(r.path, err)
	}

	sample := make([][]string, 0, inferenceSampleRows)
	for len(sample) < inferenceSampleRows {
		record, err := reader.Read()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				break
			}
			f.Close()
			return errors.IngestFailed(r.path, err)
		}
		sample = append(sample, record)
	}

	schema, err := buildSchema(header, sample)
	if err != nil {
		f.Close()
		return errors.IngestFailed(r.path, err)
	}

	r.file = f
	r.csvReader = reader
	r.schema = schema
	r.pending = sample
	return nil
}

func (r *DataReader) openXLSX() error {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return errors.IngestFailed(r.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return errors.IngestFailed(r.path, fmt.Errorf("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return errors.IngestFailed(r.path, err)
	}
	if len(rows) == 0 {
		return errors.IngestFailed(r.path, fmt.Errorf("sheet %q has no header row", sheets[0]))
	}

	header := rows[0]
	data := rows[1:]
	sampleEnd := len(data)
	if sampleEnd > inferenceSampleRows {
		sampleEnd = inferenceSampleRows
	}
	schema, err := buildSchema(header, data[:sampleEnd])
	if err != nil {
		return errors.IngestFailed(r.path, err)
	}

	r.schema = schema
	r.pending = data
	return nil
}

func (r *DataReader) applyOverrides(opts Options) error {
	overrides := make(map[string]dataset.ColumnKind, len(opts.KindOverrides)+len(opts.LabelColumns))
	for _, name := range opts.LabelColumns {
		overrides[name] = dataset.KindCategorical
	}
	for name, kind := range opts.KindOverrides {
		overrides[name] = kind
	}
	schema, err := r.schema.WithKindOverrides(overrides)
	if err != nil {
		return err
	}
	r.schema = schema
	return nil
}

// Schema returns the inferred column layout
func (r *DataReader) Schema() dataset.Schema {
	return r.schema
}

// Next yields the next data row, io.EOF once the file is exhausted
func (r *DataReader) Next(ctx context.Context) (dataset.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.cursor < len(r.pending) {
		record := r.pending[r.cursor]
		r.cursor++
		return r.toRow(record), nil
	}
	if r.csvReader == nil {
		return nil, io.EOF
	}
	record, err := r.csvReader.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.IngestFailed(r.path, err)
	}
	return r.toRow(record), nil
}

// Close releases the underlying file. Safe to call twice.
func (r *DataReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// toRow converts one raw record. excelize drops trailing empty cells, so
// XLSX records are padded back to schema width; CSV records keep their
// native width so structural problems stay visible downstream.
func (r *DataReader) toRow(record []string) dataset.Row {
	width := len(record)
	if r.format == FormatXLSX && width < r.schema.Width() {
		width = r.schema.Width()
	}
	row := make(dataset.Row, width)
	for i := 0; i < width; i++ {
		if i >= len(record) {
			row[i] = dataset.NewMissingValue()
			continue
		}
		row[i] = r.parseCell(i, record[i])
	}
	return row
}

func (r *DataReader) parseCell(position int, cell string) dataset.Value {
	trimmed := strings.TrimSpace(cell)
	if isMissingMarker(trimmed) {
		return dataset.NewMissingValue()
	}
	if position < r.schema.Width() && r.schema.Columns[position].Kind == dataset.KindNumeric {
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return dataset.NewNumericValue(v)
		}
	}
	return dataset.NewStringValue(trimmed)
}

func buildSchema(header []string, sample [][]string) (dataset.Schema, error) {
	specs := make([]dataset.ColumnSpec, len(header))
	for i, name := range header {
		specs[i] = dataset.ColumnSpec{
			Name: strings.TrimSpace(name),
			Kind: inferKind(i, sample),
		}
	}
	return dataset.NewSchema(specs)
}

// inferKind declares a column numeric when at least 90% of its
// non-missing sampled values parse as float. Columns with no usable
// sample stay categorical.
func inferKind(position int, sample [][]string) dataset.ColumnKind {
	var seen, numeric int
	for _, record := range sample {
		if position >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[position])
		if isMissingMarker(cell) {
			continue
		}
		seen++
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			numeric++
		}
	}
	if seen == 0 {
		return dataset.KindCategorical
	}
	if float64(numeric)/float64(seen) >= numericInferenceRate {
		return dataset.KindNumeric
	}
	return dataset.KindCategorical
}

func isMissingMarker(cell string) bool {
	return missingMarkers[strings.ToLower(cell)]
}
