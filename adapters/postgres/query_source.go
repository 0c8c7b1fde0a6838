package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"datacheck/domain/dataset"
	"datacheck/internal/errors"
	"datacheck/ports"
)

// numericTypeNames are the Postgres type families accumulated numerically
var numericTypeNames = map[string]bool{
	"INT2":    true,
	"INT4":    true,
	"INT8":    true,
	"FLOAT4":  true,
	"FLOAT8":  true,
	"NUMERIC": true,
	"DECIMAL": true,
}

// Connect opens a pooled connection and verifies it
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

// Options tune how a result set is adapted
type Options struct {
	// LabelColumns are accumulated categorically regardless of their
	// database type.
	LabelColumns []string

	// KindOverrides re-declare mapped kinds by column name. They win
	// over both type mapping and label forcing.
	KindOverrides map[string]dataset.ColumnKind
}

// QuerySource adapts one SQL result set as a row source. The query runs
// inside a read-only transaction, so it can never write.
type QuerySource struct {
	tx     *sqlx.Tx
	rows   *sqlx.Rows
	schema dataset.Schema
	closed bool
}

var _ ports.RowSource = (*QuerySource)(nil)

// NewQuerySource runs query and maps its columns: numeric type families
// become numeric columns, everything else categorical, caller overrides
// win. NULL values stream as missing.
func NewQuerySource(ctx context.Context, db *sqlx.DB, query string, opts Options) (*QuerySource, error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.QueryFailed(err)
	}

	rows, err := tx.QueryxContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return nil, errors.QueryFailed(err)
	}

	schema, err := schemaOf(rows, opts)
	if err != nil {
		rows.Close()
		tx.Rollback()
		return nil, err
	}

	return &QuerySource{tx: tx, rows: rows, schema: schema}, nil
}

func schemaOf(rows *sqlx.Rows, opts Options) (dataset.Schema, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return dataset.Schema{}, errors.QueryFailed(err)
	}

	specs := make([]dataset.ColumnSpec, len(types))
	for i, ct := range types {
		specs[i] = dataset.ColumnSpec{
			Name: ct.Name(),
			Kind: kindOf(ct.DatabaseTypeName()),
		}
	}
	schema, err := dataset.NewSchema(specs)
	if err != nil {
		return dataset.Schema{}, errors.QueryFailed(err)
	}

	overrides := make(map[string]dataset.ColumnKind, len(opts.KindOverrides)+len(opts.LabelColumns))
	for _, name := range opts.LabelColumns {
		overrides[name] = dataset.KindCategorical
	}
	for name, kind := range opts.KindOverrides {
		overrides[name] = kind
	}
	return schema.WithKindOverrides(overrides)
}

// kindOf maps a database type name onto a column kind
func kindOf(typeName string) dataset.ColumnKind {
	if numericTypeNames[strings.ToUpper(typeName)] {
		return dataset.KindNumeric
	}
	return dataset.KindCategorical
}

// Schema returns the mapped column layout
func (s *QuerySource) Schema() dataset.Schema {
	return s.schema
}

// Next yields the next result row, io.EOF once the set is exhausted
func (s *QuerySource) Next(ctx context.Context) (dataset.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, errors.QueryFailed(err)
		}
		return nil, io.EOF
	}

	raw, err := s.rows.SliceScan()
	if err != nil {
		return nil, errors.QueryFailed(err)
	}

	row := make(dataset.Row, len(raw))
	for i, v := range raw {
		row[i] = toValue(v, s.schema.Columns[i].Kind)
	}
	return row, nil
}

// Close releases the result set and ends the read-only transaction.
// Safe to call twice.
func (s *QuerySource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.rows.Close()
	return s.tx.Rollback()
}

// toValue converts one driver value. Postgres NUMERIC arrives as text,
// so numeric columns parse byte and string payloads.
func toValue(v interface{}, kind dataset.ColumnKind) dataset.Value {
	switch t := v.(type) {
	case nil:
		return dataset.NewMissingValue()
	case int64:
		if kind == dataset.KindNumeric {
			return dataset.NewNumericValue(float64(t))
		}
		return dataset.NewStringValue(strconv.FormatInt(t, 10))
	case float64:
		if kind == dataset.KindNumeric {
			return dataset.NewNumericValue(t)
		}
		return dataset.NewStringValue(strconv.FormatFloat(t, 'g', -1, 64))
	case bool:
		return dataset.NewStringValue(strconv.FormatBool(t))
	case []byte:
		return textValue(string(t), kind)
	case string:
		return textValue(t, kind)
	case time.Time:
		return dataset.NewStringValue(t.Format(time.RFC3339))
	default:
		return dataset.NewStringValue(fmt.Sprintf("%v", t))
	}
}

func textValue(s string, kind dataset.ColumnKind) dataset.Value {
	if s == "" {
		return dataset.NewMissingValue()
	}
	if kind == dataset.KindNumeric {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return dataset.NewNumericValue(f)
		}
	}
	return dataset.NewStringValue(s)
}
