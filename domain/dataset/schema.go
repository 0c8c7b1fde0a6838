package dataset

import (
	"fmt"
	"sort"

	"datacheck/domain/core"
)

// ColumnKind declares how a column's values are accumulated
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// ColumnSpec describes one column: name, declared kind, zero-based position.
// Immutable once a dataset is bound.
type ColumnSpec struct {
	Name     string     `json:"name"`
	Kind     ColumnKind `json:"kind"`
	Position int        `json:"position"`
}

// Schema is the ordered column layout of one dataset
type Schema struct {
	Columns []ColumnSpec `json:"columns"`
}

// NewSchema builds a schema from ordered column specs. Positions are
// assigned from slice order; names must be unique and non-empty.
func NewSchema(columns []ColumnSpec) (Schema, error) {
	if len(columns) == 0 {
		return Schema{}, core.NewConfigError("columns", "schema requires at least one column")
	}
	seen := make(map[string]bool, len(columns))
	out := make([]ColumnSpec, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return Schema{}, core.NewConfigError("columns", fmt.Sprintf("column %d has no name", i))
		}
		if seen[col.Name] {
			return Schema{}, core.NewConfigError("columns", fmt.Sprintf("duplicate column name %q", col.Name))
		}
		if col.Kind != KindNumeric && col.Kind != KindCategorical {
			return Schema{}, core.NewConfigError("columns", fmt.Sprintf("column %q has unknown kind %q", col.Name, col.Kind))
		}
		seen[col.Name] = true
		col.Position = i
		out[i] = col
	}
	return Schema{Columns: out}, nil
}

// MustNewSchema builds a schema and panics on invalid input. For fixtures
// and literals known to be valid.
func MustNewSchema(columns []ColumnSpec) Schema {
	s, err := NewSchema(columns)
	if err != nil {
		panic(err)
	}
	return s
}

// Width returns the number of columns
func (s Schema) Width() int {
	return len(s.Columns)
}

// Column looks up a spec by name
func (s Schema) Column(name string) (ColumnSpec, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnSpec{}, false
}

// Names returns column names in position order
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// WithKindOverrides returns a copy with the given columns re-declared.
// Unknown names are rejected so a typo never silently keeps the inferred
// kind.
func (s Schema) WithKindOverrides(overrides map[string]ColumnKind) (Schema, error) {
	if len(overrides) == 0 {
		return s, nil
	}
	pending := make(map[string]ColumnKind, len(overrides))
	for name, kind := range overrides {
		if kind != KindNumeric && kind != KindCategorical {
			return Schema{}, core.NewConfigError("kind_overrides", fmt.Sprintf("unknown kind %q for column %q", kind, name))
		}
		pending[name] = kind
	}
	out := make([]ColumnSpec, len(s.Columns))
	copy(out, s.Columns)
	for i, col := range out {
		if kind, ok := pending[col.Name]; ok {
			out[i].Kind = kind
			delete(pending, col.Name)
		}
	}
	if len(pending) > 0 {
		missing := make([]string, 0, len(pending))
		for name := range pending {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return Schema{}, core.NewConfigError("kind_overrides", fmt.Sprintf("columns not in schema: %v", missing))
	}
	return Schema{Columns: out}, nil
}

// Hash fingerprints the ordered layout (names and kinds)
func (s Schema) Hash() core.Hash {
	names := make([]string, len(s.Columns))
	kinds := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
		kinds[i] = string(col.Kind)
	}
	return core.ComputeSchemaHash(names, kinds)
}

// Row is an ordered sequence of values, width fixed per dataset
type Row []Value

// Hash returns the content hash of the row for duplicate detection
func (r Row) Hash() core.RowHash {
	fields := make([]string, len(r))
	missing := make([]bool, len(r))
	for i, v := range r {
		fields[i] = v.Canonical()
		missing[i] = v.IsMissing
	}
	return core.ComputeRowHash(fields, missing)
}
