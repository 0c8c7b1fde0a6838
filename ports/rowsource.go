package ports

import (
	"context"

	"datacheck/domain/dataset"
)

// RowSource streams dataset rows from an ingestion adapter
type RowSource interface {
	// Schema returns the bound column layout. Stable for the lifetime of
	// the source.
	Schema() dataset.Schema

	// Next yields the next row, io.EOF when exhausted. Rows may be ragged
	// relative to the schema; width enforcement is the consumer's job.
	Next(ctx context.Context) (dataset.Row, error)

	// Close releases underlying resources. Safe to call more than once.
	Close() error
}
