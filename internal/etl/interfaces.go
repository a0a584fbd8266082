package etl

import (
	"context"

	"github.com/BartekS5/brewlake/pkg/models"
)

// Extractor produces raw record pages. Pagination and retries live behind
// this boundary; the pipeline only consumes the materialized batch.
type Extractor interface {
	Extract(ctx context.Context, page int) (records []models.RawRecord, more bool, err error)
}

// QuarantineRouter appends rejected records to a durable, inspectable store.
// Implementations never delete or merge prior entries.
type QuarantineRouter interface {
	Commit(ctx context.Context, entries []models.QuarantineEntry, runID string) (int, error)
}
