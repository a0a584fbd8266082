package etl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

// SQLSink mirrors the gold by-type aggregation into a SQL Server table for
// BI consumption. The table is replaced inside one transaction so readers
// never observe a half-loaded state.
type SQLSink struct {
	DB    *sql.DB
	Table string
}

func NewSQLSink(db *sql.DB) *SQLSink {
	return &SQLSink{DB: db, Table: "brewery_counts"}
}

func (s *SQLSink) LoadAggregates(ctx context.Context, rows []models.AggregateRow, runID string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return &StorageCommitError{RunID: runID, Layer: "gold-sql", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.Table)); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "gold-sql", Err: err}
	}

	insert := fmt.Sprintf(
		"INSERT INTO %s (brewery_type, state, city, brewery_count, run_id) VALUES (@p1, @p2, @p3, @p4, @p5)",
		s.Table)
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, row.BreweryType, row.State, row.City, row.Count, runID); err != nil {
			return &StorageCommitError{RunID: runID, Layer: "gold-sql", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "gold-sql", Err: err}
	}

	logger.Infof("run %s: loaded %d aggregate rows into %s", runID, len(rows), s.Table)
	return nil
}
