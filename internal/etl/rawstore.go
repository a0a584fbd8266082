package etl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

// RawStore captures each run's raw batch verbatim into the bronze layer as
// <dir>/<run_id>.ndjson before any validation runs. Audit and replay only;
// the pipeline never reads bronze during normal operation.
type RawStore struct {
	Dir string
}

func NewRawStore(dir string) *RawStore {
	return &RawStore{Dir: dir}
}

func (s *RawStore) Capture(ctx context.Context, records []models.RawRecord, runID string) error {
	if err := ctx.Err(); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "bronze", Err: err}
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "bronze", Err: err}
	}

	f, err := os.OpenFile(filepath.Join(s.Dir, runID+".ndjson"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &StorageCommitError{RunID: runID, Layer: "bronze", Err: err}
	}
	defer f.Close()

	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return &StorageCommitError{RunID: runID, Layer: "bronze", Err: err}
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return &StorageCommitError{RunID: runID, Layer: "bronze", Err: err}
		}
	}
	if err := f.Sync(); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "bronze", Err: err}
	}

	logger.Infof("run %s: captured %d raw records to bronze", runID, len(records))
	return nil
}
