package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

// FileQuarantineRouter appends entries as newline-delimited JSON under
// <dir>/<run_id>.ndjson. One file per run keeps the store keyed by
// (run_id, record_id) and browsable with plain shell tools; nothing is ever
// deleted or merged.
type FileQuarantineRouter struct {
	Dir string
}

func NewFileQuarantineRouter(dir string) *FileQuarantineRouter {
	return &FileQuarantineRouter{Dir: dir}
}

func (q *FileQuarantineRouter) Commit(ctx context.Context, entries []models.QuarantineEntry, runID string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, &StorageCommitError{RunID: runID, Layer: "quarantine", Err: err}
	}

	if err := os.MkdirAll(q.Dir, 0o755); err != nil {
		return 0, &StorageCommitError{RunID: runID, Layer: "quarantine", Err: err}
	}

	path := filepath.Join(q.Dir, runID+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, &StorageCommitError{RunID: runID, Layer: "quarantine", Err: err}
	}
	defer f.Close()

	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return 0, &StorageCommitError{RunID: runID, Layer: "quarantine",
				Err: fmt.Errorf("marshaling entry %q: %w", entry.RecordID, err)}
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return 0, &StorageCommitError{RunID: runID, Layer: "quarantine", Err: err}
		}
	}
	if err := f.Sync(); err != nil {
		return 0, &StorageCommitError{RunID: runID, Layer: "quarantine", Err: err}
	}

	logger.Infof("quarantined %d records for run %s", len(entries), runID)
	return len(entries), nil
}

// ReadRun loads every entry quarantined under a run id, so an operator can
// extract the original raw records and feed them back through validation
// after an upstream fix.
func (q *FileQuarantineRouter) ReadRun(runID string) ([]models.QuarantineEntry, error) {
	f, err := os.Open(filepath.Join(q.Dir, runID+".ndjson"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []models.QuarantineEntry
	dec := json.NewDecoder(f)
	for dec.More() {
		var entry models.QuarantineEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decoding quarantine entry for run %s: %w", runID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MongoQuarantineRouter is the alternative backend for deployments that
// triage quarantined records in MongoDB. Insert-only, same contract as the
// file router.
type MongoQuarantineRouter struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

func NewMongoQuarantineRouter(client *mongo.Client) *MongoQuarantineRouter {
	return &MongoQuarantineRouter{Client: client, Database: "brewlake", Collection: "quarantine"}
}

func (q *MongoQuarantineRouter) Commit(ctx context.Context, entries []models.QuarantineEntry, runID string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		docs = append(docs, entry)
	}

	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := q.Client.Database(q.Database).Collection(q.Collection)
	res, err := coll.InsertMany(opCtx, docs)
	if err != nil {
		return 0, &StorageCommitError{RunID: runID, Layer: "quarantine", Err: err}
	}

	logger.Infof("quarantined %d records for run %s in mongo", len(res.InsertedIDs), runID)
	return len(res.InsertedIDs), nil
}
