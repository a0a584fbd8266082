package etl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BartekS5/brewlake/pkg/models"
)

func entry(runID, recordID string) models.QuarantineEntry {
	return models.QuarantineEntry{
		RunID:    runID,
		RecordID: recordID,
		Raw:      models.RawRecord{"id": recordID, "city": ""},
		Failures: []models.ValidationFailure{
			{Field: "city", Rule: models.RuleMissingLocation, Detail: "city and state are partition keys and must be non-empty"},
		},
		IngestedAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileQuarantineRouter(t *testing.T) {
	ctx := context.Background()

	t.Run("commits entries keyed by run", func(t *testing.T) {
		q := NewFileQuarantineRouter(t.TempDir())

		n, err := q.Commit(ctx, []models.QuarantineEntry{entry("run-1", "a"), entry("run-1", "b")}, "run-1")
		if err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 written, got %d", n)
		}

		entries, err := q.ReadRun("run-1")
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries back, got %d", len(entries))
		}
		if entries[0].RecordID != "a" || entries[0].RunID != "run-1" {
			t.Errorf("unexpected entry: %+v", entries[0])
		}
		if len(entries[0].Failures) != 1 || entries[0].Failures[0].Rule != models.RuleMissingLocation {
			t.Errorf("entry must carry its failures: %+v", entries[0])
		}
		// The original raw record survives verbatim for reprocessing.
		if entries[0].Raw["id"] != "a" {
			t.Errorf("expected raw record preserved, got %v", entries[0].Raw)
		}
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		q := NewFileQuarantineRouter(filepath.Join(t.TempDir(), "quarantine"))

		n, err := q.Commit(ctx, nil, "run-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 written, got %d", n)
		}
		if _, err := os.Stat(q.Dir); !os.IsNotExist(err) {
			t.Error("no-op commit must not create the quarantine directory")
		}
	})

	t.Run("repeated runs append, never overwrite", func(t *testing.T) {
		q := NewFileQuarantineRouter(t.TempDir())

		if _, err := q.Commit(ctx, []models.QuarantineEntry{entry("run-1", "a")}, "run-1"); err != nil {
			t.Fatalf("first commit failed: %v", err)
		}
		if _, err := q.Commit(ctx, []models.QuarantineEntry{entry("run-2", "a")}, "run-2"); err != nil {
			t.Fatalf("second commit failed: %v", err)
		}

		first, err := q.ReadRun("run-1")
		if err != nil {
			t.Fatalf("reading run-1: %v", err)
		}
		second, err := q.ReadRun("run-2")
		if err != nil {
			t.Fatalf("reading run-2: %v", err)
		}
		if len(first) != 1 || len(second) != 1 {
			t.Errorf("history must be preserved per run: %d/%d", len(first), len(second))
		}
	})

	t.Run("storage errors carry run context", func(t *testing.T) {
		dir := t.TempDir()
		// A file where the directory should be forces the append to fail.
		blocker := filepath.Join(dir, "blocked")
		if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		q := NewFileQuarantineRouter(filepath.Join(blocker, "sub"))

		_, err := q.Commit(ctx, []models.QuarantineEntry{entry("run-1", "a")}, "run-1")
		var commitErr *StorageCommitError
		if !errors.As(err, &commitErr) {
			t.Fatalf("expected StorageCommitError, got %v", err)
		}
		if commitErr.RunID != "run-1" || commitErr.Layer != "quarantine" {
			t.Errorf("error must identify the run and layer: %+v", commitErr)
		}
	})
}
