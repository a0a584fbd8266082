package etl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

const partitionFile = "breweries.parquet"

// PartitionedWriter persists normalized records into the silver layer,
// grouped by (state, city). Each partition is replaced wholesale per run via
// write-to-temp then rename, so a crash mid-write leaves the previous
// partition version intact. Partitions not touched by a run are left alone.
type PartitionedWriter struct {
	Dir string

	mu    sync.Mutex
	locks map[models.PartitionKey]*sync.Mutex
}

func NewPartitionedWriter(dir string) *PartitionedWriter {
	return &PartitionedWriter{Dir: dir, locks: make(map[models.PartitionKey]*sync.Mutex)}
}

// Write groups records by partition key, deduplicates by id within each
// partition (last write wins for a run's input), and atomically swaps each
// touched partition. Returns the per-partition record counts.
func (w *PartitionedWriter) Write(ctx context.Context, records []models.NormalizedRecord, runID string) (map[models.PartitionKey]int, error) {
	groups := make(map[models.PartitionKey][]models.NormalizedRecord)
	index := make(map[models.PartitionKey]map[string]int)

	for _, rec := range records {
		key := rec.Partition()
		if index[key] == nil {
			index[key] = make(map[string]int)
		}
		if i, seen := index[key][rec.ID]; seen {
			groups[key][i] = rec
			continue
		}
		index[key][rec.ID] = len(groups[key])
		groups[key] = append(groups[key], rec)
	}

	// Deterministic swap order makes runs easier to follow in logs.
	keys := make([]models.PartitionKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	counts := make(map[models.PartitionKey]int, len(groups))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, &StorageCommitError{RunID: runID, Layer: "silver", Partition: key.String(), Err: err}
		}
		if err := w.writePartition(key, groups[key], runID); err != nil {
			return nil, err
		}
		counts[key] = len(groups[key])
	}

	logger.Infof("run %s: wrote %d records across %d partitions", runID, len(records), len(counts))
	return counts, nil
}

func (w *PartitionedWriter) writePartition(key models.PartitionKey, records []models.NormalizedRecord, runID string) error {
	// Records within a partition are ordered by id so identical input
	// yields byte-identical partition files.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	lock := w.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(w.Dir, pathSegment(key.State), pathSegment(key.City))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "silver", Partition: key.String(), Err: err}
	}

	rows := make([]interface{}, len(records))
	for i := range records {
		rows[i] = records[i]
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", partitionFile, runID))
	if err := writeParquetFile(tmp, new(models.NormalizedRecord), rows); err != nil {
		os.Remove(tmp)
		return &StorageCommitError{RunID: runID, Layer: "silver", Partition: key.String(), Err: err}
	}
	if err := os.Rename(tmp, filepath.Join(dir, partitionFile)); err != nil {
		os.Remove(tmp)
		return &StorageCommitError{RunID: runID, Layer: "silver", Partition: key.String(), Err: err}
	}
	return nil
}

// ReadAll loads every record currently stored across all silver partitions,
// in partition-path order. A missing silver directory reads as empty.
func (w *PartitionedWriter) ReadAll() ([]models.NormalizedRecord, error) {
	var paths []string
	err := filepath.WalkDir(w.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == partitionFile {
			paths = append(paths, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning silver layer: %w", err)
	}
	sort.Strings(paths)

	var all []models.NormalizedRecord
	for _, path := range paths {
		records, err := readRecordsFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (w *PartitionedWriter) lockFor(key models.PartitionKey) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.locks[key] == nil {
		w.locks[key] = &sync.Mutex{}
	}
	return w.locks[key]
}

// pathSegment makes a partition key component safe as a directory name.
// The mapping is injective: spaces become underscores and every other rune
// outside [A-Za-z0-9.-] is percent-encoded byte by byte, so distinct keys
// never share a directory.
func pathSegment(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '.':
			out = append(out, c)
		case c == ' ':
			out = append(out, '_')
		default:
			out = append(out, fmt.Sprintf("%%%02X", c)...)
		}
	}
	return string(out)
}
