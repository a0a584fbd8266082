package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

// Aggregate counts normalized records grouped by (brewery_type, state, city).
// Pure function; rows come back in lexicographic (state, city, brewery_type)
// order so output is diff-friendly across runs.
func Aggregate(records []models.NormalizedRecord) []models.AggregateRow {
	type group struct {
		breweryType, state, city string
	}
	counts := make(map[group]int64)
	for i := range records {
		counts[group{records[i].BreweryType, records[i].State, records[i].City}]++
	}

	rows := make([]models.AggregateRow, 0, len(counts))
	for g, n := range counts {
		rows = append(rows, models.AggregateRow{BreweryType: g.breweryType, State: g.state, City: g.city, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		if rows[i].City != rows[j].City {
			return rows[i].City < rows[j].City
		}
		return rows[i].BreweryType < rows[j].BreweryType
	})
	return rows
}

// AggregateByLocation is the secondary gold rollup grouped by (state, city).
func AggregateByLocation(records []models.NormalizedRecord) []models.LocationRow {
	type group struct {
		state, city string
	}
	counts := make(map[group]int64)
	for i := range records {
		counts[group{records[i].State, records[i].City}]++
	}

	rows := make([]models.LocationRow, 0, len(counts))
	for g, n := range counts {
		rows = append(rows, models.LocationRow{State: g.state, City: g.city, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		return rows[i].City < rows[j].City
	})
	return rows
}

// Aggregator materializes gold outputs. Always a full recompute from the
// current silver set, never an incremental patch, so the gold layer cannot
// drift from the partitioned store.
type Aggregator struct {
	Dir string
}

func NewAggregator(dir string) *Aggregator {
	return &Aggregator{Dir: dir}
}

// Materialize writes both aggregations in columnar and flat delimited form:
// by_type_location.{parquet,csv} and by_location.{parquet,csv}. Each file is
// replaced atomically (temp then rename).
func (a *Aggregator) Materialize(ctx context.Context, records []models.NormalizedRecord, runID string) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return &StorageCommitError{RunID: runID, Layer: "gold", Err: err}
	}

	byType := Aggregate(records)
	byLocation := AggregateByLocation(records)

	typeRows := make([]interface{}, len(byType))
	typeCSV := make([][]string, len(byType))
	for i, row := range byType {
		typeRows[i] = row
		typeCSV[i] = []string{row.BreweryType, row.State, row.City, strconv.FormatInt(row.Count, 10)}
	}

	locRows := make([]interface{}, len(byLocation))
	locCSV := make([][]string, len(byLocation))
	for i, row := range byLocation {
		locRows[i] = row
		locCSV[i] = []string{row.State, row.City, strconv.FormatInt(row.Count, 10)}
	}

	outputs := []struct {
		name   string
		sample interface{}
		rows   []interface{}
		header []string
		csv    [][]string
	}{
		{"by_type_location", new(models.AggregateRow), typeRows,
			[]string{"brewery_type", "state", "city", "brewery_count"}, typeCSV},
		{"by_location", new(models.LocationRow), locRows,
			[]string{"state", "city", "brewery_count"}, locCSV},
	}

	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			return &StorageCommitError{RunID: runID, Layer: "gold", Err: err}
		}
		if err := a.swapParquet(out.name, out.sample, out.rows, runID); err != nil {
			return err
		}
		if err := a.swapCSV(out.name, out.header, out.csv, runID); err != nil {
			return err
		}
	}

	logger.Infof("run %s: gold layer rebuilt (%d type rows, %d location rows)", runID, len(byType), len(byLocation))
	return nil
}

func (a *Aggregator) swapParquet(name string, sample interface{}, rows []interface{}, runID string) error {
	final := filepath.Join(a.Dir, name+".parquet")
	tmp := final + "." + runID + ".tmp"
	if err := writeParquetFile(tmp, sample, rows); err != nil {
		os.Remove(tmp)
		return &StorageCommitError{RunID: runID, Layer: "gold", Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return &StorageCommitError{RunID: runID, Layer: "gold", Err: err}
	}
	return nil
}

func (a *Aggregator) swapCSV(name string, header []string, rows [][]string, runID string) error {
	final := filepath.Join(a.Dir, name+".csv")
	tmp := final + "." + runID + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return &StorageCommitError{RunID: runID, Layer: "gold", Err: err}
	}

	cw := csv.NewWriter(f)
	werr := cw.Write(header)
	if werr == nil {
		werr = cw.WriteAll(rows)
	}
	if werr == nil {
		cw.Flush()
		werr = cw.Error()
	}
	if closeErr := f.Close(); werr == nil {
		werr = closeErr
	}
	if werr != nil {
		os.Remove(tmp)
		return &StorageCommitError{RunID: runID, Layer: "gold", Err: fmt.Errorf("writing %s: %w", tmp, werr)}
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return &StorageCommitError{RunID: runID, Layer: "gold", Err: err}
	}
	return nil
}
