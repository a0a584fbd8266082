package etl

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/BartekS5/brewlake/pkg/models"
)

func sampleRecords() []models.NormalizedRecord {
	return []models.NormalizedRecord{
		rec("1", "A", "micro", "San Diego", "California"),
		rec("2", "B", "micro", "San Diego", "California"),
		rec("3", "C", "brewpub", "San Diego", "California"),
		rec("4", "D", "micro", "Austin", "Texas"),
		rec("5", "E", "unknown", "Austin", "Texas"),
	}
}

func TestAggregate(t *testing.T) {
	records := sampleRecords()
	rows := Aggregate(records)

	t.Run("counts sum to input size", func(t *testing.T) {
		var total int64
		for _, row := range rows {
			if row.Count < 0 {
				t.Fatalf("negative count: %+v", row)
			}
			total += row.Count
		}
		if total != int64(len(records)) {
			t.Errorf("counts must sum to %d, got %d", len(records), total)
		}
	})

	t.Run("rows are lexicographic over state, city, type", func(t *testing.T) {
		want := []models.AggregateRow{
			{BreweryType: "brewpub", State: "California", City: "San Diego", Count: 1},
			{BreweryType: "micro", State: "California", City: "San Diego", Count: 2},
			{BreweryType: "micro", State: "Texas", City: "Austin", Count: 1},
			{BreweryType: "unknown", State: "Texas", City: "Austin", Count: 1},
		}
		if !reflect.DeepEqual(rows, want) {
			t.Errorf("unexpected rows:\n got %+v\nwant %+v", rows, want)
		}
	})

	t.Run("deterministic regardless of input order", func(t *testing.T) {
		shuffled := []models.NormalizedRecord{records[4], records[2], records[0], records[3], records[1]}
		if !reflect.DeepEqual(Aggregate(shuffled), rows) {
			t.Error("aggregation over the same set must not depend on input order")
		}
	})
}

func TestAggregateByLocation(t *testing.T) {
	records := sampleRecords()
	rows := AggregateByLocation(records)

	want := []models.LocationRow{
		{State: "California", City: "San Diego", Count: 3},
		{State: "Texas", City: "Austin", Count: 2},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("unexpected rows:\n got %+v\nwant %+v", rows, want)
	}

	var typeTotal, locTotal int64
	for _, row := range Aggregate(records) {
		typeTotal += row.Count
	}
	for _, row := range rows {
		locTotal += row.Count
	}
	if typeTotal != locTotal {
		t.Errorf("both rollups must count the same records: %d != %d", typeTotal, locTotal)
	}
}

func TestMaterialize(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator(t.TempDir())
	records := sampleRecords()

	if err := a.Materialize(ctx, records, "run-1"); err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	for _, name := range []string{
		"by_type_location.parquet", "by_type_location.csv",
		"by_location.parquet", "by_location.csv",
	} {
		if _, err := os.Stat(filepath.Join(a.Dir, name)); err != nil {
			t.Errorf("expected gold output %s: %v", name, err)
		}
	}

	f, err := os.Open(filepath.Join(a.Dir, "by_type_location.csv"))
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()

	lines, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(lines) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if !reflect.DeepEqual(lines[0], []string{"brewery_type", "state", "city", "brewery_count"}) {
		t.Errorf("unexpected header: %v", lines[0])
	}
	if !reflect.DeepEqual(lines[2], []string{"micro", "California", "San Diego", "2"}) {
		t.Errorf("unexpected second row: %v", lines[2])
	}

	// Full recompute: a second run over a smaller set replaces the outputs.
	if err := a.Materialize(ctx, records[:1], "run-2"); err != nil {
		t.Fatalf("second materialize failed: %v", err)
	}
	f2, err := os.Open(filepath.Join(a.Dir, "by_type_location.csv"))
	if err != nil {
		t.Fatalf("reopening csv: %v", err)
	}
	defer f2.Close()
	lines, err = csv.NewReader(f2).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("expected header plus 1 row after recompute, got %d lines", len(lines))
	}
}
