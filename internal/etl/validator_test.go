package etl

import (
	"testing"
	"time"

	"github.com/BartekS5/brewlake/pkg/models"
)

func TestValidate(t *testing.T) {
	v := NewValidator(CoordStrict, 1)

	t.Run("valid record normalizes and trims", func(t *testing.T) {
		rec, failures := v.Validate(models.RawRecord{
			"id":           "b-1",
			"name":         "  Stone Brewing ",
			"brewery_type": "MICRO",
			"city":         "San Diego",
			"state":        "California",
			"country":      "United States",
			"latitude":     "32.7157",
			"longitude":    -117.1611,
		})
		if len(failures) != 0 {
			t.Fatalf("expected no failures, got %v", failures)
		}
		if rec.Name != "Stone Brewing" {
			t.Errorf("expected trimmed name, got %q", rec.Name)
		}
		if rec.BreweryType != "micro" {
			t.Errorf("expected canonical type micro, got %q", rec.BreweryType)
		}
		if rec.Latitude == nil || *rec.Latitude != 32.7157 {
			t.Errorf("expected latitude 32.7157, got %v", rec.Latitude)
		}
		if rec.Longitude == nil || *rec.Longitude != -117.1611 {
			t.Errorf("expected longitude -117.1611, got %v", rec.Longitude)
		}
	})

	t.Run("missing city always quarantines", func(t *testing.T) {
		rec, failures := v.Validate(models.RawRecord{
			"id": "2", "name": "X", "city": "", "state": "Texas",
		})
		if rec != nil {
			t.Fatal("expected no normalized record")
		}
		if len(failures) != 1 || failures[0].Rule != models.RuleMissingLocation {
			t.Fatalf("expected single missing_location failure, got %v", failures)
		}
		if failures[0].Field != "city" {
			t.Errorf("expected failure on city, got %q", failures[0].Field)
		}
	})

	t.Run("all failures are collected, not just the first", func(t *testing.T) {
		_, failures := v.Validate(models.RawRecord{
			"name":     "   ",
			"latitude": "abc",
		})
		rules := make(map[string]bool)
		for _, f := range failures {
			rules[f.Rule] = true
		}
		for _, want := range []string{
			models.RuleMissingID,
			models.RuleMissingName,
			models.RuleMissingLocation,
			models.RuleInvalidCoordinate,
		} {
			if !rules[want] {
				t.Errorf("expected failure %s, got %v", want, failures)
			}
		}
	})

	t.Run("empty and unmapped brewery types become unknown", func(t *testing.T) {
		for _, typ := range []interface{}{"", nil, "taproom-concept"} {
			rec, failures := v.Validate(models.RawRecord{
				"id": "b-2", "name": "X", "brewery_type": typ,
				"city": "Austin", "state": "Texas",
			})
			if len(failures) != 0 {
				t.Fatalf("type %v: soft normalization must not fail, got %v", typ, failures)
			}
			if rec.BreweryType != models.BreweryTypeUnknown {
				t.Errorf("type %v: expected unknown, got %q", typ, rec.BreweryType)
			}
		}
	})

	t.Run("absent coordinates are not a failure", func(t *testing.T) {
		rec, failures := v.Validate(models.RawRecord{
			"id": "b-3", "name": "X", "city": "Austin", "state": "Texas",
		})
		if len(failures) != 0 {
			t.Fatalf("expected no failures, got %v", failures)
		}
		if rec.Latitude != nil || rec.Longitude != nil {
			t.Error("expected nil coordinates")
		}
	})

	t.Run("out of range coordinate fails under strict policy", func(t *testing.T) {
		_, failures := v.Validate(models.RawRecord{
			"id": "b-4", "name": "X", "city": "Austin", "state": "Texas",
			"latitude": 90.5,
		})
		if len(failures) != 1 || failures[0].Rule != models.RuleInvalidCoordinate {
			t.Fatalf("expected invalid_coordinate, got %v", failures)
		}
	})

	t.Run("unparsable coordinate fails under strict policy", func(t *testing.T) {
		rec, failures := v.Validate(models.RawRecord{
			"id": "1", "name": " Stone ", "brewery_type": "MICRO",
			"city": "San Diego", "state": "California", "latitude": "abc",
		})
		if rec != nil {
			t.Fatal("strict policy must quarantine on bad coordinate")
		}
		if len(failures) != 1 || failures[0].Rule != models.RuleInvalidCoordinate {
			t.Fatalf("expected invalid_coordinate, got %v", failures)
		}
	})

	t.Run("website url gets a scheme", func(t *testing.T) {
		rec, _ := v.Validate(models.RawRecord{
			"id": "b-5", "name": "X", "city": "Austin", "state": "Texas",
			"website_url": " stonebrewing.com ",
		})
		if rec.WebsiteURL != "http://stonebrewing.com" {
			t.Errorf("expected http prefix, got %q", rec.WebsiteURL)
		}
	})
}

func TestValidateLenientCoordinates(t *testing.T) {
	v := NewValidator(CoordLenient, 1)

	rec, failures := v.Validate(models.RawRecord{
		"id": "1", "name": " Stone ", "brewery_type": "MICRO",
		"city": "San Diego", "state": "California", "latitude": "abc",
	})
	if len(failures) != 0 {
		t.Fatalf("lenient policy must not fail on bad coordinate, got %v", failures)
	}
	if rec == nil {
		t.Fatal("expected a normalized record")
	}
	if rec.Name != "Stone" || rec.BreweryType != "micro" {
		t.Errorf("unexpected normalization: %+v", rec)
	}
	if rec.Latitude != nil {
		t.Error("expected nulled latitude under lenient policy")
	}
}

func TestSplitLenientCoordinates(t *testing.T) {
	v := NewValidator(CoordLenient, 2)

	normalized, entries := v.Split([]models.RawRecord{
		{"id": "1", "name": "A", "city": "Austin", "state": "Texas", "latitude": "abc"},
	}, "run-1", time.Now())

	if len(entries) != 0 {
		t.Fatalf("lenient policy must not quarantine on bad coordinate, got %v", entries)
	}
	if len(normalized) != 1 || normalized[0].Latitude != nil {
		t.Errorf("expected kept record with nulled latitude, got %+v", normalized)
	}
}

func TestSplit(t *testing.T) {
	v := NewValidator(CoordStrict, 4)
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	batch := []models.RawRecord{
		{"id": "a", "name": "A", "city": "Austin", "state": "Texas"},
		{"id": "b", "name": "B", "city": "", "state": "Texas"},
		{"id": "c", "name": "C", "city": "Dallas", "state": "Texas"},
		{"name": "no id", "city": "Dallas", "state": "Texas"},
	}

	normalized, entries := v.Split(batch, "run-1", now)

	if len(normalized)+len(entries) != len(batch) {
		t.Fatalf("every record must land in exactly one bucket: %d + %d != %d",
			len(normalized), len(entries), len(batch))
	}
	if len(normalized) != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 normalized and 2 quarantined, got %d/%d", len(normalized), len(entries))
	}

	// Input order is preserved regardless of worker completion order.
	if normalized[0].ID != "a" || normalized[1].ID != "c" {
		t.Errorf("unexpected normalized order: %v", normalized)
	}
	for _, entry := range entries {
		if entry.RunID != "run-1" {
			t.Errorf("expected run id stamped, got %q", entry.RunID)
		}
		if !entry.IngestedAt.Equal(now) {
			t.Errorf("expected ingestion timestamp %v, got %v", now, entry.IngestedAt)
		}
		if entry.Raw == nil || len(entry.Failures) == 0 {
			t.Errorf("entry must carry the raw record and its failures: %+v", entry)
		}
	}
	if entries[0].RecordID != "b" {
		t.Errorf("expected record id b on first entry, got %q", entries[0].RecordID)
	}
	if entries[1].RecordID != "" {
		t.Errorf("expected empty record id for record without id, got %q", entries[1].RecordID)
	}
}
