package etl

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
	"github.com/BartekS5/brewlake/pkg/utils"
)

// CoordinatePolicy controls what happens when a latitude/longitude is present
// but unparsable or out of geographic range.
type CoordinatePolicy int

const (
	// CoordStrict treats a bad coordinate as a validation failure; the
	// record is quarantined with rule invalid_coordinate.
	CoordStrict CoordinatePolicy = iota
	// CoordLenient nulls the bad coordinate and keeps the record, logging
	// a warning. Absence of coordinates is never a failure under either
	// policy.
	CoordLenient
)

// Validator turns raw records into normalized ones, or into the complete
// list of rules they violate. Validate performs no I/O; lenient coordinate
// drops are logged by Split.
type Validator struct {
	Policy  CoordinatePolicy
	Workers int
}

func NewValidator(policy CoordinatePolicy, workers int) *Validator {
	if workers < 1 {
		workers = 1
	}
	return &Validator{Policy: policy, Workers: workers}
}

// Validate applies every rule independently so that a quarantined record
// carries all of its failures, not just the first. A record with any failure
// is never partially normalized.
func (v *Validator) Validate(raw models.RawRecord) (*models.NormalizedRecord, []models.ValidationFailure) {
	rec, failures, _ := v.validate(raw)
	return rec, failures
}

// validate additionally reports lenient-policy coordinate drops as warning
// strings, leaving the logging to callers that do I/O.
func (v *Validator) validate(raw models.RawRecord) (*models.NormalizedRecord, []models.ValidationFailure, []string) {
	var failures []models.ValidationFailure
	var warnings []string

	id := utils.ToString(raw["id"])
	if id == "" {
		failures = append(failures, models.ValidationFailure{
			Field: "id", Rule: models.RuleMissingID,
			Detail: "id must be present and non-empty",
		})
	}

	name := utils.ToString(raw["name"])
	if name == "" {
		failures = append(failures, models.ValidationFailure{
			Field: "name", Rule: models.RuleMissingName,
			Detail: "name must be non-empty after trimming",
		})
	}

	city := utils.ToString(raw["city"])
	state := utils.ToString(raw["state"])
	if city == "" || state == "" {
		var blank []string
		if city == "" {
			blank = append(blank, "city")
		}
		if state == "" {
			blank = append(blank, "state")
		}
		failures = append(failures, models.ValidationFailure{
			Field: strings.Join(blank, ","), Rule: models.RuleMissingLocation,
			Detail: "city and state are partition keys and must be non-empty",
		})
	}

	lat, latFail, latWarn := v.coordinate(raw, "latitude", -90, 90)
	if latFail != nil {
		failures = append(failures, *latFail)
	}
	if latWarn != "" {
		warnings = append(warnings, latWarn)
	}
	lon, lonFail, lonWarn := v.coordinate(raw, "longitude", -180, 180)
	if lonFail != nil {
		failures = append(failures, *lonFail)
	}
	if lonWarn != "" {
		warnings = append(warnings, lonWarn)
	}

	if len(failures) > 0 {
		return nil, failures, warnings
	}

	return &models.NormalizedRecord{
		ID:          id,
		Name:        name,
		BreweryType: canonicalType(raw["brewery_type"]),
		City:        city,
		State:       state,
		Country:     utils.ToString(raw["country"]),
		WebsiteURL:  normalizeURL(raw["website_url"]),
		Latitude:    lat,
		Longitude:   lon,
	}, nil, warnings
}

// Split validates a whole batch on a worker pool and separates the results
// into normalized records and quarantine entries stamped with the run id.
// Workers have no cross-record dependency; results are merged back in input
// order so the split is deterministic regardless of completion order.
func (v *Validator) Split(raws []models.RawRecord, runID string, now time.Time) ([]models.NormalizedRecord, []models.QuarantineEntry) {
	type result struct {
		rec      *models.NormalizedRecord
		failures []models.ValidationFailure
		warnings []string
	}

	workers := v.Workers
	if workers > len(raws) {
		workers = len(raws)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(raws))
	results := make([]result, len(raws))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec, fails, warns := v.validate(raws[idx])
				results[idx] = result{rec: rec, failures: fails, warnings: warns}
			}
		}()
	}
	for i := range raws {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	normalized := make([]models.NormalizedRecord, 0, len(raws))
	var entries []models.QuarantineEntry
	for i, res := range results {
		for _, warn := range res.warnings {
			logger.Warnf("run %s: %s", runID, warn)
		}
		if res.rec != nil {
			normalized = append(normalized, *res.rec)
			continue
		}
		entries = append(entries, models.QuarantineEntry{
			RunID:      runID,
			RecordID:   raws[i].ID(),
			Raw:        raws[i],
			Failures:   res.failures,
			IngestedAt: now,
		})
	}
	return normalized, entries
}

func (v *Validator) coordinate(raw models.RawRecord, field string, min, max float64) (*float64, *models.ValidationFailure, string) {
	val, ok := raw[field]
	if !ok || utils.IsBlank(val) {
		// Coordinates are optional; absence is not a failure.
		return nil, nil, ""
	}

	f, err := utils.ToFloat(val)
	if err == nil && f >= min && f <= max {
		return &f, nil, ""
	}

	detail := fmt.Sprintf("value %v is not numeric", val)
	if err == nil {
		detail = fmt.Sprintf("value %v outside range [%v, %v]", val, min, max)
	}

	if v.Policy == CoordLenient {
		return nil, nil, fmt.Sprintf("dropping %s for record %q: %s", field, utils.ToString(raw["id"]), detail)
	}
	return nil, &models.ValidationFailure{Field: field, Rule: models.RuleInvalidCoordinate, Detail: detail}, ""
}

// canonicalType maps brewery_type through the canonical table. Empty and
// unmapped values both become "unknown"; this is soft normalization, never a
// rejection.
func canonicalType(val interface{}) string {
	s := strings.ToLower(utils.ToString(val))
	if s == "" {
		return models.BreweryTypeUnknown
	}
	if canon, ok := models.CanonicalBreweryTypes[s]; ok {
		return canon
	}
	return models.BreweryTypeUnknown
}

// normalizeURL trims website_url and prefixes http:// when no scheme is
// present. Empty stays empty.
func normalizeURL(val interface{}) string {
	s := utils.ToString(val)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "http://" + s
	}
	return s
}
