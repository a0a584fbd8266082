package models

import (
	"strings"
	"time"

	"github.com/BartekS5/brewlake/pkg/utils"
)

// RawRecord is the as-received shape of one brewery from the source API:
// untyped, possibly missing keys, possibly carrying whitespace/casing noise.
// Nothing downstream of the validator ever sees this type.
type RawRecord map[string]interface{}

// ID returns the raw id field coerced to a trimmed string, or "" when
// absent. The coercion matches what validation applies, so quarantine
// entries carry the same id the validator saw.
func (r RawRecord) ID() string {
	return utils.ToString(r["id"])
}

// Validation rule identifiers recorded on quarantine entries.
const (
	RuleMissingID         = "missing_id"
	RuleMissingName       = "missing_name"
	RuleMissingLocation   = "missing_location"
	RuleInvalidCoordinate = "invalid_coordinate"
)

// BreweryTypeUnknown is assigned when brewery_type is empty or not in the
// canonical set.
const BreweryTypeUnknown = "unknown"

// CanonicalBreweryTypes is the closed enumeration of brewery types accepted
// by the Open Brewery DB schema. Matching is case-insensitive.
var CanonicalBreweryTypes = map[string]string{
	"micro":      "micro",
	"nano":       "nano",
	"regional":   "regional",
	"brewpub":    "brewpub",
	"large":      "large",
	"planning":   "planning",
	"bar":        "bar",
	"contract":   "contract",
	"proprietor": "proprietor",
	"closed":     "closed",
}

// ValidationFailure describes one rule violation on one raw record.
type ValidationFailure struct {
	Field  string `json:"field" bson:"field"`
	Rule   string `json:"rule" bson:"rule"`
	Detail string `json:"detail,omitempty" bson:"detail,omitempty"`
}

// NormalizedRecord is the typed, validated brewery representation stored in
// the silver layer. City and State are never empty. Never mutated after
// creation; a re-run replaces the record wholesale within its partition.
type NormalizedRecord struct {
	ID          string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"id"`
	Name        string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8" json:"name"`
	BreweryType string   `parquet:"name=brewery_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"brewery_type"`
	City        string   `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"city"`
	State       string   `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"state"`
	Country     string   `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"country"`
	WebsiteURL  string   `parquet:"name=website_url, type=BYTE_ARRAY, convertedtype=UTF8" json:"website_url,omitempty"`
	Latitude    *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"latitude,omitempty"`
	Longitude   *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL" json:"longitude,omitempty"`
}

// Partition derives the record's partition key. Valid records always have
// non-empty City and State, so the key is always usable.
func (r *NormalizedRecord) Partition() PartitionKey {
	return NewPartitionKey(r.State, r.City)
}

// PartitionKey is the (state, city) pair that determines physical grouping
// in the silver layer. Both components are whitespace-collapsed and
// uppercased so that "San  diego" and "SAN DIEGO" land in the same partition.
type PartitionKey struct {
	State string
	City  string
}

// NewPartitionKey builds a normalized key from record-cased state and city.
func NewPartitionKey(state, city string) PartitionKey {
	return PartitionKey{State: canonKey(state), City: canonKey(city)}
}

func (k PartitionKey) String() string {
	return k.State + "/" + k.City
}

func canonKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// QuarantineEntry holds one rejected raw record together with every rule it
// violated. Entries are append-only: re-running over the same bad record adds
// a new entry under the new run id.
type QuarantineEntry struct {
	RunID      string              `json:"run_id" bson:"run_id"`
	RecordID   string              `json:"record_id" bson:"record_id"`
	Raw        RawRecord           `json:"raw" bson:"raw"`
	Failures   []ValidationFailure `json:"failures" bson:"failures"`
	IngestedAt time.Time           `json:"ingested_at" bson:"ingested_at"`
}

// AggregateRow is one gold-layer count grouped by (brewery_type, state, city).
type AggregateRow struct {
	BreweryType string `parquet:"name=brewery_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"brewery_type"`
	State       string `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"state"`
	City        string `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"city"`
	Count       int64  `parquet:"name=brewery_count, type=INT64" json:"brewery_count"`
}

// LocationRow is the secondary gold aggregation grouped by (state, city).
type LocationRow struct {
	State string `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"state"`
	City  string `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY" json:"city"`
	Count int64  `parquet:"name=brewery_count, type=INT64" json:"brewery_count"`
}

// RunStatus is the terminal outcome reported to the orchestrator.
type RunStatus int

const (
	// StatusSuccess: every ingested record was normalized and written.
	StatusSuccess RunStatus = iota
	// StatusPartial: quarantine is non-empty but all writes succeeded.
	// Partial is a successful outcome, not a failure.
	StatusPartial
	// StatusFailed: a storage commit or schema violation aborted the run.
	StatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunReport carries the counters and terminal status for one pipeline run.
// It is returned as an immutable result; components never share mutable
// counters.
type RunReport struct {
	RunID             string    `json:"run_id"`
	Status            RunStatus `json:"-"`
	StatusText        string    `json:"status"`
	Ingested          int       `json:"ingested"`
	Normalized        int       `json:"normalized"`
	Quarantined       int       `json:"quarantined"`
	PartitionsWritten int       `json:"partitions_written"`
}
