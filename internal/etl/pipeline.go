package etl

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

// Pipeline sequences one run: bronze capture, validation split, partition
// writes plus quarantine routing, then the gold recompute. It holds no state
// between runs; re-running the same snapshot is idempotent.
type Pipeline struct {
	Validator  *Validator
	RawStore   *RawStore // nil skips bronze capture
	Writer     *PartitionedWriter
	Router     QuarantineRouter
	Aggregator *Aggregator
	SQLSink    *SQLSink // nil skips the BI load

	Now func() time.Time
}

func NewPipeline(v *Validator, raw *RawStore, w *PartitionedWriter, r QuarantineRouter, a *Aggregator) *Pipeline {
	return &Pipeline{
		Validator:  v,
		RawStore:   raw,
		Writer:     w,
		Router:     r,
		Aggregator: a,
		Now:        time.Now,
	}
}

// Run processes one raw snapshot under the given run id (a fresh uuid when
// empty) and returns the counters and terminal status. Record-level problems
// resolve into quarantine and never escalate; storage and schema problems
// abort the run with prior state intact and propagate for the orchestrator's
// retry policy. Partitions are swapped before quarantine commits, so a run
// never leaves quarantine entries without its completed writes.
func (p *Pipeline) Run(ctx context.Context, batch []models.RawRecord, runID string) (models.RunReport, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	report := models.RunReport{RunID: runID, Ingested: len(batch)}
	start := p.Now()

	logger.Infof("run %s: starting over %d raw records", runID, len(batch))

	if err := checkBatch(batch, runID); err != nil {
		return fail(report), err
	}

	if p.RawStore != nil {
		if err := p.RawStore.Capture(ctx, batch, runID); err != nil {
			return fail(report), err
		}
	}

	normalized, entries := p.Validator.Split(batch, runID, start)
	report.Normalized = len(normalized)
	report.Quarantined = len(entries)

	if err := ctx.Err(); err != nil {
		return fail(report), &StorageCommitError{RunID: runID, Layer: "silver", Err: err}
	}

	counts, err := p.Writer.Write(ctx, normalized, runID)
	if err != nil {
		return fail(report), err
	}
	report.PartitionsWritten = len(counts)

	if _, err := p.Router.Commit(ctx, entries, runID); err != nil {
		return fail(report), err
	}

	all, err := p.Writer.ReadAll()
	if err != nil {
		return fail(report), &StorageCommitError{RunID: runID, Layer: "silver", Err: err}
	}
	if err := p.Aggregator.Materialize(ctx, all, runID); err != nil {
		return fail(report), err
	}

	if p.SQLSink != nil {
		if err := p.SQLSink.LoadAggregates(ctx, Aggregate(all), runID); err != nil {
			return fail(report), err
		}
	}

	report.Status = models.StatusSuccess
	if report.Quarantined > 0 {
		// Quarantining bad records is the intended outcome of validation,
		// not a failure.
		report.Status = models.StatusPartial
	}
	report.StatusText = report.Status.String()

	logger.Infof("run %s: %s in %s (ingested %d, normalized %d, quarantined %d, partitions %d)",
		runID, report.Status, time.Since(start).Round(time.Millisecond),
		report.Ingested, report.Normalized, report.Quarantined, report.PartitionsWritten)
	return report, nil
}

// checkBatch rejects structurally malformed input before any record-level
// validation, so operators can tell bad data from bad pipeline wiring.
func checkBatch(batch []models.RawRecord, runID string) error {
	for i, rec := range batch {
		if rec == nil {
			return &SchemaViolation{RunID: runID, Detail: "record at index " + strconv.Itoa(i) + " is not an object"}
		}
	}
	return nil
}

func fail(report models.RunReport) models.RunReport {
	report.Status = models.StatusFailed
	report.StatusText = report.Status.String()
	return report
}
