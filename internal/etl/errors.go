package etl

import "fmt"

// StorageCommitError is fatal for the run: an atomic partition swap or a
// quarantine append could not complete. Prior state on disk is intact; the
// orchestrator decides whether to retry the whole run.
type StorageCommitError struct {
	RunID     string
	Layer     string
	Partition string // empty when not partition-scoped
	Err       error
}

func (e *StorageCommitError) Error() string {
	if e.Partition != "" {
		return fmt.Sprintf("storage commit failed (run %s, layer %s, partition %s): %v",
			e.RunID, e.Layer, e.Partition, e.Err)
	}
	return fmt.Sprintf("storage commit failed (run %s, layer %s): %v", e.RunID, e.Layer, e.Err)
}

func (e *StorageCommitError) Unwrap() error { return e.Err }

// SchemaViolation is fatal for the run: the raw batch is structurally
// malformed (not an individual bad field). It signals a data-contract breach
// by the extraction collaborator, distinct from per-record validation
// failures.
type SchemaViolation struct {
	RunID  string
	Detail string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("raw batch schema violation (run %s): %s", e.RunID, e.Detail)
}
