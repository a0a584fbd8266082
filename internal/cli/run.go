package cli

import (
	"github.com/spf13/cobra"

	"github.com/BartekS5/brewlake/internal/config"
	"github.com/BartekS5/brewlake/internal/etl"
	"github.com/BartekS5/brewlake/internal/extract"
)

type RunOptions struct {
	RunID    string
	Input    string
	PageSize int
}

// NewRunCmd runs one full pipeline pass over a fresh API snapshot.
func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract a full snapshot from the brewery API and run the pipeline",
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(c.Context(), opts, func(cfg *config.Config) etl.Extractor {
				pageSize := opts.PageSize
				if pageSize <= 0 {
					pageSize = cfg.PageSize
				}
				return extract.NewAPISource(cfg.APIBaseURL, pageSize)
			})
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Run identifier (defaults to a fresh uuid)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "API page size (defaults to EXTRACT_PAGE_SIZE)")

	return cmd
}

// NewReprocessCmd replays a local NDJSON snapshot (for example a bronze
// capture, or a filtered subset to rebuild a single partition) through the
// full pipeline.
func NewReprocessCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Run the pipeline over a local NDJSON snapshot",
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(c.Context(), opts, func(cfg *config.Config) etl.Extractor {
				return extract.NewFileSource(opts.Input, cfg.PageSize)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Path to an NDJSON snapshot")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Run identifier (defaults to a fresh uuid)")
	cmd.MarkFlagRequired("input")

	return cmd
}

// NewAggregateCmd rebuilds the gold layer from the current silver contents
// without ingesting new input.
func NewAggregateCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute gold aggregates from the current silver layer",
		RunE: func(c *cobra.Command, args []string) error {
			return runAggregate(c.Context(), runID)
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (defaults to a fresh uuid)")

	return cmd
}
