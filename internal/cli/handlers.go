package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/BartekS5/brewlake/internal/config"
	"github.com/BartekS5/brewlake/internal/etl"
	"github.com/BartekS5/brewlake/internal/extract"
	"github.com/BartekS5/brewlake/pkg/database"
	"github.com/BartekS5/brewlake/pkg/logger"
)

// buildEngine wires the pipeline from configuration. The Mongo quarantine
// backend and the SQL gold sink are attached only when their connection
// strings are configured; the returned cleanup closes whatever was opened.
func buildEngine(ctx context.Context, cfg *config.Config) (*etl.Pipeline, func(), error) {
	policy := etl.CoordStrict
	if cfg.CoordinatePolicy == "lenient" {
		policy = etl.CoordLenient
	}

	validator := etl.NewValidator(policy, cfg.ValidatorWorkers)
	rawStore := etl.NewRawStore(cfg.BronzePath())
	writer := etl.NewPartitionedWriter(cfg.SilverPath())
	aggregator := etl.NewAggregator(cfg.GoldPath())

	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	var router etl.QuarantineRouter = etl.NewFileQuarantineRouter(cfg.QuarantinePath())
	if cfg.MongoConnString != "" {
		client, err := database.ConnectMongo(cfg.MongoConnString)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = client.Disconnect(ctx) })
		router = etl.NewMongoQuarantineRouter(client)
	}

	pipeline := etl.NewPipeline(validator, rawStore, writer, router, aggregator)

	if cfg.SQLConnString != "" {
		db, err := database.ConnectSQL(cfg.SQLConnString)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { db.Close() })
		pipeline.SQLSink = etl.NewSQLSink(db)
	}

	return pipeline, cleanup, nil
}

func runPipeline(ctx context.Context, opts *RunOptions, source func(*config.Config) etl.Extractor) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	pipeline, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	batch, err := extract.Drain(ctx, source(cfg))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	report, runErr := pipeline.Run(ctx, batch, opts.RunID)
	printReport(report)
	return runErr
}

func runAggregate(ctx context.Context, runID string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	writer := etl.NewPartitionedWriter(cfg.SilverPath())
	records, err := writer.ReadAll()
	if err != nil {
		return err
	}

	aggregator := etl.NewAggregator(cfg.GoldPath())
	if err := aggregator.Materialize(ctx, records, runID); err != nil {
		return err
	}

	if cfg.SQLConnString != "" {
		db, err := database.ConnectSQL(cfg.SQLConnString)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := etl.NewSQLSink(db).LoadAggregates(ctx, etl.Aggregate(records), runID); err != nil {
			return err
		}
	}

	logger.Infof("gold layer rebuilt from %d silver records (run %s)", len(records), runID)
	return nil
}

// printReport emits the run report as JSON on stdout so the orchestrator can
// pick up the status and counters.
func printReport(report interface{}) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Errorf("marshaling run report: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(out))
}
