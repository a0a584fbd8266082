package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BartekS5/brewlake/internal/cli"
	"github.com/BartekS5/brewlake/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Infof("No .env file found, using system environment variables")
	}
	if err := logger.InitLogger(os.Getenv("LOG_MODE")); err != nil {
		os.Exit(1)
	}
	defer logger.Close()

	// Cancellation is run-granular: a signal aborts the current run before
	// its next partition swap, leaving prior state intact.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
