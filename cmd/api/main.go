// Package main is the entry point for the travel planner API.
// Its sole responsibility is wiring dependencies together and starting the
// server or running migrations. No business logic belongs here.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "travel",
		Short:         "Collaborative trip itinerary planner",
		Long:          `travel serves the trip planning API and manages its database schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand())
	root.AddCommand(migrateCommand())
	return root
}

// newLogger builds the process logger from a LOG_LEVEL value.
// log/slog JSON handler writes machine-readable output suitable for log aggregators.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
