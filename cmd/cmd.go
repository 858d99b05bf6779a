// Package cmd wires the memtrace-dump CLI's subcommands onto a root
// cobra.Command, the way utrace's pkg/cmd/root.go wires trace/profile/stop
// onto its root.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/memtrace/memtrace/cmd/dump"
	"github.com/memtrace/memtrace/internal/options"
)

// NewRootCmd builds the root memtrace-dump command with every subcommand
// attached.
func NewRootCmd(opts *options.CommonOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "memtrace-dump",
		Short:             "memtrace-dump inspects native memory-allocation capture files",
		Long:              `memtrace-dump reads the tagged binary record stream a memtrace capture produces and replays or dumps it.`,
		DisableAutoGenTag: true,
	}
	cmd.AddCommand(dump.NewCommand(opts))
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "sets log level to debug")

	return cmd
}

// Execute builds and runs the root command against os.Args, exiting the
// process with status 1 on error. It is called once from main.main.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr).Level(log.InfoLevel).With().Timestamp().Logger()

	opts := options.NewCommonOptions(
		options.WithContext(ctx),
		options.WithLogger(logger),
	)

	if err := NewRootCmd(opts).Execute(); err != nil {
		logger.Error().Err(err).Msg("memtrace-dump failed")
		os.Exit(1)
	}
}
