// Package dump implements the "dump" subcommand: it replays a log file
// record-by-record to stdout, for debugging a capture without interpreting
// it, the way record_reader.cpp's dumpAllRecords does for the original
// pensieve CLI.
package dump

import (
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/memtrace/memtrace/internal/options"
	"github.com/memtrace/memtrace/replay"
	"github.com/memtrace/memtrace/source"
)

// Options holds the dump subcommand's own flags alongside the shared ones.
type Options struct {
	gzip   bool
	snappy bool
	*options.CommonOptions
}

// NewCommand builds the "dump" cobra.Command.
func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "dump prints every record in a capture file, in order",
		Args:  cobra.ExactArgs(1),
		RunE:  o.Run,
	}
	cmd.Flags().BoolVar(&o.gzip, "gzip", false, "the capture file is gzip-compressed")
	cmd.Flags().BoolVar(&o.snappy, "snappy", false, "the capture file is snappy-compressed")

	return cmd
}

func (o *Options) Run(cmd *cobra.Command, args []string) error {
	if o.Debug {
		o.Logger = o.Logger.Level(log.DebugLevel)
	}

	path := args[0]
	src, err := o.openSource(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	r, err := replay.Open(src, replay.WithLogger(o.Logger))
	if err != nil {
		return fmt.Errorf("opening replay reader: %w", err)
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(o.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return r.DumpAllRecords(cmd.OutOrStdout(), ctx.Done())
}

func (o *Options) openSource(path string) (source.Source, error) {
	switch {
	case o.gzip:
		return source.OpenGzip(path)
	case o.snappy:
		return source.OpenSnappy(path)
	default:
		return source.OpenFile(path)
	}
}
