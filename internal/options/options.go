// Package options holds the flags and services every subcommand shares,
// the way utrace's internal/commands/options package threads a context and
// logger through pkg/cmd's subcommand tree.
package options

import (
	"context"

	"github.com/rs/zerolog"
)

// CommonOptions carries the context and logger every subcommand's Options
// struct embeds.
type CommonOptions struct {
	Ctx    context.Context
	Logger zerolog.Logger
	Debug  bool
}

// Option configures a CommonOptions.
type Option func(*CommonOptions)

// WithContext sets the context subcommands run under.
func WithContext(ctx context.Context) Option {
	return func(o *CommonOptions) {
		o.Ctx = ctx
	}
}

// WithLogger sets the logger subcommands log through.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *CommonOptions) {
		o.Logger = logger
	}
}

// NewCommonOptions builds a CommonOptions from the given Options, defaulting
// to a background context and a no-op logger.
func NewCommonOptions(opts ...Option) *CommonOptions {
	o := &CommonOptions{
		Ctx:    context.Background(),
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
