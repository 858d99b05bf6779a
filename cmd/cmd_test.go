package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memtrace/memtrace/internal/options"
)

func TestNewRootCmd(t *testing.T) {
	opts := options.NewCommonOptions(options.WithContext(context.Background()))
	cmd := NewRootCmd(opts)

	require.Equal(t, "memtrace-dump", cmd.Use)
	require.NotEmpty(t, cmd.Short)
	require.True(t, cmd.HasSubCommands())

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}
	require.Contains(t, subcommands, "dump")
}

func TestRootCmdDebugFlag(t *testing.T) {
	opts := options.NewCommonOptions(options.WithContext(context.Background()))
	cmd := NewRootCmd(opts)

	flag := cmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, flag)
	require.Equal(t, "false", flag.DefValue)
}

func TestRootCmdHelp(t *testing.T) {
	opts := options.NewCommonOptions(options.WithContext(context.Background()))
	cmd := NewRootCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "memtrace-dump")
	require.Contains(t, out.String(), "dump")
}
