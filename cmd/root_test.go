package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"build", "candidates", "lookup", "runs", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "beer-registry", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestBuildCommand_Flags(t *testing.T) {
	for _, name := range []string{"since-days", "no-enrich", "out", "formats", "file"} {
		assert.NotNil(t, buildCmd.Flags().Lookup(name), "build should have --%s flag", name)
	}
}

func TestLookupCommands_ProducerFlag(t *testing.T) {
	require.NotNil(t, candidatesCmd.Flags().Lookup("producer"))
	require.NotNil(t, lookupCmd.Flags().Lookup("producer"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats", "prune-cache"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}
