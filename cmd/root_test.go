package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collidium/collidium-cli/internal/query"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"fetch", "ingest", "build", "query", "filters"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "collidium", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestQueryCommand_Flags(t *testing.T) {
	for flag, def := range map[string]string{
		"category":        "All",
		"severity":        "All",
		"type":            "All",
		"radius":          "1500",
		"base-year":       "2016",
		"duration-months": "12",
		"format":          "table",
	} {
		f := queryCmd.Flags().Lookup(flag)
		require.NotNil(t, f, "query command should have --%s flag", flag)
		assert.Equal(t, def, f.DefValue, "--%s default", flag)
	}
}

func TestParseFilter(t *testing.T) {
	assert.True(t, parseFilter("All").IsWildcard())
	assert.True(t, parseFilter("").IsWildcard())

	one := parseFilter("Injury")
	assert.False(t, one.IsWildcard())
	assert.Equal(t, []string{"Injury"}, one.Values())

	set := parseFilter("Injury, Fatality")
	assert.Equal(t, []string{"Injury", "Fatality"}, set.Values())
}

func TestParseFilterRoundTrip(t *testing.T) {
	b, err := query.NewBuilder()
	require.NoError(t, err)
	require.NoError(t, b.SetSeverity(parseFilter("Injury,Fatality")))
	assert.Error(t, b.SetSeverity(parseFilter("Injury,Whiplash")))
}
