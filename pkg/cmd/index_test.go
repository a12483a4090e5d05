package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIndexCmd(t *testing.T) {
	cmd := newIndexCmd(&cmdFlags{})

	assert.Equal(t, "index", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	seedFlag := cmd.Flags().Lookup("seed-size")
	assert.NotNil(t, seedFlag)

	refsFlag := cmd.Flags().Lookup("refs")
	assert.NotNil(t, refsFlag)
}

func TestRunIndex_NoMatchingRefsIsFatal(t *testing.T) {
	cmd := newIndexCmd(&cmdFlags{LogLevel: "info"})
	cmd.SetArgs([]string{"--refs", t.TempDir() + "/nothing-*.pdf"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "no files matched --refs")
}

func TestRunIndex_InitLoggerFails(t *testing.T) {
	err := runIndex(nil, &cmdFlags{LogLevel: "not-a-level"}, &indexFlags{})
	assert.ErrorContains(t, err, "failed to init logger")
}

func TestRunIndex_LoadConfigFails(t *testing.T) {
	appFlags := &cmdFlags{LogLevel: "info", ConfigPath: "/nonexistent/path/config.yaml"}

	err := runIndex(nil, appFlags, &indexFlags{})
	assert.ErrorContains(t, err, "failed to load config")
}
