package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCompareCmd(t *testing.T) {
	cmd := newCompareCmd(&cmdFlags{})

	assert.Equal(t, "compare <target.pdf>", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"refs", "fuzzy", "no-sw", "json"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "expected --%s flag to be registered", name)
	}
}

func TestNewCompareCmd_RequiresExactlyOneArg(t *testing.T) {
	cmd := newCompareCmd(&cmdFlags{LogLevel: "info"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestRunCompare_NoMatchingRefsIsFatal(t *testing.T) {
	cmd := newCompareCmd(&cmdFlags{LogLevel: "info"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"target.pdf", "--refs", t.TempDir() + "/nothing-*.pdf"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "no files matched --refs")
}

func TestRunCompare_InitLoggerFails(t *testing.T) {
	err := runCompare(nil, &cmdFlags{LogLevel: "not-a-level"}, &compareFlags{}, "target.pdf")
	assert.ErrorContains(t, err, "failed to init logger")
}

func TestRunCompare_LoadConfigFails(t *testing.T) {
	appFlags := &cmdFlags{LogLevel: "info", ConfigPath: "/nonexistent/path/config.yaml"}

	err := runCompare(nil, appFlags, &compareFlags{}, "target.pdf")
	assert.ErrorContains(t, err, "failed to load config")
}
