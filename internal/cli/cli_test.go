package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/seedvault/internal/app"
)

func baseArgs(command string, extra ...string) []string {
	args := []string{command, "-db", "postgres://localhost/app", "-dest", "./snapshot"}
	return append(args, extra...)
}

func TestParseExport(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(baseArgs("export", "models.hcl"), &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, app.CommandExport, cfg.Command)
	assert.Equal(t, "models.hcl", cfg.ConfigPath)
	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
	assert.Equal(t, "./snapshot", cfg.Destination)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.False(t, cfg.NoUpdate)
	assert.Equal(t, "console", cfg.Progress)
}

func TestParseImportWithOptions(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(baseArgs("import", "-concurrency", "8", "-no-update", "-progress", "log", "-c", "conf/"), &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, app.CommandImport, cfg.Command)
	assert.Equal(t, "conf/", cfg.ConfigPath)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.NoUpdate)
	assert.Equal(t, "log", cfg.Progress)
}

func TestParseEnvironmentFallbacks(t *testing.T) {
	t.Setenv("SEEDVAULT_DATABASE_URL", "postgres://env-host/app")
	t.Setenv("SEEDVAULT_DESTINATION", "s3://snapshots")
	t.Setenv("SEEDVAULT_S3_ACCESS_KEY", "key")

	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"export", "models.hcl"}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "postgres://env-host/app", cfg.DatabaseURL)
	assert.Equal(t, "s3://snapshots", cfg.Destination)
	assert.Equal(t, "key", cfg.S3.AccessKey)
}

func TestParseUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse(baseArgs("sync", "models.hcl"), &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "unknown command")
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseHelp(t *testing.T) {
	var out bytes.Buffer
	_, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseMissingConfigPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(baseArgs("export"), &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseInvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse(baseArgs("export", "-log-level", "loud", "models.hcl"), &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "log-level")
}

func TestParseInvalidFlag(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse(baseArgs("export", "--this-is-not-a-valid-flag"), &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
