package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleRendersCounterAndLabel(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsole(&buf)

	sink.Start(3)
	sink.Update("auth.User (default)", 1)
	sink.Update("sessions.Session (default)", 2)
	sink.Done()

	out := buf.String()
	assert.Contains(t, out, "units")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "auth.User (default)")
	assert.Contains(t, out, "2/3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestSlogSinkLogsUpdates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sink := NewSlog(logger)
	sink.Start(2)
	sink.Update("auth.User (default)", 1)
	sink.Done()

	out := buf.String()
	require.Contains(t, out, "units=2")
	assert.Contains(t, out, "auth.User (default)")
	assert.Contains(t, out, "completed=1")
}

func TestNoopIsSafe(t *testing.T) {
	var sink Sink = Noop{}
	sink.Start(1)
	sink.Update("x", 1)
	sink.Done()
}
