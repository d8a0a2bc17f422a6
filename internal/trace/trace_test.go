package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledByDefault(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "")
	require.NoError(t, Init())
	assert.False(t, Enabled())

	ctx, span := StartCycleSpan(context.Background(), time.Now())
	defer span.End()
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
}

func TestSpansWrittenToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")
	t.Setenv("LOG_TRACING_ENABLED", "true")
	t.Setenv("LOG_TRACING_FILE", path)
	require.NoError(t, Init())
	t.Cleanup(func() { enabled = false })

	ctx, span := StartOracleSpan(context.Background(), "noop", 3)
	traceID, _, ok := GetTraceFields(ctx)
	span.End()
	require.True(t, ok)
	require.NoError(t, Shutdown(context.Background()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "oracle.Complete")
	assert.Contains(t, string(b), traceID)
	assert.Contains(t, string(b), "oracle.backend")
}
