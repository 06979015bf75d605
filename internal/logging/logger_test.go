package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactMasksSecrets(t *testing.T) {
	got := redact([]any{"username", "ana", "password", "hunter2", "jwt_token", "abc"})
	assert.Equal(t, []any{"username", "ana", "password", "[REDACTED]", "jwt_token", "[REDACTED]"}, got)
}

func TestRedactOddLength(t *testing.T) {
	got := redact([]any{"skill", "reading", "dangling"})
	assert.Equal(t, []any{"skill", "reading", "dangling"}, got)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("skill", "listening").Info("turn", "api_key", "k")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "listening", fields["skill"])
	assert.Equal(t, "[REDACTED]", fields["api_key"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestNewFileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.log")
	l, err := NewFile(path, "debug")
	require.NoError(t, err)

	l.Debug("item served", "skill", "reading", "password", "pw")
	l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"item served"`)
	assert.Contains(t, string(b), `"password":"[REDACTED]"`)
}
