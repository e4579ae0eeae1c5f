package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	UseLogger(zap.New(core))
	t.Cleanup(func() { UseLogger(nil) })
	return logs
}

func TestCategoryLoggersAreNamed(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Get(CategoryPerception).Info("routed %q", "resumo")
	ArticulationDebug("composed %d sections", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "perception", entries[0].LoggerName)
	assert.Equal(t, `routed "resumo"`, entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "articulation", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	SetCategories(map[string]bool{"store": false})

	Store("should not appear")
	Core("should appear")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "core", entries[0].LoggerName)
	assert.False(t, IsCategoryEnabled(CategoryStore))
	assert.True(t, IsCategoryEnabled(CategoryWatch))
}

func TestNoopBeforeInitialize(t *testing.T) {
	UseLogger(nil)
	assert.NotPanics(t, func() {
		Get(CategoryBoot).Error("nothing listens %d", 1)
		_ = StartTimer(CategoryCore, "noop").Stop()
	})
}

func TestWithAddsFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Get(CategoryServer).With("request_id", "abc").Info("handled")

	entries := logs.FilterField(zap.String("request_id", "abc")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "handled", entries[0].Message)
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	timer := StartTimer(CategoryAggregation, "views")
	timer.start = time.Now().Add(-time.Second)
	timer.StopWithThreshold(10 * time.Millisecond)

	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.True(t, strings.HasPrefix(warn[0].Message, "views took"))
}

func TestInitializeWritesFile(t *testing.T) {
	t.Cleanup(func() { UseLogger(nil) })
	path := filepath.Join(t.TempDir(), "procintel.log")

	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", File: path}))
	Import("imported %d rows", 4)
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "imported 4 rows")
	assert.Contains(t, string(data), `"logger":"import"`)
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	err := Initialize(Config{Level: "loud"})
	assert.Error(t, err)
}
