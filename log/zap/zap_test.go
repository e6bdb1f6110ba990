package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/lockaside"
)

func TestForwardsLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("populated while waiting for lock; loader skipped", lockaside.Fields{"key": "k"})
	l.Error("lock release failed", lockaside.Fields{"err": errors.New("conn reset")})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "lockaside", entries[0].LoggerName)
	assert.Equal(t, "k", entries[0].ContextMap()["key"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "conn reset", entries[1].ContextMap()["err"])
}
