package slog

import (
	"bytes"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/lockaside"
)

func TestRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelWarn}))}

	l.Debug("dropped", lockaside.Fields{"key": "k"})
	l.Warn("write-back failed", lockaside.Fields{"key": "k"})

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "write-back failed")
	assert.Contains(t, out, "key=k")
}
