package ctxd

import (
	"testing"

	"github.com/bool64/ctxd"
	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/lockaside"
)

func TestForwardsFields(t *testing.T) {
	m := &ctxd.LoggerMock{}
	l := Logger{L: m}

	l.Info("loaded", lockaside.Fields{"key": "user:1"})

	out := m.String()
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "user:1")
}
