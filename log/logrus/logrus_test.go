package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/lockaside"
)

func TestForwardsLevelsAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Warn("lock wait timed out", lockaside.Fields{"lockKey": "lock:k"})

	e := hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, "lock wait timed out", e.Message)
	assert.Equal(t, "lock:k", e.Data["lockKey"])
	assert.Equal(t, "lockaside", e.Data["component"])
}
