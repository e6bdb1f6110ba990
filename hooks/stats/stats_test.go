package statshook_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bool64/stats"
	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/lockaside"
	statshook "github.com/unkn0wn-root/lockaside/hooks/stats"
)

func TestCountsEvents(t *testing.T) {
	st := &stats.TrackerMock{}
	h := statshook.New(st, "users")

	h.Miss("k", lockaside.ShapeScalar)
	h.Hit("k", lockaside.ShapeScalar)
	h.Hit("k", lockaside.ShapeList)
	h.Loaded("k", lockaside.ShapeScalar, 2*time.Second)
	h.LoadFailed("k", lockaside.ShapeMap, errors.New("boom"))
	h.LockWait("lock:k", time.Second, true)
	h.LockWait("lock:k", time.Second, false)
	h.LockReleaseMissed("lock:k")
	h.SelfHeal("k", "corrupt")

	assert.Equal(t, 2, st.Int(statshook.MetricHit))
	assert.Equal(t, 1, st.Int(statshook.MetricMiss))
	assert.Equal(t, 1, st.Int(statshook.MetricLoad))
	assert.Equal(t, 2, st.Int(statshook.MetricLoadSeconds))
	assert.Equal(t, 1, st.Int(statshook.MetricLoadFailed))
	assert.Equal(t, 1, st.Int(statshook.MetricLockAcquired))
	assert.Equal(t, 1, st.Int(statshook.MetricLockTimeout))
	assert.Equal(t, 2, st.Int(statshook.MetricLockWaitSeconds))
	assert.Equal(t, 1, st.Int(statshook.MetricLockReleaseMissed))
	assert.Equal(t, 1, st.Int(statshook.MetricSelfHeal))
	assert.Zero(t, st.Int(statshook.MetricNearSetRejected))
}

func TestNilTrackerIsNoOp(t *testing.T) {
	h := statshook.New(nil, "x")
	assert.NotPanics(t, func() { h.Hit("k", lockaside.ShapeScalar) })
}
