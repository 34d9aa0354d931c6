package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())

	m.ObserveReply("nova-simulator", 20*time.Millisecond)
	m.ObserveReply("nova-simulator", 30*time.Millisecond)
	m.ObserveFailure()
	m.ObserveClear(true)
	m.ObserveClear(false)
	m.SetStoreSize(3, 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clears.WithLabelValues("cleared")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clears.WithLabelValues("not_found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.turns))
	assert.Equal(t, 1, testutil.CollectAndCount(m.replyDuration))
}

func TestMustNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg)
	assert.Panics(t, func() { MustNew(reg) })
}
