package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutboxMetrics(t *testing.T) {
	m := NewOutboxMetrics(prometheus.NewRegistry())

	m.RecordPublish("sent")
	m.RecordPublish("sent")
	m.RecordPublish("retry_error")
	m.SetBacklog(3, 1500*time.Millisecond)

	if got := testutil.ToFloat64(m.publishAttempts.WithLabelValues("sent")); got != 2 {
		t.Errorf("expected 2 sent attempts, got %v", got)
	}
	if got := testutil.ToFloat64(m.pending); got != 3 {
		t.Errorf("expected pending 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.oldestAge); got != 1.5 {
		t.Errorf("expected oldest age 1.5s, got %v", got)
	}

	m.SetBacklog(0, -time.Second)
	if got := testutil.ToFloat64(m.oldestAge); got != 0 {
		t.Errorf("negative age must be clamped, got %v", got)
	}
}

func TestOutboxMetrics_SharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := NewOutboxMetrics(registry)
	second := NewOutboxMetrics(registry)

	first.RecordPublish("failed")
	if got := testutil.ToFloat64(second.publishAttempts.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected collectors to be shared, got %v", got)
	}
}

func TestOutboxMetrics_Nil(t *testing.T) {
	var m *OutboxMetrics
	m.RecordPublish("sent")
	m.SetBacklog(1, time.Second)
}
