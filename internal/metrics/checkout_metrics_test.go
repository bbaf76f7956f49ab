package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCheckoutMetrics(t *testing.T) {
	metrics := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics.attempts == nil {
		t.Error("attempts counter vec should not be nil")
	}
	if metrics.rejections == nil {
		t.Error("rejections counter vec should not be nil")
	}
	if metrics.attemptDuration == nil {
		t.Error("attemptDuration histogram should not be nil")
	}
	if metrics.remoteDuration == nil {
		t.Error("remoteDuration histogram vec should not be nil")
	}
	if metrics.inFlight == nil {
		t.Error("inFlight gauge should not be nil")
	}
}

func TestRecordAttempt(t *testing.T) {
	metrics := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordAttempt("succeeded", "", 20*time.Millisecond)
	metrics.RecordAttempt("rejected", "empty-cart", time.Millisecond)
	metrics.RecordAttempt("rejected", "timeout", 10*time.Second)

	if got := testutil.ToFloat64(metrics.attempts.WithLabelValues("rejected")); got != 2 {
		t.Errorf("expected 2 rejected attempts, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.attempts.WithLabelValues("succeeded")); got != 1 {
		t.Errorf("expected 1 succeeded attempt, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.rejections.WithLabelValues("timeout")); got != 1 {
		t.Errorf("expected 1 timeout rejection, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.rejections); got != 2 {
		t.Errorf("expected 2 reason series, got %d", got)
	}
}

func TestRecordInFlight(t *testing.T) {
	metrics := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordInFlightStarted()
	metrics.RecordInFlightStarted()
	metrics.RecordInFlightFinished()

	if got := testutil.ToFloat64(metrics.inFlight); got != 1 {
		t.Errorf("expected 1 in-flight attempt, got %v", got)
	}
}

func TestRegisterReturnsExistingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewCheckoutMetricsWithRegisterer(reg)
	second := NewCheckoutMetricsWithRegisterer(reg)

	first.RecordOutboxEvent()
	second.RecordOutboxEvent()

	if got := testutil.ToFloat64(first.outboxEvents); got != 2 {
		t.Errorf("expected shared counter value 2, got %v", got)
	}
}

func TestRecordCartMutation(t *testing.T) {
	metrics := NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordCartMutation("add")
	metrics.RecordCartMutation("add")
	metrics.RecordCartMutation("remove")

	if got := testutil.ToFloat64(metrics.cartMutations.WithLabelValues("add")); got != 2 {
		t.Errorf("expected 2 add mutations, got %v", got)
	}
}
