package metrics_test

import (
	"errors"
	"portfolio-site/internal/metrics"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSave(t *testing.T) {
	success := metrics.EditorSavesTotal.WithLabelValues("blog", "insert", "success")
	failure := metrics.EditorSavesTotal.WithLabelValues("blog", "insert", "failure")
	initialSuccess, initialFailure := testutil.ToFloat64(success), testutil.ToFloat64(failure)

	metrics.ObserveSave("blog", "insert", nil)
	metrics.ObserveSave("blog", "insert", errors.New("boom"))
	metrics.ObserveSave("blog", "insert", errors.New("boom"))

	if got := testutil.ToFloat64(success) - initialSuccess; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failure) - initialFailure; got != 2 {
		t.Errorf("failure delta = %v, want 2", got)
	}
}

func TestObserveCacheLookup(t *testing.T) {
	hit := metrics.ContentCacheLookups.WithLabelValues("hit")
	miss := metrics.ContentCacheLookups.WithLabelValues("miss")
	initialHit, initialMiss := testutil.ToFloat64(hit), testutil.ToFloat64(miss)

	metrics.ObserveCacheLookup(true)
	metrics.ObserveCacheLookup(false)

	if got := testutil.ToFloat64(hit) - initialHit; got != 1 {
		t.Errorf("hit delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(miss) - initialMiss; got != 1 {
		t.Errorf("miss delta = %v, want 1", got)
	}
}
