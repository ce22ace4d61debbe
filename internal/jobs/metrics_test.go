package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsRunOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if err := metrics.Track("mail:send").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("smtp down")
	if err := metrics.Track("mail:send").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected tracker to return the job error, got: %v", err)
	}

	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("mail:send")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("mail:send", "success")); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
}

func TestAddAttendanceCountsBySchoolAndState(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.AddAttendance(1, "checked_in", 12)
	metrics.AddAttendance(1, "checked_out", 9)
	metrics.AddAttendance(1, "checked_out", 0)

	if got := testutil.ToFloat64(metrics.attendance.WithLabelValues("1", "checked_in")); got != 12 {
		t.Fatalf("expected 12 check-ins, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.attendance.WithLabelValues("1", "checked_out")); got != 9 {
		t.Fatalf("expected 9 check-outs, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics

	metrics.AddAttendance(1, "checked_in", 5)
	boom := errors.New("no pool")
	if err := metrics.Track("attendance:digest").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error passthrough, got: %v", err)
	}
}
