package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("watch", "GET", "/health", 200, 12*time.Millisecond)

	before := testutil.ToFloat64(frames.WithLabelValues("checksum"))
	RecordRead("checksum", 30*time.Millisecond)
	if got := testutil.ToFloat64(frames.WithLabelValues("checksum")); got != before+1 {
		t.Fatalf("frames_total{result=checksum} = %v want %v", got, before+1)
	}

	before = testutil.ToFloat64(authAttempts.WithLabelValues("success"))
	RecordAuth("success")
	if got := testutil.ToFloat64(authAttempts.WithLabelValues("success")); got != before+1 {
		t.Fatalf("auth attempts = %v want %v", got, before+1)
	}
}
