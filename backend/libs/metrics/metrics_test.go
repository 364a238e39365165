package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveIngestAndQuery(t *testing.T) {
	Init(nil)

	before := testutil.ToFloat64(ingestRequests.WithLabelValues(ResultRejected))
	ObserveIngest(ResultRejected, 3*time.Millisecond)
	if got := testutil.ToFloat64(ingestRequests.WithLabelValues(ResultRejected)); got != before+1 {
		t.Fatalf("ingest counter: got=%v want=%v", got, before+1)
	}

	IncIngestError("")
	if got := testutil.ToFloat64(ingestErrors.WithLabelValues("unknown")); got < 1 {
		t.Fatalf("expected unknown reason to be counted, got %v", got)
	}

	ObserveQuery("node", ResultNotFound, time.Millisecond)
	if got := testutil.ToFloat64(queryRequests.WithLabelValues("node", ResultNotFound)); got < 1 {
		t.Fatalf("expected query to be counted, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	Init(nil)
	ObserveIngest(ResultSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "uei_ingest_requests_total") {
		t.Fatalf("ingest counter missing from exposition")
	}
}
