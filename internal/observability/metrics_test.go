package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordBusinessEvents(t *testing.T) {
	m := NewMetrics()
	m.SubmissionScored(true, 95)
	m.SubmissionScored(false, 40)
	m.SubmissionScored(false, 60)
	m.CertificateRendered("pdf")

	if got := testutil.ToFloat64(m.submissions.WithLabelValues("false")); got != 2 {
		t.Fatalf("expected 2 ineligible submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.certificates.WithLabelValues("pdf")); got != 1 {
		t.Fatalf("expected 1 pdf render, got %v", got)
	}
}

func TestMetricsHandlerExposesAPIMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/questions", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `assessment_api_requests_total{method="GET",route="/api/questions",status="200"} 1`) {
		t.Fatalf("expected api counter in exposition, got:\n%s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.SubmissionScored(true, 100)
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
	m.FeedClientConnected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("expected 503 from nil metrics, got %d", rec.Code)
	}
}
