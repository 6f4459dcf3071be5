package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestMetricsIncrement(t *testing.T) {
	RequestsTotal.WithLabelValues("POST", "200").Inc()
	if v := testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "200")); v < 1 {
		t.Fatalf("expected RequestsTotal >= 1, got %v", v)
	}

	SubmissionsTotal.WithLabelValues(OutcomeInvalid).Add(2)
	if v := testutil.ToFloat64(SubmissionsTotal.WithLabelValues(OutcomeInvalid)); v < 2 {
		t.Fatalf("expected SubmissionsTotal >= 2, got %v", v)
	}
}

func TestMailMetricsIncrement(t *testing.T) {
	host := "test-mail"
	MailSendSuccess.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(MailSendSuccess.WithLabelValues(host)); v < 1 {
		t.Fatalf("expected MailSendSuccess >= 1, got %v", v)
	}
	MailSendFailure.WithLabelValues(host).Inc()
	if v := testutil.ToFloat64(MailSendFailure.WithLabelValues(host)); v < 1 {
		t.Fatalf("expected MailSendFailure >= 1, got %v", v)
	}
	MailSendDuration.WithLabelValues(host).Observe(0.2)
	if n := testutil.CollectAndCount(MailSendDuration, "contact_relay_mail_send_duration_seconds"); n < 1 {
		t.Fatalf("expected at least one duration series, got %d", n)
	}
}

func TestMetricsHandlerExposesRelayMetrics(t *testing.T) {
	SubmissionsTotal.WithLabelValues(OutcomeAccepted).Inc()

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "contact_relay_submissions_total") {
		t.Fatalf("expected contact_relay_submissions_total in metrics output")
	}
}
