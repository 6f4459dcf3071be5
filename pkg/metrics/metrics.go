package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes used as the "outcome" label of SubmissionsTotal.
const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalid       = "invalid"
	OutcomeMisconfigured = "misconfigured"
	OutcomeFailed        = "failed"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_relay_requests_total",
		Help: "Total number of gateway invocations by HTTP method and response code",
	}, []string{"method", "code"})
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_relay_submissions_total",
		Help: "Total number of POSTed contact form submissions by outcome",
	}, []string{"outcome"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_relay_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_relay_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})
	MailSendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contact_relay_mail_send_duration_seconds",
		Help:    "Duration of SMTP sessions, from connect to quit",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(MailSendDuration)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
