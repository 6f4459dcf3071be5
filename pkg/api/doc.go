// Package api serves the contact form gateway over plain HTTP for
// deployments that run a long-lived process instead of a function runtime.
// It also exposes /healthz and /metrics.
package api
