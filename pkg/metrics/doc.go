// Package metrics defines Prometheus metrics for the contact relay, covering
// gateway requests, submission outcomes and mail delivery.
package metrics
