package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	ProposalsSubmitted *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	ProposalsAccepted  prometheus.Counter
	RoundsCreated      *prometheus.CounterVec
	CommitDuration     prometheus.Histogram
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	EventsPublished    *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}
