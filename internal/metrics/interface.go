package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncProposalsSubmitted(kind string)
	IncDecisions(decision string)
	IncProposalsAccepted()
	IncRoundsCreated(algorithm string)
	ObserveCommitDuration(duration float64)
	IncNotifSent()
	IncNotifFailed()
	IncEventsPublished(eventType string)
	SetStartupTime(duration float64)
}
