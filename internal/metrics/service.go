package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ProposalsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_proposals_submitted_total",
			Help: "The total number of game proposals submitted, by kind.",
		}, []string{"kind"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_validation_decisions_total",
			Help: "The total number of approve/reject decisions recorded.",
		}, []string{"decision"}),
		ProposalsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_proposals_accepted_total",
			Help: "The total number of proposals committed as a new game version.",
		}),
		RoundsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_tournament_rounds_created_total",
			Help: "The total number of tournament rounds activated, by pairing algorithm.",
		}, []string{"algorithm"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_commit_duration_seconds",
			Help:    "The duration of proposal commit transactions.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_notifications_sent_total",
			Help: "The total number of validation notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_notifications_failed_total",
			Help: "The total number of validation notifications that failed to send.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_events_published_total",
			Help: "The total number of domain events published, by type.",
		}, []string{"type"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ProposalsSubmitted,
		s.Decisions,
		s.ProposalsAccepted,
		s.RoundsCreated,
		s.CommitDuration,
		s.NotifSent,
		s.NotifFailed,
		s.EventsPublished,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncProposalsSubmitted(kind string) {
	s.ProposalsSubmitted.WithLabelValues(kind).Inc()
}

func (s *Service) IncDecisions(decision string) {
	s.Decisions.WithLabelValues(decision).Inc()
}

func (s *Service) IncProposalsAccepted() {
	s.ProposalsAccepted.Inc()
}

func (s *Service) IncRoundsCreated(algorithm string) {
	s.RoundsCreated.WithLabelValues(algorithm).Inc()
}

func (s *Service) ObserveCommitDuration(duration float64) {
	s.CommitDuration.Observe(duration)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) IncEventsPublished(eventType string) {
	s.EventsPublished.WithLabelValues(eventType).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
