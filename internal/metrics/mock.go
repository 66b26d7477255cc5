package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	proposalsSubmitted map[string]int
	decisions          map[string]int
	proposalsAccepted  int
	roundsCreated      map[string]int
	commitDurations    []float64
	notifSent          int
	notifFailed        int
	eventsPublished    map[string]int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		proposalsSubmitted: make(map[string]int),
		decisions:          make(map[string]int),
		roundsCreated:      make(map[string]int),
		commitDurations:    make([]float64, 0),
		eventsPublished:    make(map[string]int),
	}
}

func (m *Mock) IncProposalsSubmitted(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalsSubmitted[kind]++
}

func (m *Mock) IncDecisions(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[decision]++
}

func (m *Mock) IncProposalsAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalsAccepted++
}

func (m *Mock) IncRoundsCreated(algorithm string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roundsCreated[algorithm]++
}

func (m *Mock) ObserveCommitDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitDurations = append(m.commitDurations, duration)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) IncEventsPublished(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished[eventType]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ProposalsSubmitted returns how often IncProposalsSubmitted was called for kind.
func (m *Mock) ProposalsSubmitted(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposalsSubmitted[kind]
}

// Decisions returns how often IncDecisions was called for decision.
func (m *Mock) Decisions(decision string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisions[decision]
}

// ProposalsAccepted returns the number of times IncProposalsAccepted was called.
func (m *Mock) ProposalsAccepted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposalsAccepted
}

// RoundsCreated returns how often IncRoundsCreated was called for algorithm.
func (m *Mock) RoundsCreated(algorithm string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundsCreated[algorithm]
}

// CommitDurations returns every observed commit duration.
func (m *Mock) CommitDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.commitDurations...)
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}

// EventsPublished returns how often IncEventsPublished was called for eventType.
func (m *Mock) EventsPublished(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsPublished[eventType]
}
