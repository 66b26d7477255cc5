package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. Each
// event type is published to the topic of the same name.
type EventType string

const (
	EventProposalAccepted EventType = "proposal-accepted"
	EventProposalRejected EventType = "proposal-rejected"
	EventRoundActivated   EventType = "round-activated"
)

// LeaderboardChange is one applied leaderboard delta.
type LeaderboardChange struct {
	Scope         string  `msgpack:"scope"`
	CompetitionID string  `msgpack:"competition_id,omitempty"`
	UserID        string  `msgpack:"user_id"`
	Points        float64 `msgpack:"points"`
	Games         int     `msgpack:"games"`
}

// ProposalAccepted is published after a proposal became a game version.
type ProposalAccepted struct {
	ClubID        string              `msgpack:"club_id"`
	GameID        string              `msgpack:"game_id"`
	ProposalID    string              `msgpack:"proposal_id"`
	VersionID     string              `msgpack:"version_id"`
	VersionNumber int                 `msgpack:"version_number"`
	Changes       []LeaderboardChange `msgpack:"changes"`
	AcceptedAt    time.Time           `msgpack:"accepted_at"`
}

// ProposalRejected is published after a voter rejected a proposal.
type ProposalRejected struct {
	ClubID     string    `msgpack:"club_id"`
	GameID     string    `msgpack:"game_id"`
	ProposalID string    `msgpack:"proposal_id"`
	RejectedBy string    `msgpack:"rejected_by"`
	Reason     string    `msgpack:"reason,omitempty"`
	RejectedAt time.Time `msgpack:"rejected_at"`
}

// RoundActivated is published when a tournament round becomes active.
type RoundActivated struct {
	ClubID        string     `msgpack:"club_id"`
	CompetitionID string     `msgpack:"competition_id"`
	RoundID       string     `msgpack:"round_id"`
	RoundNumber   int        `msgpack:"round_number"`
	Tables        [][]string `msgpack:"tables"`
}
