package ledger

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/scoring"
)

// store handles all database operations for the ledger.
type store struct {
	db           *sql.DB
	mu           sync.Mutex
	defaultRules *scoring.RuleSet
}

// Role is a member's role within a club.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Club struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	DefaultRules *scoring.RuleSet `json:"defaultRules,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Rules returns the club's default rules, falling back to scoring.Defaults.
func (c *Club) Rules() scoring.RuleSet {
	if c.DefaultRules == nil {
		return scoring.Defaults()
	}
	return *c.DefaultRules
}

type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member is a user's membership of a club.
type Member struct {
	ClubID      string    `json:"clubId"`
	UserID      string    `json:"userId"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// ParseRole accepts the roles a member can be given.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleMember:
		return r, true
	}
	return "", false
}

type CompetitionType string

const (
	CompetitionChampionship CompetitionType = "championship"
	CompetitionTournament   CompetitionType = "tournament"
)

type CompetitionStatus string

const (
	CompetitionDraft    CompetitionStatus = "draft"
	CompetitionActive   CompetitionStatus = "active"
	CompetitionArchived CompetitionStatus = "archived"
)

// TournamentState tracks round progress. ActiveRoundNumber is nil when no
// round is active.
type TournamentState struct {
	ActiveRoundNumber  *int `json:"activeRoundNumber"`
	LastCompletedRound int  `json:"lastCompletedRound"`
}

type Competition struct {
	ID                string             `json:"id"`
	ClubID            string             `json:"clubId"`
	Name              string             `json:"name"`
	Type              CompetitionType    `json:"type"`
	Status            CompetitionStatus  `json:"status"`
	RulesMode         scoring.RulesMode  `json:"rulesMode"`
	OverrideRules     *scoring.Overrides `json:"overrideRules,omitempty"`
	ValidationEnabled bool               `json:"validationEnabled"`
	ParticipantIDs    []string           `json:"participantIds,omitempty"`
	TotalRounds       int                `json:"totalRounds,omitempty"`
	PairingAlgorithm  pairing.Algorithm  `json:"pairingAlgorithm,omitempty"`
	TournamentState   TournamentState    `json:"tournamentState"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// ResolveRules returns the rules games in this competition are scored with.
func (c *Competition) ResolveRules(club *Club) scoring.RuleSet {
	return scoring.Resolve(club.Rules(), c.RulesMode, c.OverrideRules)
}

type GameStatus string

const (
	GamePendingValidation GameStatus = "pending_validation"
	GameValidated         GameStatus = "validated"
	GameDisputed          GameStatus = "disputed"
	GameCancelled         GameStatus = "cancelled"
)

type ProposalKind string

const (
	KindCreate ProposalKind = "create"
	KindEdit   ProposalKind = "edit"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending_validation"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// PendingAction points a game at the proposal currently being voted on.
type PendingAction struct {
	Kind       ProposalKind `json:"kind"`
	ProposalID string       `json:"proposalId"`
}

// TournamentContext links a game or proposal to a tournament table.
type TournamentContext struct {
	CompetitionID string `json:"competitionId"`
	RoundID       string `json:"roundId"`
	TableIndex    int    `json:"tableIndex"`
}

type Game struct {
	ID              string             `json:"id"`
	ClubID          string             `json:"clubId"`
	Status          GameStatus         `json:"status"`
	Participants    []string           `json:"participants"`
	CompetitionIDs  []string           `json:"competitionIds"`
	ActiveVersionID string             `json:"activeVersionId,omitempty"`
	PendingAction   *PendingAction     `json:"pendingAction,omitempty"`
	Tournament      *TournamentContext `json:"tournamentContext,omitempty"`
	CreatedBy       string             `json:"createdBy"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Version is an immutable snapshot of an agreed game result.
type Version struct {
	ID             string          `json:"id"`
	GameID         string          `json:"gameId"`
	ClubID         string          `json:"clubId"`
	VersionNumber  int             `json:"versionNumber"`
	Participants   []string        `json:"participants"`
	FinalScores    map[string]int  `json:"finalScores"`
	CompetitionIDs []string        `json:"competitionIds"`
	Rules          scoring.RuleSet `json:"rulesSnapshot"`
	Computed       scoring.Outcome `json:"computed"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Leaderboard returns the view of v used for leaderboard deltas.
func (v *Version) Leaderboard() leaderboard.Version {
	return leaderboard.Version{
		ClubID:         v.ClubID,
		Participants:   v.Participants,
		CompetitionIDs: v.CompetitionIDs,
		Computed:       v.Computed,
	}
}

// ProposedVersion is the result a proposal wants to make authoritative.
type ProposedVersion struct {
	Participants   []string       `json:"participants"`
	FinalScores    map[string]int `json:"finalScores"`
	CompetitionIDs []string       `json:"competitionIds"`
}

type Proposal struct {
	ID              string             `json:"id"`
	ClubID          string             `json:"clubId"`
	GameID          string             `json:"gameId"`
	Kind            ProposalKind       `json:"type"`
	Status          ProposalStatus     `json:"status"`
	FromVersionID   string             `json:"fromVersionId,omitempty"`
	Proposed        ProposedVersion    `json:"proposedVersion"`
	Rules           scoring.RuleSet    `json:"resolvedRulesSnapshot"`
	Preview         scoring.Outcome    `json:"computedPreview"`
	Validation      approval.Record    `json:"validation"`
	Tournament      *TournamentContext `json:"tournamentContext,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
	CreatedBy       string             `json:"createdBy"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// RequestKind tells a voter what a validation request is about.
type RequestKind string

const (
	RequestGameCreate RequestKind = "game_create"
	RequestGameEdit   RequestKind = "game_edit"
)

// RequestKind maps a proposal kind to the kind of its validation requests.
func (k ProposalKind) RequestKind() RequestKind {
	if k == KindEdit {
		return RequestGameEdit
	}
	return RequestGameCreate
}

// ValidationRequest is a voter's inbox entry for a proposal.
type ValidationRequest struct {
	ID         string          `json:"id"`
	ClubID     string          `json:"clubId"`
	UserID     string          `json:"userId"`
	Kind       RequestKind     `json:"type"`
	ProposalID string          `json:"proposalId"`
	GameID     string          `json:"gameId"`
	Status     approval.Status `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ValidationRequestID is the id of userID's request for proposalID.
func ValidationRequestID(proposalID, userID string) string {
	return proposalID + "_" + userID
}

type RoundStatus string

const (
	RoundScheduled RoundStatus = "scheduled"
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

type TableStatus string

const (
	TableAwaitingResult    TableStatus = "awaiting_result"
	TablePendingValidation TableStatus = "pending_validation"
	TableValidated         TableStatus = "validated"
	TableDisputed          TableStatus = "disputed"
)

type RoundTable struct {
	TableIndex int         `json:"tableIndex"`
	PlayerIDs  []string    `json:"playerIds"`
	Status     TableStatus `json:"status"`
	ProposalID string      `json:"proposalId,omitempty"`
	GameID     string      `json:"gameId,omitempty"`
}

type Round struct {
	ID            string             `json:"id"`
	ClubID        string             `json:"clubId"`
	CompetitionID string             `json:"competitionId"`
	RoundNumber   int                `json:"roundNumber"`
	Status        RoundStatus        `json:"status"`
	Tables        map[int]RoundTable `json:"tables"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// RoundID is the id of a competition's nth round.
func RoundID(competitionID string, roundNumber int) string {
	return fmt.Sprintf("%s_round_%02d", competitionID, roundNumber)
}

// NewRound builds a round whose tables all await a result.
func NewRound(clubID, competitionID string, roundNumber int, status RoundStatus, tables []pairing.Table) *Round {
	r := &Round{
		ID:            RoundID(competitionID, roundNumber),
		ClubID:        clubID,
		CompetitionID: competitionID,
		RoundNumber:   roundNumber,
		Status:        status,
		Tables:        make(map[int]RoundTable, len(tables)),
	}
	for _, t := range tables {
		r.Tables[t.TableIndex] = RoundTable{
			TableIndex: t.TableIndex,
			PlayerIDs:  t.PlayerIDs,
			Status:     TableAwaitingResult,
		}
	}
	return r
}

// Pairings returns the round's tables ordered by index.
func (r *Round) Pairings() []pairing.Table {
	out := make([]pairing.Table, 0, len(r.Tables))
	for i := 0; i < len(r.Tables); i++ {
		if t, ok := r.Tables[i]; ok {
			out = append(out, pairing.Table{TableIndex: t.TableIndex, PlayerIDs: t.PlayerIDs})
		}
	}
	return out
}

// AllValidated reports whether every table has a validated result.
func (r *Round) AllValidated() bool {
	if len(r.Tables) == 0 {
		return false
	}
	for _, t := range r.Tables {
		if t.Status != TableValidated {
			return false
		}
	}
	return true
}
