package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/scoring"
)

// Option configures a Store.
type Option func(*store)

// WithDefaultRules sets the rules used by clubs that have no default rules
// of their own.
func WithDefaultRules(rules scoring.RuleSet) Option {
	return func(s *store) { s.defaultRules = &rules }
}

// New creates a new Store backed by db.
func New(db *sql.DB, opts ...Option) Store {
	s := &store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// querier is what *sql.DB and *sql.Tx have in common.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Tx on top of a querier.
type queries struct {
	q            querier
	defaultRules *scoring.RuleSet
}

type scanner interface{ Scan(...any) error }

func (s *store) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&queries{q: tx, defaultRules: s.defaultRules}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *store) reader() *queries { return &queries{q: s.db, defaultRules: s.defaultRules} }

func (s *store) GetClub(ctx context.Context, clubID string) (*Club, error) {
	return s.reader().GetClub(ctx, clubID)
}

func (s *store) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.reader().GetUser(ctx, userID)
}

func (s *store) GetMember(ctx context.Context, clubID, userID string) (*Member, error) {
	return s.reader().GetMember(ctx, clubID, userID)
}

func (s *store) ListMembers(ctx context.Context, clubID string) ([]Member, error) {
	return s.reader().ListMembers(ctx, clubID)
}

func (s *store) GetCompetition(ctx context.Context, clubID, competitionID string) (*Competition, error) {
	return s.reader().GetCompetition(ctx, clubID, competitionID)
}

func (s *store) GetGame(ctx context.Context, gameID string) (*Game, error) {
	return s.reader().GetGame(ctx, gameID)
}

func (s *store) GetVersion(ctx context.Context, versionID string) (*Version, error) {
	return s.reader().GetVersion(ctx, versionID)
}

func (s *store) ListVersions(ctx context.Context, gameID string) ([]Version, error) {
	return s.reader().ListVersions(ctx, gameID)
}

func (s *store) GetProposal(ctx context.Context, proposalID string) (*Proposal, error) {
	return s.reader().GetProposal(ctx, proposalID)
}

func (s *store) GetValidationRequest(ctx context.Context, requestID string) (*ValidationRequest, error) {
	return s.reader().GetValidationRequest(ctx, requestID)
}

func (s *store) ListValidationRequests(ctx context.Context, userID string, status approval.Status) ([]ValidationRequest, error) {
	return s.reader().ListValidationRequests(ctx, userID, status)
}

func (s *store) GetRound(ctx context.Context, roundID string) (*Round, error) {
	return s.reader().GetRound(ctx, roundID)
}

func (s *store) ListRounds(ctx context.Context, competitionID string) ([]Round, error) {
	return s.reader().ListRounds(ctx, competitionID)
}

func (s *store) ListLeaderboard(ctx context.Context, clubID, competitionID string) ([]leaderboard.Entry, error) {
	return s.reader().ListLeaderboard(ctx, clubID, competitionID)
}

// Timestamps are stored as unix milliseconds.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// toNullJSON stores nil pointers as NULL.
func toNullJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	s, err := toJSON(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func fromNullJSON[T any](s sql.NullString) (*T, error) {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (q *queries) GetClub(ctx context.Context, clubID string) (*Club, error) {
	var (
		c         Club
		rulesJSON sql.NullString
		created   int64
	)
	err := q.q.QueryRowContext(ctx,
		`SELECT id, name, default_rules_json, created_at FROM clubs WHERE id = ?`, clubID,
	).Scan(&c.ID, &c.Name, &rulesJSON, &created)
	if err != nil {
		return nil, notFound("club", clubID, err)
	}
	if c.DefaultRules, err = fromNullJSON[scoring.RuleSet](rulesJSON); err != nil {
		return nil, fmt.Errorf("failed to decode rules of club %s: %w", clubID, err)
	}
	if c.DefaultRules == nil && q.defaultRules != nil {
		rules := *q.defaultRules
		c.DefaultRules = &rules
	}
	c.CreatedAt = fromMillis(created)
	return &c, nil
}

func (q *queries) PutClub(ctx context.Context, c *Club) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	rules, err := toNullJSON(c.DefaultRules)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO clubs (id, name, default_rules_json, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			default_rules_json = excluded.default_rules_json
	`, c.ID, c.Name, rules, toMillis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save club %s: %w", c.ID, err)
	}
	return nil
}

func (q *queries) GetUser(ctx context.Context, userID string) (*User, error) {
	var (
		u       User
		created int64
	)
	err := q.q.QueryRowContext(ctx,
		`SELECT id, display_name, email, created_at FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &created)
	if err != nil {
		return nil, notFound("user", userID, err)
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (q *queries) PutUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email
	`, u.ID, u.DisplayName, u.Email, toMillis(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.ID, err)
	}
	return nil
}

const memberColumns = `club_id, user_id, role, display_name, joined_at, updated_at`

func scanMember(row scanner) (*Member, error) {
	var (
		m               Member
		joined, updated int64
	)
	if err := row.Scan(&m.ClubID, &m.UserID, &m.Role, &m.DisplayName, &joined, &updated); err != nil {
		return nil, err
	}
	m.JoinedAt = fromMillis(joined)
	m.UpdatedAt = fromMillis(updated)
	return &m, nil
}

func (q *queries) GetMember(ctx context.Context, clubID, userID string) (*Member, error) {
	m, err := scanMember(q.q.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM club_members WHERE club_id = ? AND user_id = ?`, clubID, userID))
	if err != nil {
		return nil, notFound("member", clubID+"/"+userID, err)
	}
	return m, nil
}

func (q *queries) ListMembers(ctx context.Context, clubID string) ([]Member, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM club_members WHERE club_id = ? ORDER BY user_id`, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of club %s: %w", clubID, err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (q *queries) PutMember(ctx context.Context, m *Member) error {
	stamp(&m.JoinedAt, &m.UpdatedAt)
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO club_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(club_id, user_id) DO UPDATE SET
			role = excluded.role,
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`, m.ClubID, m.UserID, m.Role, m.DisplayName, toMillis(m.JoinedAt), toMillis(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save member %s/%s: %w", m.ClubID, m.UserID, err)
	}
	return nil
}

func (q *queries) GetCompetition(ctx context.Context, clubID, competitionID string) (*Competition, error) {
	var (
		c                   Competition
		overrides, partJSON sql.NullString
		active              sql.NullInt64
		created, updated    int64
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT id, club_id, name, type, status, rules_mode, override_rules_json, validation_enabled,
			participant_ids_json, total_rounds, pairing_algorithm, active_round_number, last_completed_round,
			created_at, updated_at
		FROM competitions WHERE id = ? AND club_id = ?
	`, competitionID, clubID).Scan(
		&c.ID, &c.ClubID, &c.Name, &c.Type, &c.Status, &c.RulesMode, &overrides, &c.ValidationEnabled,
		&partJSON, &c.TotalRounds, &c.PairingAlgorithm, &active, &c.TournamentState.LastCompletedRound,
		&created, &updated,
	)
	if err != nil {
		return nil, notFound("competition", competitionID, err)
	}
	if c.OverrideRules, err = fromNullJSON[scoring.Overrides](overrides); err != nil {
		return nil, fmt.Errorf("failed to decode overrides of competition %s: %w", competitionID, err)
	}
	if partJSON.Valid && partJSON.String != "" {
		if err := json.Unmarshal([]byte(partJSON.String), &c.ParticipantIDs); err != nil {
			log.Error("Failed to unmarshal participant_ids_json", "error", err, "competitionID", competitionID)
		}
	}
	if active.Valid {
		n := int(active.Int64)
		c.TournamentState.ActiveRoundNumber = &n
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}

func (q *queries) PutCompetition(ctx context.Context, c *Competition) error {
	stamp(&c.CreatedAt, &c.UpdatedAt)
	overrides, err := toNullJSON(c.OverrideRules)
	if err != nil {
		return err
	}
	participants, err := toJSON(c.ParticipantIDs)
	if err != nil {
		return err
	}
	var active sql.NullInt64
	if c.TournamentState.ActiveRoundNumber != nil {
		active = sql.NullInt64{Int64: int64(*c.TournamentState.ActiveRoundNumber), Valid: true}
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO competitions (id, club_id, name, type, status, rules_mode, override_rules_json, validation_enabled,
			participant_ids_json, total_rounds, pairing_algorithm, active_round_number, last_completed_round,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			status = excluded.status,
			rules_mode = excluded.rules_mode,
			override_rules_json = excluded.override_rules_json,
			validation_enabled = excluded.validation_enabled,
			participant_ids_json = excluded.participant_ids_json,
			total_rounds = excluded.total_rounds,
			pairing_algorithm = excluded.pairing_algorithm,
			active_round_number = excluded.active_round_number,
			last_completed_round = excluded.last_completed_round,
			updated_at = excluded.updated_at
	`, c.ID, c.ClubID, c.Name, c.Type, c.Status, c.RulesMode, overrides, c.ValidationEnabled,
		participants, c.TotalRounds, c.PairingAlgorithm, active, c.TournamentState.LastCompletedRound,
		toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save competition %s: %w", c.ID, err)
	}
	return nil
}

func (q *queries) GetGame(ctx context.Context, gameID string) (*Game, error) {
	var (
		g                         Game
		partJSON, compJSON        string
		activeVersion             sql.NullString
		pendingJSON, tournamentJS sql.NullString
		created, updated          int64
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT id, club_id, status, participants_json, competition_ids_json, active_version_id,
			pending_action_json, tournament_json, created_by, created_at, updated_at
		FROM games WHERE id = ?
	`, gameID).Scan(&g.ID, &g.ClubID, &g.Status, &partJSON, &compJSON, &activeVersion,
		&pendingJSON, &tournamentJS, &g.CreatedBy, &created, &updated)
	if err != nil {
		return nil, notFound("game", gameID, err)
	}
	if err := json.Unmarshal([]byte(partJSON), &g.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants of game %s: %w", gameID, err)
	}
	if err := json.Unmarshal([]byte(compJSON), &g.CompetitionIDs); err != nil {
		return nil, fmt.Errorf("failed to decode competitions of game %s: %w", gameID, err)
	}
	if g.PendingAction, err = fromNullJSON[PendingAction](pendingJSON); err != nil {
		return nil, fmt.Errorf("failed to decode pending action of game %s: %w", gameID, err)
	}
	if g.Tournament, err = fromNullJSON[TournamentContext](tournamentJS); err != nil {
		return nil, fmt.Errorf("failed to decode tournament context of game %s: %w", gameID, err)
	}
	g.ActiveVersionID = activeVersion.String
	g.CreatedAt = fromMillis(created)
	g.UpdatedAt = fromMillis(updated)
	return &g, nil
}

func (q *queries) PutGame(ctx context.Context, g *Game) error {
	stamp(&g.CreatedAt, &g.UpdatedAt)
	participants, err := toJSON(nonNil(g.Participants))
	if err != nil {
		return err
	}
	competitions, err := toJSON(nonNil(g.CompetitionIDs))
	if err != nil {
		return err
	}
	pending, err := toNullJSON(g.PendingAction)
	if err != nil {
		return err
	}
	tournament, err := toNullJSON(g.Tournament)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO games (id, club_id, status, participants_json, competition_ids_json, active_version_id,
			pending_action_json, tournament_json, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			participants_json = excluded.participants_json,
			competition_ids_json = excluded.competition_ids_json,
			active_version_id = excluded.active_version_id,
			pending_action_json = excluded.pending_action_json,
			tournament_json = excluded.tournament_json,
			updated_at = excluded.updated_at
	`, g.ID, g.ClubID, g.Status, participants, competitions, nullString(g.ActiveVersionID),
		pending, tournament, g.CreatedBy, toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", g.ID, err)
	}
	return nil
}

const versionColumns = `id, game_id, club_id, version_number, participants_json, final_scores_json,
	competition_ids_json, rules_json, computed_json, created_by, created_at`

func scanVersion(row scanner) (*Version, error) {
	var (
		v                                                Version
		partJSON, scoresJSON, compJSON, rulesJSON, compd string
		created                                          int64
	)
	if err := row.Scan(&v.ID, &v.GameID, &v.ClubID, &v.VersionNumber, &partJSON, &scoresJSON,
		&compJSON, &rulesJSON, &compd, &v.CreatedBy, &created); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{partJSON, &v.Participants},
		{scoresJSON, &v.FinalScores},
		{compJSON, &v.CompetitionIDs},
		{rulesJSON, &v.Rules},
		{compd, &v.Computed},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode version %s: %w", v.ID, err)
		}
	}
	v.CreatedAt = fromMillis(created)
	return &v, nil
}

func (q *queries) GetVersion(ctx context.Context, versionID string) (*Version, error) {
	v, err := scanVersion(q.q.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM game_versions WHERE id = ?`, versionID))
	if err != nil {
		return nil, notFound("version", versionID, err)
	}
	return v, nil
}

func (q *queries) ListVersions(ctx context.Context, gameID string) ([]Version, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM game_versions WHERE game_id = ? ORDER BY version_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of game %s: %w", gameID, err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

func (q *queries) CreateVersion(ctx context.Context, v *Version) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	encoded := make([]string, 0, 5)
	for _, src := range []any{nonNil(v.Participants), v.FinalScores, nonNil(v.CompetitionIDs), v.Rules, v.Computed} {
		s, err := toJSON(src)
		if err != nil {
			return err
		}
		encoded = append(encoded, s)
	}
	_, err := q.q.ExecContext(ctx, `INSERT INTO game_versions (`+versionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.GameID, v.ClubID, v.VersionNumber, encoded[0], encoded[1], encoded[2], encoded[3], encoded[4],
		v.CreatedBy, toMillis(v.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("version %d of game %s: %w", v.VersionNumber, v.GameID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create version %s: %w", v.ID, err)
	}
	return nil
}

func (q *queries) GetProposal(ctx context.Context, proposalID string) (*Proposal, error) {
	var (
		p                                           Proposal
		fromVersion, tournamentJS                   sql.NullString
		proposedJSON, rulesJSON, previewJSON, valJS string
		created, updated                            int64
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT id, club_id, game_id, kind, status, from_version_id, proposed_json, rules_json, preview_json,
			validation_json, tournament_json, rejection_reason, created_by, created_at, updated_at
		FROM proposals WHERE id = ?
	`, proposalID).Scan(&p.ID, &p.ClubID, &p.GameID, &p.Kind, &p.Status, &fromVersion, &proposedJSON,
		&rulesJSON, &previewJSON, &valJS, &tournamentJS, &p.RejectionReason, &p.CreatedBy, &created, &updated)
	if err != nil {
		return nil, notFound("proposal", proposalID, err)
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{proposedJSON, &p.Proposed},
		{rulesJSON, &p.Rules},
		{previewJSON, &p.Preview},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode proposal %s: %w", proposalID, err)
		}
	}
	// Older documents may only carry approvedBy/rejectedBy.
	var raw approval.RawRecord
	if err := json.Unmarshal([]byte(valJS), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode validation of proposal %s: %w", proposalID, err)
	}
	p.Validation = approval.Resolve(raw).Record
	if p.Tournament, err = fromNullJSON[TournamentContext](tournamentJS); err != nil {
		return nil, fmt.Errorf("failed to decode tournament context of proposal %s: %w", proposalID, err)
	}
	p.FromVersionID = fromVersion.String
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func (q *queries) PutProposal(ctx context.Context, p *Proposal) error {
	stamp(&p.CreatedAt, &p.UpdatedAt)
	encoded := make([]string, 0, 4)
	for _, src := range []any{p.Proposed, p.Rules, p.Preview, p.Validation} {
		s, err := toJSON(src)
		if err != nil {
			return err
		}
		encoded = append(encoded, s)
	}
	tournament, err := toNullJSON(p.Tournament)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO proposals (id, club_id, game_id, kind, status, from_version_id, proposed_json, rules_json,
			preview_json, validation_json, tournament_json, rejection_reason, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			proposed_json = excluded.proposed_json,
			preview_json = excluded.preview_json,
			validation_json = excluded.validation_json,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at
	`, p.ID, p.ClubID, p.GameID, p.Kind, p.Status, nullString(p.FromVersionID), encoded[0], encoded[1],
		encoded[2], encoded[3], tournament, p.RejectionReason, p.CreatedBy, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save proposal %s: %w", p.ID, err)
	}
	return nil
}

const requestColumns = `id, club_id, user_id, kind, proposal_id, game_id, status, created_at, updated_at`

func scanRequest(row scanner) (*ValidationRequest, error) {
	var (
		r                ValidationRequest
		created, updated int64
	)
	if err := row.Scan(&r.ID, &r.ClubID, &r.UserID, &r.Kind, &r.ProposalID, &r.GameID, &r.Status,
		&created, &updated); err != nil {
		return nil, err
	}
	r.CreatedAt = fromMillis(created)
	r.UpdatedAt = fromMillis(updated)
	return &r, nil
}

func (q *queries) GetValidationRequest(ctx context.Context, requestID string) (*ValidationRequest, error) {
	r, err := scanRequest(q.q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM validation_requests WHERE id = ?`, requestID))
	if err != nil {
		return nil, notFound("validation request", requestID, err)
	}
	return r, nil
}

// ListValidationRequests lists userID's requests, newest first. An empty
// status matches every request.
func (q *queries) ListValidationRequests(ctx context.Context, userID string, status approval.Status) ([]ValidationRequest, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM validation_requests
		WHERE user_id = ? AND (? = '' OR status = ?)
		ORDER BY created_at DESC, id
	`, userID, status, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation requests of %s: %w", userID, err)
	}
	defer rows.Close()

	var requests []ValidationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func (q *queries) PutValidationRequest(ctx context.Context, r *ValidationRequest) error {
	stamp(&r.CreatedAt, &r.UpdatedAt)
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO validation_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, r.ID, r.ClubID, r.UserID, r.Kind, r.ProposalID, r.GameID, r.Status, toMillis(r.CreatedAt), toMillis(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save validation request %s: %w", r.ID, err)
	}
	return nil
}

const roundColumns = `id, club_id, competition_id, round_number, status, tables_json, created_at, updated_at`

func scanRound(row scanner) (*Round, error) {
	var (
		r                Round
		tablesJSON       string
		created, updated int64
	)
	if err := row.Scan(&r.ID, &r.ClubID, &r.CompetitionID, &r.RoundNumber, &r.Status, &tablesJSON,
		&created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tablesJSON), &r.Tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables of round %s: %w", r.ID, err)
	}
	r.CreatedAt = fromMillis(created)
	r.UpdatedAt = fromMillis(updated)
	return &r, nil
}

func (q *queries) GetRound(ctx context.Context, roundID string) (*Round, error) {
	r, err := scanRound(q.q.QueryRowContext(ctx,
		`SELECT `+roundColumns+` FROM tournament_rounds WHERE id = ?`, roundID))
	if err != nil {
		return nil, notFound("round", roundID, err)
	}
	return r, nil
}

// ListRounds returns a competition's rounds ordered by round number.
func (q *queries) ListRounds(ctx context.Context, competitionID string) ([]Round, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM tournament_rounds WHERE competition_id = ? ORDER BY round_number`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds of competition %s: %w", competitionID, err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *r)
	}
	return rounds, rows.Err()
}

func (q *queries) writeRound(ctx context.Context, r *Round, upsert bool) error {
	stamp(&r.CreatedAt, &r.UpdatedAt)
	tables, err := toJSON(r.Tables)
	if err != nil {
		return err
	}
	query := `INSERT INTO tournament_rounds (` + roundColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			tables_json = excluded.tables_json,
			updated_at = excluded.updated_at`
	}
	_, err = q.q.ExecContext(ctx, query, r.ID, r.ClubID, r.CompetitionID, r.RoundNumber, r.Status, tables,
		toMillis(r.CreatedAt), toMillis(r.UpdatedAt))
	if !upsert && isUniqueViolation(err) {
		return fmt.Errorf("round %s: %w", r.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to save round %s: %w", r.ID, err)
	}
	return nil
}

func (q *queries) CreateRound(ctx context.Context, r *Round) error {
	return q.writeRound(ctx, r, false)
}

func (q *queries) PutRound(ctx context.Context, r *Round) error {
	return q.writeRound(ctx, r, true)
}

// ApplyDelta increments the entry in place so concurrent commits never lose
// an update.
func (q *queries) ApplyDelta(ctx context.Context, d leaderboard.Delta) error {
	now := time.Now().UnixMilli()
	var err error
	if d.Scope == leaderboard.ScopeGlobal {
		_, err = q.q.ExecContext(ctx, `
			INSERT INTO global_leaderboard_entries (id, club_id, user_id, total_points, games_played, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				total_points = total_points + excluded.total_points,
				games_played = games_played + excluded.games_played,
				updated_at = excluded.updated_at
		`, d.EntryID(), d.ClubID, d.UserID, d.TotalPointsDelta, d.GamesPlayedDelta, now)
	} else {
		_, err = q.q.ExecContext(ctx, `
			INSERT INTO competition_leaderboard_entries (id, club_id, competition_id, user_id, total_points, games_played, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				total_points = total_points + excluded.total_points,
				games_played = games_played + excluded.games_played,
				updated_at = excluded.updated_at
		`, d.EntryID(), d.ClubID, d.CompetitionID, d.UserID, d.TotalPointsDelta, d.GamesPlayedDelta, now)
	}
	if err != nil {
		return fmt.Errorf("failed to apply leaderboard delta %s: %w", d.EntryID(), err)
	}
	return nil
}

// ListLeaderboard returns the club's global leaderboard, or a competition's
// when competitionID is set, sorted for display. Display names come from the
// membership cache.
func (q *queries) ListLeaderboard(ctx context.Context, clubID, competitionID string) ([]leaderboard.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if competitionID == "" {
		rows, err = q.q.QueryContext(ctx, `
			SELECT e.id, e.club_id, '', e.user_id, COALESCE(m.display_name, ''), e.total_points, e.games_played, e.updated_at
			FROM global_leaderboard_entries e
			LEFT JOIN club_members m ON m.club_id = e.club_id AND m.user_id = e.user_id
			WHERE e.club_id = ?
		`, clubID)
	} else {
		rows, err = q.q.QueryContext(ctx, `
			SELECT e.id, e.club_id, e.competition_id, e.user_id, COALESCE(m.display_name, ''), e.total_points, e.games_played, e.updated_at
			FROM competition_leaderboard_entries e
			LEFT JOIN club_members m ON m.club_id = e.club_id AND m.user_id = e.user_id
			WHERE e.club_id = ? AND e.competition_id = ?
		`, clubID, competitionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard of club %s: %w", clubID, err)
	}
	defer rows.Close()

	var entries []leaderboard.Entry
	for rows.Next() {
		var (
			e       leaderboard.Entry
			updated int64
		)
		if err := rows.Scan(&e.ID, &e.ClubID, &e.CompetitionID, &e.UserID, &e.DisplayName,
			&e.TotalPoints, &e.GamesPlayed, &updated); err != nil {
			return nil, err
		}
		e.UpdatedAt = fromMillis(updated)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	leaderboard.Sort(entries)
	return entries, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
