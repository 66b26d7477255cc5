package proposal_test

import (
	"context"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/proposal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitEdit_ReplacesPlayerAndMovesPoints(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	created := h.createChampionshipGame(t)
	h.approveAll(t, created.ProposalID, players...)
	game, err := h.store.GetGame(ctx, created.GameID)
	require.NoError(t, err)
	h.notifier.Reset()

	edit, err := h.svc.SubmitEdit(ctx, "b", proposal.EditInput{
		GameID:        created.GameID,
		FromVersionID: game.ActiveVersionID,
		Proposed: ledger.ProposedVersion{
			Participants:   []string{"a", "b", "c", "e"},
			FinalScores:    map[string]int{"a": 42300, "b": 31200, "c": 17800, "e": 8700},
			CompetitionIDs: []string{"champ"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.GamePendingValidation, edit.Status)
	assert.Equal(t, created.GameID, edit.GameID)

	p, err := h.store.GetProposal(ctx, edit.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindEdit, p.Kind)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, p.Validation.RequiredUserIDs)
	assert.Equal(t, game.ActiveVersionID, p.FromVersionID)

	calls := h.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "A game edit requires your approval.", calls[0].Message.Body)
	assert.Len(t, calls[0].Recipients, 5)

	pending, err := h.store.GetGame(ctx, created.GameID)
	require.NoError(t, err)
	assert.Equal(t, ledger.GamePendingValidation, pending.Status)
	require.NotNil(t, pending.PendingAction)
	assert.Equal(t, ledger.PendingAction{Kind: ledger.KindEdit, ProposalID: edit.ProposalID}, *pending.PendingAction)

	out := h.approveAll(t, edit.ProposalID, "a", "b", "c", "d", "e")
	assert.Equal(t, ledger.ProposalAccepted, out.ProposalStatus)

	versions, err := h.store.ListVersions(ctx, created.GameID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[1].VersionNumber)

	updated, err := h.store.GetGame(ctx, created.GameID)
	require.NoError(t, err)
	assert.Equal(t, versions[1].ID, updated.ActiveVersionID)
	assert.Equal(t, []string{"a", "b", "c", "e"}, updated.Participants)

	entries, err := h.store.ListLeaderboard(ctx, "club1", "champ")
	require.NoError(t, err)
	byUser := entriesByUser(entries)
	assert.Equal(t, 0, byUser["d"].GamesPlayed)
	assert.InDelta(t, 0, byUser["d"].TotalPoints, 1e-9)
	assert.Equal(t, 1, byUser["e"].GamesPlayed)
	assert.InDelta(t, -41.3, byUser["e"].TotalPoints, 1e-9)
	assert.Equal(t, 1, byUser["a"].GamesPlayed)
	assert.InDelta(t, 32.3, byUser["a"].TotalPoints, 1e-9)
}

func TestSubmitEdit_Preconditions(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	created := h.createChampionshipGame(t)
	proposed := ledger.ProposedVersion{
		Participants:   players,
		FinalScores:    map[string]int{"a": 42300, "b": 31200, "c": 18700, "d": 7800},
		CompetitionIDs: []string{"champ"},
	}

	_, err := h.svc.SubmitEdit(ctx, "a", proposal.EditInput{GameID: created.GameID, Proposed: proposed})
	assert.Equal(t, apperr.FailedPrecondition, apperr.CodeOf(err), "a game awaiting validation cannot be edited")

	h.approveAll(t, created.ProposalID, players...)

	_, err = h.svc.SubmitEdit(ctx, "a", proposal.EditInput{GameID: created.GameID, FromVersionID: "stale", Proposed: proposed})
	assert.Equal(t, apperr.FailedPrecondition, apperr.CodeOf(err))
	assert.Equal(t, "fromVersionId must match current active version.", apperr.MessageOf(err))

	_, err = h.svc.SubmitEdit(ctx, "a", proposal.EditInput{GameID: "missing", Proposed: proposed})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	_, err = h.svc.SubmitEdit(ctx, "z", proposal.EditInput{GameID: created.GameID, Proposed: proposed})
	assert.Equal(t, apperr.PermissionDenied, apperr.CodeOf(err))

	game, err := h.store.GetGame(ctx, created.GameID)
	require.NoError(t, err)
	require.NoError(t, game.TransitionTo(ledger.GameCancelled))
	require.NoError(t, h.store.RunInTx(ctx, func(tx ledger.Tx) error { return tx.PutGame(ctx, game) }))

	_, err = h.svc.SubmitEdit(ctx, "a", proposal.EditInput{GameID: created.GameID, FromVersionID: game.ActiveVersionID, Proposed: proposed})
	assert.Equal(t, apperr.FailedPrecondition, apperr.CodeOf(err))
	assert.Equal(t, "Cancelled game cannot be edited.", apperr.MessageOf(err))
}

func TestSubmitEdit_RejectedEditKeepsActiveVersion(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	created := h.createChampionshipGame(t)
	h.approveAll(t, created.ProposalID, players...)
	game, err := h.store.GetGame(ctx, created.GameID)
	require.NoError(t, err)

	edit, err := h.svc.SubmitEdit(ctx, "a", proposal.EditInput{
		GameID:        created.GameID,
		FromVersionID: game.ActiveVersionID,
		Proposed: ledger.ProposedVersion{
			Participants:   players,
			FinalScores:    map[string]int{"a": 8700, "b": 31200, "c": 17800, "d": 42300},
			CompetitionIDs: []string{"champ"},
		},
	})
	require.NoError(t, err)

	_, err = h.svc.Reject(ctx, "d", edit.ProposalID, "")
	require.NoError(t, err)

	disputed, err := h.store.GetGame(ctx, created.GameID)
	require.NoError(t, err)
	assert.Equal(t, ledger.GameDisputed, disputed.Status)
	assert.Equal(t, game.ActiveVersionID, disputed.ActiveVersionID)

	entries, err := h.store.ListLeaderboard(ctx, "club1", "champ")
	require.NoError(t, err)
	assert.InDelta(t, 32.3, entriesByUser(entries)["a"].TotalPoints, 1e-9)

	// A disputed game takes a fresh edit against the same version.
	_, err = h.svc.SubmitEdit(ctx, "a", proposal.EditInput{
		GameID:        created.GameID,
		FromVersionID: game.ActiveVersionID,
		Proposed: ledger.ProposedVersion{
			Participants:   players,
			FinalScores:    map[string]int{"a": 42300, "b": 31200, "c": 18700, "d": 7800},
			CompetitionIDs: []string{"champ"},
		},
	})
	require.NoError(t, err)
}
