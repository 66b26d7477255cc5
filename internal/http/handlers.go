package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/proposal"
	"github.com/mauv0809/riichi-ledger/internal/report"
	"github.com/mauv0809/riichi-ledger/internal/tournament"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) SubmitCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in proposal.CreateInput
		if !decodeJSON(w, r, &in) {
			return
		}
		in.ClubID = chi.URLParam(r, "clubID")
		res, err := s.Proposals.SubmitCreate(r.Context(), callerID(r), in)
		respond(w, res, err)
	}
}

func (s *Server) SubmitEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Proposals.SubmitEdit(r.Context(), callerID(r), proposal.EditInput{
			GameID:        chi.URLParam(r, "gameID"),
			FromVersionID: req.FromVersionID,
			Proposed:      req.Proposed,
		})
		respond(w, res, err)
	}
}

func (s *Server) ApproveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Proposals.Approve(r.Context(), callerID(r), chi.URLParam(r, "proposalID"))
		respond(w, res, err)
	}
}

func (s *Server) RejectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rejectRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Proposals.Reject(r.Context(), callerID(r), chi.URLParam(r, "proposalID"), req.Reason)
		respond(w, res, err)
	}
}

func (s *Server) CreateRoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Tournaments.CreateRound(r.Context(), callerID(r), tournament.CreateRoundInput{
			ClubID:        chi.URLParam(r, "clubID"),
			CompetitionID: chi.URLParam(r, "competitionID"),
		})
		respond(w, res, err)
	}
}

func (s *Server) SubmitTableResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableIndex, err := strconv.Atoi(chi.URLParam(r, "tableIndex"))
		if err != nil || tableIndex < 0 {
			writeError(w, apperr.Invalid("tableIndex: must be a non-negative integer"))
			return
		}
		var req tableResultRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Proposals.SubmitTableResult(r.Context(), callerID(r), proposal.TableResultInput{
			ClubID:        chi.URLParam(r, "clubID"),
			CompetitionID: chi.URLParam(r, "competitionID"),
			RoundID:       chi.URLParam(r, "roundID"),
			TableIndex:    tableIndex,
			FinalScores:   req.FinalScores,
		})
		respond(w, res, err)
	}
}

func (s *Server) UpsertMemberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertMemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Directory.UpsertMember(r.Context(), callerID(r), club.UpsertMemberInput{
			ClubID:       chi.URLParam(r, "clubID"),
			TargetUserID: chi.URLParam(r, "userID"),
			Role:         req.Role,
		})
		respond(w, res, err)
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, _, err := s.loadLeaderboard(r.Context(), callerID(r), chi.URLParam(r, "clubID"), r.URL.Query().Get("competitionId"))
		respond(w, board, err)
	}
}

// LeaderboardExportHandler serves the same standings as LeaderboardHandler
// as an xlsx workbook.
func (s *Server) LeaderboardExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, title, err := s.loadLeaderboard(r.Context(), callerID(r), chi.URLParam(r, "clubID"), r.URL.Query().Get("competitionId"))
		if err != nil {
			writeError(w, err)
			return
		}
		filename := board.ClubID + "-leaderboard.xlsx"
		if board.CompetitionID != "" {
			filename = board.CompetitionID + "-leaderboard.xlsx"
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := report.WriteLeaderboard(w, title, board.Entries); err != nil {
			log.Error("Failed to write leaderboard export", "clubID", board.ClubID, "error", err)
		}
	}
}

// loadLeaderboard returns a club's global standings, or a competition's when
// competitionID is set, along with a title for them. Only club members may
// read them.
func (s *Server) loadLeaderboard(ctx context.Context, caller, clubID, competitionID string) (*leaderboardResponse, string, error) {
	if _, err := s.Directory.Membership(ctx, clubID, caller); err != nil {
		return nil, "", err
	}
	board := &leaderboardResponse{ClubID: clubID, Scope: leaderboard.ScopeGlobal}
	title := "Club leaderboard"
	if competitionID != "" {
		comp, err := s.Store.GetCompetition(ctx, clubID, competitionID)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, "", apperr.Missing("Competition not found.")
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to load competition: %w", err)
		}
		board.CompetitionID = comp.ID
		board.Scope = leaderboard.ScopeCompetition
		title = comp.Name
	}
	entries, err := s.Store.ListLeaderboard(ctx, clubID, competitionID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load leaderboard: %w", err)
	}
	board.Entries = entries
	if board.Entries == nil {
		board.Entries = []leaderboard.Entry{}
	}
	return board, title, nil
}

// decodeJSON reads the request body into v and writes an InvalidArgument
// response when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug("Malformed request body", "url", r.URL.Path, "error", err)
		writeError(w, apperr.Invalid("Malformed request body."))
		return false
	}
	return true
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// writeError maps err to its status code. Internal errors are logged and
// their details withheld from the caller.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.Internal {
		log.Error("Request failed", "error", err)
	} else {
		log.Debug("Request refused", "code", code, "error", err)
	}
	writeJSON(w, apperr.HTTPStatus(code), errorResponse{Code: string(code), Message: apperr.MessageOf(err)})
}
