package server

import (
	"net/http"

	"github.com/fantasylabel/label-server-go/internal/league"
)

// mutate runs one engine command against the season in the URL: resolve the
// actor, apply fn under the season's lock, then persist and broadcast.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, operation, onBehalfOf string, fn func(*league.Season, league.Actor) error) {
	actor, err := s.actor(r, onBehalfOf)
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := fn(season, actor); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, operation); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"phase":  season.CurrentPhase().String(),
		"week":   season.Week(),
	})
}

type actionRequest struct {
	PromptID      string `json:"promptId,omitempty"`
	Artist        string `json:"artist,omitempty"`
	ChallengeID   string `json:"challengeId,omitempty"`
	Option        string `json:"option,omitempty"`
	CategoryID    string `json:"categoryId,omitempty"`
	NomineeID     string `json:"nomineeId,omitempty"`
	Week          int    `json:"week,omitempty"`
	AwardID       string `json:"awardId,omitempty"`
	Code          string `json:"code,omitempty"`
	ItemID        string `json:"itemId,omitempty"`
	TargetPlayer  string `json:"targetPlayer,omitempty"`
	Randomize     bool   `json:"randomize,omitempty"`
	ActOnBehalfOf string `json:"actOnBehalfOf,omitempty"`
}

func decodeAction(w http.ResponseWriter, r *http.Request) (actionRequest, bool) {
	var req actionRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return req, false
	}
	return req, true
}

// Draft.

func (s *Server) handleDraftCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "draft_category", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.SelectDraftCategory(actor, req.PromptID)
	})
}

func (s *Server) handleDraftArtist(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "draft_artist", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.PickDraftArtist(actor, req.Artist)
	})
}

func (s *Server) handleDraftReset(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "draft_reset", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.ResetDraft(actor, req.Randomize)
	})
}

// Weekly challenge board.

func (s *Server) handleRevealChallenge(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "reveal_challenge", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.RevealChallenge(actor, req.ChallengeID)
	})
}

func (s *Server) handleSelectChallenge(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "select_challenge", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.SelectChallenge(actor, req.ChallengeID)
	})
}

func (s *Server) handlePickOption(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "pick_option", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.PickChallengeOption(actor, req.Option)
	})
}

func (s *Server) handleResetWeekChallenge(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "reset_week_challenge", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.ResetWeekChallenge(actor)
	})
}

// Voting.

func (s *Server) handleVotingNext(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "voting_next_category", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.StartNextCategory(actor)
	})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "cast_vote", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.CastVote(actor, req.CategoryID, req.NomineeID)
	})
}

func (s *Server) handleChangeVote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "change_vote", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.ChangeVote(actor, req.CategoryID, req.NomineeID)
	})
}

func (s *Server) handleRevealResults(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "reveal_results", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.RevealCategoryResults(actor)
	})
}

func (s *Server) handleReopenCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "reopen_category", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.ReopenPreviousCategory(actor)
	})
}

// Advantages.

func (s *Server) handleAwardAdvantages(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	actor, err := s.actor(r, req.ActOnBehalfOf)
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	week := req.Week
	if week == 0 {
		week = season.Week()
	}
	awards, err := season.AwardAdvantages(actor, week)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, "award_advantages"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, awards)
}

func (s *Server) handleAssignAdvantage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	actor, err := s.actor(r, req.ActOnBehalfOf)
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	item, err := season.AssignAdvantage(actor, req.AwardID, req.Code)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, "assign_advantage"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUseAdvantage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "use_advantage", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.UseAdvantage(actor, req.ItemID)
	})
}

func (s *Server) handleUndoAwards(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "undo_awards", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		week := req.Week
		if week == 0 {
			week = season.Week()
		}
		return season.UndoWeekAdvantageAwards(actor, week)
	})
}

// Roster evolution.

func (s *Server) handleEvoCut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_cut", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.CutArtist(actor, req.Artist)
	})
}

func (s *Server) handleEvoProtect(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_protect", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.ProtectArtist(actor, req.Artist)
	})
}

func (s *Server) handleEvoOpponentCut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_opponent_cut", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.CutOpponentArtist(actor, req.TargetPlayer, req.Artist)
	})
}

func (s *Server) handleEvoAdvantage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_advantage", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.PickChaosAdvantage(actor, req.Code)
	})
}

func (s *Server) handleEvoPrompt(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_prompt", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.SelectEvolutionPrompt(actor, req.PromptID)
	})
}

func (s *Server) handleEvoRedraft(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_redraft", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.RedraftArtist(actor, req.Artist)
	})
}

func (s *Server) handleEvoPoolDraft(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_pool_draft", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.PoolDraftArtist(actor, req.Artist)
	})
}

func (s *Server) handleEvoComplete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, "evolution_complete", req.ActOnBehalfOf, func(season *league.Season, actor league.Actor) error {
		return season.CompleteRosterEvolution(actor)
	})
}
