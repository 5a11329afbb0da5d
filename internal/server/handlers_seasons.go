package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fantasylabel/label-server-go/internal/league"
)

type createSeasonRequest struct {
	Name   string               `json:"name"`
	Config *league.SeasonConfig `json:"config,omitempty"`
}

func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	var req createSeasonRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	actor, err := s.actor(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "season name required"})
		return
	}

	cfg := league.DefaultSeasonConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	season := s.seasons.CreateSeason(req.Name, actor.UserID, cfg)
	s.logger.Info("season created",
		zap.String("season", season.ID),
		zap.String("commissioner", actor.UserID),
	)
	if err := s.afterMutation(r.Context(), season, "create_season"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, season.Summary())
}

func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	if _, err := s.actor(r, ""); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.seasons.ListSeasons())
}

func (s *Server) handleGetSeason(w http.ResponseWriter, r *http.Request) {
	if _, err := s.actor(r, ""); err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, _, err := season.MarshalState()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	if _, err := s.actor(r, ""); err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, season.Standings())
}

type addPlayerRequest struct {
	UserID string `json:"userId"`
	Label  string `json:"label"`
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req addPlayerRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	actor, err := s.actor(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	player, err := season.AddPlayer(actor, req.UserID, req.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, "add_player"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

type setPromptsRequest struct {
	Prompts []string `json:"prompts"`
}

func (s *Server) handleSetPrompts(w http.ResponseWriter, r *http.Request) {
	var req setPromptsRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	actor, err := s.actor(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := season.SetPrompts(actor, req.Prompts); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, "set_prompts"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, season.OpenPrompts())
}

type setBoardRequest struct {
	Categories []league.BoardCategorySpec `json:"categories"`
}

func (s *Server) handleSetBoard(w http.ResponseWriter, r *http.Request) {
	var req setBoardRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	actor, err := s.actor(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := season.SetBoard(actor, league.NewChallengeBoard(req.Categories)); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, "set_board"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "board set"})
}

type transitionRequest struct {
	Target string `json:"target"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	actor, err := s.actor(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.season(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	target, ok := league.ParsePhase(req.Target)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown phase: " + req.Target})
		return
	}

	if err := season.Transition(target, actor); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("phase transition",
		zap.String("season", season.ID),
		zap.String("phase", target.String()),
		zap.Int("week", season.Week()),
	)
	if err := s.afterMutation(r.Context(), season, "transition"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"phase": season.CurrentPhase().String(),
		"week":  season.Week(),
	})
}

type submitPlaylistRequest struct {
	URL           string `json:"url"`
	ActOnBehalfOf string `json:"actOnBehalfOf,omitempty"`
}

// handleSubmitPlaylist checks eligibility before the remote fetch so a
// mistimed submission fails fast, then re-validates inside the engine when
// recording.
func (s *Server) handleSubmitPlaylist(w http.ResponseWriter, r *http.Request) {
	var req submitPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
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

	if err := season.CanSubmitPlaylist(actor); err != nil {
		s.writeError(w, err)
		return
	}

	pl, err := s.playlists.FetchValidatedPlaylist(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := season.RecordPlaylistSubmission(actor, req.URL, pl); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.afterMutation(r.Context(), season, "submit_playlist"); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"playlist": pl.Name,
		"tracks":   len(pl.Tracks),
	})
}
