// Package server exposes the league engine over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fantasylabel/label-server-go/internal/auth"
	"github.com/fantasylabel/label-server-go/internal/config"
	"github.com/fantasylabel/label-server-go/internal/league"
	"github.com/fantasylabel/label-server-go/internal/playlist"
	"github.com/fantasylabel/label-server-go/internal/session"
)

// SeasonSaver persists season documents keyed by id with a monotonic version.
// *repository.SeasonStore is the production implementation.
type SeasonSaver interface {
	Save(ctx context.Context, id string, doc []byte, version int64) error
}

// Server wires the engine, sessions, persistence and fan-out together behind
// a chi router.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	seasons   *league.Manager
	sessions  *session.Manager
	creds     *auth.CredentialStore
	store     SeasonSaver
	playlists playlist.Provider
	hub       *Hub
	limiter   *IPRateLimiter
}

// Options carries the server's collaborators. Store may be nil, in which
// case seasons live only in memory.
type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Seasons   *league.Manager
	Sessions  *session.Manager
	Creds     *auth.CredentialStore
	Store     SeasonSaver
	Playlists playlist.Provider
}

// New builds a server from its collaborators.
func New(opts Options) *Server {
	return &Server{
		cfg:       opts.Config,
		logger:    opts.Logger,
		seasons:   opts.Seasons,
		sessions:  opts.Sessions,
		creds:     opts.Creds,
		store:     opts.Store,
		playlists: opts.Playlists,
		hub:       NewHub(opts.Logger),
		limiter:   NewIPRateLimiter(opts.Config.RateLimit),
	}
}

// Close releases background resources.
func (s *Server) Close() {
	s.limiter.Stop()
	s.hub.CloseAll()
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(recoveryMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(loggingMiddleware(s.logger))
	r.Use(s.limiter.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", MetricsHandler())
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Route("/seasons", func(r chi.Router) {
			r.Get("/", s.handleListSeasons)
			r.Post("/", s.handleCreateSeason)

			r.Route("/{seasonID}", func(r chi.Router) {
				r.Get("/", s.handleGetSeason)
				r.Get("/standings", s.handleStandings)
				r.Post("/players", s.handleAddPlayer)
				r.Post("/prompts", s.handleSetPrompts)
				r.Post("/board", s.handleSetBoard)
				r.Post("/transition", s.handleTransition)

				r.Post("/draft/category", s.handleDraftCategory)
				r.Post("/draft/artist", s.handleDraftArtist)
				r.Post("/draft/reset", s.handleDraftReset)

				r.Post("/challenges/reveal", s.handleRevealChallenge)
				r.Post("/challenges/select", s.handleSelectChallenge)
				r.Post("/challenges/option", s.handlePickOption)
				r.Post("/challenges/reset", s.handleResetWeekChallenge)

				r.Post("/playlists", s.handleSubmitPlaylist)

				r.Post("/voting/next", s.handleVotingNext)
				r.Post("/voting/votes", s.handleCastVote)
				r.Put("/voting/votes", s.handleChangeVote)
				r.Post("/voting/reveal", s.handleRevealResults)
				r.Post("/voting/reopen", s.handleReopenCategory)

				r.Post("/advantages/award", s.handleAwardAdvantages)
				r.Post("/advantages/assign", s.handleAssignAdvantage)
				r.Post("/advantages/use", s.handleUseAdvantage)
				r.Post("/advantages/undo", s.handleUndoAwards)

				r.Post("/evolution/cut", s.handleEvoCut)
				r.Post("/evolution/protect", s.handleEvoProtect)
				r.Post("/evolution/opponent-cut", s.handleEvoOpponentCut)
				r.Post("/evolution/advantage", s.handleEvoAdvantage)
				r.Post("/evolution/prompt", s.handleEvoPrompt)
				r.Post("/evolution/redraft", s.handleEvoRedraft)
				r.Post("/evolution/pool", s.handleEvoPoolDraft)
				r.Post("/evolution/complete", s.handleEvoComplete)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"seasons":  s.seasons.Count(),
		"sessions": s.sessions.Count(),
	})
}

// actor resolves the caller from the bearer session token. onBehalfOf is the
// optional season-player id from the request body.
func (s *Server) actor(r *http.Request, onBehalfOf string) (league.Actor, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return league.Actor{}, errUnauthorized
	}
	sess, ok := s.sessions.GetSession(token)
	if !ok {
		return league.Actor{}, errUnauthorized
	}
	sess.UpdateActivity()
	return league.Actor{UserID: sess.GetUserID(), OnBehalfOf: onBehalfOf}, nil
}

func (s *Server) season(r *http.Request) (*league.Season, error) {
	id := chi.URLParam(r, "seasonID")
	season, ok := s.seasons.GetSeason(id)
	if !ok {
		return nil, league.ErrNotFound
	}
	return season, nil
}

// afterMutation persists the season document and fans the new state out to
// subscribers. A persist conflict is surfaced to the caller; other persist
// errors are logged and counted but do not fail the request, since the
// in-memory state already changed. The store accepts version gaps, so the
// next successful save re-syncs the stored document.
func (s *Server) afterMutation(ctx context.Context, season *league.Season, operation string) error {
	seasonMutationsTotal.WithLabelValues(operation).Inc()

	doc, version, err := season.MarshalState()
	if err != nil {
		s.logger.Error("marshal season state", zap.String("season", season.ID), zap.Error(err))
		return nil
	}

	if s.store != nil {
		if err := s.store.Save(ctx, season.ID, doc, version); err != nil {
			if errors.Is(err, league.ErrConflict) {
				return err
			}
			persistFailuresTotal.Inc()
			s.logger.Error("persist season", zap.String("season", season.ID), zap.Error(err))
		}
	}

	s.hub.Broadcast(season.ID, doc)
	return nil
}

var errUnauthorized = errors.New("missing or expired session")

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto HTTP statuses. Rule violations that a
// client can retry differently are 409/422; unknown errors stay opaque 500s.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, league.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, league.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrUserExists),
		errors.Is(err, league.ErrConflict),
		errors.Is(err, league.ErrIllegalTransition),
		errors.Is(err, league.ErrNotYourTurn),
		errors.Is(err, league.ErrDuplicateAction),
		errors.Is(err, league.ErrDuplicateVote):
		status = http.StatusConflict
	case errors.Is(err, league.ErrQuotaExceeded),
		errors.Is(err, league.ErrSelfVoteForbidden),
		errors.Is(err, league.ErrOnCooldown):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, league.ErrPlaylistFetchFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}
