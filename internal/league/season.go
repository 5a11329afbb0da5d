package league

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who is issuing a command. OnBehalfOf carries an optional
// season-player id and is honored only when UserID is the commissioner.
type Actor struct {
	UserID     string
	OnBehalfOf string
}

// SeasonPlayer is one label competing in a season.
type SeasonPlayer struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Label         string   `json:"label"`
	TotalPoints   int      `json:"total_points"`
	DraftPosition int      `json:"draft_position"`
	Roster        []string `json:"roster"`
}

// PromptStatus tracks whether a draft/redraft prompt is still selectable.
type PromptStatus int

const (
	PromptOpen PromptStatus = iota
	PromptSelected
)

// Prompt is a themed category players draft artists against.
type Prompt struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Status         PromptStatus `json:"status"`
	SelectedAtWeek int          `json:"selected_at_week"`
	SelectedBy     string       `json:"selected_by"`
}

// Track is one validated entry of a submitted playlist.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ArtistNames []string `json:"artist_names"`
	AlbumArt    string   `json:"album_art"`
	DurationMs  int      `json:"duration_ms"`
	Position    int      `json:"position"`
}

// Playlist is the validated track list returned by the playlist provider.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// PlaylistSubmission records one player's weekly playlist.
type PlaylistSubmission struct {
	PlayerID     string  `json:"player_id"`
	Week         int     `json:"week"`
	URL          string  `json:"url"`
	PlaylistName string  `json:"playlist_name"`
	Tracks       []Track `json:"tracks"`
	SubmittedAt  int64   `json:"submitted_at"`
}

// SeasonConfig is the commissioner-tunable shape of a season.
type SeasonConfig struct {
	RosterSize       int                    `json:"roster_size"`
	RevealLimit      int                    `json:"reveal_limit"`
	TotalWeeks       int                    `json:"total_weeks"`
	VictoryPoints    map[int]int            `json:"victory_points"` // placement -> VP
	VotingCategories []VotingCategoryConfig `json:"voting_categories"`
	RevealMode       RevealMode             `json:"reveal_mode"`
	Advantages       AdvantageConfig        `json:"advantages"`
	WeekPlans        map[int]EvolutionPlan  `json:"week_plans"` // week -> plan; absent weeks use DefaultGrowthPlan
}

// VotingCategoryConfig defines one weekly award category.
type VotingCategoryConfig struct {
	Name       string `json:"name"`
	PointValue int    `json:"point_value"` // 1-3
}

// DefaultSeasonConfig returns the stock season settings.
func DefaultSeasonConfig() SeasonConfig {
	return SeasonConfig{
		RosterSize:  5,
		RevealLimit: 2,
		TotalWeeks:  8,
		VictoryPoints: map[int]int{
			1: 5,
			2: 3,
			3: 2,
			4: 0,
		},
		VotingCategories: []VotingCategoryConfig{
			{Name: "Best Overall", PointValue: 3},
			{Name: "Deep Cut", PointValue: 2},
			{Name: "Crowd Pleaser", PointValue: 1},
		},
		RevealMode: RevealDeferred,
		Advantages: DefaultAdvantageConfig(),
		WeekPlans:  map[int]EvolutionPlan{},
	}
}

// Season is the aggregate root. All engine state hangs off it and every
// mutation happens under its lock, giving the single-writer-per-document
// semantics the sub-engines rely on.
type Season struct {
	ID             string                         `json:"id"`
	Name           string                         `json:"name"`
	CommissionerID string                         `json:"commissioner_id"`
	Phase          Phase                          `json:"phase"`
	CurrentWeek    int                            `json:"current_week"`
	Config         SeasonConfig                   `json:"config"`
	Players        map[string]*SeasonPlayer       `json:"players"`
	PlayerOrder    []string                       `json:"player_order"` // ids in draft-position order
	Prompts        []*Prompt                      `json:"prompts"`
	Board          *ChallengeBoard                `json:"board"`
	Draft          *DraftState                    `json:"draft"`
	WeekChallenge  *WeeklyChallengeState          `json:"week_challenge"`
	Voting         *VotingSession                 `json:"voting"`
	ClosedVoting   map[int]*VotingSession         `json:"closed_voting"` // week -> closed session
	Evolution      *RosterEvolutionState          `json:"evolution"`
	Awards         []*AdvantageAward              `json:"awards"`
	Inventory      []*AdvantageInventoryItem      `json:"inventory"`
	Pool           []string                       `json:"pool"`
	Submissions    map[string]*PlaylistSubmission `json:"submissions"` // player id -> current week submission
	CreatedAt      time.Time                      `json:"created_at"`
	Version        int64                          `json:"version"`

	mu sync.RWMutex
}

// NewSeason creates a season in SETUP owned by the given commissioner.
func NewSeason(name, commissionerID string, cfg SeasonConfig) *Season {
	return &Season{
		ID:             uuid.NewString(),
		Name:           name,
		CommissionerID: commissionerID,
		Phase:          PhaseSetup,
		CurrentWeek:    1,
		Config:         cfg,
		Players:        make(map[string]*SeasonPlayer),
		PlayerOrder:    make([]string, 0),
		ClosedVoting:   make(map[int]*VotingSession),
		Submissions:    make(map[string]*PlaylistSubmission),
		CreatedAt:      time.Now(),
		Version:        1,
	}
}

// AddPlayer registers a label during SETUP. Draft position follows join order
// until a randomized draft reset reassigns it.
func (s *Season) AddPlayer(actor Actor, userID, label string) (*SeasonPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return nil, err
	}
	if s.Phase != PhaseSetup {
		return nil, fmt.Errorf("players can only join during setup: %w", ErrIllegalTransition)
	}
	if p := s.playerByUserLocked(userID); p != nil {
		return nil, fmt.Errorf("user %s already has label %q: %w", userID, p.Label, ErrDuplicateAction)
	}
	for _, id := range s.PlayerOrder {
		if s.Players[id].Label == label {
			return nil, fmt.Errorf("label %q taken: %w", label, ErrDuplicateAction)
		}
	}

	p := &SeasonPlayer{
		ID:            uuid.NewString(),
		UserID:        userID,
		Label:         label,
		DraftPosition: len(s.PlayerOrder) + 1,
		Roster:        make([]string, 0),
	}
	s.Players[p.ID] = p
	s.PlayerOrder = append(s.PlayerOrder, p.ID)
	s.bumpVersionLocked()
	return p, nil
}

// SetPrompts replaces the prompt catalog during SETUP.
func (s *Season) SetPrompts(actor Actor, texts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	if s.Phase != PhaseSetup {
		return fmt.Errorf("prompts are fixed after setup: %w", ErrIllegalTransition)
	}
	prompts := make([]*Prompt, 0, len(texts))
	for _, text := range texts {
		prompts = append(prompts, &Prompt{ID: uuid.NewString(), Text: text})
	}
	s.Prompts = prompts
	s.bumpVersionLocked()
	return nil
}

// SetBoard installs the challenge board during SETUP.
func (s *Season) SetBoard(actor Actor, board *ChallengeBoard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	if s.Phase != PhaseSetup {
		return fmt.Errorf("board is fixed after setup: %w", ErrIllegalTransition)
	}
	if err := board.validate(); err != nil {
		return err
	}
	s.Board = board
	s.bumpVersionLocked()
	return nil
}

// CanSubmitPlaylist pre-validates a submission before the caller spends a
// remote fetch on it. RecordPlaylistSubmission re-checks at commit time.
func (s *Season) CanSubmitPlaylist(actor Actor) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.playlistSubmitCheckLocked(actor)
	return err
}

// RecordPlaylistSubmission stores a fetched playlist for the acting player.
// One submission per player per week; re-submitting overwrites (the UI treats
// it as replacing the week's playlist before presentation starts).
func (s *Season) RecordPlaylistSubmission(actor Actor, url string, pl *Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playlistSubmitCheckLocked(actor)
	if err != nil {
		return err
	}
	tracks := make([]Track, len(pl.Tracks))
	copy(tracks, pl.Tracks)
	s.Submissions[p.ID] = &PlaylistSubmission{
		PlayerID:     p.ID,
		Week:         s.CurrentWeek,
		URL:          url,
		PlaylistName: pl.Name,
		Tracks:       tracks,
		SubmittedAt:  time.Now().Unix(),
	}
	s.bumpVersionLocked()
	return nil
}

func (s *Season) playlistSubmitCheckLocked(actor Actor) (*SeasonPlayer, error) {
	if s.Phase != PhasePlaylistPresentation {
		return nil, fmt.Errorf("playlists are submitted during presentation, season is in %s: %w", s.Phase, ErrIllegalTransition)
	}
	return s.actingPlayerLocked(actor)
}

// ---- actor resolution ----

func (s *Season) isCommissionerLocked(userID string) bool {
	return userID != "" && userID == s.CommissionerID
}

func (s *Season) requireCommissionerLocked(actor Actor) error {
	if !s.isCommissionerLocked(actor.UserID) {
		return fmt.Errorf("commissioner only: %w", ErrForbidden)
	}
	return nil
}

func (s *Season) playerByUserLocked(userID string) *SeasonPlayer {
	for _, id := range s.PlayerOrder {
		if s.Players[id].UserID == userID {
			return s.Players[id]
		}
	}
	return nil
}

// actingPlayerLocked resolves an actor to the season player the action is
// attributed to. Commissioners may name any player via OnBehalfOf.
func (s *Season) actingPlayerLocked(actor Actor) (*SeasonPlayer, error) {
	if actor.OnBehalfOf != "" {
		if !s.isCommissionerLocked(actor.UserID) {
			return nil, fmt.Errorf("only the commissioner may act on behalf of a player: %w", ErrForbidden)
		}
		p, ok := s.Players[actor.OnBehalfOf]
		if !ok {
			return nil, fmt.Errorf("player %s: %w", actor.OnBehalfOf, ErrNotFound)
		}
		return p, nil
	}
	p := s.playerByUserLocked(actor.UserID)
	if p == nil {
		if s.isCommissionerLocked(actor.UserID) {
			return nil, fmt.Errorf("commissioner has no label; use actOnBehalfOf: %w", ErrForbidden)
		}
		return nil, fmt.Errorf("user %s is not in this season: %w", actor.UserID, ErrForbidden)
	}
	return p, nil
}

// turnActorLocked validates that the actor may take the turn belonging to
// expectedID. The commissioner may always take the current turn, with or
// without an explicit OnBehalfOf.
func (s *Season) turnActorLocked(actor Actor, expectedID string) (*SeasonPlayer, error) {
	if s.isCommissionerLocked(actor.UserID) {
		target := expectedID
		if actor.OnBehalfOf != "" {
			target = actor.OnBehalfOf
		}
		p, ok := s.Players[target]
		if !ok {
			return nil, fmt.Errorf("player %s: %w", target, ErrNotFound)
		}
		if p.ID != expectedID {
			return nil, fmt.Errorf("turn belongs to %s: %w", expectedID, ErrNotYourTurn)
		}
		return p, nil
	}
	p, err := s.actingPlayerLocked(actor)
	if err != nil {
		return nil, err
	}
	if p.ID != expectedID {
		return nil, fmt.Errorf("turn belongs to %s: %w", expectedID, ErrNotYourTurn)
	}
	return p, nil
}

// ---- standings ----

// standingsLocked returns players ranked best-first. Ties on total points
// break by lower draft position, then by id, so the ranking is deterministic.
func (s *Season) standingsLocked() []*SeasonPlayer {
	ranked := make([]*SeasonPlayer, 0, len(s.PlayerOrder))
	for _, id := range s.PlayerOrder {
		ranked = append(ranked, s.Players[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		if ranked[i].DraftPosition != ranked[j].DraftPosition {
			return ranked[i].DraftPosition < ranked[j].DraftPosition
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func (s *Season) reverseStandingsIDsLocked() []string {
	ranked := s.standingsLocked()
	ids := make([]string, 0, len(ranked))
	for i := len(ranked) - 1; i >= 0; i-- {
		ids = append(ids, ranked[i].ID)
	}
	return ids
}

func (s *Season) lastPlaceLocked() *SeasonPlayer {
	ranked := s.standingsLocked()
	if len(ranked) == 0 {
		return nil
	}
	return ranked[len(ranked)-1]
}

func (s *Season) firstPlaceLocked() *SeasonPlayer {
	ranked := s.standingsLocked()
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// Standings returns the current ranking as snapshots.
func (s *Season) Standings() []PlayerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ranked := s.standingsLocked()
	out := make([]PlayerSnapshot, 0, len(ranked))
	for i, p := range ranked {
		snap := playerSnapshot(p)
		snap.Rank = i + 1
		out = append(out, snap)
	}
	return out
}

// ---- misc helpers ----

func (s *Season) bumpVersionLocked() {
	s.Version++
}

func rosterContains(roster []string, artist string) bool {
	for _, a := range roster {
		if a == artist {
			return true
		}
	}
	return false
}

func removeFromRoster(roster []string, artist string) []string {
	out := roster[:0]
	for _, a := range roster {
		if a != artist {
			out = append(out, a)
		}
	}
	return out
}
