package league

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlayerSnapshot is a player view for standings and API responses.
type PlayerSnapshot struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	TotalPoints   int      `json:"total_points"`
	DraftPosition int      `json:"draft_position"`
	Rank          int      `json:"rank,omitempty"`
	Roster        []string `json:"roster"`
}

func playerSnapshot(p *SeasonPlayer) PlayerSnapshot {
	return PlayerSnapshot{
		ID:            p.ID,
		Label:         p.Label,
		TotalPoints:   p.TotalPoints,
		DraftPosition: p.DraftPosition,
		Roster:        append([]string(nil), p.Roster...),
	}
}

// SeasonSummary is the listing view of a season.
type SeasonSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phase       string    `json:"phase"`
	CurrentWeek int       `json:"current_week"`
	PlayerCount int       `json:"player_count"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary returns the listing view.
func (s *Season) Summary() SeasonSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SeasonSummary{
		ID:          s.ID,
		Name:        s.Name,
		Phase:       s.Phase.String(),
		CurrentWeek: s.CurrentWeek,
		PlayerCount: len(s.PlayerOrder),
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
	}
}

// MarshalState serializes the full season document under the read lock,
// returning the version the bytes correspond to. The same document feeds the
// API, the websocket hub, and the optimistic store.
func (s *Season) MarshalState() ([]byte, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.Marshal(s)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal season %s: %w", s.ID, err)
	}
	return data, s.Version, nil
}

// UnmarshalSeason rebuilds a season from a stored document.
func UnmarshalSeason(data []byte) (*Season, error) {
	season := &Season{}
	if err := json.Unmarshal(data, season); err != nil {
		return nil, fmt.Errorf("unmarshal season: %w", err)
	}
	if season.Players == nil {
		season.Players = make(map[string]*SeasonPlayer)
	}
	if season.ClosedVoting == nil {
		season.ClosedVoting = make(map[int]*VotingSession)
	}
	if season.Submissions == nil {
		season.Submissions = make(map[string]*PlaylistSubmission)
	}
	return season, nil
}
