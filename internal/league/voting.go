package league

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// VotingStatus is the session lifecycle.
type VotingStatus int

const (
	VotingNotStarted VotingStatus = iota
	VotingOpen
	VotingPending
	VotingClosed
)

var votingStatusNames = map[VotingStatus]string{
	VotingNotStarted: "NOT_STARTED",
	VotingOpen:       "OPEN",
	VotingPending:    "PENDING",
	VotingClosed:     "CLOSED",
}

func (v VotingStatus) String() string {
	if name, ok := votingStatusNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VOTING_%d", int(v))
}

// RevealMode controls whether category results show as each category is
// revealed or only once the whole session closes.
type RevealMode string

const (
	RevealImmediate RevealMode = "IMMEDIATE"
	RevealDeferred  RevealMode = "DEFERRED"
)

// VotingCategory is one award category within a session.
type VotingCategory struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PointValue int    `json:"point_value"`
}

// Vote is unique per (week, category, voter). Self votes are forbidden.
type Vote struct {
	Week       int    `json:"week"`
	CategoryID string `json:"category_id"`
	VoterID    string `json:"voter_id"`
	NomineeID  string `json:"nominee_id"`
}

// CategoryResult is the tally for one completed category.
type CategoryResult struct {
	CategoryID string         `json:"category_id"`
	PointValue int            `json:"point_value"`
	VoteCounts map[string]int `json:"vote_counts"` // nominee -> votes
	Points     map[string]int `json:"points"`      // nominee -> votes * point value
	SweepBy    string         `json:"sweep_by"`    // nominee with all eligible votes, if any
	Revealed   bool           `json:"revealed"`
}

// VotingSession runs category-by-category voting for one (season, week).
type VotingSession struct {
	Week                 int              `json:"week"`
	Categories           []VotingCategory `json:"categories"`
	CurrentCategoryIndex int              `json:"current_category_index"` // -1 = not started
	Status               VotingStatus     `json:"status"`
	RevealMode           RevealMode       `json:"reveal_mode"`
	Votes                []Vote           `json:"votes"`
	Results              []CategoryResult `json:"results"`
	WeeklyPoints         map[string]int   `json:"weekly_points"`
	Placements           map[string]int   `json:"placements"` // player id -> placement
	Scored               bool             `json:"scored"`
}

func newVotingSession(week int, cats []VotingCategoryConfig, mode RevealMode) *VotingSession {
	if mode == "" {
		mode = RevealDeferred
	}
	session := &VotingSession{
		Week:                 week,
		CurrentCategoryIndex: -1,
		Status:               VotingNotStarted,
		RevealMode:           mode,
		Votes:                make([]Vote, 0),
		Results:              make([]CategoryResult, 0),
		WeeklyPoints:         make(map[string]int),
		Placements:           make(map[string]int),
	}
	for _, c := range cats {
		session.Categories = append(session.Categories, VotingCategory{
			ID:         uuid.NewString(),
			Name:       c.Name,
			PointValue: c.PointValue,
		})
	}
	return session
}

func (v *VotingSession) currentCategory() *VotingCategory {
	if v.CurrentCategoryIndex < 0 || v.CurrentCategoryIndex >= len(v.Categories) {
		return nil
	}
	return &v.Categories[v.CurrentCategoryIndex]
}

func (v *VotingSession) voteFor(categoryID, voterID string) *Vote {
	for i := range v.Votes {
		if v.Votes[i].CategoryID == categoryID && v.Votes[i].VoterID == voterID {
			return &v.Votes[i]
		}
	}
	return nil
}

// StartNextCategory opens voting on the next category. Commissioner only; the
// current category must be revealed before the next one opens.
func (s *Season) StartNextCategory(actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.activeVotingLocked()
	if err != nil {
		return err
	}
	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	switch v.Status {
	case VotingOpen:
		return fmt.Errorf("category %q still open: %w", v.currentCategory().Name, ErrIllegalTransition)
	case VotingClosed:
		return fmt.Errorf("voting for week %d is closed: %w", v.Week, ErrIllegalTransition)
	}
	if v.CurrentCategoryIndex+1 >= len(v.Categories) {
		return fmt.Errorf("no categories left: %w", ErrIllegalTransition)
	}

	v.CurrentCategoryIndex++
	v.Status = VotingOpen
	s.bumpVersionLocked()
	return nil
}

// CastVote records a first vote for the current category. A second cast by
// the same voter is an error; vote changes go through ChangeVote.
func (s *Season) CastVote(actor Actor, categoryID, nomineeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, voter, cat, err := s.voteChecksLocked(actor, categoryID, nomineeID)
	if err != nil {
		return err
	}
	if existing := v.voteFor(cat.ID, voter.ID); existing != nil {
		return fmt.Errorf("voter %s already voted in %q: %w", voter.ID, cat.Name, ErrDuplicateVote)
	}

	v.Votes = append(v.Votes, Vote{
		Week:       v.Week,
		CategoryID: cat.ID,
		VoterID:    voter.ID,
		NomineeID:  nomineeID,
	})
	s.bumpVersionLocked()
	return nil
}

// ChangeVote explicitly overwrites an existing vote while the category is
// still open.
func (s *Season) ChangeVote(actor Actor, categoryID, nomineeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, voter, cat, err := s.voteChecksLocked(actor, categoryID, nomineeID)
	if err != nil {
		return err
	}
	existing := v.voteFor(cat.ID, voter.ID)
	if existing == nil {
		return fmt.Errorf("no vote to change in %q: %w", cat.Name, ErrNotFound)
	}

	existing.NomineeID = nomineeID
	s.bumpVersionLocked()
	return nil
}

func (s *Season) voteChecksLocked(actor Actor, categoryID, nomineeID string) (*VotingSession, *SeasonPlayer, *VotingCategory, error) {
	v, err := s.activeVotingLocked()
	if err != nil {
		return nil, nil, nil, err
	}
	if v.Status != VotingOpen {
		return nil, nil, nil, fmt.Errorf("voting is %s: %w", v.Status, ErrIllegalTransition)
	}
	cat := v.currentCategory()
	if cat == nil || cat.ID != categoryID {
		return nil, nil, nil, fmt.Errorf("category %s is not open: %w", categoryID, ErrIllegalTransition)
	}
	voter, err := s.actingPlayerLocked(actor)
	if err != nil {
		return nil, nil, nil, err
	}
	if _, ok := s.Players[nomineeID]; !ok {
		return nil, nil, nil, fmt.Errorf("nominee %s: %w", nomineeID, ErrNotFound)
	}
	if nomineeID == voter.ID {
		return nil, nil, nil, fmt.Errorf("voter %s: %w", voter.ID, ErrSelfVoteForbidden)
	}
	return v, voter, cat, nil
}

// RevealCategoryResults tallies the current category once every player has
// voted. The last category closes the session and commits weekly scores.
// Commissioner only.
func (s *Season) RevealCategoryResults(actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.activeVotingLocked()
	if err != nil {
		return err
	}
	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	if v.Status != VotingOpen {
		return fmt.Errorf("no category open: %w", ErrIllegalTransition)
	}
	cat := v.currentCategory()
	for _, id := range s.PlayerOrder {
		if v.voteFor(cat.ID, id) == nil {
			return fmt.Errorf("player %s has not voted in %q: %w", id, cat.Name, ErrIllegalTransition)
		}
	}

	result := s.tallyCategoryLocked(v, cat)
	result.Revealed = v.RevealMode == RevealImmediate
	v.Results = append(v.Results, result)

	if v.CurrentCategoryIndex == len(v.Categories)-1 {
		v.Status = VotingClosed
		s.scoreWeekLocked(v)
	} else {
		v.Status = VotingPending
	}
	s.bumpVersionLocked()
	return nil
}

// ReopenPreviousCategory is the bounded voting undo: while results for the
// just-revealed category are pending, the commissioner may reopen it. The
// provisional tally is discarded; votes stay and may be changed.
func (s *Season) ReopenPreviousCategory(actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.activeVotingLocked()
	if err != nil {
		return err
	}
	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	if v.Status != VotingPending || len(v.Results) == 0 {
		return fmt.Errorf("nothing to reopen: %w", ErrIllegalTransition)
	}

	v.Results = v.Results[:len(v.Results)-1]
	v.Status = VotingOpen
	s.bumpVersionLocked()
	return nil
}

// tallyCategoryLocked counts votes, applies the point value, and detects a
// sweep: one nominee holding exactly totalPlayers-1 votes (everyone but the
// nominee, who cannot self-vote).
func (s *Season) tallyCategoryLocked(v *VotingSession, cat *VotingCategory) CategoryResult {
	result := CategoryResult{
		CategoryID: cat.ID,
		PointValue: cat.PointValue,
		VoteCounts: make(map[string]int),
		Points:     make(map[string]int),
	}
	for _, vote := range v.Votes {
		if vote.CategoryID != cat.ID {
			continue
		}
		result.VoteCounts[vote.NomineeID]++
		result.Points[vote.NomineeID] += cat.PointValue
	}
	for nominee, count := range result.VoteCounts {
		if count == len(s.PlayerOrder)-1 {
			result.SweepBy = nominee
			break
		}
	}
	return result
}

// scoreWeekLocked converts category results into weekly points, a strict
// placement ranking, and victory points accumulated onto totals. Ties on
// weekly points break by draft position, then id.
func (s *Season) scoreWeekLocked(v *VotingSession) {
	for _, id := range s.PlayerOrder {
		v.WeeklyPoints[id] = 0
	}
	for i := range v.Results {
		v.Results[i].Revealed = true
		for nominee, pts := range v.Results[i].Points {
			v.WeeklyPoints[nominee] += pts
		}
	}

	ranked := append([]string(nil), s.PlayerOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := s.Players[ranked[i]], s.Players[ranked[j]]
		if v.WeeklyPoints[pi.ID] != v.WeeklyPoints[pj.ID] {
			return v.WeeklyPoints[pi.ID] > v.WeeklyPoints[pj.ID]
		}
		if pi.DraftPosition != pj.DraftPosition {
			return pi.DraftPosition < pj.DraftPosition
		}
		return pi.ID < pj.ID
	})
	for i, id := range ranked {
		placement := i + 1
		v.Placements[id] = placement
		s.Players[id].TotalPoints += s.Config.VictoryPoints[placement]
	}
	v.Scored = true
	s.ClosedVoting[v.Week] = v
}

func (s *Season) activeVotingLocked() (*VotingSession, error) {
	if s.Phase != PhaseVoting {
		return nil, fmt.Errorf("season is in %s, not VOTING: %w", s.Phase, ErrIllegalTransition)
	}
	if s.Voting == nil {
		return nil, fmt.Errorf("voting session: %w", ErrNotFound)
	}
	return s.Voting, nil
}

// weekResultLocked exposes a closed week's outcome to the advantage rules.
func (s *Season) weekResultLocked(week int) (WeekResult, error) {
	session, ok := s.ClosedVoting[week]
	if !ok || !session.Scored {
		return WeekResult{}, fmt.Errorf("no closed voting session for week %d: %w", week, ErrNotFound)
	}
	res := WeekResult{Placements: make(map[string]int, len(session.Placements))}
	for id, placement := range session.Placements {
		res.Placements[id] = placement
	}
	for _, r := range session.Results {
		if r.SweepBy != "" {
			res.Sweeps = append(res.Sweeps, SweepResult{
				PlayerID:   r.SweepBy,
				CategoryID: r.CategoryID,
				PointValue: r.PointValue,
			})
		}
	}
	return res, nil
}
