package league

import (
	"fmt"

	"github.com/google/uuid"
)

// optionDraftMinOptions is the threshold above which selecting a challenge
// spawns the option micro-draft.
const optionDraftMinOptions = 4

// BoardChallenge is one cell of the Jeopardy-style board. Cells are marked,
// never deleted: a selected challenge keeps its week stamp forever.
type BoardChallenge struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	PointValue     int      `json:"point_value"` // 1-3
	Options        []string `json:"options"`
	IsRevealed     bool     `json:"is_revealed"`
	IsSelected     bool     `json:"is_selected"`
	SelectedAtWeek int      `json:"selected_at_week"`
}

// BoardCategory is one column of the board.
type BoardCategory struct {
	Name       string            `json:"name"`
	Challenges []*BoardChallenge `json:"challenges"`
}

// ChallengeBoard is the season-scoped challenge grid.
type ChallengeBoard struct {
	Categories []*BoardCategory `json:"categories"`
}

// NewChallengeBoard builds a board from category name -> challenge specs.
func NewChallengeBoard(categories []BoardCategorySpec) *ChallengeBoard {
	board := &ChallengeBoard{}
	for _, cat := range categories {
		col := &BoardCategory{Name: cat.Name}
		for _, ch := range cat.Challenges {
			col.Challenges = append(col.Challenges, &BoardChallenge{
				ID:         uuid.NewString(),
				Title:      ch.Title,
				PointValue: ch.PointValue,
				Options:    append([]string(nil), ch.Options...),
			})
		}
		board.Categories = append(board.Categories, col)
	}
	return board
}

// BoardCategorySpec is the input shape for building a board.
type BoardCategorySpec struct {
	Name       string               `json:"name"`
	Challenges []BoardChallengeSpec `json:"challenges"`
}

// BoardChallengeSpec is one challenge definition.
type BoardChallengeSpec struct {
	Title      string   `json:"title"`
	PointValue int      `json:"point_value"`
	Options    []string `json:"options"`
}

func (b *ChallengeBoard) validate() error {
	if len(b.Categories) == 0 {
		return fmt.Errorf("board has no categories: %w", ErrNotFound)
	}
	for _, cat := range b.Categories {
		if len(cat.Challenges) == 0 {
			return fmt.Errorf("category %q has no challenges: %w", cat.Name, ErrNotFound)
		}
		for _, ch := range cat.Challenges {
			if ch.PointValue < 1 || ch.PointValue > 3 {
				return fmt.Errorf("challenge %q point value must be 1-3: %w", ch.Title, ErrQuotaExceeded)
			}
		}
	}
	return nil
}

func (b *ChallengeBoard) challenge(id string) *BoardChallenge {
	for _, cat := range b.Categories {
		for _, ch := range cat.Challenges {
			if ch.ID == id {
				return ch
			}
		}
	}
	return nil
}

// OptionDraftState is the reverse-standings micro-draft that runs when the
// selected challenge carries options.
type OptionDraftState struct {
	Order        []string          `json:"order"` // lowest-ranked first
	CurrentIndex int               `json:"current_index"`
	Taken        map[string]string `json:"taken"` // player id -> option
}

// WeeklyChallengeState is the per-week selection scratchpad. Cleared when the
// week advances; the board itself persists.
type WeeklyChallengeState struct {
	Week                int               `json:"week"`
	PickerID            string            `json:"picker_id"`
	RevealsUsed         int               `json:"reveals_used"`
	RevealedThisWeek    []string          `json:"revealed_this_week"`
	SelectedChallengeID string            `json:"selected_challenge_id"`
	OptionDraft         *OptionDraftState `json:"option_draft"`
}

// beginWeekChallengeLocked opens challenge selection for the current week.
// The picker seat rotates through draft positions, wrapping.
func (s *Season) beginWeekChallengeLocked() {
	idx := (s.CurrentWeek - 1) % len(s.PlayerOrder)
	s.WeekChallenge = &WeeklyChallengeState{
		Week:     s.CurrentWeek,
		PickerID: s.PlayerOrder[idx],
	}
}

// RevealChallenge flips a hidden cell face-up. The weekly picker gets
// RevealLimit reveals before being forced to select.
func (s *Season) RevealChallenge(actor Actor, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wk, err := s.activeWeekChallengeLocked()
	if err != nil {
		return err
	}
	if _, err := s.turnActorLocked(actor, wk.PickerID); err != nil {
		return err
	}
	if wk.SelectedChallengeID != "" {
		return fmt.Errorf("week %d challenge already selected: %w", wk.Week, ErrDuplicateAction)
	}
	if wk.RevealsUsed >= s.Config.RevealLimit {
		return fmt.Errorf("reveal limit %d reached: %w", s.Config.RevealLimit, ErrQuotaExceeded)
	}
	ch := s.Board.challenge(challengeID)
	if ch == nil {
		return fmt.Errorf("challenge %s: %w", challengeID, ErrNotFound)
	}
	if ch.IsSelected {
		return fmt.Errorf("challenge %q was played in week %d: %w", ch.Title, ch.SelectedAtWeek, ErrDuplicateAction)
	}
	if ch.IsRevealed {
		return fmt.Errorf("challenge %q already revealed: %w", ch.Title, ErrDuplicateAction)
	}

	ch.IsRevealed = true
	wk.RevealsUsed++
	wk.RevealedThisWeek = append(wk.RevealedThisWeek, ch.ID)
	s.bumpVersionLocked()
	return nil
}

// SelectChallenge commits the week to a revealed cell. Terminal for the week
// short of a commissioner reset. Challenges with enough options spawn the
// reverse-standings option draft.
func (s *Season) SelectChallenge(actor Actor, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wk, err := s.activeWeekChallengeLocked()
	if err != nil {
		return err
	}
	if _, err := s.turnActorLocked(actor, wk.PickerID); err != nil {
		return err
	}
	if wk.SelectedChallengeID != "" {
		return fmt.Errorf("week %d challenge already selected: %w", wk.Week, ErrDuplicateAction)
	}
	ch := s.Board.challenge(challengeID)
	if ch == nil {
		return fmt.Errorf("challenge %s: %w", challengeID, ErrNotFound)
	}
	if ch.IsSelected {
		return fmt.Errorf("challenge %q was played in week %d: %w", ch.Title, ch.SelectedAtWeek, ErrDuplicateAction)
	}
	if !ch.IsRevealed {
		return fmt.Errorf("challenge %q is still hidden: %w", ch.Title, ErrIllegalTransition)
	}

	ch.IsSelected = true
	ch.SelectedAtWeek = s.CurrentWeek
	wk.SelectedChallengeID = ch.ID

	if len(ch.Options) >= optionDraftMinOptions {
		wk.OptionDraft = &OptionDraftState{
			Order: s.reverseStandingsIDsLocked(),
			Taken: make(map[string]string),
		}
	}
	s.bumpVersionLocked()
	return nil
}

// PickChallengeOption takes one option in the micro-draft, strictly in
// reverse standings order, no repeats.
func (s *Season) PickChallengeOption(actor Actor, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wk, err := s.activeWeekChallengeLocked()
	if err != nil {
		return err
	}
	od := wk.OptionDraft
	if od == nil {
		return fmt.Errorf("no option draft this week: %w", ErrNotFound)
	}
	if od.CurrentIndex >= len(od.Order) {
		return fmt.Errorf("option draft complete: %w", ErrIllegalTransition)
	}
	p, err := s.turnActorLocked(actor, od.Order[od.CurrentIndex])
	if err != nil {
		return err
	}
	ch := s.Board.challenge(wk.SelectedChallengeID)
	if !containsString(ch.Options, option) {
		return fmt.Errorf("option %q not on challenge %q: %w", option, ch.Title, ErrNotFound)
	}
	for _, taken := range od.Taken {
		if taken == option {
			return fmt.Errorf("option %q already taken: %w", option, ErrDuplicateAction)
		}
	}

	od.Taken[p.ID] = option
	od.CurrentIndex++
	s.bumpVersionLocked()
	return nil
}

// ResetWeekChallenge is the one explicit undo primitive: it clears the
// current week's reveals and selection while leaving prior weeks' selections
// intact. Commissioner only.
func (s *Season) ResetWeekChallenge(actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	wk, err := s.activeWeekChallengeLocked()
	if err != nil {
		return err
	}

	for _, id := range wk.RevealedThisWeek {
		if ch := s.Board.challenge(id); ch != nil {
			ch.IsRevealed = false
		}
	}
	if wk.SelectedChallengeID != "" {
		if ch := s.Board.challenge(wk.SelectedChallengeID); ch != nil && ch.SelectedAtWeek == s.CurrentWeek {
			ch.IsSelected = false
			ch.SelectedAtWeek = 0
		}
	}
	s.WeekChallenge = &WeeklyChallengeState{Week: wk.Week, PickerID: wk.PickerID}
	s.bumpVersionLocked()
	return nil
}

func (s *Season) activeWeekChallengeLocked() (*WeeklyChallengeState, error) {
	if s.Phase != PhaseChallengeSelection {
		return nil, fmt.Errorf("season is in %s, not %s: %w", s.Phase, PhaseChallengeSelection, ErrIllegalTransition)
	}
	if s.WeekChallenge == nil {
		return nil, fmt.Errorf("week challenge state: %w", ErrNotFound)
	}
	return s.WeekChallenge, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
