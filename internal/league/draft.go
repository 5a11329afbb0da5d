package league

import (
	"fmt"
	"math/rand"
)

// DraftStage is the step within a draft round.
type DraftStage int

const (
	// DraftStageCategoryPick waits on the round's picker to choose a prompt.
	DraftStageCategoryPick DraftStage = iota
	// DraftStageArtistPicks waits on every player, in order starting from
	// the picker, to name one artist for the chosen prompt.
	DraftStageArtistPicks
)

// DraftPick is one logged artist pick.
type DraftPick struct {
	Round    int    `json:"round"`
	PlayerID string `json:"player_id"`
	PromptID string `json:"prompt_id"`
	Artist   string `json:"artist"`
}

// DraftState is the per-draft-cycle turn machine. One exists per season;
// Reset replaces it wholesale.
type DraftState struct {
	Order              []string    `json:"order"` // player ids, fixed for the cycle
	CurrentRound       int         `json:"current_round"`
	RoundsCompleted    int         `json:"rounds_completed"`
	CurrentPickerIndex int         `json:"current_picker_index"`
	Stage              DraftStage  `json:"stage"`
	TurnOffset         int         `json:"turn_offset"` // artist picks made this round
	CurrentPromptID    string      `json:"current_prompt_id"`
	Picks              []DraftPick `json:"picks"`
}

func newDraftState(order []string) *DraftState {
	return &DraftState{
		Order:        order,
		CurrentRound: 1,
		Picks:        make([]DraftPick, 0),
	}
}

func (d *DraftState) complete(rosterSize int) bool {
	return d.RoundsCompleted >= rosterSize
}

// pickerID is the player who selects this round's category.
func (d *DraftState) pickerID() string {
	return d.Order[d.CurrentPickerIndex]
}

// artistTurnID is the player whose artist pick is next.
func (d *DraftState) artistTurnID() string {
	return d.Order[(d.CurrentPickerIndex+d.TurnOffset)%len(d.Order)]
}

// SelectDraftCategory lets the round's picker choose an open prompt. The
// prompt is marked selected immediately and stays consumed for the cycle.
func (s *Season) SelectDraftCategory(actor Actor, promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.activeDraftLocked()
	if err != nil {
		return err
	}
	if d.Stage != DraftStageCategoryPick {
		return fmt.Errorf("round %d already has a category: %w", d.CurrentRound, ErrDuplicateAction)
	}
	if _, err := s.turnActorLocked(actor, d.pickerID()); err != nil {
		return err
	}
	prompt := s.promptByIDLocked(promptID)
	if prompt == nil {
		return fmt.Errorf("prompt %s: %w", promptID, ErrNotFound)
	}
	if prompt.Status != PromptOpen {
		return fmt.Errorf("prompt %q already selected: %w", prompt.Text, ErrDuplicateAction)
	}

	prompt.Status = PromptSelected
	prompt.SelectedBy = d.pickerID()
	d.CurrentPromptID = promptID
	d.Stage = DraftStageArtistPicks
	d.TurnOffset = 0
	s.bumpVersionLocked()
	return nil
}

// PickDraftArtist records the artist pick for whoever's turn it is. When all
// players have picked, the round closes and the picker seat rotates.
func (s *Season) PickDraftArtist(actor Actor, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.activeDraftLocked()
	if err != nil {
		return err
	}
	if d.Stage != DraftStageArtistPicks {
		return fmt.Errorf("round %d has no category yet: %w", d.CurrentRound, ErrIllegalTransition)
	}
	p, err := s.turnActorLocked(actor, d.artistTurnID())
	if err != nil {
		return err
	}
	if artist == "" {
		return fmt.Errorf("artist name required: %w", ErrNotFound)
	}
	if rosterContains(p.Roster, artist) {
		return fmt.Errorf("%q already on %s roster: %w", artist, p.Label, ErrDuplicateAction)
	}

	p.Roster = append(p.Roster, artist)
	d.Picks = append(d.Picks, DraftPick{
		Round:    d.CurrentRound,
		PlayerID: p.ID,
		PromptID: d.CurrentPromptID,
		Artist:   artist,
	})
	d.TurnOffset++

	if d.TurnOffset >= len(d.Order) {
		d.RoundsCompleted++
		d.CurrentRound++
		d.CurrentPickerIndex = (d.CurrentPickerIndex + 1) % len(d.Order)
		d.Stage = DraftStageCategoryPick
		d.TurnOffset = 0
		d.CurrentPromptID = ""
	}
	s.bumpVersionLocked()
	return nil
}

// ResetDraft discards the draft wholesale: rosters emptied, prompts consumed
// by the draft reopened, and a fresh order generated (shuffled on request,
// with draft positions reassigned to match).
func (s *Season) ResetDraft(actor Actor, randomizeOrder bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	if s.Phase != PhaseDrafting {
		return fmt.Errorf("draft reset only during drafting: %w", ErrIllegalTransition)
	}

	if s.Draft != nil {
		reopen := map[string]bool{}
		for _, pick := range s.Draft.Picks {
			reopen[pick.PromptID] = true
		}
		if s.Draft.CurrentPromptID != "" {
			reopen[s.Draft.CurrentPromptID] = true
		}
		for _, prompt := range s.Prompts {
			if reopen[prompt.ID] {
				prompt.Status = PromptOpen
				prompt.SelectedBy = ""
			}
		}
	}

	order := append([]string(nil), s.PlayerOrder...)
	if randomizeOrder {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		for pos, id := range order {
			s.Players[id].DraftPosition = pos + 1
		}
		s.PlayerOrder = order
	}
	for _, id := range order {
		s.Players[id].Roster = s.Players[id].Roster[:0]
	}
	s.Draft = newDraftState(append([]string(nil), order...))
	s.bumpVersionLocked()
	return nil
}

func (s *Season) activeDraftLocked() (*DraftState, error) {
	if s.Phase != PhaseDrafting {
		return nil, fmt.Errorf("season is in %s, not DRAFTING: %w", s.Phase, ErrIllegalTransition)
	}
	if s.Draft == nil {
		return nil, fmt.Errorf("draft state: %w", ErrNotFound)
	}
	if s.Draft.complete(s.Config.RosterSize) {
		return nil, fmt.Errorf("draft already complete: %w", ErrIllegalTransition)
	}
	return s.Draft, nil
}

func (s *Season) promptByIDLocked(id string) *Prompt {
	for _, p := range s.Prompts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// OpenPrompts returns the prompts still available for selection.
func (s *Season) OpenPrompts() []Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Prompt, 0, len(s.Prompts))
	for _, p := range s.Prompts {
		if p.Status == PromptOpen {
			out = append(out, *p)
		}
	}
	return out
}
