package league

import "fmt"

// Phase is the top-level season state. Transitions walk the fixed sequence
// below, looping from roster evolution back to challenge selection until the
// final week has been played.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDrafting
	PhaseAdvantageSelection
	PhaseChallengeSelection
	PhasePlaylistPresentation
	PhaseVoting
	PhaseRosterEvolution
	PhaseSeasonComplete
)

var phaseNames = map[Phase]string{
	PhaseSetup:                "SETUP",
	PhaseDrafting:             "DRAFTING",
	PhaseAdvantageSelection:   "ADVANTAGE_SELECTION",
	PhaseChallengeSelection:   "IN_SEASON_CHALLENGE_SELECTION",
	PhasePlaylistPresentation: "PLAYLIST_PRESENTATION",
	PhaseVoting:               "VOTING",
	PhaseRosterEvolution:      "ROSTER_EVOLUTION",
	PhaseSeasonComplete:       "SEASON_COMPLETE",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase maps a phase name back to its value.
func ParsePhase(name string) (Phase, bool) {
	for p, n := range phaseNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// CurrentPhase returns the season's phase.
func (s *Season) CurrentPhase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Phase
}

// Week returns the season's current week number.
func (s *Season) Week() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentWeek
}

// NextPhase returns the phase a successful transition would move to.
func (s *Season) NextPhase() (Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextPhaseLocked()
}

func (s *Season) nextPhaseLocked() (Phase, error) {
	switch s.Phase {
	case PhaseSetup:
		return PhaseDrafting, nil
	case PhaseDrafting:
		return PhaseAdvantageSelection, nil
	case PhaseAdvantageSelection:
		return PhaseChallengeSelection, nil
	case PhaseChallengeSelection:
		return PhasePlaylistPresentation, nil
	case PhasePlaylistPresentation:
		return PhaseVoting, nil
	case PhaseVoting:
		return PhaseRosterEvolution, nil
	case PhaseRosterEvolution:
		if s.CurrentWeek >= s.Config.TotalWeeks {
			return PhaseSeasonComplete, nil
		}
		return PhaseChallengeSelection, nil
	default:
		return 0, fmt.Errorf("season is complete: %w", ErrIllegalTransition)
	}
}

// Transition advances the season to target. Commissioner only. Re-invoking a
// transition whose target equals the current phase is a no-op success so
// retried client commands stay harmless.
func (s *Season) Transition(target Phase, actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(target, actor)
}

func (s *Season) transitionLocked(target Phase, actor Actor) error {
	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}
	if target == s.Phase {
		return nil
	}
	next, err := s.nextPhaseLocked()
	if err != nil {
		return err
	}
	if target != next {
		return fmt.Errorf("cannot move %s -> %s, next is %s: %w", s.Phase, target, next, ErrIllegalTransition)
	}
	if err := s.phaseCompleteLocked(); err != nil {
		return err
	}

	s.leavePhaseLocked(target)
	s.Phase = target
	s.enterPhaseLocked(target)
	s.bumpVersionLocked()
	return nil
}

// phaseCompleteLocked is the per-phase precondition: the active engine must
// report completion before the season may leave its phase.
func (s *Season) phaseCompleteLocked() error {
	switch s.Phase {
	case PhaseSetup:
		if len(s.PlayerOrder) < 2 {
			return fmt.Errorf("need at least 2 players: %w", ErrIllegalTransition)
		}
		if s.Board == nil {
			return fmt.Errorf("challenge board not set: %w", ErrIllegalTransition)
		}
		if len(s.Prompts) < s.Config.RosterSize {
			return fmt.Errorf("need at least %d prompts: %w", s.Config.RosterSize, ErrIllegalTransition)
		}
		if len(s.Config.VotingCategories) == 0 {
			return fmt.Errorf("no voting categories configured: %w", ErrIllegalTransition)
		}
		return nil
	case PhaseDrafting:
		if s.Draft == nil || !s.Draft.complete(s.Config.RosterSize) {
			return fmt.Errorf("rosters not locked: %w", ErrIllegalTransition)
		}
		return nil
	case PhaseAdvantageSelection:
		for _, a := range s.Awards {
			if !a.Assigned {
				return fmt.Errorf("award %s still pending: %w", a.ID, ErrIllegalTransition)
			}
		}
		return nil
	case PhaseChallengeSelection:
		if s.WeekChallenge == nil || s.WeekChallenge.SelectedChallengeID == "" {
			return fmt.Errorf("no challenge selected for week %d: %w", s.CurrentWeek, ErrIllegalTransition)
		}
		if od := s.WeekChallenge.OptionDraft; od != nil && od.CurrentIndex < len(od.Order) {
			return fmt.Errorf("option draft incomplete: %w", ErrIllegalTransition)
		}
		return nil
	case PhasePlaylistPresentation:
		for _, id := range s.PlayerOrder {
			sub, ok := s.Submissions[id]
			if !ok || sub.Week != s.CurrentWeek {
				return fmt.Errorf("player %s has not submitted a playlist: %w", id, ErrIllegalTransition)
			}
		}
		return nil
	case PhaseVoting:
		if s.Voting == nil || s.Voting.Status != VotingClosed {
			return fmt.Errorf("voting not closed: %w", ErrIllegalTransition)
		}
		return nil
	case PhaseRosterEvolution:
		if s.Evolution == nil || s.Evolution.CurrentPhase != EvoComplete {
			return fmt.Errorf("roster evolution incomplete: %w", ErrIllegalTransition)
		}
		return nil
	default:
		return fmt.Errorf("season is complete: %w", ErrIllegalTransition)
	}
}

// leavePhaseLocked applies side effects tied to exiting the current phase.
func (s *Season) leavePhaseLocked(target Phase) {
	if s.Phase == PhaseRosterEvolution && target != PhaseSeasonComplete {
		// Advancing out of roster evolution opens the next week: bump the
		// counter and clear all per-week state.
		s.CurrentWeek++
		s.WeekChallenge = nil
		s.Submissions = make(map[string]*PlaylistSubmission)
		s.Voting = nil
	}
}

// enterPhaseLocked applies side effects tied to entering the target phase.
func (s *Season) enterPhaseLocked(target Phase) {
	switch target {
	case PhaseDrafting:
		if s.Draft == nil {
			s.Draft = newDraftState(append([]string(nil), s.PlayerOrder...))
		}
	case PhaseChallengeSelection:
		s.beginWeekChallengeLocked()
	case PhaseVoting:
		s.Voting = newVotingSession(s.CurrentWeek, s.Config.VotingCategories, s.Config.RevealMode)
	case PhaseRosterEvolution:
		s.Evolution = s.newEvolutionStateLocked()
	}
}
