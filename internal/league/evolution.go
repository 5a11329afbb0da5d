package league

import (
	"fmt"

	"github.com/google/uuid"
)

// WeekType is the roster-evolution archetype for a week.
type WeekType string

const (
	WeekGrowth WeekType = "GROWTH"
	WeekChaos  WeekType = "CHAOS"
	WeekSkip   WeekType = "SKIP"
)

// EvolutionPhase is the sub-state within a roster evolution week.
type EvolutionPhase int

const (
	EvoSelfCut EvolutionPhase = iota
	EvoChaosCuts
	EvoAdvantageDraft
	EvoPromptSelection
	EvoRedraft
	EvoPoolDraft
	EvoComplete
)

var evoPhaseNames = map[EvolutionPhase]string{
	EvoSelfCut:         "SELF_CUT",
	EvoChaosCuts:       "CHAOS_CUTS",
	EvoAdvantageDraft:  "ADVANTAGE_DRAFT",
	EvoPromptSelection: "PROMPT_SELECTION",
	EvoRedraft:         "REDRAFT",
	EvoPoolDraft:       "POOL_DRAFT",
	EvoComplete:        "COMPLETE",
}

func (p EvolutionPhase) String() string {
	if name, ok := evoPhaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("EVO_%d", int(p))
}

// ChaosAdvantageDraftConfig enables the bonus advantage draft in chaos weeks.
type ChaosAdvantageDraftConfig struct {
	Enabled        bool `json:"enabled"`
	AdvantageCount int  `json:"advantage_count"`
	Tier           int  `json:"tier"`
}

// EvolutionPlan configures one week's evolution magnitudes.
type EvolutionPlan struct {
	WeekType                      WeekType                  `json:"week_type"`
	SelfCutCount                  int                       `json:"self_cut_count"`
	RedraftCount                  int                       `json:"redraft_count"`              // GROWTH picks per player
	RedraftTargetRosterSize       int                       `json:"redraft_target_roster_size"` // CHAOS refill target
	IncludesPoolDraft             bool                      `json:"includes_pool_draft"`
	PoolDraftCount                int                       `json:"pool_draft_count"`
	BanishOldPool                 bool                      `json:"banish_old_pool"`
	BaseProtectionCount           int                       `json:"base_protection_count"`
	FirstPlaceProtectionReduction int                       `json:"first_place_protection_reduction"`
	OpponentCutsPerPlayer         int                       `json:"opponent_cuts_per_player"`
	ChaosAdvantageDraft           ChaosAdvantageDraftConfig `json:"chaos_advantage_draft"`
}

// DefaultGrowthPlan is the stock growth week: cut one, redraft one.
func DefaultGrowthPlan() EvolutionPlan {
	return EvolutionPlan{
		WeekType:     WeekGrowth,
		SelfCutCount: 1,
		RedraftCount: 1,
	}
}

// RosterEvolutionState is the per-week evolution machine.
type RosterEvolutionState struct {
	Week         int            `json:"week"`
	WeekType     WeekType       `json:"week_type"`
	Plan         EvolutionPlan  `json:"plan"`
	CurrentPhase EvolutionPhase `json:"current_phase"`

	SelfCuts map[string]int `json:"self_cuts"` // player id -> cuts made

	ProtectionQuota  map[string]int      `json:"protection_quota"`
	Protections      map[string][]string `json:"protections"`        // player id -> protected artists
	OpponentCutsMade map[string]int      `json:"opponent_cuts_made"` // cutter id -> cuts inflicted

	AdvantageDraftOrder []string       `json:"advantage_draft_order"`
	AdvantageDraftIndex int            `json:"advantage_draft_index"`
	AdvantagePicks      map[string]int `json:"advantage_picks"`

	PromptID string `json:"prompt_id"`

	RedraftOrder        []string       `json:"redraft_order"`
	CurrentRedraftIndex int            `json:"current_redraft_index"`
	RedraftQuota        map[string]int `json:"redraft_quota"`
	RedraftProgress     map[string]int `json:"redraft_progress"`

	PoolDraftOrder        []string       `json:"pool_draft_order"`
	CurrentPoolDraftIndex int            `json:"current_pool_draft_index"`
	PoolDraftQuota        map[string]int `json:"pool_draft_quota"`
	PoolDraftProgress     map[string]int `json:"pool_draft_progress"`
}

// newEvolutionStateLocked builds the state for the current week's plan. SKIP
// weeks initialize directly in COMPLETE.
func (s *Season) newEvolutionStateLocked() *RosterEvolutionState {
	plan, ok := s.Config.WeekPlans[s.CurrentWeek]
	if !ok {
		plan = DefaultGrowthPlan()
	}
	evo := &RosterEvolutionState{
		Week:         s.CurrentWeek,
		WeekType:     plan.WeekType,
		Plan:         plan,
		CurrentPhase: EvoSelfCut,
		SelfCuts:     make(map[string]int),
	}
	if plan.WeekType == WeekSkip {
		evo.CurrentPhase = EvoComplete
		return evo
	}
	for _, id := range s.PlayerOrder {
		evo.SelfCuts[id] = 0
	}
	s.advanceEvolutionLocked(evo)
	return evo
}

// CutArtist moves one artist from the actor's roster into the shared pool
// during SELF_CUT. Quota is the plan's selfCutCount.
func (s *Season) CutArtist(actor Actor, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoSelfCut)
	if err != nil {
		return err
	}
	p, err := s.actingPlayerLocked(actor)
	if err != nil {
		return err
	}
	if evo.SelfCuts[p.ID] >= evo.Plan.SelfCutCount {
		return fmt.Errorf("%s already cut %d artists: %w", p.Label, evo.Plan.SelfCutCount, ErrQuotaExceeded)
	}
	if !rosterContains(p.Roster, artist) {
		return fmt.Errorf("%q not on %s roster: %w", artist, p.Label, ErrNotFound)
	}

	p.Roster = removeFromRoster(p.Roster, artist)
	s.Pool = append(s.Pool, artist)
	evo.SelfCuts[p.ID]++
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// ProtectArtist shields one of the actor's artists from opponent-forced cuts
// during a chaos week. The standings leader gets a reduced quota.
func (s *Season) ProtectArtist(actor Actor, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoChaosCuts)
	if err != nil {
		return err
	}
	p, err := s.actingPlayerLocked(actor)
	if err != nil {
		return err
	}
	if len(evo.Protections[p.ID]) >= evo.ProtectionQuota[p.ID] {
		return fmt.Errorf("%s already protected %d artists: %w", p.Label, evo.ProtectionQuota[p.ID], ErrQuotaExceeded)
	}
	if !rosterContains(p.Roster, artist) {
		return fmt.Errorf("%q not on %s roster: %w", artist, p.Label, ErrNotFound)
	}
	if containsString(evo.Protections[p.ID], artist) {
		return fmt.Errorf("%q already protected: %w", artist, ErrDuplicateAction)
	}

	evo.Protections[p.ID] = append(evo.Protections[p.ID], artist)
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// CutOpponentArtist inflicts one cut on an opponent's roster. All protections
// must be resolved before any opponent cut lands.
func (s *Season) CutOpponentArtist(actor Actor, targetPlayerID, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoChaosCuts)
	if err != nil {
		return err
	}
	if !evo.protectionsResolved() {
		return fmt.Errorf("protections not resolved: %w", ErrIllegalTransition)
	}
	p, err := s.actingPlayerLocked(actor)
	if err != nil {
		return err
	}
	target, ok := s.Players[targetPlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", targetPlayerID, ErrNotFound)
	}
	if target.ID == p.ID {
		return fmt.Errorf("opponent cuts cannot target your own roster: %w", ErrForbidden)
	}
	if evo.OpponentCutsMade[p.ID] >= evo.Plan.OpponentCutsPerPlayer {
		return fmt.Errorf("%s already inflicted %d cuts: %w", p.Label, evo.Plan.OpponentCutsPerPlayer, ErrQuotaExceeded)
	}
	if !rosterContains(target.Roster, artist) {
		return fmt.Errorf("%q not on %s roster: %w", artist, target.Label, ErrNotFound)
	}
	if containsString(evo.Protections[target.ID], artist) {
		return fmt.Errorf("%q is protected: %w", artist, ErrForbidden)
	}

	target.Roster = removeFromRoster(target.Roster, artist)
	s.Pool = append(s.Pool, artist)
	evo.OpponentCutsMade[p.ID]++
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// PickChaosAdvantage drafts one bonus advantage in the chaos advantage draft,
// reverse standings order. Items mint directly into inventory with the
// configured tier's cooldown.
func (s *Season) PickChaosAdvantage(actor Actor, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoAdvantageDraft)
	if err != nil {
		return err
	}
	if evo.AdvantageDraftIndex < 0 {
		return fmt.Errorf("advantage draft complete: %w", ErrIllegalTransition)
	}
	p, err := s.turnActorLocked(actor, evo.AdvantageDraftOrder[evo.AdvantageDraftIndex])
	if err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("advantage code required: %w", ErrNotFound)
	}

	tier := evo.Plan.ChaosAdvantageDraft.Tier
	s.Inventory = append(s.Inventory, &AdvantageInventoryItem{
		ID:              uuid.NewString(),
		PlayerID:        p.ID,
		Code:            code,
		Tier:            tier,
		Status:          AdvantageAvailable,
		EarnedVia:       EarnChaosDraft,
		EarnedWeek:      s.CurrentWeek,
		CanUseAfterWeek: s.CurrentWeek + s.Config.Advantages.CooldownWeeksDelay[tier],
	})
	evo.AdvantagePicks[p.ID]++
	evo.AdvantageDraftIndex = nextTurnIndex(evo.AdvantageDraftOrder, evo.AdvantageDraftIndex, evo.AdvantagePicks, quotaMap(evo.AdvantageDraftOrder, evo.Plan.ChaosAdvantageDraft.AdvantageCount))
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// SelectEvolutionPrompt lets the last-place player pick the week's mandatory
// redraft theme from the open prompts.
func (s *Season) SelectEvolutionPrompt(actor Actor, promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoPromptSelection)
	if err != nil {
		return err
	}
	last := s.lastPlaceLocked()
	p, err := s.turnActorLocked(actor, last.ID)
	if err != nil {
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
	prompt.SelectedAtWeek = s.CurrentWeek
	prompt.SelectedBy = p.ID
	evo.PromptID = promptID
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// RedraftArtist records one redraft pick bound to the week's prompt,
// turn-based in the configured order.
func (s *Season) RedraftArtist(actor Actor, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoRedraft)
	if err != nil {
		return err
	}
	if evo.CurrentRedraftIndex < 0 {
		return fmt.Errorf("redraft complete: %w", ErrIllegalTransition)
	}
	p, err := s.turnActorLocked(actor, evo.RedraftOrder[evo.CurrentRedraftIndex])
	if err != nil {
		return err
	}
	if evo.RedraftProgress[p.ID] >= evo.RedraftQuota[p.ID] {
		return fmt.Errorf("%s redraft quota met: %w", p.Label, ErrQuotaExceeded)
	}
	if artist == "" {
		return fmt.Errorf("artist name required: %w", ErrNotFound)
	}
	if rosterContains(p.Roster, artist) {
		return fmt.Errorf("%q already on %s roster: %w", artist, p.Label, ErrDuplicateAction)
	}

	p.Roster = append(p.Roster, artist)
	evo.RedraftProgress[p.ID]++
	evo.CurrentRedraftIndex = nextTurnIndex(evo.RedraftOrder, evo.CurrentRedraftIndex, evo.RedraftProgress, evo.RedraftQuota)
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// PoolDraftArtist takes one artist out of the shared pool, turn-based. The
// phase ends when quotas are met or the pool runs dry.
func (s *Season) PoolDraftArtist(actor Actor, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evo, err := s.evolutionPhaseLocked(EvoPoolDraft)
	if err != nil {
		return err
	}
	if evo.CurrentPoolDraftIndex < 0 {
		return fmt.Errorf("pool draft complete: %w", ErrIllegalTransition)
	}
	p, err := s.turnActorLocked(actor, evo.PoolDraftOrder[evo.CurrentPoolDraftIndex])
	if err != nil {
		return err
	}
	if !containsString(s.Pool, artist) {
		return fmt.Errorf("%q not in pool: %w", artist, ErrNotFound)
	}
	if rosterContains(p.Roster, artist) {
		return fmt.Errorf("%q already on %s roster: %w", artist, p.Label, ErrDuplicateAction)
	}

	s.Pool = removeFromRoster(s.Pool, artist)
	p.Roster = append(p.Roster, artist)
	evo.PoolDraftProgress[p.ID]++
	evo.CurrentPoolDraftIndex = nextTurnIndex(evo.PoolDraftOrder, evo.CurrentPoolDraftIndex, evo.PoolDraftProgress, evo.PoolDraftQuota)
	s.advanceEvolutionLocked(evo)
	s.bumpVersionLocked()
	return nil
}

// CompleteRosterEvolution advances the season out of roster evolution once
// the week's sub-machine is COMPLETE. Commissioner only.
func (s *Season) CompleteRosterEvolution(actor Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseRosterEvolution {
		return fmt.Errorf("season is in %s, not ROSTER_EVOLUTION: %w", s.Phase, ErrIllegalTransition)
	}
	next, err := s.nextPhaseLocked()
	if err != nil {
		return err
	}
	return s.transitionLocked(next, actor)
}

// ---- sub-machine plumbing ----

func (s *Season) evolutionPhaseLocked(want EvolutionPhase) (*RosterEvolutionState, error) {
	if s.Phase != PhaseRosterEvolution {
		return nil, fmt.Errorf("season is in %s, not ROSTER_EVOLUTION: %w", s.Phase, ErrIllegalTransition)
	}
	if s.Evolution == nil {
		return nil, fmt.Errorf("evolution state: %w", ErrNotFound)
	}
	if s.Evolution.CurrentPhase != want {
		return nil, fmt.Errorf("evolution is in %s, not %s: %w", s.Evolution.CurrentPhase, want, ErrIllegalTransition)
	}
	return s.Evolution, nil
}

func (evo *RosterEvolutionState) protectionsResolved() bool {
	for id, quota := range evo.ProtectionQuota {
		if len(evo.Protections[id]) < quota {
			return false
		}
	}
	return true
}

// advanceEvolutionLocked walks the sub-machine forward through every phase
// whose completion condition already holds, running each phase's entry setup.
func (s *Season) advanceEvolutionLocked(evo *RosterEvolutionState) {
	for evo.CurrentPhase != EvoComplete && s.evoPhaseCompleteLocked(evo) {
		next := s.nextEvoPhaseLocked(evo)
		evo.CurrentPhase = next
		s.enterEvoPhaseLocked(evo, next)
	}
}

func (s *Season) evoPhaseCompleteLocked(evo *RosterEvolutionState) bool {
	switch evo.CurrentPhase {
	case EvoSelfCut:
		for _, id := range s.PlayerOrder {
			if evo.SelfCuts[id] < evo.Plan.SelfCutCount {
				return false
			}
		}
		return true
	case EvoChaosCuts:
		if !evo.protectionsResolved() {
			return false
		}
		for _, id := range s.PlayerOrder {
			if evo.OpponentCutsMade[id] < evo.Plan.OpponentCutsPerPlayer {
				return false
			}
		}
		return true
	case EvoAdvantageDraft:
		return evo.AdvantageDraftIndex < 0
	case EvoPromptSelection:
		return evo.PromptID != ""
	case EvoRedraft:
		return evo.CurrentRedraftIndex < 0
	case EvoPoolDraft:
		if evo.CurrentPoolDraftIndex < 0 {
			return true
		}
		return len(s.Pool) == 0
	default:
		return false
	}
}

func (s *Season) nextEvoPhaseLocked(evo *RosterEvolutionState) EvolutionPhase {
	switch evo.CurrentPhase {
	case EvoSelfCut:
		if evo.WeekType == WeekChaos {
			return EvoChaosCuts
		}
		return EvoPromptSelection
	case EvoChaosCuts:
		if evo.Plan.ChaosAdvantageDraft.Enabled {
			return EvoAdvantageDraft
		}
		return EvoPromptSelection
	case EvoAdvantageDraft:
		return EvoPromptSelection
	case EvoPromptSelection:
		return EvoRedraft
	case EvoRedraft:
		if evo.Plan.IncludesPoolDraft {
			return EvoPoolDraft
		}
		return EvoComplete
	default:
		return EvoComplete
	}
}

func (s *Season) enterEvoPhaseLocked(evo *RosterEvolutionState, phase EvolutionPhase) {
	switch phase {
	case EvoChaosCuts:
		evo.ProtectionQuota = make(map[string]int)
		evo.Protections = make(map[string][]string)
		evo.OpponentCutsMade = make(map[string]int)
		leader := s.firstPlaceLocked()
		for _, id := range s.PlayerOrder {
			quota := evo.Plan.BaseProtectionCount
			if leader != nil && id == leader.ID {
				quota -= evo.Plan.FirstPlaceProtectionReduction
			}
			if quota < 0 {
				quota = 0
			}
			evo.ProtectionQuota[id] = quota
			evo.OpponentCutsMade[id] = 0
		}
	case EvoAdvantageDraft:
		evo.AdvantageDraftOrder = s.reverseStandingsIDsLocked()
		evo.AdvantagePicks = make(map[string]int)
		evo.AdvantageDraftIndex = nextTurnIndex(evo.AdvantageDraftOrder, -1, evo.AdvantagePicks, quotaMap(evo.AdvantageDraftOrder, evo.Plan.ChaosAdvantageDraft.AdvantageCount))
	case EvoRedraft:
		evo.RedraftOrder = s.reverseStandingsIDsLocked()
		evo.RedraftQuota = make(map[string]int)
		evo.RedraftProgress = make(map[string]int)
		for _, id := range evo.RedraftOrder {
			quota := evo.Plan.RedraftCount
			if evo.WeekType == WeekChaos {
				quota = evo.Plan.RedraftTargetRosterSize - len(s.Players[id].Roster)
				if quota < 0 {
					quota = 0
				}
			}
			evo.RedraftQuota[id] = quota
		}
		evo.CurrentRedraftIndex = nextTurnIndex(evo.RedraftOrder, -1, evo.RedraftProgress, evo.RedraftQuota)
	case EvoPoolDraft:
		evo.PoolDraftOrder = s.reverseStandingsIDsLocked()
		evo.PoolDraftQuota = quotaMap(evo.PoolDraftOrder, evo.Plan.PoolDraftCount)
		evo.PoolDraftProgress = make(map[string]int)
		evo.CurrentPoolDraftIndex = nextTurnIndex(evo.PoolDraftOrder, -1, evo.PoolDraftProgress, evo.PoolDraftQuota)
	case EvoComplete:
		if evo.Plan.IncludesPoolDraft && evo.Plan.BanishOldPool {
			// Stale pool entries are gone for good once the draft closes.
			s.Pool = nil
		}
	}
}

// nextTurnIndex advances a wrapping cursor to the next player with quota
// remaining, starting after idx. Returns -1 when every quota is met.
func nextTurnIndex(order []string, idx int, progress, quota map[string]int) int {
	for step := 1; step <= len(order); step++ {
		candidate := (idx + step) % len(order)
		if candidate < 0 {
			candidate += len(order)
		}
		id := order[candidate]
		if progress[id] < quota[id] {
			return candidate
		}
	}
	return -1
}

func quotaMap(order []string, quota int) map[string]int {
	m := make(map[string]int, len(order))
	for _, id := range order {
		m[id] = quota
	}
	return m
}
