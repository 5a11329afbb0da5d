package league

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// EarnMethod says how an advantage was earned.
type EarnMethod string

const (
	EarnPlacement  EarnMethod = "PLACEMENT"
	EarnSweep      EarnMethod = "SWEEP"
	EarnChaosDraft EarnMethod = "CHAOS_DRAFT"
)

// AdvantageStatus is the lifecycle of an inventory item. Items are never
// resurrected once consumed.
type AdvantageStatus string

const (
	AdvantageAvailable AdvantageStatus = "available"
	AdvantageUsed      AdvantageStatus = "used"
	AdvantageExpired   AdvantageStatus = "expired"
)

// PlacementReward grants Count tier-Tier advantages to the player finishing
// at Placement. Placements without a row get nothing; 1st and 4th getting
// nothing by default is deliberate, not an omission.
type PlacementReward struct {
	Placement int `json:"placement"`
	Tier      int `json:"tier"`
	Count     int `json:"count"`
}

// SweepReward is granted when one nominee receives every eligible vote in a
// category of the keyed point value.
type SweepReward struct {
	Tier  int `json:"tier"`
	Count int `json:"count"`
}

// AdvantageConfig is the per-season reward rule set.
type AdvantageConfig struct {
	PlacementRewards          []PlacementReward   `json:"placement_rewards"`
	SweepRewards              map[int]SweepReward `json:"sweep_rewards"` // category point value -> reward
	SweepsStack               bool                `json:"sweeps_stack"`
	MaxSweepAdvantagesPerWeek int                 `json:"max_sweep_advantages_per_week"`
	CooldownWeeksDelay        map[int]int         `json:"cooldown_weeks_delay"` // tier -> weeks
}

// DefaultAdvantageConfig returns the stock reward tables.
func DefaultAdvantageConfig() AdvantageConfig {
	return AdvantageConfig{
		PlacementRewards: []PlacementReward{
			{Placement: 2, Tier: 1, Count: 1},
			{Placement: 3, Tier: 2, Count: 1},
		},
		SweepRewards: map[int]SweepReward{
			1: {Tier: 1, Count: 1},
			2: {Tier: 2, Count: 1},
			3: {Tier: 3, Count: 1},
		},
		SweepsStack:               true,
		MaxSweepAdvantagesPerWeek: 2,
		CooldownWeeksDelay: map[int]int{
			1: 0,
			2: 1,
			3: 1,
		},
	}
}

// WeekResult is the voting outcome the rules engine evaluates.
type WeekResult struct {
	Placements map[string]int // player id -> placement (1-based)
	Sweeps     []SweepResult  // in category order
}

// SweepResult is one swept category.
type SweepResult struct {
	PlayerID   string
	CategoryID string
	PointValue int
}

// AwardGrant is one advantage slot owed to a player.
type AwardGrant struct {
	PlayerID  string
	Tier      int
	EarnedVia EarnMethod
}

// EvaluateWeekAwards is a pure function of config and results: it returns
// the award slots a week's outcome earns, in deterministic order, applying
// sweep stacking rules and the weekly cap.
func EvaluateWeekAwards(cfg AdvantageConfig, res WeekResult) []AwardGrant {
	grants := make([]AwardGrant, 0)

	type placed struct {
		playerID  string
		placement int
	}
	byPlacement := make([]placed, 0, len(res.Placements))
	for id, pl := range res.Placements {
		byPlacement = append(byPlacement, placed{playerID: id, placement: pl})
	}
	sort.Slice(byPlacement, func(i, j int) bool {
		if byPlacement[i].placement != byPlacement[j].placement {
			return byPlacement[i].placement < byPlacement[j].placement
		}
		return byPlacement[i].playerID < byPlacement[j].playerID
	})

	for _, p := range byPlacement {
		for _, row := range cfg.PlacementRewards {
			if row.Placement != p.placement {
				continue
			}
			for i := 0; i < row.Count; i++ {
				grants = append(grants, AwardGrant{PlayerID: p.playerID, Tier: row.Tier, EarnedVia: EarnPlacement})
			}
		}
	}

	sweepCounts := make(map[string]int)
	sweptOnce := make(map[string]bool)
	for _, sweep := range res.Sweeps {
		reward, ok := cfg.SweepRewards[sweep.PointValue]
		if !ok || reward.Count == 0 {
			continue
		}
		if !cfg.SweepsStack && sweptOnce[sweep.PlayerID] {
			continue
		}
		for i := 0; i < reward.Count; i++ {
			if cfg.SweepsStack && cfg.MaxSweepAdvantagesPerWeek > 0 &&
				sweepCounts[sweep.PlayerID] >= cfg.MaxSweepAdvantagesPerWeek {
				break
			}
			grants = append(grants, AwardGrant{PlayerID: sweep.PlayerID, Tier: reward.Tier, EarnedVia: EarnSweep})
			sweepCounts[sweep.PlayerID]++
		}
		sweptOnce[sweep.PlayerID] = true
	}

	return grants
}

// AdvantageAward is a pending award slot. A human (or commissioner proxy)
// assigns the concrete advantage code before it becomes usable inventory.
type AdvantageAward struct {
	ID           string     `json:"id"`
	PlayerID     string     `json:"player_id"`
	Week         int        `json:"week"`
	Tier         int        `json:"tier"`
	EarnedVia    EarnMethod `json:"earned_via"`
	Assigned     bool       `json:"assigned"`
	AssignedCode string     `json:"assigned_code"`
}

// AdvantageInventoryItem is a usable advantage with an earn cooldown.
type AdvantageInventoryItem struct {
	ID              string          `json:"id"`
	AwardID         string          `json:"award_id"`
	PlayerID        string          `json:"player_id"`
	Code            string          `json:"code"`
	Tier            int             `json:"tier"`
	Status          AdvantageStatus `json:"status"`
	EarnedVia       EarnMethod      `json:"earned_via"`
	EarnedWeek      int             `json:"earned_week"`
	CanUseAfterWeek int             `json:"can_use_after_week"`
}

// AwardAdvantages evaluates the closed voting session for a week and creates
// one pending award per earned slot. Calling it twice for the same week is a
// duplicate action; undo first.
func (s *Season) AwardAdvantages(actor Actor, week int) ([]*AdvantageAward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return nil, err
	}
	for _, a := range s.Awards {
		if a.Week == week {
			return nil, fmt.Errorf("week %d already awarded: %w", week, ErrDuplicateAction)
		}
	}
	res, err := s.weekResultLocked(week)
	if err != nil {
		return nil, err
	}

	grants := EvaluateWeekAwards(s.Config.Advantages, res)
	created := make([]*AdvantageAward, 0, len(grants))
	for _, g := range grants {
		award := &AdvantageAward{
			ID:        uuid.NewString(),
			PlayerID:  g.PlayerID,
			Week:      week,
			Tier:      g.Tier,
			EarnedVia: g.EarnedVia,
		}
		s.Awards = append(s.Awards, award)
		created = append(created, award)
	}
	s.bumpVersionLocked()
	return created, nil
}

// AssignAdvantage picks the concrete advantage for a pending award slot,
// minting the inventory item with its cooldown gate.
func (s *Season) AssignAdvantage(actor Actor, awardID, code string) (*AdvantageInventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	award := s.awardByIDLocked(awardID)
	if award == nil {
		return nil, fmt.Errorf("award %s: %w", awardID, ErrNotFound)
	}
	if _, err := s.turnActorLocked(actor, award.PlayerID); err != nil {
		return nil, err
	}
	if award.Assigned {
		return nil, fmt.Errorf("award %s already assigned %q: %w", awardID, award.AssignedCode, ErrDuplicateAction)
	}
	if code == "" {
		return nil, fmt.Errorf("advantage code required: %w", ErrNotFound)
	}

	delay := s.Config.Advantages.CooldownWeeksDelay[award.Tier]
	item := &AdvantageInventoryItem{
		ID:              uuid.NewString(),
		AwardID:         award.ID,
		PlayerID:        award.PlayerID,
		Code:            code,
		Tier:            award.Tier,
		Status:          AdvantageAvailable,
		EarnedVia:       award.EarnedVia,
		EarnedWeek:      award.Week,
		CanUseAfterWeek: award.Week + delay,
	}
	award.Assigned = true
	award.AssignedCode = code
	s.Inventory = append(s.Inventory, item)
	s.bumpVersionLocked()
	return item, nil
}

// UseAdvantage consumes an available item. Items cannot be used before their
// cooldown week and are never resurrected once consumed.
func (s *Season) UseAdvantage(actor Actor, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.inventoryByIDLocked(itemID)
	if item == nil {
		return fmt.Errorf("advantage %s: %w", itemID, ErrNotFound)
	}
	if _, err := s.turnActorLocked(actor, item.PlayerID); err != nil {
		return err
	}
	if item.Status != AdvantageAvailable {
		return fmt.Errorf("advantage %s is %s: %w", itemID, item.Status, ErrDuplicateAction)
	}
	if s.CurrentWeek < item.CanUseAfterWeek {
		return fmt.Errorf("advantage %s usable from week %d: %w", itemID, item.CanUseAfterWeek, ErrOnCooldown)
	}

	item.Status = AdvantageUsed
	s.bumpVersionLocked()
	return nil
}

// UndoWeekAdvantageAwards deletes a week's awards and the inventory minted
// from them, all-or-nothing. Replaying AwardAdvantages on unchanged inputs
// reproduces an identical-size, identical-tier award set.
func (s *Season) UndoWeekAdvantageAwards(actor Actor, week int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCommissionerLocked(actor); err != nil {
		return err
	}

	keptAwards := make([]*AdvantageAward, 0, len(s.Awards))
	removed := false
	for _, a := range s.Awards {
		if a.Week == week {
			removed = true
			continue
		}
		keptAwards = append(keptAwards, a)
	}
	if !removed {
		return fmt.Errorf("no awards for week %d: %w", week, ErrNotFound)
	}
	keptItems := make([]*AdvantageInventoryItem, 0, len(s.Inventory))
	for _, item := range s.Inventory {
		if item.EarnedWeek == week {
			continue
		}
		keptItems = append(keptItems, item)
	}

	// Swap both slices together under the lock so the undo is atomic.
	s.Awards = keptAwards
	s.Inventory = keptItems
	s.bumpVersionLocked()
	return nil
}

// PendingAwards lists the unassigned award slots, optionally for one player.
func (s *Season) PendingAwards(playerID string) []AdvantageAward {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AdvantageAward, 0)
	for _, a := range s.Awards {
		if a.Assigned {
			continue
		}
		if playerID != "" && a.PlayerID != playerID {
			continue
		}
		out = append(out, *a)
	}
	return out
}

func (s *Season) awardByIDLocked(id string) *AdvantageAward {
	for _, a := range s.Awards {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Season) inventoryByIDLocked(id string) *AdvantageInventoryItem {
	for _, item := range s.Inventory {
		if item.ID == id {
			return item
		}
	}
	return nil
}
