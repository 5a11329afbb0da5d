package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardChallenges returns the week's board cells flattened, options-first so
// tests can grab the option-draft challenge easily.
func (f *fixture) findChallenge(withOptions bool) *BoardChallenge {
	for _, cat := range f.s.Board.Categories {
		for _, ch := range cat.Challenges {
			if ch.IsSelected {
				continue
			}
			if withOptions == (len(ch.Options) >= optionDraftMinOptions) {
				return ch
			}
		}
	}
	return nil
}

func TestRevealLimitEnforced(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)

	var cells []*BoardChallenge
	for _, cat := range f.s.Board.Categories {
		cells = append(cells, cat.Challenges...)
	}
	require.GreaterOrEqual(t, len(cells), 3)

	require.NoError(t, f.s.RevealChallenge(picker, cells[0].ID))
	require.NoError(t, f.s.RevealChallenge(picker, cells[1].ID))

	// RevealLimit is 2 by default.
	err := f.s.RevealChallenge(picker, cells[2].ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 2, f.s.WeekChallenge.RevealsUsed)
}

func TestRevealIsPickerOnly(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()
	ch := f.findChallenge(false)

	notPicker := f.actor(1)
	require.NotEqual(t, f.s.WeekChallenge.PickerID, f.s.PlayerOrder[1])
	err := f.s.RevealChallenge(notPicker, ch.ID)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestSelectRequiresRevealed(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	ch := f.findChallenge(false)

	err := f.s.SelectChallenge(picker, ch.ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	require.NoError(t, f.s.RevealChallenge(picker, ch.ID))
	require.NoError(t, f.s.SelectChallenge(picker, ch.ID))
	assert.True(t, ch.IsSelected)
	assert.Equal(t, 1, ch.SelectedAtWeek)
}

func TestSelectIsTerminalForTheWeek(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	ch := f.findChallenge(false)
	require.NoError(t, f.s.RevealChallenge(picker, ch.ID))
	require.NoError(t, f.s.SelectChallenge(picker, ch.ID))

	other := f.findChallenge(false)
	require.NotNil(t, other)
	err := f.s.RevealChallenge(picker, other.ID)
	assert.ErrorIs(t, err, ErrDuplicateAction)
	err = f.s.SelectChallenge(picker, other.ID)
	assert.ErrorIs(t, err, ErrDuplicateAction)
}

func TestOptionDraftRunsReverseStandings(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	ch := f.findChallenge(true)
	require.NotNil(t, ch, "board needs a challenge with options")

	require.NoError(t, f.s.RevealChallenge(picker, ch.ID))
	require.NoError(t, f.s.SelectChallenge(picker, ch.ID))

	od := f.s.WeekChallenge.OptionDraft
	require.NotNil(t, od)
	require.Len(t, od.Order, 3)

	// Week 1, all points tied: reverse standings is reversed draft order.
	assert.Equal(t, f.s.PlayerOrder[2], od.Order[0])
	assert.Equal(t, f.s.PlayerOrder[0], od.Order[2])

	// Strictly in order, no repeated options.
	first := f.actorForPlayerID(od.Order[0])
	second := f.actorForPlayerID(od.Order[1])

	err := f.s.PickChallengeOption(second, ch.Options[0])
	assert.ErrorIs(t, err, ErrNotYourTurn)

	require.NoError(t, f.s.PickChallengeOption(first, ch.Options[0]))
	err = f.s.PickChallengeOption(second, ch.Options[0])
	assert.ErrorIs(t, err, ErrDuplicateAction)
	require.NoError(t, f.s.PickChallengeOption(second, ch.Options[1]))

	err = f.s.PickChallengeOption(f.actorForPlayerID(od.Order[2]), "not-an-option")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, f.s.PickChallengeOption(f.actorForPlayerID(od.Order[2]), ch.Options[2]))

	assert.Equal(t, 3, od.CurrentIndex)

	// The phase gate requires the option draft to be finished, and it is.
	require.NoError(t, f.s.Transition(PhasePlaylistPresentation, f.comm))
}

func TestOptionDraftGatesPhaseExit(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	ch := f.findChallenge(true)
	require.NoError(t, f.s.RevealChallenge(picker, ch.ID))
	require.NoError(t, f.s.SelectChallenge(picker, ch.ID))

	err := f.s.Transition(PhasePlaylistPresentation, f.comm)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestResetWeekChallengeClearsOnlyThisWeek(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toChallengeSelection()

	// Play week 1 to completion on a no-options challenge.
	week1 := f.findChallenge(false)
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	require.NoError(t, f.s.RevealChallenge(picker, week1.ID))
	require.NoError(t, f.s.SelectChallenge(picker, week1.ID))
	require.NoError(t, f.s.Transition(PhasePlaylistPresentation, f.comm))
	f.submitAllPlaylists()
	require.NoError(t, f.s.Transition(PhaseVoting, f.comm))
	f.runVoting()
	require.NoError(t, f.s.Transition(PhaseRosterEvolution, f.comm))
	f.runGrowthEvolution()
	require.NoError(t, f.s.Transition(PhaseChallengeSelection, f.comm))

	// Week 2: reveal and select, then reset.
	picker2 := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	week2 := f.findChallenge(false)
	require.NoError(t, f.s.RevealChallenge(picker2, week2.ID))
	require.NoError(t, f.s.SelectChallenge(picker2, week2.ID))

	require.NoError(t, f.s.ResetWeekChallenge(f.comm))

	// Week 2's marks are gone, week 1's selection survives.
	assert.False(t, week2.IsRevealed)
	assert.False(t, week2.IsSelected)
	assert.True(t, week1.IsSelected)
	assert.Equal(t, 1, week1.SelectedAtWeek)
	assert.Zero(t, f.s.WeekChallenge.RevealsUsed)
	assert.Empty(t, f.s.WeekChallenge.SelectedChallengeID)
}

func TestBoardValidationRejectsBadPointValues(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	bad := NewChallengeBoard([]BoardCategorySpec{
		{Name: "Broken", Challenges: []BoardChallengeSpec{{Title: "Too big", PointValue: 4}}},
	})
	err := f.s.SetBoard(f.comm, bad)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}
