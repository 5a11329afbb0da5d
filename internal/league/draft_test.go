package league

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftCategoryPickIsPickerOnly(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	open := f.s.OpenPrompts()

	// Player 1 is not the round-1 picker.
	err := f.s.SelectDraftCategory(f.actor(1), open[0].ID)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	require.NoError(t, f.s.SelectDraftCategory(f.actor(0), open[0].ID))
	assert.Equal(t, DraftStageArtistPicks, f.s.Draft.Stage)
}

func TestDraftCategoryConsumesPrompt(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	open := f.s.OpenPrompts()
	promptID := open[0].ID

	require.NoError(t, f.s.SelectDraftCategory(f.actor(0), promptID))

	// The prompt is consumed immediately and cannot be re-selected.
	for _, p := range f.s.OpenPrompts() {
		assert.NotEqual(t, promptID, p.ID)
	}

	// A second category pick in the same round is a duplicate.
	err := f.s.SelectDraftCategory(f.actor(0), open[1].ID)
	assert.ErrorIs(t, err, ErrDuplicateAction)
}

func TestDraftArtistPicksRotateFromPicker(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	open := f.s.OpenPrompts()
	require.NoError(t, f.s.SelectDraftCategory(f.actor(0), open[0].ID))

	// Picks run picker-first, in order.
	assert.Equal(t, f.s.PlayerOrder[0], f.s.Draft.artistTurnID())
	require.NoError(t, f.s.PickDraftArtist(f.actor(0), "Artist A"))
	assert.Equal(t, f.s.PlayerOrder[1], f.s.Draft.artistTurnID())

	// Out of turn pick rejected.
	err := f.s.PickDraftArtist(f.actor(0), "Artist B")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	require.NoError(t, f.s.PickDraftArtist(f.actor(1), "Artist B"))
	require.NoError(t, f.s.PickDraftArtist(f.actor(2), "Artist C"))

	// Round closed; picker seat rotated.
	assert.Equal(t, 1, f.s.Draft.RoundsCompleted)
	assert.Equal(t, DraftStageCategoryPick, f.s.Draft.Stage)
	assert.Equal(t, f.s.PlayerOrder[1], f.s.Draft.pickerID())
}

func TestDraftRejectsDuplicateArtistOnRoster(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	f.toDrafting()
	open := f.s.OpenPrompts()
	require.NoError(t, f.s.SelectDraftCategory(f.actor(0), open[0].ID))
	require.NoError(t, f.s.PickDraftArtist(f.actor(0), "Same Artist"))
	require.NoError(t, f.s.PickDraftArtist(f.actor(1), "Other Artist"))

	require.NoError(t, f.s.SelectDraftCategory(f.actor(1), open[1].ID))
	err := f.s.PickDraftArtist(f.actor(1), "Other Artist")
	assert.ErrorIs(t, err, ErrDuplicateAction)
}

func TestDraftCompletionLocksRosters(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	f.runDraft()

	require.True(t, f.s.Draft.complete(f.s.Config.RosterSize))
	for i := 0; i < 3; i++ {
		assert.Len(t, f.player(i).Roster, f.s.Config.RosterSize)
	}

	open := f.s.OpenPrompts()
	require.NotEmpty(t, open)
	err := f.s.SelectDraftCategory(f.actor(0), open[0].ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestDraftCommissionerMayTakeCurrentTurn(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	open := f.s.OpenPrompts()

	// The commissioner takes the picker's turn without an explicit proxy.
	require.NoError(t, f.s.SelectDraftCategory(f.comm, open[0].ID))

	// And takes an artist turn with an explicit proxy target.
	turn := f.s.Draft.artistTurnID()
	proxy := Actor{UserID: "commish", OnBehalfOf: turn}
	require.NoError(t, f.s.PickDraftArtist(proxy, "Proxy Pick"))
	assert.Contains(t, f.s.Players[turn].Roster, "Proxy Pick")

	// A proxy naming the wrong player is still out of turn.
	wrong := Actor{UserID: "commish", OnBehalfOf: f.s.PlayerOrder[2]}
	err := f.s.PickDraftArtist(wrong, "Wrong Seat")
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestResetDraftReopensPromptsAndClearsRosters(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	open := f.s.OpenPrompts()
	openBefore := len(open)
	require.NoError(t, f.s.SelectDraftCategory(f.actor(0), open[0].ID))
	require.NoError(t, f.s.PickDraftArtist(f.actor(0), "Someone"))

	require.NoError(t, f.s.ResetDraft(f.comm, false))

	assert.Len(t, f.s.OpenPrompts(), openBefore)
	for i := 0; i < 3; i++ {
		assert.Empty(t, f.player(i).Roster)
	}
	assert.Equal(t, 1, f.s.Draft.CurrentRound)
	assert.Empty(t, f.s.Draft.Picks)
}

func TestResetDraftRandomizeReassignsPositions(t *testing.T) {
	f := newFixture(t, 4, testConfig())
	f.toDrafting()

	require.NoError(t, f.s.ResetDraft(f.comm, true))

	// Whatever the shuffle produced, positions must be 1..n matching order.
	seen := make(map[int]bool)
	for pos, id := range f.s.PlayerOrder {
		p := f.s.Players[id]
		assert.Equal(t, pos+1, p.DraftPosition)
		seen[p.DraftPosition] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, f.s.PlayerOrder, f.s.Draft.Order)
}

func TestResetDraftIsCommissionerOnly(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	f.toDrafting()
	err := f.s.ResetDraft(f.actor(0), false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestFullDraftProducesExpectedPickLog(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toDrafting()
	f.runDraft()

	wantPicks := f.s.Config.RosterSize * 3
	require.Len(t, f.s.Draft.Picks, wantPicks)
	for i, pick := range f.s.Draft.Picks {
		round := i/3 + 1
		assert.Equal(t, round, pick.Round, fmt.Sprintf("pick %d", i))
		assert.NotEmpty(t, pick.PromptID)
	}
}
