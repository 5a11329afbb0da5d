package league

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixture drives a season through its lifecycle so individual tests can start
// at the phase they care about.
type fixture struct {
	t      *testing.T
	s      *Season
	comm   Actor
	userID []string // index -> user id, in draft order
}

func testConfig() SeasonConfig {
	cfg := DefaultSeasonConfig()
	cfg.RosterSize = 2
	cfg.TotalWeeks = 2
	return cfg
}

// newFixture creates a season in SETUP with n players, prompts and a board
// already installed.
func newFixture(t *testing.T, n int, cfg SeasonConfig) *fixture {
	t.Helper()
	f := &fixture{
		t:    t,
		s:    NewSeason("Test Season", "commish", cfg),
		comm: Actor{UserID: "commish"},
	}
	for i := 0; i < n; i++ {
		userID := fmt.Sprintf("user-%d", i)
		_, err := f.s.AddPlayer(f.comm, userID, fmt.Sprintf("Label %d", i))
		require.NoError(t, err)
		f.userID = append(f.userID, userID)
	}

	// Enough prompts for the draft plus one evolution pick per week.
	prompts := make([]string, 0, cfg.RosterSize+cfg.TotalWeeks)
	for i := 0; i < cfg.RosterSize+cfg.TotalWeeks; i++ {
		prompts = append(prompts, fmt.Sprintf("prompt %d", i))
	}
	require.NoError(t, f.s.SetPrompts(f.comm, prompts))

	require.NoError(t, f.s.SetBoard(f.comm, NewChallengeBoard([]BoardCategorySpec{
		{
			Name: "Vibes",
			Challenges: []BoardChallengeSpec{
				{Title: "One-word titles", PointValue: 1},
				{Title: "Covers only", PointValue: 2},
				{Title: "Decades", PointValue: 3, Options: []string{"60s", "70s", "80s", "90s", "00s"}},
			},
		},
		{
			Name: "Craft",
			Challenges: []BoardChallengeSpec{
				{Title: "Deep cuts", PointValue: 1},
				{Title: "Duets", PointValue: 2},
				{Title: "Live versions", PointValue: 3},
			},
		},
	})))
	return f
}

// actor returns the actor for the i-th player added.
func (f *fixture) actor(i int) Actor {
	return Actor{UserID: f.userID[i]}
}

// player returns the i-th player in draft order.
func (f *fixture) player(i int) *SeasonPlayer {
	return f.s.Players[f.s.PlayerOrder[i]]
}

// actorForPlayerID returns the actor of the user owning the given player id.
func (f *fixture) actorForPlayerID(id string) Actor {
	return Actor{UserID: f.s.Players[id].UserID}
}

func (f *fixture) toDrafting() {
	f.t.Helper()
	require.NoError(f.t, f.s.Transition(PhaseDrafting, f.comm))
}

// runDraft plays a full draft: each round the picker takes the next open
// prompt and every player drafts one unique artist.
func (f *fixture) runDraft() {
	f.t.Helper()
	for round := 1; round <= f.s.Config.RosterSize; round++ {
		picker := f.s.Draft.pickerID()
		open := f.s.OpenPrompts()
		require.NotEmpty(f.t, open)
		require.NoError(f.t, f.s.SelectDraftCategory(f.actorForPlayerID(picker), open[0].ID))

		for i := 0; i < len(f.s.PlayerOrder); i++ {
			turn := f.s.Draft.artistTurnID()
			artist := fmt.Sprintf("artist-r%d-%s", round, turn)
			require.NoError(f.t, f.s.PickDraftArtist(f.actorForPlayerID(turn), artist))
		}
	}
}

func (f *fixture) toChallengeSelection() {
	f.t.Helper()
	f.toDrafting()
	f.runDraft()
	require.NoError(f.t, f.s.Transition(PhaseAdvantageSelection, f.comm))
	require.NoError(f.t, f.s.Transition(PhaseChallengeSelection, f.comm))
}

// pickWeekChallenge reveals and selects the first unplayed option-free
// challenge for the current week.
func (f *fixture) pickWeekChallenge() {
	f.t.Helper()
	picker := f.actorForPlayerID(f.s.WeekChallenge.PickerID)
	for _, cat := range f.s.Board.Categories {
		for _, ch := range cat.Challenges {
			if ch.IsSelected || len(ch.Options) >= optionDraftMinOptions {
				continue
			}
			if !ch.IsRevealed {
				require.NoError(f.t, f.s.RevealChallenge(picker, ch.ID))
			}
			require.NoError(f.t, f.s.SelectChallenge(picker, ch.ID))
			return
		}
	}
	f.t.Fatal("no selectable challenge left on the board")
}

func (f *fixture) toPlaylistPresentation() {
	f.t.Helper()
	// A fresh fixture still needs the draft and challenge pick played out.
	if f.s.Phase == PhaseSetup {
		f.toChallengeSelection()
	}
	f.pickWeekChallenge()
	require.NoError(f.t, f.s.Transition(PhasePlaylistPresentation, f.comm))
}

func (f *fixture) submitAllPlaylists() {
	f.t.Helper()
	for i := range f.s.PlayerOrder {
		pl := &Playlist{
			Name:   fmt.Sprintf("week %d mix", f.s.CurrentWeek),
			Tracks: []Track{{ID: "t1", Name: "Song", Position: 1}},
		}
		require.NoError(f.t, f.s.RecordPlaylistSubmission(f.actor(i), "https://example.com/p", pl))
	}
}

func (f *fixture) toVoting() {
	f.t.Helper()
	f.toPlaylistPresentation()
	f.submitAllPlaylists()
	require.NoError(f.t, f.s.Transition(PhaseVoting, f.comm))
}

// runVoting votes every category to a close: everyone votes for player 0,
// player 0 votes for player 1. Player 0 sweeps every category.
func (f *fixture) runVoting() {
	f.t.Helper()
	for range f.s.Voting.Categories {
		require.NoError(f.t, f.s.StartNextCategory(f.comm))
		cat := f.s.Voting.currentCategory()
		for i, id := range f.s.PlayerOrder {
			nominee := f.s.PlayerOrder[0]
			if id == nominee {
				nominee = f.s.PlayerOrder[1]
			}
			require.NoError(f.t, f.s.CastVote(f.actor(i), cat.ID, nominee))
		}
		require.NoError(f.t, f.s.RevealCategoryResults(f.comm))
	}
	require.Equal(f.t, VotingClosed, f.s.Voting.Status)
}

func (f *fixture) toRosterEvolution() {
	f.t.Helper()
	f.toVoting()
	f.runVoting()
	require.NoError(f.t, f.s.Transition(PhaseRosterEvolution, f.comm))
}

// runGrowthEvolution plays the default growth plan: each player cuts one
// artist, last place picks a prompt, everyone redrafts one artist.
func (f *fixture) runGrowthEvolution() {
	f.t.Helper()
	for i := range f.s.PlayerOrder {
		p := f.player(i)
		require.NoError(f.t, f.s.CutArtist(f.actor(i), p.Roster[0]))
	}

	last := f.s.lastPlaceLocked()
	open := f.s.OpenPrompts()
	require.NotEmpty(f.t, open)
	require.NoError(f.t, f.s.SelectEvolutionPrompt(f.actorForPlayerID(last.ID), open[0].ID))

	for f.s.Evolution.CurrentRedraftIndex >= 0 {
		turn := f.s.Evolution.RedraftOrder[f.s.Evolution.CurrentRedraftIndex]
		artist := fmt.Sprintf("redraft-w%d-%s", f.s.CurrentWeek, turn)
		require.NoError(f.t, f.s.RedraftArtist(f.actorForPlayerID(turn), artist))
	}
	require.Equal(f.t, EvoComplete, f.s.Evolution.CurrentPhase)
}
