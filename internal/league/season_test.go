package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerRules(t *testing.T) {
	cfg := testConfig()
	s := NewSeason("rules", "commish", cfg)
	comm := Actor{UserID: "commish"}

	_, err := s.AddPlayer(Actor{UserID: "u1"}, "u1", "Label One")
	assert.ErrorIs(t, err, ErrForbidden)

	p1, err := s.AddPlayer(comm, "u1", "Label One")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.DraftPosition)

	// One label per user, one user per label.
	_, err = s.AddPlayer(comm, "u1", "Second Label")
	assert.ErrorIs(t, err, ErrDuplicateAction)
	_, err = s.AddPlayer(comm, "u2", "Label One")
	assert.ErrorIs(t, err, ErrDuplicateAction)

	p2, err := s.AddPlayer(comm, "u2", "Label Two")
	require.NoError(t, err)
	assert.Equal(t, 2, p2.DraftPosition)
}

func TestActingPlayerResolution(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	s := f.s

	// A plain user resolves to their own player.
	p, err := s.actingPlayerLocked(f.actor(0))
	require.NoError(t, err)
	assert.Equal(t, s.PlayerOrder[0], p.ID)

	// A stranger resolves to nothing.
	_, err = s.actingPlayerLocked(Actor{UserID: "stranger"})
	assert.ErrorIs(t, err, ErrForbidden)

	// Players cannot proxy for each other.
	_, err = s.actingPlayerLocked(Actor{UserID: f.userID[0], OnBehalfOf: s.PlayerOrder[1]})
	assert.ErrorIs(t, err, ErrForbidden)

	// The commissioner proxies for any player, but needs an explicit target.
	p, err = s.actingPlayerLocked(Actor{UserID: "commish", OnBehalfOf: s.PlayerOrder[1]})
	require.NoError(t, err)
	assert.Equal(t, s.PlayerOrder[1], p.ID)
	_, err = s.actingPlayerLocked(f.comm)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPlaylistSubmissionWindow(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	pl := &Playlist{Name: "mix", Tracks: []Track{{ID: "t", Name: "Song"}}}

	// Submissions only land during playlist presentation.
	err := f.s.CanSubmitPlaylist(f.actor(0))
	assert.ErrorIs(t, err, ErrIllegalTransition)
	err = f.s.RecordPlaylistSubmission(f.actor(0), "https://x", pl)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	f.toChallengeSelection()
	f.toPlaylistPresentation()

	require.NoError(t, f.s.CanSubmitPlaylist(f.actor(0)))
	require.NoError(t, f.s.RecordPlaylistSubmission(f.actor(0), "https://x", pl))

	sub := f.s.Submissions[f.s.PlayerOrder[0]]
	require.NotNil(t, sub)
	assert.Equal(t, 1, sub.Week)
	assert.Equal(t, "mix", sub.PlaylistName)

	// Re-submitting replaces the week's playlist.
	pl2 := &Playlist{Name: "better mix", Tracks: []Track{{ID: "t2", Name: "Song 2"}}}
	require.NoError(t, f.s.RecordPlaylistSubmission(f.actor(0), "https://y", pl2))
	assert.Equal(t, "better mix", f.s.Submissions[f.s.PlayerOrder[0]].PlaylistName)
	assert.Len(t, f.s.Submissions, 1)
}

func TestPlaylistPresentationGatesOnAllSubmissions(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	f.toChallengeSelection()
	f.toPlaylistPresentation()

	pl := &Playlist{Name: "mix", Tracks: []Track{{ID: "t", Name: "Song"}}}
	require.NoError(t, f.s.RecordPlaylistSubmission(f.actor(0), "https://x", pl))

	err := f.s.Transition(PhaseVoting, f.comm)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	require.NoError(t, f.s.RecordPlaylistSubmission(f.actor(1), "https://y", pl))
	require.NoError(t, f.s.Transition(PhaseVoting, f.comm))
}

func TestStandingsRanking(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.player(0).TotalPoints = 3
	f.player(1).TotalPoints = 8
	f.player(2).TotalPoints = 3

	standings := f.s.Standings()
	require.Len(t, standings, 3)
	assert.Equal(t, f.s.PlayerOrder[1], standings[0].ID)
	assert.Equal(t, 1, standings[0].Rank)
	// Tie at 3 points breaks by draft position.
	assert.Equal(t, f.s.PlayerOrder[0], standings[1].ID)
	assert.Equal(t, f.s.PlayerOrder[2], standings[2].ID)
}

func TestVersionBumpsOnMutation(t *testing.T) {
	f := newFixture(t, 2, testConfig())
	before := f.s.Version
	require.NoError(t, f.s.Transition(PhaseDrafting, f.comm))
	assert.Greater(t, f.s.Version, before)
}
