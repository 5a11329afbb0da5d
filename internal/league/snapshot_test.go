package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalStateRoundTrip(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	f.toVoting()
	f.runVoting()

	doc, version, err := f.s.MarshalState()
	require.NoError(t, err)
	assert.Equal(t, f.s.Version, version)

	restored, err := UnmarshalSeason(doc)
	require.NoError(t, err)

	assert.Equal(t, f.s.ID, restored.ID)
	assert.Equal(t, f.s.Phase, restored.Phase)
	assert.Equal(t, f.s.CurrentWeek, restored.CurrentWeek)
	assert.Equal(t, f.s.Version, restored.Version)
	assert.Equal(t, f.s.PlayerOrder, restored.PlayerOrder)
	require.Contains(t, restored.ClosedVoting, 1)
	assert.Equal(t, f.s.ClosedVoting[1].Placements, restored.ClosedVoting[1].Placements)

	// A restored season keeps working: the commissioner can move it on.
	require.NoError(t, restored.Transition(PhaseRosterEvolution, f.comm))
	assert.Equal(t, PhaseRosterEvolution, restored.CurrentPhase())
}

func TestUnmarshalSeasonRepairsNilMaps(t *testing.T) {
	restored, err := UnmarshalSeason([]byte(`{"id":"bare","name":"Bare","phase":0}`))
	require.NoError(t, err)
	assert.NotNil(t, restored.Players)
	assert.NotNil(t, restored.ClosedVoting)
	assert.NotNil(t, restored.Submissions)
}

func TestUnmarshalSeasonRejectsGarbage(t *testing.T) {
	_, err := UnmarshalSeason([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, 3, testConfig())
	sum := f.s.Summary()
	assert.Equal(t, f.s.ID, sum.ID)
	assert.Equal(t, "SETUP", sum.Phase)
	assert.Equal(t, 3, sum.PlayerCount)
	assert.Equal(t, 1, sum.CurrentWeek)
}
