package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())

	sess := m.CreateSession("sess-1", "127.0.0.1:1234")
	sess.SetUserID("alice")

	got, ok := m.GetSession("sess-1")
	require.True(t, ok)
	assert.Equal(t, "alice", got.GetUserID())
	assert.Equal(t, 1, m.Count())

	m.RemoveSession("sess-1")
	_, ok = m.GetSession("sess-1")
	assert.False(t, ok)
}

func TestExpiredSessionTreatedAsAbsent(t *testing.T) {
	m := NewManager(10*time.Millisecond, zap.NewNop())
	m.CreateSession("sess-1", "host")

	time.Sleep(30 * time.Millisecond)

	_, ok := m.GetSession("sess-1")
	assert.False(t, ok)
	// The expired lookup also removed the entry.
	assert.Equal(t, 0, m.Count())
}

func TestUpdateActivityExtendsLease(t *testing.T) {
	m := NewManager(50*time.Millisecond, zap.NewNop())
	sess := m.CreateSession("sess-1", "host")

	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		sess.UpdateActivity()
	}

	_, ok := m.GetSession("sess-1")
	assert.True(t, ok)
}

func TestCloseAll(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	m.CreateSession("a", "host")
	m.CreateSession("b", "host")
	require.Equal(t, 2, m.Count())

	m.CloseAll()
	assert.Equal(t, 0, m.Count())
}

func TestReapExpired(t *testing.T) {
	m := NewManager(10*time.Millisecond, zap.NewNop())
	m.CreateSession("stale", "host")
	fresh := m.CreateSession("fresh", "host")

	time.Sleep(30 * time.Millisecond)
	fresh.UpdateActivity()
	m.reapExpired()

	assert.Equal(t, 1, m.Count())
	_, ok := m.GetSession("fresh")
	assert.True(t, ok)
}
