package event

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(zerolog.Nop())
}

func TestAddAndGet(t *testing.T) {
	m := newTestManager(t)

	evt := m.Add("proj-1", TypeBlocking, "need credentials", "deploy requires a token")
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, StatusPending, evt.Status)
	assert.NotZero(t, evt.CreatedAt)

	got, err := m.Get(evt.ID)
	require.NoError(t, err)
	assert.Equal(t, "need credentials", got.Title)
	assert.Equal(t, TypeBlocking, got.EventType)
}

func TestGetUnknown(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Get("missing")
	assert.True(t, ferrors.IsNotFound(err))
}

func TestResolve(t *testing.T) {
	m := newTestManager(t)
	evt := m.Add("proj-1", TypeBlocking, "which branch?", "main or release")

	resolved, err := m.Resolve(evt.ID, "use main")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolved.Status)
	assert.Equal(t, "use main", resolved.Resolution)
}

func TestResolveUnknown(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Resolve("missing", "answer")
	assert.True(t, ferrors.IsNotFound(err))
}

func TestResolveTwice(t *testing.T) {
	m := newTestManager(t)
	evt := m.Add("proj-1", TypeInfo, "note", "fyi")

	_, err := m.Resolve(evt.ID, "ack")
	require.NoError(t, err)

	_, err = m.Resolve(evt.ID, "ack again")
	assert.True(t, ferrors.IsInvalidTransition(err))

	// First resolution text survives.
	got, err := m.Get(evt.ID)
	require.NoError(t, err)
	assert.Equal(t, "ack", got.Resolution)
}

func TestPendingOldestFirst(t *testing.T) {
	m := newTestManager(t)
	first := m.Add("proj-1", TypeBlocking, "first", "")
	second := m.Add("proj-2", TypeInfo, "second", "")
	third := m.Add("proj-1", TypeProgress, "third", "")

	_, err := m.Resolve(second.ID, "done")
	require.NoError(t, err)

	pending := m.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := newTestManager(t)
	evt := m.Add("proj-1", TypeBlocking, "stuck", "waiting on review")
	_, err := m.Resolve(evt.ID, "approved")
	require.NoError(t, err)
	m.Add("proj-2", TypeInfo, "note", "")

	restored := newTestManager(t)
	restored.Restore(m.Snapshot())

	got, err := restored.Get(evt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)
	assert.Equal(t, "approved", got.Resolution)
	assert.Len(t, restored.Pending(), 1)
}

func TestTypeBlocking(t *testing.T) {
	assert.True(t, TypeBlocking.Blocking())
	assert.False(t, TypeInfo.Blocking())
	assert.False(t, TypeProgress.Blocking())
}

func TestTypeValid(t *testing.T) {
	assert.True(t, TypeBlocking.Valid())
	assert.True(t, TypeInfo.Valid())
	assert.True(t, TypeProgress.Valid())
	assert.False(t, Type("warning").Valid())
}
