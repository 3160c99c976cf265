package registry

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

func TestRegisterAndGet(t *testing.T) {
	r := New(zerolog.Nop())

	proj := r.Register("/home/dev/api", "api")
	assert.NotEmpty(t, proj.ID)
	assert.Equal(t, "/home/dev/api", proj.Path)
	assert.Equal(t, "api", proj.Name)
	assert.NotZero(t, proj.CreatedAt)

	got, err := r.Get(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj, got)
}

func TestRegisterDuplicatePathAllowed(t *testing.T) {
	r := New(zerolog.Nop())

	a := r.Register("/home/dev/api", "api")
	b := r.Register("/home/dev/api", "api-again")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, r.List(), 2)
}

func TestGetUnknown(t *testing.T) {
	r := New(zerolog.Nop())
	_, err := r.Get("missing")
	assert.True(t, ferrors.IsNotFound(err))
}

func TestRename(t *testing.T) {
	r := New(zerolog.Nop())
	proj := r.Register("/home/dev/api", "api")

	require.NoError(t, r.Rename(proj.ID, "backend"))
	got, err := r.Get(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "backend", got.Name)

	err = r.Rename("missing", "x")
	assert.True(t, ferrors.IsNotFound(err))
}

func TestListRegistrationOrder(t *testing.T) {
	r := New(zerolog.Nop())
	a := r.Register("/a", "a")
	b := r.Register("/b", "b")
	c := r.Register("/c", "c")

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	r := New(zerolog.Nop())
	a := r.Register("/a", "a")
	r.Register("/b", "b")

	restored := New(zerolog.Nop())
	restored.Restore(r.Snapshot())

	got, err := restored.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Len(t, restored.List(), 2)
}
