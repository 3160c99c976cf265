package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	in := []record{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}
	require.NoError(t, s.Save("records.json", in))

	var out []record
	found, err := s.Load("records.json", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestSaveWritesValidJSON(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("records.json", []record{{ID: "1"}}))

	data, err := os.ReadFile(filepath.Join(s.Dir(), "records.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("records.json", []record{{ID: "1"}}))
	require.NoError(t, s.Save("records.json", []record{{ID: "2"}}))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "records.json", entries[0].Name())
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	var out []record
	found, err := s.Load("absent.json", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.json"), []byte("{not json"), 0o644))

	var out []record
	_, err := s.Load("bad.json", &out)
	require.Error(t, err)
}

func TestLoadOrResetCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.json"), []byte(`[{"id":"1"},{"id":`), 0o644))

	out := []record{{ID: "stale"}}
	require.NoError(t, s.LoadOrReset("bad.json", &out))
	assert.Empty(t, out)
}

func TestLoadOrResetMissingFile(t *testing.T) {
	s := newTestStore(t)

	var out []record
	require.NoError(t, s.LoadOrReset("absent.json", &out))
	assert.Nil(t, out)
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	_, err := New(dir, zerolog.Nop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
