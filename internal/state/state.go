// Package state persists the daemon's collections as JSON files in the
// configured state directory.
//
// Writes are atomic: the payload goes to a temp file in the same directory,
// is fsync'd, then renamed into place, so a crash mid-write never leaves a
// partially-written state file. Loads treat a missing file as an empty
// collection and a corrupt file as ErrCorruptState, which callers recover
// from by resetting that collection rather than failing startup.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/rs/zerolog"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

// Store reads and writes named JSON collections under a state directory.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// New creates a Store rooted at dir, creating the directory if absent.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "state").Logger(),
	}, nil
}

// Dir returns the state directory path.
func (s *Store) Dir() string { return s.dir }

// Save atomically writes v as indented JSON to <dir>/<name>.
func (s *Store) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("renaming %s into place: %w", name, err)
	}
	return nil
}

// Load reads <dir>/<name> into v. A missing file leaves v untouched and
// returns (false, nil). A file that fails to parse returns an error wrapping
// ferrors.ErrCorruptState.
func (s *Store) Load(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %v: %w", name, err, ferrors.ErrCorruptState)
	}
	return true, nil
}

// LoadOrReset loads <dir>/<name> into v, which must be a non-nil pointer.
// Corrupt content is logged as a warning and v is zeroed, so historical
// corruption never blocks startup. Only I/O errors other than not-exist are
// returned.
func (s *Store) LoadOrReset(name string, v any) error {
	_, err := s.Load(name, v)
	if err == nil {
		return nil
	}
	if ferrors.IsCorruptState(err) {
		// Unmarshal may have partially populated v before failing.
		reflect.ValueOf(v).Elem().SetZero()
		s.logger.Warn().Err(err).Str("file", name).Msg("corrupt state file, resetting collection")
		return nil
	}
	return err
}
