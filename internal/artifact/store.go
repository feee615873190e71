// Package artifact is the transient store holding rendered reports between the
// renderer and the dispatcher.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

type Store struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOS roots a store at dir on the local filesystem; an empty dir means
// <tmp>/ux-autorater.
func NewOS(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ux-autorater")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func (s *Store) Put(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, rooted(name), data, 0o600)
}

func (s *Store) Get(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, rooted(name))
}

func (s *Store) Exists(name string) bool {
	ok, err := afero.Exists(s.fs, rooted(name))
	return err == nil && ok
}

// Remove deletes name; a missing file is not an error.
func (s *Store) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(rooted(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the stored file names, sorted.
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, "/")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if !fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}

// rooted keeps every path at the top of the store's filesystem.
func rooted(name string) string { return "/" + name }
