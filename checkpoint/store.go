package checkpoint

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/util"
	"github.com/anigrab/anigrab/where"
	"github.com/samber/mo"
)

// Store keeps one JSON document per series in a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Default returns the store in the user's data directory.
func Default() *Store {
	return NewStore(where.Checkpoints())
}

// Dir is the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Key is the file name, without extension, under which the named series is stored.
// The download manager finds the checkpoint of a queued series by this key.
func (s *Store) Key(name string) string {
	return util.SafeFilename(name)
}

// Path returns the file that holds the checkpoint of the named series.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, s.Key(name)+".json")
}

// Load reads the checkpoint of the named series. A missing file is not an error.
func (s *Store) Load(name string) (mo.Option[*Checkpoint], error) {
	path := s.Path(name)

	exists, err := filesystem.API().Exists(path)
	if err != nil {
		return mo.None[*Checkpoint](), err
	}
	if !exists {
		return mo.None[*Checkpoint](), nil
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return mo.None[*Checkpoint](), err
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return mo.None[*Checkpoint](), fmt.Errorf("%w %s: %w", ErrCorrupt, path, err)
	}
	if err := cp.Validate(); err != nil {
		return mo.None[*Checkpoint](), fmt.Errorf("%w %s: %w", ErrCorrupt, path, err)
	}

	return mo.Some(&cp), nil
}

// Save validates cp and replaces the stored checkpoint of its series atomically.
// Nothing is written when validation fails.
func (s *Store) Save(cp *Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	if cp.FailedEps == nil {
		cp.FailedEps = []FailedEp{}
	}
	if cp.Links == nil {
		cp.Links = []harvest.LinkResult{}
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}

	return filesystem.WriteAtomic(s.Path(cp.Name), data)
}

// Remove deletes the checkpoint of the named series, if any.
func (s *Store) Remove(name string) error {
	path := s.Path(name)
	exists, err := filesystem.API().Exists(path)
	if err != nil || !exists {
		return err
	}
	return filesystem.API().Remove(path)
}
