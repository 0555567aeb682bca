// Package cas implements the file-backed build cache fallback: a
// key-value mapping from image tag to the dependency hash it was last
// built from. The label-based design queried from the image engine is
// preferred; this store only serves engines without label support.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"go.brick.build/brick/internal/core/ports"
	"go.trai.ch/zerr"
)

const schemaVersion = 1

var _ ports.TagStore = (*Store)(nil)

type entry struct {
	DependencyHash string `json:"dependency_hash"`
}

type document struct {
	Version int              `json:"version"`
	Tags    map[string]entry `json:"tags"`
}

// Store implements ports.TagStore using a flat JSON file guarded by a
// file lock for cross-process safety.
type Store struct {
	path string
	lock *flock.Flock
}

// DefaultPath locates the store file under the user's state directory.
func DefaultPath() (string, error) {
	path, err := xdg.StateFile(filepath.Join("brick", "cache.json"))
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate state directory")
	}
	return path, nil
}

// NewStore creates a Store backed by the file at the given path.
func NewStore(path string) *Store {
	path = filepath.Clean(path)
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// GetHash returns the recorded dependency hash for a tag.
func (s *Store) GetHash(tag string) (string, bool, error) {
	if err := s.lock.RLock(); err != nil {
		return "", false, zerr.Wrap(err, "failed to acquire cache read lock")
	}
	defer s.lock.Unlock() //nolint:errcheck // best effort unlock in defer

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}

	e, ok := doc.Tags[tag]
	if !ok {
		return "", false, nil
	}
	return e.DependencyHash, true, nil
}

// SaveBuild records the dependency hash a tag was built from.
func (s *Store) SaveBuild(tag, dependencyHash string) error {
	if err := s.lock.Lock(); err != nil {
		return zerr.Wrap(err, "failed to acquire cache write lock")
	}
	defer s.lock.Unlock() //nolint:errcheck // best effort unlock in defer

	doc, err := s.load()
	if err != nil {
		return err
	}

	doc.Tags[tag] = entry{DependencyHash: dependencyHash}
	return s.save(doc)
}

func (s *Store) load() (*document, error) {
	doc := &document{Version: schemaVersion, Tags: make(map[string]entry)}

	//nolint:gosec // path is cleaned and owned by this process
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, zerr.Wrap(err, "failed to read build cache")
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal build cache")
	}
	if doc.Tags == nil {
		doc.Tags = make(map[string]entry)
	}

	return doc, nil
}

func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal build cache")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create build cache directory")
	}

	//nolint:gosec // path is cleaned and owned by this process
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write build cache")
	}

	return nil
}
