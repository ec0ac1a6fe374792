// Package sourcecache implements the per-plugin node cache described in
// spec §4.4 "Caching": a snapshot of the nodes a plugin produced, plus its
// registered indexes, written to `<cacheDir>/nodes.json` after
// SourceNodes completes and restored before SourceNodes runs on a later
// load. It satisfies internal/sourcing.Cache structurally.
package sourcecache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/udlcore/udl/internal/obslog"
	"github.com/udlcore/udl/internal/sourcing"
	"github.com/udlcore/udl/internal/xerrors"
)

const fileName = "nodes.json"

// Store is a filesystem-backed sourcing.Cache.
type Store struct{}

// New returns a ready-to-use Store; it carries no state of its own, since
// every operation is addressed by the cacheDir argument.
func New() *Store { return &Store{} }

// Load reads cacheDir/nodes.json, if present. A missing or corrupt cache
// is not an error — the plugin simply runs SourceNodes from scratch, per
// spec §4.4's resilience expectation for a cache miss (see DESIGN.md's
// sourcecache entry).
func (s *Store) Load(cacheDir string) (*sourcing.Snapshot, bool, error) {
	if cacheDir == "" {
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(cacheDir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, nil // unreadable cache: treat as miss, don't fail the load
	}

	var snap sourcing.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		obslog.Get().Warnw("cache file corrupt, ignoring", "cacheDir", cacheDir, obslog.FieldError, err)
		return nil, false, nil
	}
	return &snap, true, nil
}

// Save writes snap to cacheDir/nodes.json atomically: it writes to a
// sibling temp file first, then renames over the destination, so a reader
// never observes a partially written cache (grounded on am/persist.go's
// write-then-rename backup rotation).
func (s *Store) Save(cacheDir string, snap *sourcing.Snapshot) error {
	if cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return xerrors.Wrap(err, "creating cache directory")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return xerrors.Wrap(err, "marshaling cache snapshot")
	}

	dest := filepath.Join(cacheDir, fileName)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return xerrors.Wrap(err, "writing temporary cache file")
	}
	if err := os.Rename(tmp, dest); err != nil {
		return xerrors.Wrap(err, "renaming temporary cache file into place")
	}
	return nil
}
