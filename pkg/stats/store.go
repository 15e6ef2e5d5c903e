// Package stats recomputes and publishes membership statistics from the full
// active-subscription collection on a fixed schedule.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

// Snapshot is a point-in-time aggregate, replaced wholesale every cycle and
// never patched. Revenue is in major currency units.
type Snapshot struct {
	Members int     `json:"members"`
	Revenue float64 `json:"revenue"`
}

// Store publishes snapshots atomically: readers always observe either the
// previous or the new snapshot, never a half-written one. Each publish also
// writes the snapshot to a JSON file via tmp+rename.
type Store struct {
	path    string
	current atomic.Pointer[Snapshot]
}

// NewStore creates a snapshot store persisting to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Current returns the latest published snapshot, or nil before the first
// publish.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish swaps in the new snapshot, then writes it to the stats file. The
// in-memory swap is the source of truth for readers; the file write is the
// durable copy and its failure is reported without rolling the swap back.
func (s *Store) Publish(snapshot *Snapshot) error {
	s.current.Store(snapshot)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("stats: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return errors.Join(
				fmt.Errorf("stats: commit snapshot: %w", err),
				fmt.Errorf("stats: remove snapshot temp file: %w", rmErr),
			)
		}
		return fmt.Errorf("stats: commit snapshot: %w", err)
	}
	return nil
}
