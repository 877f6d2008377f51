// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/epicea-im/epicea/lib/codec"
	"github.com/epicea-im/epicea/lib/ref"
)

// snapshotVersion guards against reading a snapshot written by an
// incompatible layout. A mismatch discards the snapshot — it is a
// cache, so starting empty is always correct.
const snapshotVersion = 1

// snapshot is the on-disk form of the index, CBOR-encoded.
type snapshot struct {
	Version int                     `cbor:"version"`
	Since   string                  `cbor:"since"`
	Rooms   map[string][]ref.RoomID `cbor:"rooms"`
}

// Save writes the index to path as a deterministic CBOR snapshot,
// mode 0600, via a temp file and rename so a crash never leaves a
// torn snapshot.
func (x *Index) Save(path string) error {
	x.mu.RLock()
	snap := snapshot{
		Version: snapshotVersion,
		Since:   x.since,
		Rooms:   make(map[string][]ref.RoomID, len(x.rooms)),
	}
	for key, list := range x.rooms {
		snap.Rooms[key] = append([]ref.RoomID(nil), list...)
	}
	x.mu.RUnlock()

	data, err := codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("directory: encoding snapshot: %w", err)
	}

	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o700); err != nil {
		return fmt.Errorf("directory: creating snapshot directory: %w", err)
	}
	tempFile, err := os.CreateTemp(parent, ".directory-*")
	if err != nil {
		return fmt.Errorf("directory: creating snapshot temp file: %w", err)
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("directory: writing snapshot: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("directory: setting snapshot mode: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("directory: closing snapshot: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("directory: installing snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents from a snapshot file. A missing
// file is not an error (the index starts empty); a snapshot with an
// unknown version is ignored the same way.
func (x *Index) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("directory: reading snapshot %s: %w", path, err)
	}

	var snap snapshot
	if err := codec.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("directory: decoding snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		x.logger.Warn("ignoring snapshot with unknown version",
			"path", path, "version", snap.Version)
		return nil
	}

	rooms := snap.Rooms
	if rooms == nil {
		rooms = make(map[string][]ref.RoomID)
	}

	x.mu.Lock()
	x.rooms = rooms
	x.since = snap.Since
	x.mu.Unlock()
	return nil
}
