package wallet

import (
	"os"
	"path/filepath"
	"strings"
)

// DisconnectedFlagKey fixed key of the durable disconnect flag
const DisconnectedFlagKey = "ccxswap.wallet.disconnected"

// flag is set iff the stored value equals this
const flagSetValue = "1"

// DisconnectStore persists the explicit user disconnect flag across
// restarts. Used only to suppress silent rehydration of the address.
type DisconnectStore interface {
	IsSet() bool
	Set() error
	Clear() error
}

// FileDisconnectStore file backed disconnect flag store
type FileDisconnectStore struct {
	path string
}

// NewFileDisconnectStore new store below the given data dir
func NewFileDisconnectStore(dataDir string) *FileDisconnectStore {
	return &FileDisconnectStore{path: filepath.Join(dataDir, DisconnectedFlagKey)}
}

// IsSet implements DisconnectStore
func (s *FileDisconnectStore) IsSet() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == flagSetValue
}

// Set implements DisconnectStore
func (s *FileDisconnectStore) Set() error {
	return os.WriteFile(s.path, []byte(flagSetValue), 0600)
}

// Clear implements DisconnectStore
func (s *FileDisconnectStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryDisconnectStore in-memory store for tests and ephemeral runs
type MemoryDisconnectStore struct {
	set bool
}

// IsSet implements DisconnectStore
func (s *MemoryDisconnectStore) IsSet() bool { return s.set }

// Set implements DisconnectStore
func (s *MemoryDisconnectStore) Set() error { s.set = true; return nil }

// Clear implements DisconnectStore
func (s *MemoryDisconnectStore) Clear() error { s.set = false; return nil }
