package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"maskvault/go-backend/internal/masks"
	"maskvault/go-backend/internal/securestore"
)

const statePayloadVersion = 1

var ErrStateCorrupted = errors.New("persisted state payload is invalid")

// StateStore loads and saves the single top-level state blob. Load on a
// missing blob yields a default-empty state; Save always replaces the
// blob as a whole.
type StateStore interface {
	Load(ctx context.Context) (*PersistedState, error)
	Save(ctx context.Context, state *PersistedState) error
}

// PersistedState is everything the daemon writes to disk: the sealed
// master seed and the origin state.
type PersistedState struct {
	SeedEnvelope *securestore.Envelope `json:"seed_envelope,omitempty"`
	Masks        *masks.State          `json:"masks"`
}

func NewPersistedState() *PersistedState {
	return &PersistedState{Masks: masks.NewState()}
}

type persistedPayload struct {
	Version int             `json:"version"`
	State   *PersistedState `json:"state"`
}

// FileStateStore keeps the blob in one encrypted file. A single mutex
// serializes load and save; the storage layer itself has no transactions,
// so the caller's read-modify-write cycle relies on this serialization.
type FileStateStore struct {
	mu     sync.Mutex
	path   string
	secret string
}

func NewFileStateStore(path, secret string) (*FileStateStore, error) {
	if !securestore.IsStorageConfigured(path, secret) {
		return nil, errors.New("state store requires a path and a secret")
	}
	return &FileStateStore{path: path, secret: secret}, nil
}

func (s *FileStateStore) Load(ctx context.Context) (*PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := securestore.ReadDecryptedFile(s.path, s.secret)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewPersistedState(), nil
		}
		return nil, err
	}

	var payload persistedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	if payload.Version != statePayloadVersion || payload.State == nil {
		return nil, ErrStateCorrupted
	}
	if payload.State.Masks == nil {
		payload.State.Masks = masks.NewState()
	}
	return payload.State, nil
}

func (s *FileStateStore) Save(ctx context.Context, state *PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return securestore.WriteEncryptedJSON(s.path, s.secret, persistedPayload{
		Version: statePayloadVersion,
		State:   state,
	})
}

// Wipe removes the blob. Used by data-wipe flows and tests.
func (s *FileStateStore) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemStateStore is the in-memory StateStore used by tests and by
// ephemeral daemon modes. It round-trips through JSON so aliasing bugs
// surface the same way they would with the file store.
type MemStateStore struct {
	mu   sync.Mutex
	blob []byte
	// SaveErr, when set, is returned by Save to simulate storage failure.
	SaveErr error
	Saves   int
}

func NewMemStateStore() *MemStateStore {
	return &MemStateStore{}
}

func (s *MemStateStore) Load(ctx context.Context) (*PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return NewPersistedState(), nil
	}
	var payload persistedPayload
	if err := json.Unmarshal(s.blob, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	if payload.State.Masks == nil {
		payload.State.Masks = masks.NewState()
	}
	return payload.State, nil
}

func (s *MemStateStore) Save(ctx context.Context, state *PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	blob, err := json.Marshal(persistedPayload{Version: statePayloadVersion, State: state})
	if err != nil {
		return err
	}
	s.blob = blob
	s.Saves++
	return nil
}
