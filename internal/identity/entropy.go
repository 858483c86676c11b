package identity

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// EntropySize is the fixed size of every entropy blob.
const EntropySize = 32

// EntropySource yields deterministic high-entropy bytes per label: the
// same label always maps to the same blob for a given seed, and distinct
// labels map to computationally unrelated blobs.
type EntropySource interface {
	Entropy(label string) ([]byte, error)
}

// Entropy expands the resident seed for label via HKDF-SHA256. Fails
// with ErrSeedLocked when no seed is resident; callers do not retry,
// since the call is idempotent and a failure means the seed simply is
// not there.
func (s *SeedManager) Entropy(label string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.root) == 0 {
		if s.envelope == nil {
			return nil, ErrSeedNotAvailable
		}
		return nil, ErrSeedLocked
	}
	reader := hkdf.New(sha256.New, s.root, nil, []byte(label))
	out := make([]byte, EntropySize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
