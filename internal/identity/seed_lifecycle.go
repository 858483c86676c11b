package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"maskvault/go-backend/internal/securestore"

	"github.com/tyler-smith/go-bip39"
)

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrSeedNotAvailable = errors.New("seed is not available")
	ErrSeedLocked       = errors.New("seed is locked")
	ErrPasswordRequired = errors.New("password is required")
	ErrMnemonicRequired = errors.New("mnemonic is required")
	ErrPasswordLocked   = errors.New("password attempts are temporarily locked")
	ErrSeedExists       = errors.New("a seed already exists")
)

// SeedManager holds the master seed: at rest as a password-protected
// envelope, and, while unlocked, as the resident bip39 seed bytes that
// feed the entropy source. All mask keys are regenerate-not-store;
// losing the mnemonic invalidates everything derived from it.
type SeedManager struct {
	mu             sync.RWMutex
	envelope       *securestore.Envelope
	root           []byte
	failedAttempts int
	lockedUntil    time.Time
	now            func() time.Time
}

func NewSeedManager() *SeedManager {
	return &SeedManager{now: time.Now}
}

func newSeedManagerWithClock(now func() time.Time) *SeedManager {
	return &SeedManager{now: now}
}

// Create generates a fresh 24-word mnemonic, seals it under password and
// leaves the seed unlocked in memory. Refuses when a seed already exists.
func (s *SeedManager) Create(password string) (mnemonic string, err error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", err
	}
	return s.Import(mnemonic, password)
}

// Import seals an existing mnemonic under password and leaves the seed
// unlocked in memory. A manager that already holds a seed refuses:
// replacing the seed would silently invalidate every mask ever derived
// from the old one. Wiping must be an explicit separate step.
func (s *SeedManager) Import(mnemonic, password string) (normalizedMnemonic string, err error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return "", ErrMnemonicRequired
	}
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", ErrInvalidMnemonic
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.envelope != nil {
		return "", ErrSeedExists
	}

	env, err := securestore.EncryptEnvelope(password, []byte(mnemonic))
	if err != nil {
		return "", err
	}
	s.setRoot(bip39.NewSeed(mnemonic, ""))
	s.envelope = env
	s.resetPasswordAttemptState()
	return mnemonic, nil
}

// Restore installs a previously persisted envelope. The seed stays
// locked until Unlock succeeds.
func (s *SeedManager) Restore(env *securestore.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelope = env
	s.setRoot(nil)
}

// Envelope returns the sealed seed for persistence, or nil when no seed
// exists yet.
func (s *SeedManager) Envelope() *securestore.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.envelope
}

func (s *SeedManager) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.root) > 0
}

// Unlock decrypts the sealed mnemonic with password and makes the seed
// resident. Failed attempts back off exponentially.
func (s *SeedManager) Unlock(password string) error {
	mnemonic, err := s.openMnemonic(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRoot(bip39.NewSeed(mnemonic, ""))
	return nil
}

// Lock zeroizes the resident seed; the envelope is untouched.
func (s *SeedManager) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRoot(nil)
}

// Export returns the mnemonic after re-verifying the password.
func (s *SeedManager) Export(password string) (string, error) {
	return s.openMnemonic(password)
}

func (s *SeedManager) ChangePassword(oldPassword, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrPasswordRequired
	}
	mnemonic, err := s.openMnemonic(oldPassword)
	if err != nil {
		return err
	}
	env, err := securestore.EncryptEnvelope(newPassword, []byte(mnemonic))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelope = env
	s.resetPasswordAttemptState()
	return nil
}

func (s *SeedManager) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}

func (s *SeedManager) openMnemonic(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}

	s.mu.Lock()
	env := s.envelope
	if err := s.ensureUnlockable(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()
	if env == nil {
		return "", ErrSeedNotAvailable
	}

	plaintext, err := securestore.DecryptEnvelope(password, env)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.onFailedPasswordAttempt()
		return "", ErrInvalidPassword
	}
	s.mu.Lock()
	s.resetPasswordAttemptState()
	s.mu.Unlock()

	mnemonic := strings.TrimSpace(string(plaintext))
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("%w: corrupted mnemonic", ErrInvalidMnemonic)
	}
	return mnemonic, nil
}

func (s *SeedManager) setRoot(root []byte) {
	for i := range s.root {
		s.root[i] = 0
	}
	s.root = root
}

func (s *SeedManager) ensureUnlockable() error {
	if s.lockedUntil.IsZero() {
		return nil
	}
	if s.now().Before(s.lockedUntil) {
		return ErrPasswordLocked
	}
	return nil
}

func (s *SeedManager) onFailedPasswordAttempt() {
	s.failedAttempts++
	s.lockedUntil = s.now().Add(failedAttemptBackoff(s.failedAttempts))
}

func (s *SeedManager) resetPasswordAttemptState() {
	s.failedAttempts = 0
	s.lockedUntil = time.Time{}
}

func failedAttemptBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// 1s, 2s, 4s... up to 32s max.
	shift := attempt - 1
	if shift > 5 {
		shift = 5
	}
	return time.Second * time.Duration(1<<shift)
}
