package daemonserver

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	storagePassphraseEnv = "MASKD_STORAGE_PASSPHRASE"
	storageKeyFilename   = "storage.key"
)

var ErrInsecureStorageKeyMode = errors.New("insecure storage key mode is forbidden in production")

// StoragePassphrase resolves the secret protecting the state blob.
// Precedence: MASKD_STORAGE_PASSPHRASE, then <dataDir>/storage.key, then
// a freshly generated key written to that file. Production refuses file
// and auto-generated keys.
func StoragePassphrase(dataDir string) (string, error) {
	if secret := strings.TrimSpace(os.Getenv(storagePassphraseEnv)); secret != "" {
		return secret, nil
	}

	keyPath := filepath.Join(dataDir, storageKeyFilename)
	existing, err := os.ReadFile(keyPath)
	if err == nil {
		if secret := strings.TrimSpace(string(existing)); secret != "" {
			if policyErr := enforceStorageKeyPolicy(); policyErr != nil {
				return "", policyErr
			}
			return secret, nil
		}
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if policyErr := enforceStorageKeyPolicy(); policyErr != nil {
		return "", policyErr
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := base64.RawStdEncoding.EncodeToString(buf)
	if err := writeStorageKey(keyPath, secret); err != nil {
		return "", err
	}
	return secret, nil
}

func writeStorageKey(keyPath, secret string) error {
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(keyPath, []byte(secret), 0o600)
}

func enforceStorageKeyPolicy() error {
	if !isProductionEnv() {
		return nil
	}
	return fmt.Errorf(
		"%w: set %s instead of relying on a raw storage.key file",
		ErrInsecureStorageKeyMode,
		storagePassphraseEnv,
	)
}

func isProductionEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MASKD_ENV"))) {
	case "prod", "production":
		return true
	default:
		return false
	}
}
