package daemonserver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoragePassphrasePrefersEnv(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "from-env")
	secret, err := StoragePassphrase(t.TempDir())
	if err != nil {
		t.Fatalf("StoragePassphrase: %v", err)
	}
	if secret != "from-env" {
		t.Fatalf("secret = %q, want env value", secret)
	}
}

func TestStoragePassphraseReadsKeyFile(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, storageKeyFilename), []byte("file-secret\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	secret, err := StoragePassphrase(dir)
	if err != nil {
		t.Fatalf("StoragePassphrase: %v", err)
	}
	if secret != "file-secret" {
		t.Fatalf("secret = %q, want trimmed file value", secret)
	}
}

func TestStoragePassphraseGeneratesAndPersists(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	dir := t.TempDir()

	first, err := StoragePassphrase(dir)
	if err != nil {
		t.Fatalf("first StoragePassphrase: %v", err)
	}
	if first == "" {
		t.Fatal("generated secret is empty")
	}

	second, err := StoragePassphrase(dir)
	if err != nil {
		t.Fatalf("second StoragePassphrase: %v", err)
	}
	if second != first {
		t.Fatal("generated secret must be stable across calls")
	}
}

func TestStoragePassphraseProductionRefusesKeyFile(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	t.Setenv("MASKD_ENV", "production")

	_, err := StoragePassphrase(t.TempDir())
	if !errors.Is(err, ErrInsecureStorageKeyMode) {
		t.Fatalf("err = %v, want ErrInsecureStorageKeyMode", err)
	}
}
