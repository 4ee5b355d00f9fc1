package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const keychainService = "pagebuilder-publish"

// errItemNotFound is the exit status of `security` for a missing item.
const errItemNotFound = 44

// KeychainStore keeps publish passwords in the macOS login keychain through
// the `security` CLI.
type KeychainStore struct {
	bin string
}

// NewKeychainStore returns a keychain-backed store, or an error when the
// `security` tool is not on PATH.
func NewKeychainStore() (*KeychainStore, error) {
	bin, err := exec.LookPath("security")
	if err != nil {
		return nil, fmt.Errorf("keychain unavailable: %w", err)
	}
	return &KeychainStore{bin: bin}, nil
}

// Default picks the keychain when present and falls back to process memory.
func Default() SecretStore {
	if k, err := NewKeychainStore(); err == nil {
		return k
	}
	return NewMemoryStore()
}

func (k *KeychainStore) Set(key string, value []byte) error {
	cmd := exec.Command(k.bin, "add-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := exec.Command(k.bin, "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w",
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == errItemNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	err := exec.Command(k.bin, "delete-generic-password",
		"-a", key,
		"-s", keychainService,
	).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == errItemNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}
