package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "tgbulkdl"
	keyringUser    = "credentials-passphrase"
)

// KeyringPassphrase keeps the passphrase in the system keychain,
// generating one on first use
type KeyringPassphrase struct {
	Service string
	User    string
}

// NewKeyringPassphrase returns a source using the default keychain entry
func NewKeyringPassphrase() *KeyringPassphrase {
	return &KeyringPassphrase{Service: keyringService, User: keyringUser}
}

// Passphrase returns the stored passphrase, creating it when missing.
// An unusable keychain yields ErrStoreUnavailable.
func (k *KeyringPassphrase) Passphrase() (string, error) {
	pass, err := keyring.Get(k.Service, k.User)
	if err == nil && pass != "" {
		return pass, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: keyring: %v", ErrStoreUnavailable, err)
	}

	pass, err = generatePassphrase()
	if err != nil {
		return "", err
	}
	if err := keyring.Set(k.Service, k.User, pass); err != nil {
		return "", fmt.Errorf("%w: keyring: %v", ErrStoreUnavailable, err)
	}
	return pass, nil
}

// Delete removes the keychain entry
func (k *KeyringPassphrase) Delete() error {
	err := keyring.Delete(k.Service, k.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
