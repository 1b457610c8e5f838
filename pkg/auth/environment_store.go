package auth

import (
	"os"

	"tgbulkdl/pkg/config"
)

// PassphraseEnv names the variable holding an explicit passphrase
const PassphraseEnv = config.EnvPrefix + "PASSPHRASE"

// EnvironmentPassphrase reads the passphrase from PassphraseEnv
type EnvironmentPassphrase struct{}

// Passphrase returns ErrStoreUnavailable when the variable is unset
func (EnvironmentPassphrase) Passphrase() (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}
	return "", ErrStoreUnavailable
}
