package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PassphraseSource yields the passphrase that protects stored secrets
type PassphraseSource interface {
	Passphrase() (string, error)
}

// StaticPassphrase is a fixed passphrase
type StaticPassphrase string

func (s StaticPassphrase) Passphrase() (string, error) {
	if s == "" {
		return "", ErrStoreUnavailable
	}
	return string(s), nil
}

// FilePassphrase keeps the passphrase in a 0600 file, generating one on first use
type FilePassphrase struct {
	Path string
}

func (f *FilePassphrase) Passphrase() (string, error) {
	if content, err := os.ReadFile(f.Path); err == nil && len(strings.TrimSpace(string(content))) > 0 {
		return strings.TrimSpace(string(content)), nil
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	pass, err := generatePassphrase()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(f.Path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

// Chain tries each source in order and caches the first passphrase found.
// Sources failing with ErrStoreUnavailable are skipped.
type Chain struct {
	sources []PassphraseSource

	once sync.Once
	pass string
	err  error
}

// NewChain builds a chain from sources
func NewChain(sources ...PassphraseSource) *Chain {
	return &Chain{sources: sources}
}

// DefaultPassphrase tries the environment, the system keychain and then
// a passphrase file in dataDir
func DefaultPassphrase(dataDir string) *Chain {
	return NewChain(
		EnvironmentPassphrase{},
		NewKeyringPassphrase(),
		&FilePassphrase{Path: filepath.Join(dataDir, ".passphrase")},
	)
}

func (c *Chain) Passphrase() (string, error) {
	c.once.Do(func() {
		for _, src := range c.sources {
			pass, err := src.Passphrase()
			if err == nil {
				c.pass = pass
				return
			}
			if !errors.Is(err, ErrStoreUnavailable) {
				c.err = err
				return
			}
		}
		c.err = ErrStoreUnavailable
	})
	return c.pass, c.err
}
