package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tgbulkdl/pkg/config"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/store"
)

// ContainerName is the store container holding the credentials record
const ContainerName = "credentials"

const recordKey = "default"

// Credentials are the API identity and session used to reach the gateway
type Credentials struct {
	APIID     int
	APIHash   string
	Session   string
	UpdatedAt time.Time
}

// Complete reports whether the API identity is present
func (c *Credentials) Complete() bool {
	return c != nil && c.APIID > 0 && c.APIHash != ""
}

// record is the stored form; secrets are sealed
type record struct {
	APIID     int       `json:"api_id"`
	APIHash   sealed    `json:"api_hash"`
	Session   *sealed   `json:"session,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager reads and writes credentials in a store container
type Manager struct {
	container  store.Container
	passphrase PassphraseSource
	logger     logger.Logger
}

// NewManager creates a credential manager; log may be nil
func NewManager(container store.Container, passphrase PassphraseSource, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		container:  container,
		passphrase: passphrase,
		logger:     log.WithField("component", "auth"),
	}
}

// Load returns the stored credentials or ErrCredentialsNotFound
func (m *Manager) Load() (*Credentials, error) {
	data, ok := m.container.Get(recordKey)
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	pass, err := m.passphrase.Passphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	apiHash, err := rec.APIHash.open(pass)
	if err != nil {
		return nil, err
	}

	creds := &Credentials{
		APIID:     rec.APIID,
		APIHash:   apiHash,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Session != nil {
		session, err := rec.Session.open(pass)
		if err != nil {
			return nil, err
		}
		creds.Session = session
	}
	return creds, nil
}

// Save stores creds and commits the container
func (m *Manager) Save(ctx context.Context, creds *Credentials) error {
	if !creds.Complete() {
		return ErrInvalidCredentials
	}

	pass, err := m.passphrase.Passphrase()
	if err != nil {
		return fmt.Errorf("failed to get passphrase: %w", err)
	}

	creds.UpdatedAt = time.Now().UTC()
	rec := record{
		APIID:     creds.APIID,
		UpdatedAt: creds.UpdatedAt,
	}
	if rec.APIHash, err = seal(pass, creds.APIHash); err != nil {
		return err
	}
	if creds.Session != "" {
		session, err := seal(pass, creds.Session)
		if err != nil {
			return err
		}
		rec.Session = &session
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	m.container.Set(recordKey, data)

	if err := m.container.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	m.logger.Debug("Credentials saved")
	return nil
}

// SaveSession replaces the stored session token
func (m *Manager) SaveSession(ctx context.Context, session string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	creds.Session = session
	return m.Save(ctx, creds)
}

// Delete removes the stored credentials
func (m *Manager) Delete(ctx context.Context) error {
	if _, ok := m.container.Get(recordKey); !ok {
		return ErrCredentialsNotFound
	}
	m.container.Remove(recordKey)
	if err := m.container.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

// Resolve loads the stored credentials and applies the API id and hash
// from cfg on top. A missing record is not an error when cfg supplies
// both values.
func (m *Manager) Resolve(cfg config.TelegramConfig) (*Credentials, error) {
	creds, err := m.Load()
	if errors.Is(err, ErrCredentialsNotFound) {
		creds = &Credentials{}
	} else if err != nil {
		return nil, err
	}

	if cfg.APIID > 0 {
		creds.APIID = cfg.APIID
	}
	if cfg.APIHash != "" {
		creds.APIHash = cfg.APIHash
	}
	if !creds.Complete() {
		return creds, ErrCredentialsNotFound
	}
	return creds, nil
}

// SanitizeCredentials returns a copy with secrets masked
func SanitizeCredentials(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		APIID:     creds.APIID,
		APIHash:   maskString(creds.APIHash),
		Session:   maskString(creds.Session),
		UpdatedAt: creds.UpdatedAt,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("passphrase source unavailable")
	ErrDecrypt             = errors.New("failed to decrypt credentials")
)
