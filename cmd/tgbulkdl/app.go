package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tgbulkdl/pkg/auth"
	"tgbulkdl/pkg/checkpoint"
	"tgbulkdl/pkg/config"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/ratelimit"
	"tgbulkdl/pkg/remote"
	"tgbulkdl/pkg/retry"
	"tgbulkdl/pkg/store"
	"tgbulkdl/pkg/ui"
)

// app holds what every command needs: configuration, logging and the
// durable store with its two containers
type app struct {
	cfg   *config.Config
	log   logger.Logger
	db    *store.DB
	state store.Container
	creds *auth.Manager
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("run_id", uuid.NewString())

	path, err := cfg.StoragePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	state, err := db.Container(ctx, checkpoint.ContainerName)
	if err != nil {
		db.Close()
		return nil, err
	}
	credContainer, err := db.Container(ctx, auth.ContainerName)
	if err != nil {
		db.Close()
		return nil, err
	}

	dataDir, err := config.DataDirectory()
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"command": cmd.CommandPath(),
		"storage": path,
		"version": version,
	}).Debug("tgbulkdl starting")

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		state: state,
		creds: auth.NewManager(credContainer, auth.DefaultPassphrase(dataDir), log),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
}

// credentials returns complete API credentials, asking for and storing
// them when neither the store nor the configuration has them
func (a *app) credentials(ctx context.Context, prompter ui.Prompter) (*auth.Credentials, error) {
	creds, err := a.creds.Resolve(a.cfg.Telegram)
	if err == nil {
		return creds, nil
	}
	if !errors.Is(err, auth.ErrCredentialsNotFound) {
		return nil, err
	}

	auth.ShowAPICredentialsGuide(ui.Output)

	if creds.APIID == 0 {
		raw, err := prompter.Input(ctx, "Please provide your API_ID", "", validateAPIID)
		if err != nil {
			return nil, err
		}
		creds.APIID, _ = strconv.Atoi(strings.TrimSpace(raw))
	}
	if creds.APIHash == "" {
		hash, err := prompter.Password(ctx, "Please provide your API_HASH")
		if err != nil {
			return nil, err
		}
		creds.APIHash = strings.TrimSpace(hash)
	}

	if err := a.creds.Save(ctx, creds); err != nil {
		return nil, err
	}
	ui.PrintSuccess("Credentials stored")
	return creds, nil
}

func validateAPIID(s string) error {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return errors.New("API_ID must be a positive number")
	}
	return nil
}

func (a *app) gateway(creds *auth.Credentials) *remote.GatewayClient {
	return remote.NewGatewayClient(remote.Options{
		BaseURL: a.cfg.Telegram.GatewayURL,
		APIID:   creds.APIID,
		APIHash: creds.APIHash,
		Session: creds.Session,
		Timeout: a.cfg.Telegram.Timeout,
		Limiter: ratelimit.FromConfig(a.cfg.RateLimit),
		Retry:   retry.FromConfig(a.cfg.Retry, a.log),
		Logger:  a.log,
	})
}

// connect returns a signed-in gateway client, running the sign-in flow
// and persisting the new session when needed
func (a *app) connect(ctx context.Context, prompter ui.Prompter) (*remote.GatewayClient, error) {
	creds, err := a.credentials(ctx, prompter)
	if err != nil {
		return nil, err
	}

	client := a.gateway(creds)
	session, err := client.Authorize(ctx, promptAuthenticator{prompter: prompter})
	if err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	if session != creds.Session {
		creds.Session = session
		if err := a.creds.Save(ctx, creds); err != nil {
			return nil, err
		}
		a.log.Info("Session saved")
	}
	return client, nil
}

// promptAuthenticator asks the user for sign-in details
type promptAuthenticator struct {
	prompter ui.Prompter
}

func (p promptAuthenticator) Phone(ctx context.Context) (string, error) {
	return p.prompter.Input(ctx, "Please enter your phone number", "", nil)
}

func (p promptAuthenticator) Code(ctx context.Context) (string, error) {
	return p.prompter.Password(ctx, "Please enter the code you received")
}

func (p promptAuthenticator) Password(ctx context.Context) (string, error) {
	return p.prompter.Password(ctx, "Please enter your password")
}

// fatal prints err and exits with status 1
func fatal(msg string, err error) {
	ui.PrintError(msg, err)
	os.Exit(1)
}
