package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tgbulkdl/pkg/auth"
	"tgbulkdl/pkg/ui"
	"tgbulkdl/pkg/ui/tui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Telegram credentials",
	Long: `Manage the stored Telegram API credentials and session.

The API hash and the session are encrypted with AES-GCM. The key is derived
from a passphrase taken from, in order:
  - the TGBULKDL_PASSPHRASE environment variable
  - the system keychain
  - a private file in the data directory

Never share your session: it grants full access to your account.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store API credentials and sign in",
	Long: `Ask for the API id and hash, store them, and sign in to Telegram.

You will be prompted for your phone number, the login code and, when
two-step verification is enabled, your password.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget stored credentials and session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored credentials and whether the session is signed in",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var forceLogin bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&forceLogin, "force", false, "replace stored credentials")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if forceLogin {
		if err := a.creds.Delete(ctx); err != nil && !errors.Is(err, auth.ErrCredentialsNotFound) {
			return err
		}
	}

	client, err := a.connect(ctx, tui.NewPrompter())
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	ui.PrintSuccess("Signed in")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.creds.Delete(ctx)
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		ui.PrintWarning("No stored credentials")
		return nil
	}
	if err != nil {
		return err
	}

	a.log.Info("Credentials removed")
	ui.PrintSuccess("Credentials and session removed")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	creds, err := a.creds.Resolve(a.cfg.Telegram)
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		ui.PrintWarning("No credentials configured. Run 'tgbulkdl auth login'.")
		return nil
	}
	if err != nil {
		return err
	}

	shown := auth.SanitizeCredentials(creds)
	ui.PrintInfo("API ID", strconv.Itoa(shown.APIID))
	ui.PrintInfo("API hash", shown.APIHash)
	if !creds.UpdatedAt.IsZero() {
		ui.PrintInfo("Updated", creds.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	if creds.Session == "" {
		ui.PrintInfo("Session", "none")
		return nil
	}
	ui.PrintInfo("Session", shown.Session)

	ok, err := a.gateway(creds).Authorized(ctx)
	if err != nil {
		ui.PrintWarning("Could not reach the gateway", err)
		return nil
	}
	ui.PrintInfo("Signed in", fmt.Sprintf("%t", ok))
	return nil
}
