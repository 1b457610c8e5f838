package auth

import (
	"fmt"
	"io"
	"strings"

	"tgbulkdl/pkg/config"
)

// ShowAPICredentialsGuide explains how to obtain an API id and hash
func ShowAPICredentialsGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "📚 TELEGRAM API CREDENTIALS")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "This tool talks to Telegram as your own user account and needs an API id and hash.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🌐 STEP 1: Open https://my.telegram.org and log in with your phone number")
	fmt.Fprintln(w, "🔧 STEP 2: Choose 'API development tools'")
	fmt.Fprintln(w, "📝 STEP 3: Create an application (any title and short name will do)")
	fmt.Fprintln(w, "🔑 STEP 4: Copy 'App api_id' and 'App api_hash'")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💡 TIPS:")
	fmt.Fprintln(w, "   • The values are stored encrypted and asked for only once")
	fmt.Fprintf(w, "   • %sAPI_ID and %sAPI_HASH override the stored values\n", config.EnvPrefix, config.EnvPrefix)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚠️  SECURITY WARNING:")
	fmt.Fprintln(w, "   • The session created at sign-in gives FULL access to your account")
	fmt.Fprintln(w, "   • Run 'tgbulkdl auth logout' to forget it")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)
}
