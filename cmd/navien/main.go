// Navien is a command-line client for Navien boilers behind a NaviLink
// smart controller.
//
// It logs in to the Navien relay, looks up the account's controller,
// reads its status and sends operation commands. The bridge command keeps
// a single controller available to local clients over WebSocket.
//
// Usage:
//
//	navien [command] [flags]
//
// See 'navien --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/navien/internal/config"
	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/relay"
	"github.com/muurk/navien/internal/session"
	"github.com/muurk/navien/internal/version"
)

// Viper keys. Each is bound to a flag and to NAVIEN_<KEY>, with '-' and
// '.' mapped to '_'.
const (
	keyUser       = "user"
	keyPassword   = "password"
	keyController = "controller"
	keyOutput     = "output"
	keyLogLevel   = "log-level"
	keyTimeout    = "timeout"
	keyRelayURL   = "relay-url"
	keyRelayAddr  = "relay-addr"
)

var registry *config.Registry

func main() {
	if err := rootCmd.Execute(); err != nil {
		var shown *shownError
		if !errors.As(err, &shown) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if hint := hintFor(err); hint != "" {
				fmt.Fprintf(os.Stderr, "\n%s\n", hint)
			}
		}
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "navien",
	Short: "Navien smart controller client",
	Long: `A command-line client for Navien boilers with a NaviLink smart controller.

Logs in to the Navien relay, finds the controller registered to the account,
reads its status and sends commands. The password is never stored: it is
read from NAVIEN_PASSWORD or prompted for.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(viper.GetString(keyLogLevel))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringP(keyUser, "u", "", "Navien account user ID (default from config)")
	pf.StringP(keyController, "c", "", "Controller nickname or MAC (default from config or gateway list)")
	pf.StringP(keyOutput, "o", config.FormatText, "Output format (text, json)")
	pf.String(keyLogLevel, "", "Log level (debug, info, warn, error); empty is silent")
	pf.Duration(keyTimeout, relay.DefaultTimeout, "Relay request and socket timeout")
	pf.String(keyRelayURL, relay.DefaultBaseURL, "Relay HTTPS base URL")
	pf.String(keyRelayAddr, session.DefaultAddress, "Relay status socket address (host:port)")

	for _, key := range []string{keyUser, keyController, keyOutput, keyLogLevel, keyTimeout, keyRelayURL, keyRelayAddr} {
		_ = viper.BindPFlag(key, pf.Lookup(key))
	}

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads the registry and layers its preferences under flags
// and environment variables
func initConfig() {
	viper.SetEnvPrefix("NAVIEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	// Env only; never a flag or a config entry
	_ = viper.BindEnv(keyPassword)

	reg, err := config.LoadRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		reg = config.NewRegistry()
	}
	registry = reg

	prefs := reg.Preferences
	viper.SetDefault(keyUser, prefs.UserID)
	if prefs.OutputFormat != "" {
		viper.SetDefault(keyOutput, prefs.OutputFormat)
	}
	viper.SetDefault(keyLogLevel, prefs.LogLevel)
	if prefs.TimeoutSeconds > 0 {
		viper.SetDefault(keyTimeout, time.Duration(prefs.TimeoutSeconds)*time.Second)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat() == config.FormatJSON {
			return printJSON(version.Get())
		}
		info := version.Get()
		fmt.Printf("navien %s (commit: %s, %s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
		return nil
	},
}
