package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/navien/internal/config"
	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/ui"
)

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd, configNicknameCmd, configRemoveCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage preferences and controller nicknames",
	Long: `Manage the navien config file.

The file holds the user ID, output and logging preferences, bridge settings
and nicknames for known controllers. Passwords and login tokens are never
stored. NAVIEN_CONFIG overrides the location.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			if !ui.Confirm(os.Stdin, os.Stdout, path+" exists. Overwrite?") {
				return nil
			}
		}
		path, err = config.CreateDefaultConfig(viper.GetString(keyUser))
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput() {
			return printJSON(registry)
		}

		prefs := registry.Preferences
		details := []ui.Detail{
			ui.D("User", valueOr(prefs.UserID, "(not set)")),
			ui.D("Default controller", valueOr(registry.DisplayName(prefs.DefaultController), "(gateway list)")),
			ui.D("Output", prefs.OutputFormat),
			ui.D("Log level", valueOr(prefs.LogLevel, "(silent)")),
			ui.D("Timeout", fmt.Sprintf("%ds", prefs.TimeoutSeconds)),
			ui.D("Bridge listen", prefs.Bridge.Listen),
			ui.D("Bridge poll", fmt.Sprintf("%ds", prefs.Bridge.PollIntervalSeconds)),
			ui.D("Bridge advertise", strconv.FormatBool(prefs.Bridge.Advertise)),
		}
		for _, mac := range slices.Sorted(maps.Keys(registry.Controllers)) {
			c := registry.Controllers[mac]
			line := valueOr(c.Nickname, "-")
			if !c.LastSeen.IsZero() {
				line += fmt.Sprintf(", %s at %s", valueOr(c.LastMode, "?"), c.LastSeen.Format("2006-01-02 15:04"))
			}
			details = append(details, ui.D(mac, line))
		}

		path, _ := config.GetConfigPath()
		ui.NewPrinter(nil).PrintHeader("Configuration", path, details)
		return nil
	},
}

// settable preference keys for 'config set'
var preferenceSetters = map[string]func(p *config.Preferences, v string) error{
	"user_id": func(p *config.Preferences, v string) error {
		p.UserID = v
		return nil
	},
	"default_controller": func(p *config.Preferences, v string) error {
		p.DefaultController = registry.ResolveController(v)
		return nil
	},
	"output_format": func(p *config.Preferences, v string) error {
		if v != config.FormatText && v != config.FormatJSON {
			return fmt.Errorf("output_format must be %s or %s", config.FormatText, config.FormatJSON)
		}
		p.OutputFormat = v
		return nil
	},
	"log_level": func(p *config.Preferences, v string) error {
		if v != "" {
			if _, err := logging.ParseLevel(v); err != nil {
				return err
			}
		}
		p.LogLevel = v
		return nil
	},
	"timeout_seconds": func(p *config.Preferences, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout_seconds must be a positive integer")
		}
		p.TimeoutSeconds = n
		return nil
	},
	"bridge.listen": func(p *config.Preferences, v string) error {
		p.Bridge.Listen = v
		return nil
	},
	"bridge.poll_interval_seconds": func(p *config.Preferences, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("bridge.poll_interval_seconds must be a positive integer")
		}
		p.Bridge.PollIntervalSeconds = n
		return nil
	},
	"bridge.advertise": func(p *config.Preferences, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("bridge.advertise must be true or false")
		}
		p.Bridge.Advertise = b
		return nil
	},
}

func preferenceKeys() []string {
	return slices.Sorted(maps.Keys(preferenceSetters))
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a preference",
	Long: `Set a preference in the config file.

Keys: user_id, default_controller, output_format, log_level,
timeout_seconds, bridge.listen, bridge.poll_interval_seconds,
bridge.advertise.`,
	Example: `  navien config set user_id me@example.com
  navien config set bridge.poll_interval_seconds 30`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: preferenceKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, ok := preferenceSetters[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		if err := set(registry.Preferences, args[1]); err != nil {
			return err
		}
		return registry.Save()
	},
}

var configNicknameCmd = &cobra.Command{
	Use:   "nickname <mac> <nickname>",
	Short: "Name a controller",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry.SetControllerNickname(args[0], args[1])
		if err := registry.Save(); err != nil {
			return err
		}
		cmd.Printf("%s is now %q\n", config.NormalizeMAC(args[0]), args[1])
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <controller>",
	Short: "Forget a controller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mac := registry.ResolveController(args[0])
		if !registry.RemoveController(mac) {
			return fmt.Errorf("unknown controller %q", args[0])
		}
		return registry.Save()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
