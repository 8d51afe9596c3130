// Package config provides user configuration management for the navien CLI.
//
// This package manages a YAML-based configuration file that stores the
// account user ID, output and logging preferences, bridge settings and
// nicknames for known controllers. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/navien/config.yaml or $HOME/.config/navien/config.yaml
//   - macOS: $HOME/.config/navien/config.yaml
//   - Windows: %LOCALAPPDATA%\navien\config.yaml
//
// NAVIEN_CONFIG overrides the location.
//
// # Security
//
// IMPORTANT: This package NEVER stores the account password or the login
// token returned by the relay. The password is prompted or read from the
// environment on every run.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetControllerNickname("0011AABBCCDD", "Boiler Room")
//	registry.RecordStatus(mac, state.DeviceID.String(), state.CurrentMode.String())
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
