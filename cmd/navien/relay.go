package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muurk/navien/internal/config"
	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/protocol"
	"github.com/muurk/navien/internal/relay"
	"github.com/muurk/navien/internal/session"
	"github.com/muurk/navien/internal/ui"
)

var errNoUser = errors.New("no user ID: pass --user, set NAVIEN_USER or run 'navien config init'")

func relayClient() *relay.Client {
	c := relay.NewClientWithURL(viper.GetString(keyRelayURL))
	c.SetTimeout(viper.GetDuration(keyTimeout))
	return c
}

func newSession(userID string) *session.Session {
	return session.New(userID,
		session.WithAddress(viper.GetString(keyRelayAddr)),
		session.WithTimeout(viper.GetDuration(keyTimeout)),
		session.WithLogger(logging.GetLogger()),
	)
}

func userID() (string, error) {
	if u := viper.GetString(keyUser); u != "" {
		return u, nil
	}
	return "", errNoUser
}

// password reads NAVIEN_PASSWORD, falling back to a terminal prompt
func password() (string, error) {
	if pw := viper.GetString(keyPassword); pw != "" {
		return pw, nil
	}
	pw, err := ui.ReadPassword("Navien password: ")
	if errors.Is(err, ui.ErrNoTerminal) {
		return "", errors.New("no password: set NAVIEN_PASSWORD or run in a terminal")
	}
	return pw, err
}

// login authenticates and returns the user ID and token
func login(ctx context.Context) (string, string, error) {
	user, err := userID()
	if err != nil {
		return "", "", err
	}
	pw, err := password()
	if err != nil {
		return "", "", err
	}
	token, err := relayClient().Login(ctx, user, pw)
	if err != nil {
		return "", "", err
	}
	logging.Debug("Logged in", zap.String("user_id", user))
	return user, token, nil
}

// lookupGateway logs in and fetches the account's controller, recording it
// in the registry. The first controller seen becomes the default.
func lookupGateway(ctx context.Context) (*relay.Gateway, error) {
	_, token, err := login(ctx)
	if err != nil {
		return nil, err
	}
	gw, err := relayClient().GatewayList(ctx, token)
	if err != nil {
		return nil, err
	}

	mac := config.NormalizeMAC(gw.MAC)
	registry.EnsureController(mac)
	if registry.Preferences.DefaultController == "" {
		registry.Preferences.DefaultController = mac
	}
	saveRegistry()
	return gw, nil
}

// resolveController maps a nickname or MAC to a MAC. With nothing given
// and no default configured, the gateway list is consulted.
func resolveController(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = viper.GetString(keyController)
	}
	if mac := registry.ResolveController(name); mac != "" {
		return mac, nil
	}
	gw, err := lookupGateway(ctx)
	if err != nil {
		return "", fmt.Errorf("no controller configured and gateway lookup failed: %w", err)
	}
	return config.NormalizeMAC(gw.MAC), nil
}

// readStatus opens a session for mac and returns it connected, with the
// decoded state. The caller closes it.
func readStatus(ctx context.Context, mac string) (*session.Session, *protocol.DeviceState, error) {
	user, err := userID()
	if err != nil {
		return nil, nil, err
	}
	sess := newSession(user)
	state, err := sess.Connect(ctx, mac)
	if err != nil {
		return nil, nil, err
	}

	registry.RecordStatus(mac, state.DeviceID.String(), state.CurrentMode.String())
	saveRegistry()
	return sess, state, nil
}

// saveRegistry persists the registry; failures only warn
func saveRegistry() {
	if err := registry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
	}
}
