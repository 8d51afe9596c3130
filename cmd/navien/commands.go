package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/navien/internal/protocol"
	"github.com/muurk/navien/internal/ui"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(gatewaysCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
}

// commandContext bounds a whole command: login, lookup and the session
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 3*viper.GetDuration(keyTimeout))
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check the account credentials against the relay",
	Long: `Log in to the Navien relay and report the result.

The login token is only kept for the duration of a command; nothing is
written to disk.`,
	Example: `  NAVIEN_PASSWORD=secret navien login --user me@example.com`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, token, err := login(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(map[string]any{"user_id": user, "ok": true})
		}
		ui.NewPrinter(nil).PrintSuccess("Login", []ui.Detail{
			ui.D("User", user),
			ui.D("Token", fmt.Sprintf("received (%d characters)", len(token))),
		})
		return nil
	},
}

var gatewaysCmd = &cobra.Command{
	Use:   "gateways",
	Short: "List the controller registered to the account",
	Long: `Log in and fetch the account's gateway directory.

The controller is remembered in the config file and becomes the default
when none is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		gw, err := lookupGateway(ctx)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(gw)
		}

		details := []ui.Detail{
			ui.D("MAC", gw.MAC),
			ui.D("Name", registry.DisplayName(gw.MAC)),
		}
		for i, f := range gw.Fields[1:] {
			details = append(details, ui.D(fmt.Sprintf("Field %d", i+1), f))
		}
		ui.NewPrinter(nil).PrintSuccess("Controller found", details)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [controller]",
	Short: "Read and show the controller status",
	Long: `Connect to the controller through the relay, read one status frame and
show it. The controller is a nickname or MAC; without one the configured
default is used, or the account's gateway list when there is none.`,
	Example: `  navien status
  navien status "Boiler Room"
  navien status 0011AABBCCDD -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	mac, err := resolveController(ctx, name)
	if err != nil {
		return err
	}

	sess, state, err := readStatus(ctx, mac)
	if err != nil {
		return err
	}
	_ = sess.Close()

	if jsonOutput() {
		return printJSON(map[string]any{"mac": mac, "state": state})
	}
	p := ui.NewPrinter(nil)
	return ui.RenderOnce(os.Stdout, ui.RenderState(state, registry.DisplayName(mac), p.Width()))
}

var setCmd = &cobra.Command{
	Use:   "set <operation> [arguments]",
	Short: "Send an operation to the controller",
	Long: `Read the controller status, then send one operation.

Operations:
  power-on | power-off
  holiday-on | holiday-off
  hot-water-on | hot-water-off | quick-hot-water
  room-heat <°C>          room temperature setpoint
  central-heat <°C>       central heating setpoint
  hot-water-temp <°C>     hot water setpoint
  interval-heat <hours> <minutes>
  program-24h <hours>     e.g. 6-8,17-22, or none to clear
  heat-level <low|medium|high>

Temperatures are checked against the range the controller reports and
sent in half-degree steps.`,
	Example: `  navien set power-on
  navien set room-heat 21.5
  navien set interval-heat 3 20
  navien set program-24h 6-8 17-22 -c "Boiler Room"`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: protocol.OperationNames(),
	RunE:      runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	req, err := parseRequest(args[0], args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if jsonOutput() {
		details, err := executeRequest(ctx, req, func(int, ui.StepStatus, string) {})
		if err != nil {
			return err
		}
		out := make(map[string]string, len(details))
		for _, d := range details {
			out[strings.ToLower(strings.ReplaceAll(d.Key, " ", "_"))] = d.Value
		}
		return printJSON(out)
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:        "Set " + req.Operation,
		Command:      "navien set " + strings.Join(args, " "),
		StepNames:    []string{"Resolve controller", "Read status", "Send command"},
		Troubleshoot: troubleshoot,
	})
	_, err = runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
		return executeRequest(ctx, req, onStep)
	})
	if err != nil {
		return &shownError{err: err}
	}
	return nil
}

// executeRequest resolves the controller, reads its status, builds req
// against that status and sends it
func executeRequest(ctx context.Context, req protocol.Request, onStep ui.StepCallback) ([]ui.Detail, error) {
	onStep(1, ui.StepRunning, "")
	mac, err := resolveController(ctx, "")
	if err != nil {
		onStep(1, ui.StepFailed, "")
		return nil, err
	}
	onStep(1, ui.StepComplete, registry.DisplayName(mac))

	onStep(2, ui.StepRunning, "")
	sess, state, err := readStatus(ctx, mac)
	if err != nil {
		onStep(2, ui.StepFailed, "")
		return nil, err
	}
	defer func() { _ = sess.Close() }()
	onStep(2, ui.StepComplete, state.CurrentMode.String())

	onStep(3, ui.StepRunning, "")
	command, err := req.Build(state)
	if err != nil {
		onStep(3, ui.StepFailed, "rejected")
		return nil, err
	}
	if err := sess.Execute(command); err != nil {
		onStep(3, ui.StepFailed, "")
		return nil, err
	}
	onStep(3, ui.StepComplete, fmt.Sprintf("%d bytes", protocol.CommandFrameSize))

	return []ui.Detail{
		ui.D("Controller", mac),
		ui.D("Device ID", state.DeviceID.String()),
		ui.D("Operation", req.Operation),
		ui.D("Previous mode", state.CurrentMode.String()),
	}, nil
}
