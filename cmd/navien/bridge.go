package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muurk/navien/internal/bridge"
	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/session"
)

func init() {
	f := bridgeCmd.Flags()
	f.String("listen", "", "HTTP/WebSocket listen address (default from config, :8080)")
	f.Duration("poll-interval", 0, "Time between status reads (default from config, 60s)")
	f.Bool("advertise", false, "Announce the bridge over mDNS")
	f.String("name", "navien-bridge", "mDNS instance name")

	_ = viper.BindPFlag("bridge.listen", f.Lookup("listen"))
	_ = viper.BindPFlag("bridge.poll-interval", f.Lookup("poll-interval"))
	_ = viper.BindPFlag("bridge.advertise", f.Lookup("advertise"))
	_ = viper.BindPFlag("bridge.name", f.Lookup("name"))

	rootCmd.AddCommand(bridgeCmd)
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge [controller]",
	Short: "Serve one controller over HTTP and WebSocket",
	Long: `Poll one controller through the relay and serve its state to local clients.

Every poll connects, reads one status frame and disconnects. WebSocket
clients on /ws receive each state as JSON and may send commands, which
run in arrival order on the next poll:

  {"type":"command","id":"1","data":{"operation":"room-heat","temperature":21}}

GET /state, POST /command and GET /stats offer the same over plain HTTP.`,
	Example: `  navien bridge
  navien bridge "Boiler Room" --listen 127.0.0.1:9000 --poll-interval 30s
  navien bridge --advertise --log-level info`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBridge,
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var name string
	if len(args) == 1 {
		name = args[0]
	}

	lookupCtx, cancel := commandContext(cmd)
	mac, err := resolveController(lookupCtx, name)
	cancel()
	if err != nil {
		return err
	}
	user, err := userID()
	if err != nil {
		return err
	}

	prefs := registry.Preferences.Bridge
	cfg := bridge.Config{
		Listen:       prefs.Listen,
		PollInterval: time.Duration(prefs.PollIntervalSeconds) * time.Second,
		CycleTimeout: 2 * viper.GetDuration(keyTimeout),
		Advertise:    prefs.Advertise || viper.GetBool("bridge.advertise"),
		InstanceName: viper.GetString("bridge.name"),
		Logger:       logging.GetLogger(),
	}
	if l := viper.GetString("bridge.listen"); l != "" {
		cfg.Listen = l
	}
	if d := viper.GetDuration("bridge.poll-interval"); d > 0 {
		cfg.PollInterval = d
	}

	connector := bridge.NewSessionConnector(user, mac,
		session.WithAddress(viper.GetString(keyRelayAddr)),
		session.WithTimeout(viper.GetDuration(keyTimeout)),
		session.WithLogger(logging.GetLogger()),
	)

	logging.Info("Starting bridge",
		zap.String("controller", mac),
		zap.String("listen", cfg.Listen),
		zap.Bool("advertise", cfg.Advertise),
	)
	cmd.Printf("Bridging %s on %s (Ctrl+C to stop)\n", registry.DisplayName(mac), cfg.Listen)

	return bridge.New(cfg, connector).Run(ctx)
}
