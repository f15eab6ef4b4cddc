package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"covertchan/internal/app"
	"covertchan/internal/config"
	"covertchan/internal/observability"
)

// annotationOffline marks commands that never touch the network.
const annotationOffline = "offline"

var (
	cfgPath    string
	home       string
	passphrase string
	relayURL   string
	transport  string
	me         string
	logLevel   string
	timeout    time.Duration

	cfg    *config.Config
	wire   *app.Wire
	logger *zap.Logger
)

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:          "covertchan",
		Short:        "Chunked, optionally encrypted transfers between two peers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			applyGlobalFlags(cmd)
			applyChannelFlags(cmd)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err = observability.SetupLogger(cfg.Log)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			wire, err = app.NewWire(app.Config{
				Config:  cfg,
				Offline: cmd.Annotations[annotationOffline] == "true",
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				_ = logger.Sync()
			}
			if wire != nil {
				return wire.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default ./covertchan.yaml or ~/.covertchan/covertchan.yaml)")
	pf.StringVar(&home, "home", "", "directory for the key file and transfer info (default ~/.covertchan)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the key file")
	pf.StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	pf.StringVar(&transport, "transport", "", "transport: relay or p2p")
	pf.StringVar(&me, "me", "", "our address on the relay")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.DurationVar(&timeout, "timeout", 10*time.Minute, "give up on the transfer after this long")
	addChannelFlags(pf)

	root.AddCommand(keygenCmd(), fingerprintCmd(), idCmd(), sendCmd(), recvCmd())
	return root.Execute()
}

func applyGlobalFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("home") {
		cfg.Home = home
	}
	if flags.Changed("relay") {
		cfg.Relay.URL = relayURL
	}
	if flags.Changed("transport") {
		cfg.Transport = transport
	}
	if flags.Changed("me") {
		cfg.Me = me
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
}

// transferContext bounds one transfer by --timeout and interrupt signals.
func transferContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
