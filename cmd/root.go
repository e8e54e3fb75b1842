package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/productpulse/internal/config"
	"github.com/KaramelBytes/productpulse/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "ProductPulse: product metrics reports from event exports",
	Long: `ProductPulse reads users, sessions, feature usage and feedback tables exported
from an event store and computes activity, adoption, retention, feature/repeat
correlation, funnel conversion and feedback sentiment in a single batch run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.productpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log output: console | json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to loading on demand and report the error there
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	initLogging(cfg)
}

// currentConfig returns the loaded configuration, loading it when the
// command runs without Execute (tests drive rootCmd directly).
func currentConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
		initLogging(cfg)
	}
	return cfg, nil
}

func initLogging(c *cfgpkg.Global) {
	lc := logging.DefaultConfig()
	lc.Level = c.LogLevel
	if c.LogFormat != "" {
		lc.Format = c.LogFormat
	}
	if logFormat != "" {
		lc.Format = logFormat
	}
	if debug {
		lc.Level = "debug"
	}
	logging.Init(lc)
}
