package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/sieve/internal/config"
	"github.com/crimson-sun/sieve/internal/delivery"
	"github.com/crimson-sun/sieve/internal/logging"
)

// Exit codes. A replay that could not reach the collector is reported
// separately from other failures.
const (
	exitFailure     = 1
	exitUnreachable = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, delivery.ErrConnect) || errors.Is(err, delivery.ErrReconnect) {
		return exitUnreachable
	}
	return exitFailure
}

// app carries state shared by every subcommand.
type app struct {
	cfgPath  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "sieve",
		Short:         "Log anomaly inference service and log replay client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file path (default: $SIEVE_CONFIG or ./sieve.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newReplayCmd(a))
	root.AddCommand(newClassifyCmd(a))

	return root
}

// setup loads .env, the configuration and the logger.
func (a *app) setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return nil
}
