package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/sieve/internal/delivery"
	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/retry"
	"github.com/crimson-sun/sieve/internal/source"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		host       string
		port       int
		src        string
		delay      time.Duration
		maxRetries int
		retryDelay time.Duration
		noWait     bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Stream a historical log table to a collector over TCP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := &a.cfg.Delivery
			flags := cmd.Flags()
			if flags.Changed("host") {
				d.Host = host
			}
			if flags.Changed("port") {
				d.Port = port
			}
			if flags.Changed("source") {
				d.Source = src
			}
			if flags.Changed("delay") {
				d.SendDelay = delay
			}
			if flags.Changed("max-retries") {
				d.MaxRetries = maxRetries
			}
			if flags.Changed("retry-delay") {
				d.RetryDelay = retryDelay
			}
			if noWait {
				d.StartupDelay = 0
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.WithComponent("delivery")

			table, err := source.OpenCSV(d.Source)
			if err != nil {
				return err
			}
			defer table.Close()

			if d.StartupDelay > 0 {
				log.Info().Dur("delay", d.StartupDelay).Msg("waiting for collector to start")
				if err := retry.Sleep(ctx, d.StartupDelay); err != nil {
					return err
				}
			}

			client := delivery.New(delivery.Config{
				Address:        d.Address(),
				SendDelay:      d.SendDelay,
				Retry:          retry.Policy{MaxAttempts: d.MaxRetries, Delay: d.RetryDelay},
				ConnectTimeout: d.ConnectTimeout,
				WriteTimeout:   d.WriteTimeout,
				ProbeTimeout:   d.ProbeTimeout,
				ProgressEvery:  d.ProgressEvery,
			})

			rep, err := client.Run(ctx, table)
			log.Info().
				Int("sent", rep.Sent).
				Int("skipped", rep.Skipped).
				Int("dropped", rep.Dropped).
				Int("reconnects", rep.Reconnects).
				Msg("replay finished")
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "", "collector host (overrides delivery.host)")
	flags.IntVar(&port, "port", 0, "collector port (overrides delivery.port)")
	flags.StringVar(&src, "source", "", "CSV file to replay (overrides delivery.source)")
	flags.DurationVar(&delay, "delay", 0, "pause between lines (overrides delivery.send_delay)")
	flags.IntVar(&maxRetries, "max-retries", 0, "connection attempts before giving up (overrides delivery.max_retries)")
	flags.DurationVar(&retryDelay, "retry-delay", 0, "pause between connection attempts (overrides delivery.retry_delay)")
	flags.BoolVar(&noWait, "no-wait", false, "skip the startup delay")
	return cmd
}
