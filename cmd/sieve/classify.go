package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/sieve/internal/engine"
	"github.com/crimson-sun/sieve/internal/engine/classifier"
	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/output"
	"github.com/crimson-sun/sieve/internal/output/file"
	"github.com/crimson-sun/sieve/internal/output/stdout"
	"github.com/crimson-sun/sieve/internal/output/tee"
	"github.com/crimson-sun/sieve/internal/pipeline"
	"github.com/crimson-sun/sieve/internal/source"
)

func newClassifyCmd(a *app) *cobra.Command {
	var (
		src         string
		outPath     string
		toStdout    bool
		pretty      bool
		verbosity   string
		artifactDir string
		maxSize     int64
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Score every row of a CSV log table and write NDJSON results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if artifactDir != "" {
				cfg.Artifacts.Dir = artifactDir
			}
			if src == "" {
				src = cfg.Delivery.Source
			}
			v, err := output.ParseVerbosity(verbosity)
			if err != nil {
				return err
			}

			out, err := openOutput(outPath, v, pretty, toStdout, maxSize)
			if err != nil {
				return err
			}

			bundle, err := engine.LoadBundle(cfg.Artifacts.Paths(), classifier.Options{
				ONNXLibrary: cfg.Artifacts.ONNXLibrary,
			})
			if err != nil {
				out.Close()
				return err
			}
			defer bundle.Close()

			table, err := source.OpenCSV(src)
			if err != nil {
				out.Close()
				return err
			}
			defer table.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := pipeline.New(bundle.Engine(), out)
			sum, runErr := p.Classify(ctx, table)
			closeErr := p.Close()

			log := logging.WithComponent("pipeline")
			log.Info().
				Str("source", src).
				Int("rows", sum.Rows).
				Int("anomalies", sum.Anomalies).
				Int("normal", sum.Normal).
				Int("failed", sum.Failed).
				Int("skipped", sum.Skipped).
				Msg("classification finished")

			if runErr != nil {
				return runErr
			}
			return closeErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&src, "source", "", "CSV file to score (default: delivery.source)")
	flags.StringVar(&outPath, "out", "", "NDJSON output file (default: stdout)")
	flags.BoolVar(&toStdout, "tee", false, "also write results to stdout when --out is set")
	flags.BoolVar(&pretty, "pretty", false, "indent stdout JSON")
	flags.StringVar(&verbosity, "verbosity", "standard", "minimal omits the message text")
	flags.StringVar(&artifactDir, "artifacts", "", "artifact directory (overrides artifacts.dir)")
	flags.Int64Var(&maxSize, "max-size", 0, "rotate the output file at this many bytes; 0 disables")
	return cmd
}

func openOutput(path string, v output.Verbosity, pretty, toStdout bool, maxSize int64) (output.Output, error) {
	if path == "" {
		return stdout.New(v, pretty), nil
	}
	f, err := file.Open(path, v, file.RotateAt(maxSize))
	if err != nil {
		return nil, err
	}
	if toStdout {
		return tee.New(f, stdout.New(v, pretty)), nil
	}
	return f, nil
}
