// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Benchfront aggregates load-generator runs into a dataset and finds
// the configurations on the Pareto frontier of the chosen metrics.
//
// Usage:
//
//	benchfront aggregate [flags] [root]
//	benchfront analyze [flags] [results.json]
//	benchfront run [flags] [root]
//
// aggregate reads one run per subdirectory of root. Each subdirectory
// is named after its configuration, as in
// clients_4_threads_2_pipeline_16, and holds the run's output file
// (redis.out by default). The result is written as nested JSON.
//
// analyze reads nested JSON, flattens it into one row per
// configuration, marks the rows on the Pareto frontier, and writes a
// CSV file, plots, and optionally text and HTML reports and a SQL
// database. The frontier is also printed to standard output.
//
// run does both in one pass.
//
// Runs that cannot be parsed are skipped with a warning. A summary of
// everything skipped, overwritten, or dropped is always printed to
// standard error. Benchfront exits with status 1 only if the input as
// a whole is unusable.
//
// Settings come from an optional TOML experiment file (-config); see
// package golang.org/x/benchfront/config for its format. Flags
// override the file.
package main

import (
	"context"
	"os"
	"os/signal"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/benchfront/config"
	_ "golang.org/x/benchfront/store/sqlite3"
)

func main() {
	log := logrus.New()
	log.Out = os.Stderr

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(log)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

// flags are the settings shared by all subcommands.
type flags struct {
	config  string
	verbose bool

	out     string
	bucket  string
	noPlots bool
}

// overrides are per-command flag values that replace file settings
// when set.
type overrides struct {
	root       string
	schema     string
	experiment string
	runFile    string
	input      string
}

func newRootCmd(log *logrus.Logger) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "benchfront",
		Short: "Aggregate benchmark runs and find Pareto-optimal configurations",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "experiment `file` (TOML)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log every run")
	pf.StringVar(&f.out, "out", "", "write outputs under `dir` (default from config, or .)")
	pf.StringVar(&f.bucket, "bucket", "", "write outputs to this Cloud Storage `bucket` instead of a directory")
	pf.BoolVar(&f.noPlots, "no-plots", false, "skip plots")

	root.AddCommand(
		newAggregateCmd(log, &f),
		newAnalyzeCmd(log, &f),
		newRunCmd(log, &f),
	)
	return root
}

func addInputFlags(cmd *cobra.Command, o *overrides) {
	fl := cmd.Flags()
	fl.StringVar(&o.schema, "schema", "", "run identifier `template`, e.g. loaded_pairs_<int>")
	fl.StringVar(&o.experiment, "experiment", "", "experiment `name` for metadata")
	fl.StringVar(&o.runFile, "run-file", "", "output file `name` inside each run directory")
}

func newAggregateCmd(log *logrus.Logger, f *flags) *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "aggregate [root]",
		Short: "Aggregate run directories into nested JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.root = args[0]
			}
			env, err := newEnv(cmd, log, f, o)
			if err != nil {
				return err
			}
			defer env.close()
			ds, rep, err := env.aggregate(cmd.Context())
			if err != nil {
				return err
			}
			return env.writeNested(cmd.Context(), ds, rep)
		},
	}
	addInputFlags(cmd, &o)
	return cmd
}

func newAnalyzeCmd(log *logrus.Logger, f *flags) *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "analyze [results.json]",
		Short: "Find the Pareto frontier of an aggregated dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.input = args[0]
			}
			env, err := newEnv(cmd, log, f, o)
			if err != nil {
				return err
			}
			defer env.close()
			return env.analyzeFile(cmd.Context())
		},
	}
	return cmd
}

func newRunCmd(log *logrus.Logger, f *flags) *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Aggregate run directories and find the Pareto frontier",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.root = args[0]
			}
			env, err := newEnv(cmd, log, f, o)
			if err != nil {
				return err
			}
			defer env.close()
			ds, rep, err := env.aggregate(cmd.Context())
			if err != nil {
				return err
			}
			return env.analyze(cmd.Context(), ds, env.metadata(ds), rep, true)
		},
	}
	addInputFlags(cmd, &o)
	return cmd
}

// loadConfig loads the experiment file, if any, and applies flag
// overrides.
func loadConfig(f *flags, o overrides) (*config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Root, o.root)
	set(&cfg.Schema, o.schema)
	set(&cfg.Experiment, o.experiment)
	set(&cfg.RunFile, o.runFile)
	set(&cfg.Output.Dir, f.out)
	set(&cfg.Output.Bucket, f.bucket)
	if f.noPlots {
		cfg.Output.Plots = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
