// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/benchfront/chart"
	"golang.org/x/benchfront/config"
	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/export"
	"golang.org/x/benchfront/pareto"
	"golang.org/x/benchfront/rundir"
	"golang.org/x/benchfront/sink"
	"golang.org/x/benchfront/store"
)

// env holds what a subcommand needs to run the pipeline.
type env struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	fs     sink.FS
	stdout io.Writer
	stderr io.Writer
	input  string

	closers []func() error
}

func newEnv(cmd *cobra.Command, log *logrus.Logger, f *flags, o overrides) (*env, error) {
	cfg, err := loadConfig(f, o)
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:    cfg,
		log:    log.WithField("experiment", cfg.Experiment),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		input:  o.input,
	}
	if cfg.Output.Bucket != "" {
		gcs, err := sink.NewGCS(cmd.Context(), cfg.Output.Bucket, cfg.Output.Prefix)
		if err != nil {
			return nil, fmt.Errorf("opening bucket %s: %w", cfg.Output.Bucket, err)
		}
		e.fs = gcs
		e.closers = append(e.closers, gcs.Close)
	} else {
		e.fs = sink.Dir(cfg.Output.Dir)
	}
	return e, nil
}

func (e *env) close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			e.log.WithError(err).Warn("close failed")
		}
	}
}

func (e *env) metadata(ds *dataset.Dataset) export.Metadata {
	return export.NewMetadata(ds, e.cfg.Experiment, e.cfg.DataSourceLabel())
}

// aggregate reads the run directories under the configured root. An
// inaccessible root is the only error.
func (e *env) aggregate(ctx context.Context) (*dataset.Dataset, *dataset.Report, error) {
	if e.cfg.Root == "" {
		return nil, nil, fmt.Errorf("no input root: give one as an argument or set root in the experiment file")
	}
	schema, err := e.cfg.KeySchema()
	if err != nil {
		return nil, nil, err
	}
	layout, err := e.cfg.RunLayout()
	if err != nil {
		return nil, nil, err
	}
	dir, err := rundir.Open(e.cfg.Root, e.cfg.RunFile)
	if err != nil {
		return nil, nil, err
	}
	e.log.WithField("root", e.cfg.Root).Infof("aggregating %d run directories", dir.Len())
	ds, rep, err := dataset.Aggregate(dir, dataset.Options{Schema: schema, Layout: layout, Log: e.log})
	if err != nil {
		return nil, rep, err
	}
	return ds, rep, nil
}

// writeNested exports ds alone, for the aggregate command.
func (e *env) writeNested(ctx context.Context, ds *dataset.Dataset, rep *dataset.Report) error {
	if e.cfg.Output.JSON == "" {
		return fmt.Errorf("no JSON output configured")
	}
	ex := export.Exporter{FS: e.fs, Log: e.log}
	_, err := ex.Export(ctx, ds, e.metadata(ds), nil, nil, export.Outputs{JSON: e.cfg.Output.JSON})
	rep.WriteTo(e.stderr)
	return err
}

// analyzeFile loads a nested export and analyzes it.
func (e *env) analyzeFile(ctx context.Context) error {
	path := e.input
	if path == "" {
		path = filepath.Join(e.cfg.Output.Dir, e.cfg.Output.JSON)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	ds, md, err := export.ReadNested(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if md.TotalConfigurations != ds.Len() {
		e.log.WithField("file", path).Warnf("metadata claims %d configurations, found %d", md.TotalConfigurations, ds.Len())
	}
	rep := &dataset.Report{Entries: ds.Len(), Added: ds.Len()}
	return e.analyze(ctx, ds, md, rep, false)
}

// analyze flattens ds, marks the Pareto frontier, and writes every
// configured output. The nested JSON is rewritten only if writeJSON
// is set.
func (e *env) analyze(ctx context.Context, ds *dataset.Dataset, md export.Metadata, rep *dataset.Report, writeJSON bool) error {
	defer rep.WriteTo(e.stderr)

	objs, err := e.cfg.ParetoObjectives()
	if err != nil {
		return err
	}
	rows, dropped := dataset.Flatten(ds, objs.Metrics())
	for _, k := range dropped {
		e.log.WithField("key", k.String()).Warn("dropping configuration: objective metric missing or not finite")
	}
	rep.NoteDropped(dropped)

	threshold := e.cfg.ParallelThreshold
	if threshold < 0 {
		threshold = 0
	}
	f := pareto.Filter{Objectives: objs, ParallelThreshold: threshold}
	f.Mark(rows)

	out := export.Outputs{
		CSV:   e.cfg.Output.CSV,
		Text:  e.cfg.Output.Text,
		HTML:  e.cfg.Output.HTML,
		Plots: e.cfg.Output.Plots,
	}
	if writeJSON {
		out.JSON = e.cfg.Output.JSON
	}
	ex := export.Exporter{FS: e.fs, Plotter: new(chart.Plotter), Log: e.log}
	if _, err := ex.Export(ctx, ds, md, rows, objs, out); err != nil {
		return err
	}

	if e.cfg.Output.DBDriver != "" {
		if err := e.save(ctx, ds, md, rows, objs); err != nil {
			return err
		}
	}
	return export.WriteText(e.stdout, ds.Schema(), rows, ds.Metrics(), objs)
}

func (e *env) save(ctx context.Context, ds *dataset.Dataset, md export.Metadata, rows []dataset.Row, objs pareto.Objectives) error {
	db, err := store.OpenSQL(e.cfg.Output.DBDriver, e.cfg.Output.DBDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	id, err := db.SaveRows(ctx, store.Experiment{
		Name:       md.Experiment,
		DataSource: md.DataSource,
		Schema:     ds.Schema().String(),
		Objectives: objs.String(),
	}, rows)
	if err != nil {
		return fmt.Errorf("saving rows: %w", err)
	}
	e.log.WithField("id", id).Info("saved experiment to database")
	return nil
}
