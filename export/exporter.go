// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export serializes aggregated benchmark results.
//
// The Dataset is written in nested JSON form, grouped by each key
// dimension in turn. The flattened rows, with their frontier flags,
// are written as CSV, as a plain-text table, and as an HTML report.
// Image artifacts are produced by an optional Plotter.
package export

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/sirupsen/logrus"
	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/pareto"
	"golang.org/x/benchfront/sink"
)

// A Plotter produces image artifacts from flattened rows. It writes
// files under dir in fs and returns the names it wrote.
type Plotter interface {
	Plot(ctx context.Context, fs sink.FS, dir string, rows []dataset.Row, objs pareto.Objectives) ([]string, error)
}

// Outputs names the files an Exporter writes. Empty names are
// skipped.
type Outputs struct {
	JSON  string
	CSV   string
	Text  string
	HTML  string
	Plots string // directory for plots
}

// An Exporter writes results to FS.
type Exporter struct {
	FS sink.FS

	// Plotter, if non-nil, is asked to draw plots. Data export
	// never depends on it: plot failures are logged and ignored.
	Plotter Plotter

	// Log receives progress and plot failures. If nil, the logrus
	// standard logger is used.
	Log logrus.FieldLogger
}

func (e *Exporter) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Export writes ds in nested form and rows in every flattened form
// requested by out. The rows should already be marked by the Pareto
// filter. It returns the names of the files written.
func (e *Exporter) Export(ctx context.Context, ds *dataset.Dataset, md Metadata, rows []dataset.Row, objs pareto.Objectives, out Outputs) ([]string, error) {
	log := e.logger()
	metrics := ds.Metrics()
	schema := ds.Schema()
	var written []string

	type output struct {
		name, contentType string
		write             func(io.Writer) error
	}
	outputs := []output{
		{out.JSON, "application/json", func(w io.Writer) error { return WriteNested(w, ds, md) }},
		{out.CSV, "text/csv", func(w io.Writer) error { return WriteCSV(w, schema, rows, metrics) }},
		{out.Text, "text/plain; charset=utf-8", func(w io.Writer) error { return WriteText(w, schema, rows, metrics, objs) }},
		{out.HTML, "text/html; charset=utf-8", func(w io.Writer) error {
			return WriteHTML(w, md.Experiment, schema, rows, metrics, objs)
		}},
	}
	for _, o := range outputs {
		if o.name == "" {
			continue
		}
		if err := e.writeFile(ctx, o.name, o.contentType, o.write); err != nil {
			return written, err
		}
		log.WithField("file", o.name).Info("wrote export")
		written = append(written, o.name)
	}

	if out.Plots != "" {
		if e.Plotter == nil {
			log.Warn("no plotter available; skipping plots")
		} else {
			names, err := e.Plotter.Plot(ctx, e.FS, out.Plots, rows, objs)
			for _, n := range names {
				written = append(written, path.Join(out.Plots, n))
			}
			if err != nil {
				log.WithError(err).Warn("plotting failed")
			}
		}
	}
	return written, nil
}

func (e *Exporter) writeFile(ctx context.Context, name, contentType string, write func(io.Writer) error) error {
	w, err := e.FS.NewWriter(ctx, name, contentType)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := write(w); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
