// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/internal/texttab"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/pareto"
	"golang.org/x/benchfront/runkey"
)

// WriteText writes a plain-text report to w: the frontier rows in
// display order, followed by summary statistics of each metric over
// all rows.
func WriteText(w io.Writer, schema *runkey.Schema, rows []dataset.Row, metrics []metric.Metric, objs pareto.Objectives) error {
	front := pareto.OnFrontier(rows)
	pareto.Sort(front, objs)

	if _, err := fmt.Fprintf(w, "Pareto frontier (%s): %d of %d configurations\n\n", objs, len(front), len(rows)); err != nil {
		return err
	}
	if len(front) > 0 {
		if err := frontierTable(schema, front, metrics).Format(w); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return summaryTable(rows, metrics).Format(w)
}

func frontierTable(schema *runkey.Schema, rows []dataset.Row, metrics []metric.Metric) *texttab.Table {
	tab := &texttab.Table{Gap: "  "}
	tab.Row()
	for _, d := range schema.Dims() {
		tab.Cell(d)
	}
	scalers := make([]metric.Scaler, len(metrics))
	for i, m := range metrics {
		tab.Cell(m.Info().Label, texttab.Right)
		vals := make([]float64, 0, len(rows))
		for _, r := range rows {
			if v, ok := r.Metrics[m]; ok {
				vals = append(vals, v)
			}
		}
		scalers[i] = metric.CommonScale(vals, m)
	}
	tab.Rule()
	for _, r := range rows {
		tab.Row()
		for _, v := range r.Key.Values() {
			tab.Cell(strconv.Itoa(v), texttab.Right)
		}
		for i, m := range metrics {
			v, ok := r.Metrics[m]
			if !ok {
				tab.Cell("~", texttab.Right)
				continue
			}
			tab.Cell(scalers[i].Format(v), texttab.Right)
		}
	}
	return tab
}

func summaryTable(rows []dataset.Row, metrics []metric.Metric) *texttab.Table {
	tab := &texttab.Table{Gap: "  "}
	tab.Row().Cell("metric").Cell("n", texttab.Right).Cell("min", texttab.Right).
		Cell("median", texttab.Right).Cell("mean", texttab.Right).Cell("max", texttab.Right)
	tab.Rule()
	for _, m := range metrics {
		var xs []float64
		for _, r := range rows {
			if r.Metrics.Finite(m) {
				xs = append(xs, r.Metrics[m])
			}
		}
		tab.Row().Cell(m.Info().Label).Cell(strconv.Itoa(len(xs)), texttab.Right)
		if len(xs) == 0 {
			continue
		}
		sort.Float64s(xs)
		sample := stats.Sample{Xs: xs, Sorted: true}
		lo, hi := stats.Bounds(xs)
		sum := []float64{lo, sample.Quantile(0.5), stats.Mean(xs), hi}
		sc := metric.CommonScale(sum, m)
		for _, v := range sum {
			tab.Cell(sc.Format(v), texttab.Right)
		}
	}
	return tab
}
