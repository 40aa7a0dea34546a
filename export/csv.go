// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runkey"
)

// CSVHeader returns the header row of WriteCSV: the key dimensions,
// then the short column name of each metric, then on_frontier.
func CSVHeader(schema *runkey.Schema, metrics []metric.Metric) []string {
	hdr := append([]string(nil), schema.Dims()...)
	for _, m := range metrics {
		hdr = append(hdr, m.Info().Column)
	}
	return append(hdr, "on_frontier")
}

// WriteCSV writes rows to w in flattened form with the given metric
// columns. A metric a row does not have is written as an empty cell.
// Values use the shortest representation that round-trips.
func WriteCSV(w io.Writer, schema *runkey.Schema, rows []dataset.Row, metrics []metric.Metric) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(schema, metrics)); err != nil {
		return err
	}
	rec := make([]string, 0, schema.Len()+len(metrics)+1)
	for _, row := range rows {
		rec = rec[:0]
		for _, v := range row.Key.Values() {
			rec = append(rec, strconv.Itoa(v))
		}
		for _, m := range metrics {
			v, ok := row.Metrics[m]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		rec = append(rec, strconv.FormatBool(row.OnFrontier))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
