// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runkey"
)

// A Row is one configuration in flattened form.
type Row struct {
	Key     runkey.Key
	Metrics metric.Set
	// OnFrontier is derived by the Pareto filter for the current
	// set of rows. Flatten always leaves it false.
	OnFrontier bool
}

// Flatten returns one Row per configuration of d that has a finite
// value for every metric in required, in ascending key order. The
// keys of configurations left out are returned as dropped, also in
// ascending order.
func Flatten(d *Dataset, required []metric.Metric) (rows []Row, dropped []runkey.Key) {
	for _, k := range d.Keys() {
		set := d.recs[k]
		if !set.Finite(required...) {
			dropped = append(dropped, k)
			continue
		}
		rows = append(rows, Row{Key: k, Metrics: set.Clone()})
	}
	return rows, dropped
}
