// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pareto finds the configurations that represent genuine
// trade-offs between several metrics.
//
// Record A dominates record B if A is at least as good as B in every
// objective and strictly better in at least one. The Pareto frontier
// is the set of records dominated by no other record. Membership
// depends only on metric values, never on input order, and records
// that tie exactly are both kept.
package pareto

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/sync/errgroup"
)

// An Objective is a metric and the direction in which it improves.
type Objective struct {
	Metric metric.Metric
	Dir    metric.Direction
}

func (o Objective) String() string {
	return o.Dir.String() + " " + o.Metric.Info().Column
}

// Maximize returns an Objective that prefers larger values of m.
func Maximize(m metric.Metric) Objective { return Objective{m, metric.Maximize} }

// Minimize returns an Objective that prefers smaller values of m.
func Minimize(m metric.Metric) Objective { return Objective{m, metric.Minimize} }

// Objectives is an ordered list of objectives. Order matters only for
// display: the first maximized and first minimized objectives are the
// primary sort keys of Sort.
type Objectives []Objective

// Default returns the throughput/latency trade-off: maximize
// throughput, minimize mean latency.
func Default() Objectives {
	return Objectives{Maximize(metric.Throughput), Minimize(metric.AvgLatency)}
}

// Validate checks that objs is non-empty, names valid metrics and
// directions, and names each metric at most once.
func (objs Objectives) Validate() error {
	if len(objs) == 0 {
		return fmt.Errorf("no objectives")
	}
	seen := make(map[metric.Metric]bool)
	for _, o := range objs {
		if !o.Metric.Valid() {
			return fmt.Errorf("invalid metric %d", int(o.Metric))
		}
		if o.Dir != metric.Maximize && o.Dir != metric.Minimize {
			return fmt.Errorf("%v: invalid direction %v", o.Metric, o.Dir)
		}
		if seen[o.Metric] {
			return fmt.Errorf("metric %v appears in more than one objective", o.Metric)
		}
		seen[o.Metric] = true
	}
	return nil
}

// Metrics returns the metrics of objs, in objective order.
func (objs Objectives) Metrics() []metric.Metric {
	ms := make([]metric.Metric, len(objs))
	for i, o := range objs {
		ms[i] = o.Metric
	}
	return ms
}

// Primary returns the first objective with direction d.
func (objs Objectives) Primary(d metric.Direction) (Objective, bool) {
	for _, o := range objs {
		if o.Dir == d {
			return o, true
		}
	}
	return Objective{}, false
}

func (objs Objectives) String() string {
	parts := make([]string, len(objs))
	for i, o := range objs {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}

// Dominates reports whether a dominates b under objs. A set that is
// missing an objective metric, or holds NaN for one, neither dominates
// nor is dominated in that metric, so callers should drop such sets
// first (see dataset.Flatten).
func Dominates(a, b metric.Set, objs Objectives) bool {
	strict := false
	for _, o := range objs {
		av, aok := a[o.Metric]
		bv, bok := b[o.Metric]
		if !aok || !bok {
			return false
		}
		if o.Dir.Better(bv, av) {
			return false
		}
		if o.Dir.Better(av, bv) {
			strict = true
		} else if av != bv {
			// Incomparable (NaN).
			return false
		}
	}
	return strict
}

// A Filter computes frontier membership.
type Filter struct {
	Objectives Objectives

	// ParallelThreshold is the number of sets above which the
	// pairwise comparison is split across goroutines. Zero means
	// always sequential.
	ParallelThreshold int

	// Workers bounds the goroutines used in parallel mode. Zero
	// means GOMAXPROCS.
	Workers int
}

// Frontier reports for each set whether it is on the Pareto frontier
// of sets.
func (f *Filter) Frontier(sets []metric.Set) []bool {
	on := make([]bool, len(sets))
	n := len(sets)
	if f.ParallelThreshold <= 0 || n <= f.ParallelThreshold {
		frontierRange(sets, f.Objectives, on, 0, n)
		return on
	}

	workers := f.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (n + workers - 1) / workers
	// Each goroutine owns a disjoint range of on and only reads
	// sets, so no further synchronization is needed.
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			frontierRange(sets, f.Objectives, on, lo, hi)
			return nil
		})
	}
	g.Wait()
	return on
}

// frontierRange decides membership for sets[lo:hi] against all sets.
func frontierRange(sets []metric.Set, objs Objectives, on []bool, lo, hi int) {
	for i := lo; i < hi; i++ {
		on[i] = true
		for j := range sets {
			if i != j && Dominates(sets[j], sets[i], objs) {
				on[i] = false
				break
			}
		}
	}
}

// Frontier is a convenience for a sequential Filter with objs.
func Frontier(sets []metric.Set, objs Objectives) []bool {
	f := Filter{Objectives: objs}
	return f.Frontier(sets)
}

// Mark sets OnFrontier on each row. The rows should already exclude
// records with missing or non-finite objective metrics.
func (f *Filter) Mark(rows []dataset.Row) {
	sets := make([]metric.Set, len(rows))
	for i, r := range rows {
		sets[i] = r.Metrics
	}
	for i, on := range f.Frontier(sets) {
		rows[i].OnFrontier = on
	}
}

// OnFrontier returns the rows with OnFrontier set, in their original
// order.
func OnFrontier(rows []dataset.Row) []dataset.Row {
	var out []dataset.Row
	for _, r := range rows {
		if r.OnFrontier {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders rows for display: by the primary maximized objective
// descending, then the primary minimized objective ascending, then by
// key. It does not affect frontier membership.
func Sort(rows []dataset.Row, objs Objectives) {
	var keys []Objective
	if o, ok := objs.Primary(metric.Maximize); ok {
		keys = append(keys, o)
	}
	if o, ok := objs.Primary(metric.Minimize); ok {
		keys = append(keys, o)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for _, o := range keys {
			av, bv := a.Metrics[o.Metric], b.Metrics[o.Metric]
			if o.Dir.Better(av, bv) {
				return true
			}
			if o.Dir.Better(bv, av) {
				return false
			}
		}
		return a.Key.Less(b.Key)
	})
}
