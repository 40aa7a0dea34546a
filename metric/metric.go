// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metric defines the fixed set of measurements extracted from
// a benchmark run and how each one is named, displayed, and compared.
//
// Every other package refers to measurements by Metric rather than by
// name so that the Pareto filter, the exporters, and the chart layer
// share one table of names, labels, and directions.
package metric

import (
	"fmt"
	"math"
	"sort"
)

// A Metric identifies one measurement of a benchmark run.
type Metric int

const (
	Throughput Metric = iota
	AvgLatency
	P50Latency
	P99Latency
	P999Latency

	numMetrics
)

// A Direction says whether larger or smaller values of a metric are
// better.
type Direction int

const (
	Maximize Direction = 1 + iota
	Minimize
)

func (d Direction) String() string {
	switch d {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses "maximize" or "minimize" (or "max"/"min").
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "maximize", "max":
		return Maximize, nil
	case "minimize", "min":
		return Minimize, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want maximize or minimize)", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if d != Maximize && d != Minimize {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Better reports whether a is strictly better than b in direction d.
// Comparisons involving NaN are never better.
func (d Direction) Better(a, b float64) bool {
	switch d {
	case Maximize:
		return a > b
	case Minimize:
		return a < b
	}
	panic("invalid direction " + d.String())
}

// Info describes a Metric.
type Info struct {
	// Name is the canonical name used in the nested export.
	Name string
	// Column is the short column name used in flattened rows.
	Column string
	// Label is a human-readable axis or table label.
	Label string
	// Unit is the display unit.
	Unit string
	// Dir is the direction in which this metric improves.
	Dir Direction
}

var table = [numMetrics]Info{
	Throughput:  {"throughput_ops_sec", "throughput", "Throughput (Ops/sec)", "ops/sec", Maximize},
	AvgLatency:  {"avg_latency_ms", "avg_latency", "Average Latency (ms)", "ms", Minimize},
	P50Latency:  {"p50_latency_ms", "p50", "p50 Latency (ms)", "ms", Minimize},
	P99Latency:  {"p99_latency_ms", "p99", "p99 Latency (ms)", "ms", Minimize},
	P999Latency: {"p99_9_latency_ms", "p999", "p99.9 Latency (ms)", "ms", Minimize},
}

// Valid reports whether m is one of the defined metrics.
func (m Metric) Valid() bool {
	return m >= 0 && m < numMetrics
}

// Info returns the table entry for m. It panics if m is not valid.
func (m Metric) Info() Info {
	if !m.Valid() {
		panic(fmt.Sprintf("invalid metric %d", int(m)))
	}
	return table[m]
}

func (m Metric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return table[m].Name
}

func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid metric %d", int(m))
	}
	return []byte(table[m].Name), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// All returns every defined metric in table order.
func All() []Metric {
	ms := make([]Metric, numMetrics)
	for i := range ms {
		ms[i] = Metric(i)
	}
	return ms
}

// Parse looks up a metric by its canonical name or its short column
// name.
func Parse(name string) (Metric, error) {
	for i, info := range table {
		if name == info.Name || name == info.Column {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// Sort sorts ms into table order.
func Sort(ms []Metric) {
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
}

// A Set maps metrics to measured values. A metric that was not
// measured is absent from the map.
type Set map[Metric]float64

// Finite reports whether s holds a finite value for every metric in
// ms.
func (s Set) Finite(ms ...Metric) bool {
	for _, m := range ms {
		v, ok := s[m]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AllFinite reports whether every value present in s is finite.
func (s Set) AllFinite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Metrics returns the metrics present in s in table order.
func (s Set) Metrics() []Metric {
	ms := make([]Metric, 0, len(s))
	for m := range s {
		ms = append(ms, m)
	}
	Sort(ms)
	return ms
}

// Clone returns a copy of s that shares no state with s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	s2 := make(Set, len(s))
	for m, v := range s {
		s2[m] = v
	}
	return s2
}

// Equal reports whether s and o hold the same metrics with the same
// values. NaN is considered equal to NaN.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for m, v := range s {
		w, ok := o[m]
		if !ok {
			return false
		}
		if v != w && !(math.IsNaN(v) && math.IsNaN(w)) {
			return false
		}
	}
	return true
}
