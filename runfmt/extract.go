// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfmt extracts summary metrics from the text output of a
// load generator run.
//
// The summary is a single line that starts with a marker token and is
// followed by whitespace-separated numeric fields at fixed positions,
// as in memtier_benchmark's "Totals" line:
//
//	Type     Ops/sec  Hits/sec  Misses/sec  Avg. Latency  p50 Latency  p99 Latency  p99.9 Latency  KB/sec
//	Totals  762397.11     0.00   381198.55      53.59558     51.19900    110.07900      158.71900  32587.73
//
// Fields are numbered from the marker, which is field 0, so in the
// line above field 1 is throughput and field 4 is the mean latency.
package runfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/benchfront/metric"
)

// A Column binds a metric to a field offset on the summary line.
type Column struct {
	Metric metric.Metric
	Field  int
}

// A Layout describes where metrics appear on a summary line.
type Layout struct {
	// Marker is the token that starts the summary line.
	Marker string
	// Columns lists the metrics to extract. Every column is
	// required: a line with too few fields does not match.
	Columns []Column
}

// DefaultLayout matches memtier_benchmark's "Totals" line.
var DefaultLayout = Layout{
	Marker: "Totals",
	Columns: []Column{
		{metric.Throughput, 1},
		{metric.AvgLatency, 4},
		{metric.P50Latency, 5},
		{metric.P99Latency, 6},
		{metric.P999Latency, 7},
	},
}

// TotalsLayout extracts only throughput and mean latency from a
// "Totals" line, for output that predates percentile columns.
var TotalsLayout = Layout{
	Marker: "Totals",
	Columns: []Column{
		{metric.Throughput, 1},
		{metric.AvgLatency, 4},
	},
}

// Validate checks that l is usable.
func (l *Layout) Validate() error {
	if l.Marker == "" || strings.ContainsAny(l.Marker, " \t\r\n") {
		return fmt.Errorf("layout marker %q must be a single non-empty token", l.Marker)
	}
	if len(l.Columns) == 0 {
		return fmt.Errorf("layout has no columns")
	}
	seen := make(map[metric.Metric]bool)
	for _, c := range l.Columns {
		if !c.Metric.Valid() {
			return fmt.Errorf("layout column has invalid metric %d", int(c.Metric))
		}
		if c.Field < 1 {
			return fmt.Errorf("metric %v: field %d must follow the marker", c.Metric, c.Field)
		}
		if seen[c.Metric] {
			return fmt.Errorf("metric %v appears twice in layout", c.Metric)
		}
		seen[c.Metric] = true
	}
	return nil
}

// Metrics returns the metrics l extracts, in table order.
func (l *Layout) Metrics() []metric.Metric {
	ms := make([]metric.Metric, len(l.Columns))
	for i, c := range l.Columns {
		ms[i] = c.Metric
	}
	metric.Sort(ms)
	return ms
}

// fields returns the number of fields, including the marker, that a
// summary line needs.
func (l *Layout) fields() int {
	n := 1
	for _, c := range l.Columns {
		if c.Field+1 > n {
			n = c.Field + 1
		}
	}
	return n
}

// An ExtractionError means no usable summary line was found. Callers
// should treat it as "metrics unavailable for this run".
type ExtractionError struct {
	Source string
	Line   int // 0 if no line carried the marker
	Msg    string
}

func (e *ExtractionError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Source, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
}

// maxLine bounds the length of a single output line.
const maxLine = 1 << 20

// Extract scans r for the first well-formed summary line and returns
// its metrics. source names the input in errors.
//
// Lines that carry the marker but are short or have a non-numeric
// field are skipped; if no line matches, the error describes the last
// such line. NaN and Inf fields are accepted.
func (l *Layout) Extract(r io.Reader, source string) (metric.Set, error) {
	if source == "" {
		source = "<unknown>"
	}
	need := l.fields()
	var bad *ExtractionError

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 || fields[0] != l.Marker {
			continue
		}
		if len(fields) < need {
			bad = &ExtractionError{source, line, fmt.Sprintf("%s line has %d fields, want at least %d", l.Marker, len(fields)-1, need-1)}
			continue
		}
		set := make(metric.Set, len(l.Columns))
		for _, c := range l.Columns {
			v, err := strconv.ParseFloat(fields[c.Field], 64)
			if err != nil {
				bad = &ExtractionError{source, line, fmt.Sprintf("%v: field %d: %q is not a number", c.Metric, c.Field, fields[c.Field])}
				set = nil
				break
			}
			set[c.Metric] = v
		}
		if set != nil {
			return set, nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, &ExtractionError{source, line, err.Error()}
	}
	if bad != nil {
		return nil, bad
	}
	return nil, &ExtractionError{source, 0, fmt.Sprintf("no %s line", l.Marker)}
}

// ExtractString is like Extract but reads from text.
func (l *Layout) ExtractString(text, source string) (metric.Set, error) {
	return l.Extract(strings.NewReader(text), source)
}
