// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runfmt"
	"golang.org/x/benchfront/runkey"
)

// totals returns a "Totals" summary line with the given throughput and
// mean latency.
func totals(thr, lat float64) string {
	return fmt.Sprintf("ALL STATS\nTotals %v 0.00 0.00 %v\n", thr, lat)
}

func newOptions(t *testing.T) (Options, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	return Options{
		Schema: runkey.MustParseSchema("clients_<int>_threads_<int>_pipeline_<int>"),
		Layout: &runfmt.TotalsLayout,
		Log:    log,
	}, hook
}

func aggregate(t *testing.T, opts Options, src Source) (*Dataset, *Report) {
	t.Helper()
	ds, rep, err := Aggregate(src, opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	return ds, rep
}

func TestAggregate(t *testing.T) {
	opts, hook := newOptions(t)
	ds, rep := aggregate(t, opts, Pairs(
		"clients_1_threads_1_pipeline_1", totals(100, 5),
		"clients_2_threads_1_pipeline_1", totals(200, 5),
		"foo_bar", totals(1, 1),
		"clients_1_threads_2_pipeline_1", "no summary here\n",
	))

	if ds.Len() != 2 {
		t.Errorf("Len = %d, want 2", ds.Len())
	}
	want := []Record{
		{opts.Schema.MustMake(1, 1, 1), metric.Set{metric.Throughput: 100, metric.AvgLatency: 5}},
		{opts.Schema.MustMake(2, 1, 1), metric.Set{metric.Throughput: 200, metric.AvgLatency: 5}},
	}
	if diff := cmp.Diff(want, ds.Records(), cmp.Comparer(func(a, b runkey.Key) bool { return a == b })); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]metric.Metric{metric.Throughput, metric.AvgLatency}, ds.Metrics()); diff != "" {
		t.Errorf("metrics (-want +got):\n%s", diff)
	}

	wantRep := &Report{
		Entries:   4,
		Added:     2,
		BadKeys:   []string{"foo_bar"},
		NoMetrics: []string{"clients_1_threads_2_pipeline_1"},
	}
	if diff := cmp.Diff(wantRep, rep); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}
	if rep.Complete() {
		t.Errorf("Complete = true with skipped entries")
	}

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e.Data["id"].(string))
		}
	}
	if diff := cmp.Diff([]string{"foo_bar", "clients_1_threads_2_pipeline_1"}, warned); diff != "" {
		t.Errorf("warnings (-want +got):\n%s", diff)
	}
}

func TestAggregateCollision(t *testing.T) {
	opts, hook := newOptions(t)
	ds, rep := aggregate(t, opts, Pairs(
		"clients_1_threads_1_pipeline_1", totals(100, 5),
		"clients_1_threads_1_pipeline_2", totals(300, 9),
		"clients_1_threads_1_pipeline_1", totals(150, 4),
	))
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	got, _ := ds.Get(opts.Schema.MustMake(1, 1, 1))
	if diff := cmp.Diff(metric.Set{metric.Throughput: 150, metric.AvgLatency: 4}, got); diff != "" {
		t.Errorf("collided record is not the later entry (-want +got):\n%s", diff)
	}
	want := []Collision{{"clients_1_threads_1_pipeline_1", "clients_1_threads_1_pipeline_1", "clients_1_threads_1_pipeline_1"}}
	if diff := cmp.Diff(want, rep.Collisions); diff != "" {
		t.Errorf("collisions (-want +got):\n%s", diff)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("collision was not logged as a warning: %v", e)
	}
}

func TestAggregateCollisionDistinctIDs(t *testing.T) {
	// Leading zeros parse to the same key.
	opts, _ := newOptions(t)
	_, rep := aggregate(t, opts, Pairs(
		"clients_01_threads_1_pipeline_1", totals(1, 1),
		"clients_1_threads_1_pipeline_1", totals(2, 2),
	))
	want := []Collision{{"clients_1_threads_1_pipeline_1", "clients_01_threads_1_pipeline_1", "clients_1_threads_1_pipeline_1"}}
	if diff := cmp.Diff(want, rep.Collisions); diff != "" {
		t.Errorf("collisions (-want +got):\n%s", diff)
	}
}

func TestAggregateCollisionNonFinite(t *testing.T) {
	opts, _ := newOptions(t)
	for _, test := range []struct {
		name string
		src  *SliceSource
		want []string
	}{
		{"overwritten", Pairs(
			"clients_01_threads_1_pipeline_1", "Totals NaN 0 0 3\n",
			"clients_1_threads_1_pipeline_1", totals(2, 2),
		), nil},
		{"overwriting", Pairs(
			"clients_01_threads_1_pipeline_1", totals(2, 2),
			"clients_1_threads_1_pipeline_1", "Totals NaN 0 0 3\n",
		), []string{"clients_1_threads_1_pipeline_1"}},
		{"same identifier", Pairs(
			"clients_1_threads_1_pipeline_1", "Totals NaN 0 0 3\n",
			"clients_1_threads_1_pipeline_1", "Totals 1 0 0 Inf\n",
		), []string{"clients_1_threads_1_pipeline_1"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, rep := aggregate(t, opts, test.src)
			if diff := cmp.Diff(test.want, rep.NonFinite, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("non-finite (-want +got):\n%s", diff)
			}
			if len(rep.Collisions) != 1 {
				t.Errorf("got %d collisions, want 1", len(rep.Collisions))
			}
		})
	}
}

func TestAggregateIdempotent(t *testing.T) {
	opts, _ := newOptions(t)
	pairs := []string{
		"clients_1_threads_1_pipeline_1", totals(100, 5),
		"clients_2_threads_1_pipeline_1", totals(200, 5),
		"clients_4_threads_2_pipeline_8", totals(50, 2),
	}
	ds1, _ := aggregate(t, opts, Pairs(pairs...))
	ds2, _ := aggregate(t, opts, Pairs(pairs...))
	if !ds1.Equal(ds2) {
		t.Errorf("aggregating the same entries twice gave different datasets")
	}
}

func TestAggregateUnreadable(t *testing.T) {
	opts, _ := newOptions(t)
	ds, rep := aggregate(t, opts, NewSliceSource(
		Entry{ID: "clients_1_threads_1_pipeline_1", Path: "/runs/clients_1_threads_1_pipeline_1/redis.out", Err: errors.New("permission denied")},
		Entry{ID: "clients_2_threads_1_pipeline_1", Text: totals(1, 1)},
	))
	if ds.Len() != 1 {
		t.Errorf("Len = %d, want 1", ds.Len())
	}
	if diff := cmp.Diff([]string{"clients_1_threads_1_pipeline_1"}, rep.Unreadable); diff != "" {
		t.Errorf("unreadable (-want +got):\n%s", diff)
	}
}

type failingSource struct{ SliceSource }

func (failingSource) Err() error { return errors.New("root vanished") }

func TestAggregateSourceError(t *testing.T) {
	opts, _ := newOptions(t)
	ds, _, err := Aggregate(&failingSource{*Pairs()}, opts)
	if err == nil || ds != nil {
		t.Errorf("Aggregate = %v, %v; want nil dataset and error", ds, err)
	}
}

func TestFlatten(t *testing.T) {
	opts, _ := newOptions(t)
	ds, rep := aggregate(t, opts, Pairs(
		"clients_2_threads_1_pipeline_1", totals(200, 5),
		"clients_1_threads_1_pipeline_1", totals(100, 5),
		"clients_1_threads_1_pipeline_4", "Totals NaN 0 0 3\n",
		"clients_1_threads_2_pipeline_1", "Totals 10 0 0 Inf\n",
	))
	if diff := cmp.Diff([]string{"clients_1_threads_1_pipeline_4", "clients_1_threads_2_pipeline_1"}, rep.NonFinite); diff != "" {
		t.Errorf("non-finite (-want +got):\n%s", diff)
	}

	rows, dropped := Flatten(ds, []metric.Metric{metric.Throughput, metric.AvgLatency})
	var got []string
	for _, r := range rows {
		got = append(got, r.Key.String())
		if r.OnFrontier {
			t.Errorf("%v: Flatten set OnFrontier", r.Key)
		}
	}
	if diff := cmp.Diff([]string{"clients_1_threads_1_pipeline_1", "clients_2_threads_1_pipeline_1"}, got); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	rep.NoteDropped(dropped)
	if diff := cmp.Diff([]string{"clients_1_threads_1_pipeline_4", "clients_1_threads_2_pipeline_1"}, rep.Dropped); diff != "" {
		t.Errorf("dropped (-want +got):\n%s", diff)
	}

	// Only throughput required: the +Inf latency row survives.
	rows, dropped = Flatten(ds, []metric.Metric{metric.Throughput})
	if len(rows) != 3 || len(dropped) != 1 {
		t.Errorf("Flatten(throughput) = %d rows, %d dropped; want 3, 1", len(rows), len(dropped))
	}

	// Rows do not alias the dataset.
	rows[0].Metrics[metric.Throughput] = -1
	if s, _ := ds.Get(rows[0].Key); s[metric.Throughput] == -1 {
		t.Errorf("row metrics alias the dataset")
	}
	if s, _ := ds.Get(opts.Schema.MustMake(1, 2, 1)); !math.IsInf(s[metric.AvgLatency], 1) {
		t.Errorf("non-finite metric not preserved in dataset: %v", s)
	}
}

func TestBuilderRejects(t *testing.T) {
	s := runkey.MustParseSchema("loaded_pairs_<int>")
	b := NewBuilder(s, []metric.Metric{metric.Throughput})
	other := runkey.MustParseSchema("loaded_pairs_<int>").MustMake(1)
	if _, _, err := b.Put("x", other, metric.Set{metric.Throughput: 1}); err == nil {
		t.Errorf("Put accepted a key from another schema")
	}
	if _, _, err := b.Put("x", s.MustMake(1), metric.Set{metric.P99Latency: 1}); err == nil {
		t.Errorf("Put accepted a metric outside the dataset")
	}
}

func TestReportWriteTo(t *testing.T) {
	rep := &Report{
		Entries:    3,
		Added:      1,
		BadKeys:    []string{"foo_bar"},
		Collisions: []Collision{{"k", "a", "b"}},
	}
	var buf strings.Builder
	if _, err := rep.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := `entries: 3, configurations: 1, skipped: 1, overwritten: 1, dropped: 0
  unparseable identifier (1): foo_bar
  overwritten: k from a replaced by b
WARNING: result is incomplete
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteTo (-want +got):\n%s", diff)
	}
}
