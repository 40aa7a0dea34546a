// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runkey"
	"golang.org/x/benchfront/store"
	"golang.org/x/benchfront/store/storetest"
)

var schema = runkey.MustParseSchema("clients_<int>_threads_<int>_pipeline_<int>")

// flat is a comparable form of a Row.
type flat struct {
	Key        string
	Metrics    map[string]float64
	OnFrontier bool
}

func flatten(rows []dataset.Row) []flat {
	var out []flat
	for _, r := range rows {
		f := flat{Key: r.Key.String(), Metrics: make(map[string]float64), OnFrontier: r.OnFrontier}
		for m, v := range r.Metrics {
			f.Metrics[m.String()] = v
		}
		out = append(out, f)
	}
	return out
}

func TestSaveRows(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)

	rows := []dataset.Row{
		{Key: schema.MustMake(1, 1, 1), Metrics: metric.Set{metric.Throughput: 100, metric.AvgLatency: 5}},
		{Key: schema.MustMake(1, 2, 1), Metrics: metric.Set{metric.Throughput: 200, metric.AvgLatency: 5, metric.P99Latency: 9.5}, OnFrontier: true},
		{Key: schema.MustMake(4, 1, 8), Metrics: metric.Set{metric.Throughput: 50, metric.AvgLatency: 2, metric.P999Latency: math.Inf(1)}, OnFrontier: true},
		{Key: schema.MustMake(4, 2, 8), Metrics: metric.Set{}},
	}
	exp := store.Experiment{
		Name:       "redis_contention",
		DataSource: "runs/",
		Schema:     schema.String(),
		Objectives: "maximize throughput, minimize avg_latency",
	}
	id, err := db.SaveRows(ctx, exp, rows)
	if err != nil {
		t.Fatal(err)
	}

	gotExp, err := db.Experiment(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	exp.ID = id
	if diff := cmp.Diff(exp, gotExp); diff != "" {
		t.Errorf("Experiment (-want +got):\n%s", diff)
	}

	// Non-finite values are not stored.
	want := flatten(rows)
	delete(want[2].Metrics, metric.P999Latency.String())

	got, err := db.Rows(ctx, id, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, flatten(got)); diff != "" {
		t.Errorf("Rows (-want +got):\n%s", diff)
	}

	front, err := db.Frontier(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want[1:3], flatten(front)); diff != "" {
		t.Errorf("Frontier (-want +got):\n%s", diff)
	}

	if n, err := db.CountExperiments(); err != nil || n != 1 {
		t.Errorf("CountExperiments = %d, %v, want 1", n, err)
	}
}

func TestExperimentIDs(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	exp := store.Experiment{Name: "pairs", Schema: "loaded_pairs_<int>"}
	a, err := db.SaveRows(ctx, exp, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := db.SaveRows(ctx, exp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("two experiments share ID %d", a)
	}
	if rows, err := db.Rows(ctx, b, false); err != nil || len(rows) != 0 {
		t.Errorf("Rows(empty) = %v, %v", rows, err)
	}
	if _, err := db.Experiment(ctx, b+100); err == nil {
		t.Errorf("Experiment(missing) succeeded")
	}
}
