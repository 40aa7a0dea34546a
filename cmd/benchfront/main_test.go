// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/benchfront/export"
	"golang.org/x/benchfront/rundir"
)

// writeRuns creates one run directory per entry of runs under a new
// temporary root. A run with empty text gets no run file.
func writeRuns(t *testing.T, runs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, text := range runs {
		dir := filepath.Join(root, name)
		if err := os.Mkdir(dir, 0777); err != nil {
			t.Fatal(err)
		}
		if text == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, "redis.out"), []byte(text), 0666); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func memtier(thr, avg, p50, p99, p999 float64) string {
	return fmt.Sprintf(`ALL STATS
============================================================================================================================
Type         Ops/sec     Hits/sec   Misses/sec    Avg. Latency     p50 Latency     p99 Latency   p99.9 Latency       KB/sec
----------------------------------------------------------------------------------------------------------------------------
Sets        38119.42          ---          ---        53.59000        51.19900       110.07900       158.71900      2931.43
Totals      %.2f         0.00    381198.55        %.5f        %.5f       %.5f       %.5f     32587.73
`, thr, avg, p50, p99, p999)
}

// execute runs the command line args and returns its standard output
// and standard error.
func execute(t *testing.T, args ...string) (stdout, stderr string, hook *logtest.Hook, err error) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	cmd := newRootCmd(log)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), hook, err
}

func TestRun(t *testing.T) {
	root := writeRuns(t, map[string]string{
		"clients_1_threads_1_pipeline_1": memtier(100000, 5, 4, 9, 12),
		"clients_2_threads_1_pipeline_1": memtier(200000, 5, 4, 9, 12),
		"clients_2_threads_2_pipeline_1": memtier(200000, 10, 8, 20, 30),
		"clients_1_threads_1_pipeline_4": memtier(50000, 2, 1, 3, 4),
		"clients_4_threads_1_pipeline_1": "no summary\n",
		"clients_8_threads_1_pipeline_1": "",
		"scratch":                        memtier(1, 1, 1, 1, 1),
	})
	out := t.TempDir()
	db := filepath.Join(out, "results.db")
	cfg := filepath.Join(t.TempDir(), "exp.toml")
	if err := os.WriteFile(cfg, []byte(fmt.Sprintf("[output]\ntext = \"report.txt\"\nhtml = \"report.html\"\ndb_driver = \"sqlite3\"\ndb_dsn = %q\n", db)), 0666); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, hook, err := execute(t, "--config", cfg, "--out", out, "run", root)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout, "Pareto frontier (maximize throughput, minimize avg_latency): 2 of 4 configurations") {
		t.Errorf("stdout:\n%s", stdout)
	}
	for _, want := range []string{
		"entries: 7, configurations: 4, skipped: 3, overwritten: 0, dropped: 0",
		"unparseable identifier (1): scratch",
		"unreadable output (1): clients_8_threads_1_pipeline_1",
		"no metrics (1): clients_4_threads_1_pipeline_1",
		"WARNING: result is incomplete",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	warned := make(map[string]bool)
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			if id, ok := e.Data["id"].(string); ok {
				warned[id] = true
			}
		}
	}
	for _, id := range []string{"scratch", "clients_4_threads_1_pipeline_1", "clients_8_threads_1_pipeline_1"} {
		if !warned[id] {
			t.Errorf("no warning for %s", id)
		}
	}

	for _, name := range []string{
		"aggregated_results.json",
		"throughput_flat.csv",
		"report.txt",
		"report.html",
		"results.db",
		"plots/pareto_frontier.png",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}

	csv, err := os.ReadFile(filepath.Join(out, "throughput_flat.csv"))
	if err != nil {
		t.Fatal(err)
	}
	wantCSV := `clients,threads,pipeline,throughput,avg_latency,p50,p99,p999,on_frontier
1,1,1,100000,5,4,9,12,false
1,1,4,50000,2,1,3,4,true
2,1,1,200000,5,4,9,12,true
2,2,1,200000,10,8,20,30,false
`
	if diff := cmp.Diff(wantCSV, string(csv)); diff != "" {
		t.Errorf("CSV (-want +got):\n%s", diff)
	}

	// Analyzing the saved JSON gives the same frontier.
	f, err := os.Open(filepath.Join(out, "aggregated_results.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds, md, err := export.ReadNested(f)
	if err != nil {
		t.Fatal(err)
	}
	if md.TotalConfigurations != 4 || ds.Len() != 4 || md.DataSource != root {
		t.Errorf("metadata %+v, %d configurations", md, ds.Len())
	}
}

func TestAggregateThenAnalyze(t *testing.T) {
	root := writeRuns(t, map[string]string{
		"loaded_pairs_0":  memtier(300000, 1, 1, 2, 3),
		"loaded_pairs_4":  memtier(250000, 2, 2, 4, 6),
		"loaded_pairs_16": memtier(100000, 6, 5, 12, 18),
	})
	out := t.TempDir()
	if _, _, _, err := execute(t, "--out", out, "aggregate", "--schema", "loaded_pairs_<int>", "--experiment", "pairs", root); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "throughput_flat.csv")); err == nil {
		t.Errorf("aggregate wrote CSV")
	}

	stdout, stderr, _, err := execute(t, "--out", out, "--no-plots", "analyze", filepath.Join(out, "aggregated_results.json"))
	if err != nil {
		t.Fatal(err)
	}
	// Only the unloaded run is on the frontier.
	if !strings.Contains(stdout, "1 of 3 configurations") {
		t.Errorf("stdout:\n%s", stdout)
	}
	if !strings.Contains(stderr, "entries: 3, configurations: 3, skipped: 0") {
		t.Errorf("stderr:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(out, "plots")); err == nil {
		t.Errorf("plots written despite --no-plots")
	}
}

func TestMissingRoot(t *testing.T) {
	out := t.TempDir()
	_, _, _, err := execute(t, "--out", out, "run", filepath.Join(out, "nonexistent"))
	if !errors.Is(err, rundir.ErrRoot) {
		t.Fatalf("got %v, want ErrRoot", err)
	}
	// No partial output.
	ents, _ := os.ReadDir(out)
	if len(ents) != 0 {
		t.Errorf("wrote %d files", len(ents))
	}
}

func TestBadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "exp.toml")
	if err := os.WriteFile(cfg, []byte("schema = \"nope\"\n"), 0666); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := execute(t, "--config", cfg, "run", t.TempDir()); err == nil {
		t.Errorf("bad config accepted")
	}
}
