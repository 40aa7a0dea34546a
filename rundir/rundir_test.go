// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rundir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/runfmt"
	"golang.org/x/benchfront/runkey"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0666); err != nil {
		t.Fatal(err)
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "clients_2_threads_1_pipeline_1", "redis.out"), "Totals 200 0 0 5\n")
	writeFile(t, filepath.Join(root, "clients_1_threads_1_pipeline_1", "redis.out"), "Totals 100 0 0 5\n")
	writeFile(t, filepath.Join(root, "foo_bar", "redis.out"), "Totals 1 0 0 1\n")
	writeFile(t, filepath.Join(root, "README"), "not a run\n")
	if err := os.MkdirAll(filepath.Join(root, "clients_3_threads_1_pipeline_1"), 0777); err != nil {
		t.Fatal(err)
	}

	d, err := Open(root, "redis.out")
	if err != nil {
		t.Fatal(err)
	}
	if d.Len() != 4 {
		t.Errorf("Len = %d, want 4", d.Len())
	}
	var ids []string
	var failed []string
	for d.Scan() {
		e := d.Entry()
		ids = append(ids, e.ID)
		if e.Err != nil {
			failed = append(failed, e.ID)
			if !errors.Is(e.Err, os.ErrNotExist) {
				t.Errorf("%s: got %v, want not-exist error", e.ID, e.Err)
			}
		}
	}
	want := []string{"clients_1_threads_1_pipeline_1", "clients_2_threads_1_pipeline_1", "clients_3_threads_1_pipeline_1", "foo_bar"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"clients_3_threads_1_pipeline_1"}, failed); diff != "" {
		t.Errorf("failed (-want +got):\n%s", diff)
	}
	if d.Scan() {
		t.Errorf("Scan after end returned true")
	}
}

func TestDirAggregate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "clients_1_threads_1_pipeline_1", "redis.out"), "Totals 100 0 0 5\n")
	writeFile(t, filepath.Join(root, "clients_1_threads_1_pipeline_2", "redis.out"), "garbage\n")
	writeFile(t, filepath.Join(root, "foo_bar", "redis.out"), "Totals 1 0 0 1\n")

	d, err := Open(root, "redis.out")
	if err != nil {
		t.Fatal(err)
	}
	log, _ := logtest.NewNullLogger()
	ds, rep, err := dataset.Aggregate(d, dataset.Options{
		Schema: runkey.MustParseSchema("clients_<int>_threads_<int>_pipeline_<int>"),
		Layout: &runfmt.TotalsLayout,
		Log:    log,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 1 || rep.Entries != 3 || rep.Skipped() != 2 {
		t.Errorf("Len=%d Entries=%d Skipped=%d; want 1, 3, 2", ds.Len(), rep.Entries, rep.Skipped())
	}
}

func TestDirSymlinks(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	writeFile(t, filepath.Join(elsewhere, "run", "redis.out"), "Totals 100 0 0 5\n")
	writeFile(t, filepath.Join(elsewhere, "notes.txt"), "not a run\n")
	links := map[string]string{
		"clients_1_threads_1_pipeline_1": filepath.Join(elsewhere, "run"),
		"clients_2_threads_1_pipeline_1": filepath.Join(elsewhere, "missing"),
		"notes":                          filepath.Join(elsewhere, "notes.txt"),
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(root, name)); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
	}

	d, err := Open(root, "redis.out")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	var texts []string
	var failed []string
	for d.Scan() {
		e := d.Entry()
		ids = append(ids, e.ID)
		if e.Err != nil {
			failed = append(failed, e.ID)
		} else {
			texts = append(texts, e.Text)
		}
	}
	// The dangling link is kept so that its run is reported.
	want := []string{"clients_1_threads_1_pipeline_1", "clients_2_threads_1_pipeline_1"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Totals 100 0 0 5\n"}, texts); diff != "" {
		t.Errorf("texts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"clients_2_threads_1_pipeline_1"}, failed); diff != "" {
		t.Errorf("failed (-want +got):\n%s", diff)
	}
}

func TestOpenErrors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	writeFile(t, file, "x")
	for _, path := range []string{filepath.Join(root, "missing"), file} {
		_, err := Open(path, "redis.out")
		if !errors.Is(err, ErrRoot) {
			t.Errorf("Open(%q) = %v, want ErrRoot", path, err)
		}
	}
}
