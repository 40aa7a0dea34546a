// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func write(t *testing.T, fs FS, name, data string) {
	t.Helper()
	w, err := fs.NewWriter(context.Background(), name, "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMemFS(t *testing.T) {
	fs := NewMemFS()
	write(t, fs, "b.csv", "b")
	write(t, fs, "plots/a.png", "a")
	if diff := cmp.Diff([]string{"b.csv", "plots/a.png"}, fs.Files()); diff != "" {
		t.Errorf("Files (-want +got):\n%s", diff)
	}
	if got, ok := fs.Contents("b.csv"); !ok || string(got) != "b" {
		t.Errorf("Contents(b.csv) = %q, %v", got, ok)
	}
	if fs.ContentType("b.csv") != "text/plain" {
		t.Errorf("ContentType = %q", fs.ContentType("b.csv"))
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	write(t, Dir(dir), "plots/a.png", "png")
	got, err := os.ReadFile(filepath.Join(dir, "plots", "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "png" {
		t.Errorf("got %q", got)
	}
}
