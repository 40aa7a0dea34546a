// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storetest opens databases for tests of the store package.
package storetest

import (
	"testing"

	"golang.org/x/benchfront/store"
	_ "golang.org/x/benchfront/store/sqlite3"
)

// NewDB opens an empty in-memory SQLite database that is closed when
// the test finishes.
func NewDB(t *testing.T) *store.DB {
	t.Helper()
	d, err := store.OpenSQL("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	n, err := d.CountExperiments()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("found %d row(s) in Experiments, want 0", n)
	}
	return d
}
