// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 provides the sqlite3 driver for
// golang.org/x/benchfront/store. It must be imported instead of
// go-sqlite3 to ensure foreign keys are properly honored.
package sqlite3

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/benchfront/store"
)

func init() {
	store.RegisterOpenHook("sqlite3", func(db *sql.DB) error {
		// A ":memory:" database is private to its connection, and
		// PRAGMA foreign_keys is per connection, so use exactly one.
		db.SetMaxOpenConns(1)
		_, err := db.Exec("PRAGMA foreign_keys = ON")
		return err
	})
}
