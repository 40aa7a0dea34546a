// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sink provides the destinations exports are written to: a
// local directory, an in-memory file system for tests, or a Google
// Cloud Storage bucket.
package sink

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// An FS is a place to write named output files.
type FS interface {
	// NewWriter returns a Writer for a file named name. The file
	// is not guaranteed to exist until Close returns nil.
	// contentType may be empty.
	NewWriter(ctx context.Context, name, contentType string) (io.WriteCloser, error)
}

// Dir is an FS rooted at a local directory. Missing parent directories
// are created as needed.
type Dir string

func (d Dir) NewWriter(ctx context.Context, name, contentType string) (io.WriteCloser, error) {
	path := filepath.Join(string(d), filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// MemFS is an in-memory FS. It is safe for concurrent use.
type MemFS struct {
	mu      sync.Mutex
	content map[string][]byte
	types   map[string]string
}

// NewMemFS constructs a new, empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		content: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (fs *MemFS) NewWriter(ctx context.Context, name, contentType string) (io.WriteCloser, error) {
	return &memWriter{fs: fs, name: name, contentType: contentType}, nil
}

// Files returns the names of the files written to fs, sorted.
func (fs *MemFS) Files() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var names []string
	for name := range fs.content {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contents returns the bytes written to name.
func (fs *MemFS) Contents(name string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	b, ok := fs.content[name]
	return b, ok
}

// ContentType returns the content type name was written with.
func (fs *MemFS) ContentType(name string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.types[name]
}

type memWriter struct {
	bytes.Buffer
	fs          *MemFS
	name        string
	contentType string
}

func (w *memWriter) Close() error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.content[w.name] = append([]byte(nil), w.Bytes()...)
	w.fs.types[w.name] = w.contentType
	return nil
}
