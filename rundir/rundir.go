// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rundir reads benchmark runs laid out as one directory per
// run under a common root:
//
//	root/
//		clients_1_threads_1_pipeline_1/redis.out
//		clients_1_threads_1_pipeline_2/redis.out
//		...
//
// The directory name is the run identifier and the named file in each
// directory holds the run's raw output.
package rundir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/benchfront/dataset"
)

// ErrRoot is wrapped by errors for a root directory that is missing or
// cannot be listed. Such an error is fatal to the run.
var ErrRoot = errors.New("input root inaccessible")

// A Dir is a dataset.Source over the run directories of a root.
type Dir struct {
	root    string
	runFile string

	names []string
	pos   int
	entry dataset.Entry
}

// Open lists the run directories of root. Each yields an Entry whose
// Text is the contents of runFile in that directory. Regular files
// directly under root are ignored. Symbolic links are followed; a
// dangling link is kept as a run so its failure is reported.
func Open(root, runFile string) (*Dir, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoot, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRoot, root)
	}
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoot, err)
	}
	d := &Dir{root: root, runFile: runFile, pos: -1}
	for _, ent := range ents {
		switch {
		case ent.IsDir():
			d.names = append(d.names, ent.Name())
		case ent.Type()&fs.ModeSymlink != 0:
			fi, err := os.Stat(filepath.Join(root, ent.Name()))
			if err != nil || fi.IsDir() {
				d.names = append(d.names, ent.Name())
			}
		}
	}
	sort.Strings(d.names)
	return d, nil
}

// Len returns the number of run directories.
func (d *Dir) Len() int {
	return len(d.names)
}

// Scan reads the next run directory. A run file that is missing or
// unreadable does not stop Scan; it is reported in Entry().Err.
func (d *Dir) Scan() bool {
	if d.pos+1 >= len(d.names) {
		d.pos = len(d.names)
		return false
	}
	d.pos++
	name := d.names[d.pos]
	path := filepath.Join(d.root, name, d.runFile)
	d.entry = dataset.Entry{ID: name, Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		d.entry.Err = err
	} else {
		d.entry.Text = string(data)
	}
	return true
}

// Entry returns the run read by the last call to Scan.
func (d *Dir) Entry() dataset.Entry {
	return d.entry
}

// Err always returns nil: once the root has been listed, per-run
// failures are reported through Entry.
func (d *Dir) Err() error {
	return nil
}
