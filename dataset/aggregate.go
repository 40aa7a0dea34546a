// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/benchfront/runfmt"
	"golang.org/x/benchfront/runkey"
)

// Options configures Aggregate.
type Options struct {
	// Schema parses run identifiers.
	Schema *runkey.Schema
	// Layout extracts metrics from run output.
	Layout *runfmt.Layout
	// Log receives per-entry warnings. If nil, the logrus
	// standard logger is used.
	Log logrus.FieldLogger
}

func (o *Options) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// A Collision records a run whose metrics were overwritten by a later
// run with the same configuration key.
type Collision struct {
	Key     string
	Earlier string // identifier whose metrics were lost
	Later   string // identifier whose metrics were kept
}

// A Report accounts for every entry Aggregate saw and every record
// Flatten dropped, so an incomplete result never looks complete.
type Report struct {
	Entries int // entries read from the Source
	Added   int // distinct configurations in the Dataset

	BadKeys    []string // identifiers that did not match the schema
	Unreadable []string // identifiers whose output could not be read
	NoMetrics  []string // identifiers with no usable summary line
	NonFinite  []string // identifiers kept despite a NaN or Inf metric
	Collisions []Collision

	// Dropped lists configurations that Flatten excluded because
	// a required metric was missing or not finite.
	Dropped []string
}

// Skipped returns the number of entries that contributed nothing to
// the Dataset.
func (r *Report) Skipped() int {
	return len(r.BadKeys) + len(r.Unreadable) + len(r.NoMetrics)
}

// Complete reports whether every entry made it into the Dataset and
// every record into the flattened rows.
func (r *Report) Complete() bool {
	return r.Skipped() == 0 && len(r.Collisions) == 0 && len(r.Dropped) == 0
}

// NoteDropped records keys dropped by Flatten.
func (r *Report) NoteDropped(keys []runkey.Key) {
	for _, k := range keys {
		r.Dropped = append(r.Dropped, k.String())
	}
}

// WriteTo writes a human-readable summary of r to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "entries: %d, configurations: %d, skipped: %d, overwritten: %d, dropped: %d\n",
		r.Entries, r.Added, r.Skipped(), len(r.Collisions), len(r.Dropped))
	list := func(what string, ids []string) {
		if len(ids) > 0 {
			fmt.Fprintf(&buf, "  %s (%d): %s\n", what, len(ids), strings.Join(ids, ", "))
		}
	}
	list("unparseable identifier", r.BadKeys)
	list("unreadable output", r.Unreadable)
	list("no metrics", r.NoMetrics)
	list("non-finite metric", r.NonFinite)
	for _, c := range r.Collisions {
		fmt.Fprintf(&buf, "  overwritten: %s from %s replaced by %s\n", c.Key, c.Earlier, c.Later)
	}
	list("dropped before frontier", r.Dropped)
	if !r.Complete() {
		buf.WriteString("WARNING: result is incomplete\n")
	}
	n, err := io.WriteString(w, buf.String())
	return int64(n), err
}

// Aggregate reads every entry of src and builds a Dataset.
//
// Entries whose identifier does not parse, whose output is unreadable,
// or whose output has no usable summary line are skipped with a
// warning. If two entries map to the same key, the later one wins;
// this loses the earlier run's data, so it is logged and reported.
//
// Aggregate returns an error only if src fails as a whole.
func Aggregate(src Source, opts Options) (*Dataset, *Report, error) {
	log := opts.logger()
	b := NewBuilder(opts.Schema, opts.Layout.Metrics())
	rep := new(Report)

	for src.Scan() {
		e := src.Entry()
		rep.Entries++
		elog := log.WithField("id", e.ID)
		if e.Path != "" {
			elog = elog.WithField("path", e.Path)
		}

		key, err := opts.Schema.Parse(e.ID)
		if err != nil {
			elog.WithError(err).Warn("skipping run: unparseable identifier")
			rep.BadKeys = append(rep.BadKeys, e.ID)
			continue
		}
		if e.Err != nil {
			elog.WithError(e.Err).Warn("skipping run: cannot read output")
			rep.Unreadable = append(rep.Unreadable, e.ID)
			continue
		}
		source := e.Path
		if source == "" {
			source = e.ID
		}
		set, err := opts.Layout.ExtractString(e.Text, source)
		if err != nil {
			elog.WithError(err).Warn("skipping run: metrics unavailable")
			rep.NoMetrics = append(rep.NoMetrics, e.ID)
			continue
		}
		nonFinite := !set.AllFinite()
		if nonFinite {
			elog.WithField("metrics", set).Warn("run has a non-finite metric")
		}

		earlier, replaced, err := b.Put(e.ID, key, set)
		if err != nil {
			// Layout and schema come from opts, so this
			// is a programming error.
			return nil, rep, err
		}
		if replaced {
			elog.WithFields(logrus.Fields{"key": key.String(), "earlier": earlier}).
				Warn("configuration seen twice: later run overwrites earlier run's metrics")
			rep.Collisions = append(rep.Collisions, Collision{key.String(), earlier, e.ID})
			// The earlier record is gone, and so is its
			// non-finite metric.
			rep.NonFinite = removeLast(rep.NonFinite, earlier)
		}
		if nonFinite {
			rep.NonFinite = append(rep.NonFinite, e.ID)
		}
		elog.WithField("key", key.String()).Debug("added run")
	}
	if err := src.Err(); err != nil {
		return nil, rep, err
	}
	ds := b.Dataset()
	rep.Added = ds.Len()
	return ds, rep, nil
}

// removeLast removes the last occurrence of id from ids.
func removeLast(ids []string, id string) []string {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
