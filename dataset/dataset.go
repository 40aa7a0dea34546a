// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset builds a deduplicated mapping from configuration
// keys to run metrics and flattens it into rows.
//
// A Dataset is produced by Aggregate (or a Builder) and is immutable
// afterwards. Consumers read it through Keys, Get, and Flatten.
package dataset

import (
	"fmt"

	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runkey"
)

// A Dataset maps configuration keys to metric sets. All keys share one
// Schema and all metric sets draw from one list of metrics.
type Dataset struct {
	schema  *runkey.Schema
	metrics []metric.Metric
	recs    map[runkey.Key]metric.Set
}

// A Record is one configuration and its metrics.
type Record struct {
	Key     runkey.Key
	Metrics metric.Set
}

// Schema returns the key schema of d.
func (d *Dataset) Schema() *runkey.Schema {
	return d.schema
}

// Metrics returns the metrics d was built with, in table order.
func (d *Dataset) Metrics() []metric.Metric {
	return append([]metric.Metric(nil), d.metrics...)
}

// Len returns the number of configurations in d.
func (d *Dataset) Len() int {
	return len(d.recs)
}

// Get returns a copy of the metrics recorded for key.
func (d *Dataset) Get(key runkey.Key) (metric.Set, bool) {
	s, ok := d.recs[key]
	return s.Clone(), ok
}

// Keys returns the keys of d in ascending order.
func (d *Dataset) Keys() []runkey.Key {
	keys := make([]runkey.Key, 0, len(d.recs))
	for k := range d.recs {
		keys = append(keys, k)
	}
	runkey.SortKeys(keys)
	return keys
}

// Records returns copies of all records of d in ascending key order.
func (d *Dataset) Records() []Record {
	keys := d.Keys()
	out := make([]Record, len(keys))
	for i, k := range keys {
		out[i] = Record{k, d.recs[k].Clone()}
	}
	return out
}

// Equal reports whether d and o have the same schema, metrics, and
// records.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.schema != o.schema || len(d.recs) != len(o.recs) || len(d.metrics) != len(o.metrics) {
		return false
	}
	for i, m := range d.metrics {
		if o.metrics[i] != m {
			return false
		}
	}
	for k, s := range d.recs {
		if !s.Equal(o.recs[k]) {
			return false
		}
	}
	return true
}

// A Builder accumulates records into a Dataset.
type Builder struct {
	ds      *Dataset
	allowed map[metric.Metric]bool
	// ids records the identifier that produced each key, for
	// collision diagnostics.
	ids map[runkey.Key]string
}

// NewBuilder returns a Builder for a Dataset with the given schema and
// metrics.
func NewBuilder(schema *runkey.Schema, metrics []metric.Metric) *Builder {
	ms := append([]metric.Metric(nil), metrics...)
	metric.Sort(ms)
	allowed := make(map[metric.Metric]bool)
	for _, m := range ms {
		allowed[m] = true
	}
	return &Builder{
		ds:      &Dataset{schema: schema, metrics: ms, recs: make(map[runkey.Key]metric.Set)},
		allowed: allowed,
		ids:     make(map[runkey.Key]string),
	}
}

// Put records set for key, replacing any earlier record with the same
// key. id is the identifier the record came from. If a record was
// replaced, Put returns the identifier of the replaced record and
// true.
//
// Put rejects keys from another Schema and metrics outside the
// Builder's list.
func (b *Builder) Put(id string, key runkey.Key, set metric.Set) (replaced string, ok bool, err error) {
	if b.ds == nil {
		panic("Builder used after Dataset")
	}
	if key.Schema() != b.ds.schema {
		return "", false, fmt.Errorf("%s: key schema %v does not match dataset schema %v", id, key.Schema(), b.ds.schema)
	}
	for m := range set {
		if !b.allowed[m] {
			return "", false, fmt.Errorf("%s: metric %v is not part of this dataset", id, m)
		}
	}
	if _, dup := b.ds.recs[key]; dup {
		replaced, ok = b.ids[key], true
	}
	b.ds.recs[key] = set.Clone()
	b.ids[key] = id
	return replaced, ok, nil
}

// Len returns the number of records accumulated so far.
func (b *Builder) Len() int {
	return len(b.ds.recs)
}

// Dataset returns the accumulated Dataset. The Builder must not be
// used afterwards.
func (b *Builder) Dataset() *Dataset {
	ds := b.ds
	b.ds = nil
	return ds
}
