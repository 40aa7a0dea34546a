// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runkey"
)

// Metadata describes a nested export.
type Metadata struct {
	Experiment          string   `json:"experiment"`
	TotalConfigurations int      `json:"total_configurations"`
	DataSource          string   `json:"data_source"`
	Metrics             []string `json:"metrics"`
	// Schema is the key template. It is optional on input: without
	// it, dimension names are taken from the group keys.
	Schema string `json:"schema,omitempty"`
}

// NewMetadata returns the Metadata for ds.
func NewMetadata(ds *dataset.Dataset, experiment, dataSource string) Metadata {
	md := Metadata{
		Experiment:          experiment,
		TotalConfigurations: ds.Len(),
		DataSource:          dataSource,
		Metrics:             []string{},
		Schema:              ds.Schema().String(),
	}
	for _, m := range ds.Metrics() {
		md.Metrics = append(md.Metrics, m.String())
	}
	return md
}

// object is a JSON object that keeps its members in order.
type object []member

type member struct {
	name  string
	value interface{}
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalTo(&buf, m.name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := marshalTo(&buf, m.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalTo appends the JSON encoding of v to buf without escaping
// HTML characters, so schemas such as "clients_<int>" stay readable.
func marshalTo(buf *bytes.Buffer, v interface{}) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// groupName returns the name of a nesting level, such as "clients_4".
func groupName(dim string, val int) string {
	return dim + runkey.Sep + strconv.Itoa(val)
}

// leaf returns the metrics of one configuration. Non-finite values
// cannot be represented in JSON and are written as null.
func leaf(ms []metric.Metric, set metric.Set) object {
	var o object
	for _, m := range ms {
		v, ok := set[m]
		if !ok {
			continue
		}
		var jv interface{} = v
		if math.IsNaN(v) || math.IsInf(v, 0) {
			jv = nil
		}
		o = append(o, member{m.String(), jv})
	}
	return o
}

// nest groups records, already in key order, by dimension dim and
// below.
func nest(dims []string, ms []metric.Metric, recs []dataset.Record, dim int) object {
	var o object
	for len(recs) > 0 {
		v := recs[0].Key.Value(dim)
		n := 1
		for n < len(recs) && recs[n].Key.Value(dim) == v {
			n++
		}
		var child interface{}
		if dim == len(dims)-1 {
			child = leaf(ms, recs[0].Metrics)
		} else {
			child = nest(dims, ms, recs[:n], dim+1)
		}
		o = append(o, member{groupName(dims[dim], v), child})
		recs = recs[n:]
	}
	if o == nil {
		o = object{}
	}
	return o
}

// WriteNested writes ds to w as JSON grouped by each key dimension in
// turn:
//
//	{"metadata": {...},
//	 "configurations": {"clients_1": {"threads_1": {"pipeline_1": {"throughput_ops_sec": ...}}}}}
//
// Groups appear in ascending numeric order.
func WriteNested(w io.Writer, ds *dataset.Dataset, md Metadata) error {
	dims := ds.Schema().Dims()
	doc := object{
		{"metadata", md},
		{"configurations", nest(dims, ds.Metrics(), ds.Records(), 0)},
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type nestedDoc struct {
	Metadata       Metadata        `json:"metadata"`
	Configurations json.RawMessage `json:"configurations"`
}

type flatRecord struct {
	dims    []string
	vals    []int
	metrics map[string]*float64
}

// ReadNested reads a document written by WriteNested (or by an older
// tool using the same layout) and rebuilds the Dataset.
//
// Every configuration must have the same dimensions in the same
// order. A null metric value is read as NaN.
func ReadNested(r io.Reader) (*dataset.Dataset, Metadata, error) {
	var doc nestedDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Metadata{}, fmt.Errorf("decoding nested export: %w", err)
	}
	md := doc.Metadata
	var recs []flatRecord
	if len(doc.Configurations) > 0 {
		if err := decodeLevel(doc.Configurations, nil, nil, &recs); err != nil {
			return nil, md, err
		}
	}

	var schema *runkey.Schema
	var err error
	switch {
	case md.Schema != "":
		schema, err = runkey.ParseSchema(md.Schema)
	case len(recs) > 0:
		// Use a deterministic record to name the dimensions.
		sort.Slice(recs, func(i, j int) bool {
			return strings.Join(recs[i].dims, "\x00") < strings.Join(recs[j].dims, "\x00")
		})
		schema, err = runkey.NewSchema(recs[0].dims...)
	default:
		return nil, md, fmt.Errorf("nested export has no schema and no configurations")
	}
	if err != nil {
		return nil, md, err
	}

	// Metrics: metadata list first, then anything found in records.
	present := make(map[metric.Metric]bool)
	for _, name := range md.Metrics {
		m, err := metric.Parse(name)
		if err != nil {
			return nil, md, fmt.Errorf("metadata: %w", err)
		}
		present[m] = true
	}
	for _, rec := range recs {
		for name := range rec.metrics {
			m, err := metric.Parse(name)
			if err != nil {
				return nil, md, fmt.Errorf("configuration %s: %w", strings.Join(rec.dims, ","), err)
			}
			present[m] = true
		}
	}
	var ms []metric.Metric
	for m := range present {
		ms = append(ms, m)
	}

	b := dataset.NewBuilder(schema, ms)
	want := schema.Dims()
	for _, rec := range recs {
		if !equalStrings(rec.dims, want) {
			return nil, md, fmt.Errorf("configuration has dimensions %v, want %v", rec.dims, want)
		}
		key, err := schema.Make(rec.vals...)
		if err != nil {
			return nil, md, err
		}
		set := make(metric.Set, len(rec.metrics))
		for name, v := range rec.metrics {
			m, _ := metric.Parse(name)
			if v == nil {
				set[m] = math.NaN()
			} else {
				set[m] = *v
			}
		}
		if _, dup, err := b.Put(key.String(), key, set); err != nil {
			return nil, md, err
		} else if dup {
			return nil, md, fmt.Errorf("configuration %v appears more than once", key)
		}
	}
	return b.Dataset(), md, nil
}

// decodeLevel decodes one nesting level. A level whose values are all
// numbers or null is a leaf holding metrics.
func decodeLevel(raw json.RawMessage, dims []string, vals []int, out *[]flatRecord) error {
	var level map[string]json.RawMessage
	if err := json.Unmarshal(raw, &level); err != nil {
		return fmt.Errorf("configurations %v: %w", vals, err)
	}
	for name, child := range level {
		dim, val, err := splitGroupName(name)
		if err != nil {
			return err
		}
		d := append(dims[:len(dims):len(dims)], dim)
		v := append(vals[:len(vals):len(vals)], val)
		var metrics map[string]*float64
		if err := json.Unmarshal(child, &metrics); err == nil {
			*out = append(*out, flatRecord{d, v, metrics})
			continue
		}
		if err := decodeLevel(child, d, v, out); err != nil {
			return err
		}
	}
	return nil
}

// splitGroupName splits "loaded_pairs_16" into "loaded_pairs" and 16.
func splitGroupName(name string) (string, int, error) {
	i := strings.LastIndex(name, runkey.Sep)
	if i <= 0 {
		return "", 0, fmt.Errorf("group %q is not of the form name_value", name)
	}
	v, err := strconv.Atoi(name[i+len(runkey.Sep):])
	if err != nil || v < 0 {
		return "", 0, fmt.Errorf("group %q is not of the form name_value", name)
	}
	return name[:i], v, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
