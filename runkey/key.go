// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runkey parses run identifiers such as
// "clients_4_threads_2_pipeline_16" into typed configuration keys.
//
// A Schema fixes the names and order of a key's integer dimensions.
// Keys are interned by their Schema, so two Keys are == exactly when
// they come from the same Schema and have identical dimension values.
// This makes Key usable directly as a map key.
package runkey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sep separates the segments of an identifier.
const Sep = "_"

// A Schema is an ordered list of named integer dimensions.
//
// Keys are created through a Schema. Creating Keys is not safe for
// concurrent use, but Keys themselves are immutable and may be shared
// freely.
type Schema struct {
	dims  []string
	index map[string]int

	// keys are the interned Keys of this Schema, by canonical
	// string.
	keys map[string]*keyNode
}

// NewSchema returns a Schema with the given dimension names, in order.
func NewSchema(dims ...string) (*Schema, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("schema has no dimensions")
	}
	s := &Schema{
		dims:  append([]string(nil), dims...),
		index: make(map[string]int),
		keys:  make(map[string]*keyNode),
	}
	for i, d := range dims {
		if d == "" {
			return nil, fmt.Errorf("dimension %d has an empty name", i)
		}
		if strings.ContainsAny(d, "<> \t") {
			return nil, fmt.Errorf("bad dimension name %q", d)
		}
		if _, ok := s.index[d]; ok {
			return nil, fmt.Errorf("duplicate dimension %q", d)
		}
		s.index[d] = i
	}
	return s, nil
}

// ParseSchema parses a schema template such as
// "clients_<int>_threads_<int>_pipeline_<int>" or "loaded_pairs_<int>".
func ParseSchema(tmpl string) (*Schema, error) {
	const slot = "<int>"
	parts := strings.Split(tmpl, slot)
	if len(parts) < 2 || parts[len(parts)-1] != "" {
		return nil, fmt.Errorf("schema %q: want name_%s segments", tmpl, slot)
	}
	var dims []string
	for i, p := range parts[:len(parts)-1] {
		if i > 0 {
			if !strings.HasPrefix(p, Sep) {
				return nil, fmt.Errorf("schema %q: segments must be separated by %q", tmpl, Sep)
			}
			p = p[len(Sep):]
		}
		if !strings.HasSuffix(p, Sep) {
			return nil, fmt.Errorf("schema %q: dimension name must be followed by %q", tmpl, Sep)
		}
		dims = append(dims, strings.TrimSuffix(p, Sep))
	}
	s, err := NewSchema(dims...)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", tmpl, err)
	}
	return s, nil
}

// MustParseSchema is like ParseSchema but panics on error.
func MustParseSchema(tmpl string) *Schema {
	s, err := ParseSchema(tmpl)
	if err != nil {
		panic(err)
	}
	return s
}

// Dims returns the dimension names of s, in order.
func (s *Schema) Dims() []string {
	return append([]string(nil), s.dims...)
}

// Len returns the number of dimensions in s.
func (s *Schema) Len() int {
	return len(s.dims)
}

// Index returns the position of dimension dim, or -1.
func (s *Schema) Index(dim string) int {
	if i, ok := s.index[dim]; ok {
		return i
	}
	return -1
}

// String returns s as a template that ParseSchema accepts.
func (s *Schema) String() string {
	var buf strings.Builder
	for i, d := range s.dims {
		if i > 0 {
			buf.WriteString(Sep)
		}
		buf.WriteString(d)
		buf.WriteString(Sep + "<int>")
	}
	return buf.String()
}

// An UnparseableKeyError reports an identifier that does not match a
// Schema.
type UnparseableKeyError struct {
	ID  string
	Msg string
}

func (e *UnparseableKeyError) Error() string {
	return fmt.Sprintf("identifier %q: %s", e.ID, e.Msg)
}

// Parse parses id against s. Every dimension must appear, in schema
// order, as "name_value" with a non-negative decimal value, and
// nothing may follow the last value.
func (s *Schema) Parse(id string) (Key, error) {
	vals := make([]int, len(s.dims))
	rest := id
	for i, dim := range s.dims {
		if i > 0 {
			if !strings.HasPrefix(rest, Sep) {
				return Key{}, &UnparseableKeyError{id, fmt.Sprintf("missing dimension %q", dim)}
			}
			rest = rest[len(Sep):]
		}
		if !strings.HasPrefix(rest, dim+Sep) {
			return Key{}, &UnparseableKeyError{id, fmt.Sprintf("want dimension %q at offset %d", dim, len(id)-len(rest))}
		}
		rest = rest[len(dim)+len(Sep):]

		n := 0
		for n < len(rest) && '0' <= rest[n] && rest[n] <= '9' {
			n++
		}
		if n == 0 {
			return Key{}, &UnparseableKeyError{id, fmt.Sprintf("dimension %q has no integer value", dim)}
		}
		v, err := strconv.Atoi(rest[:n])
		if err != nil {
			return Key{}, &UnparseableKeyError{id, fmt.Sprintf("dimension %q: %v", dim, err)}
		}
		vals[i] = v
		rest = rest[n:]
	}
	if rest != "" {
		return Key{}, &UnparseableKeyError{id, fmt.Sprintf("unexpected trailing %q", rest)}
	}
	return s.intern(vals), nil
}

// Make returns the Key with the given dimension values, in schema
// order.
func (s *Schema) Make(vals ...int) (Key, error) {
	if len(vals) != len(s.dims) {
		return Key{}, fmt.Errorf("got %d values for %d dimensions", len(vals), len(s.dims))
	}
	for i, v := range vals {
		if v < 0 {
			return Key{}, fmt.Errorf("dimension %q: negative value %d", s.dims[i], v)
		}
	}
	return s.intern(vals), nil
}

// MustMake is like Make but panics on error.
func (s *Schema) MustMake(vals ...int) Key {
	k, err := s.Make(vals...)
	if err != nil {
		panic(err)
	}
	return k
}

func (s *Schema) intern(vals []int) Key {
	str := format(s.dims, vals)
	if n, ok := s.keys[str]; ok {
		return Key{n}
	}
	n := &keyNode{s, append([]int(nil), vals...), str}
	s.keys[str] = n
	return Key{n}
}

func format(dims []string, vals []int) string {
	var buf strings.Builder
	for i, d := range dims {
		if i > 0 {
			buf.WriteString(Sep)
		}
		buf.WriteString(d)
		buf.WriteString(Sep)
		buf.WriteString(strconv.Itoa(vals[i]))
	}
	return buf.String()
}

// A Key is an immutable tuple of dimension values whose structure is
// given by a Schema.
type Key struct {
	k *keyNode
}

// keyNode is the heap-allocated object backing a Key. Key equality is
// pointer equality of the keyNode.
type keyNode struct {
	schema *Schema
	vals   []int
	str    string
}

// IsZero reports whether k is a zeroed Key with no schema.
func (k Key) IsZero() bool {
	return k.k == nil
}

// Schema returns the Schema of k.
func (k Key) Schema() *Schema {
	if k.IsZero() {
		return nil
	}
	return k.k.schema
}

// Get returns the value of dimension dim.
func (k Key) Get(dim string) (int, bool) {
	if k.IsZero() {
		return 0, false
	}
	i, ok := k.k.schema.index[dim]
	if !ok {
		return 0, false
	}
	return k.k.vals[i], true
}

// Value returns the value of the i'th dimension.
func (k Key) Value(i int) int {
	if k.IsZero() {
		panic("zero Key has no values")
	}
	return k.k.vals[i]
}

// Values returns the dimension values of k in schema order.
func (k Key) Values() []int {
	if k.IsZero() {
		return nil
	}
	return append([]int(nil), k.k.vals...)
}

// String returns k as an identifier that Schema.Parse accepts.
func (k Key) String() string {
	if k.IsZero() {
		return "<zero>"
	}
	return k.k.str
}

// Compare orders Keys lexicographically by dimension value in schema
// order. It panics if k and o have different Schemas.
func (k Key) Compare(o Key) int {
	if k.k.schema != o.k.schema {
		panic("cannot compare Keys from different Schemas")
	}
	for i, v := range k.k.vals {
		w := o.k.vals[i]
		switch {
		case v < w:
			return -1
		case v > w:
			return 1
		}
	}
	return 0
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool {
	return k.Compare(o) < 0
}

// SortKeys sorts keys in ascending order. All Keys must have the same
// Schema.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
}
