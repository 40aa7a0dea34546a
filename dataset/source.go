// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

// An Entry is one run as supplied by a traversal: its identifier and
// the raw text of its output.
type Entry struct {
	// ID is the run identifier, such as a directory name.
	ID string
	// Path is where Text was read from, if anywhere. It is only
	// used in diagnostics.
	Path string
	// Text is the raw output of the run.
	Text string
	// Err is set if the run's output could not be read. Such
	// entries are skipped.
	Err error
}

// A Source produces a sequence of Entries. Its API is modeled on
// bufio.Scanner.
type Source interface {
	// Scan advances to the next Entry and reports whether there
	// was one.
	Scan() bool
	// Entry returns the Entry read by the last call to Scan.
	Entry() Entry
	// Err returns the error that stopped Scan, if any. A non-nil
	// Err is fatal to the whole aggregation.
	Err() error
}

// A SliceSource is a Source over a fixed slice of Entries.
type SliceSource struct {
	entries []Entry
	pos     int
}

// NewSliceSource returns a Source that yields entries in order.
func NewSliceSource(entries ...Entry) *SliceSource {
	return &SliceSource{entries: entries, pos: -1}
}

// Pairs returns a Source from an alternating sequence of identifiers
// and raw texts.
func Pairs(idText ...string) *SliceSource {
	if len(idText)%2 != 0 {
		panic("len(idText) must be a multiple of 2")
	}
	var entries []Entry
	for i := 0; i < len(idText); i += 2 {
		entries = append(entries, Entry{ID: idText[i], Text: idText[i+1]})
	}
	return NewSliceSource(entries...)
}

func (s *SliceSource) Scan() bool {
	if s.pos+1 >= len(s.entries) {
		s.pos = len(s.entries)
		return false
	}
	s.pos++
	return true
}

func (s *SliceSource) Entry() Entry {
	return s.entries[s.pos]
}

func (s *SliceSource) Err() error {
	return nil
}
