// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out plain-text tables with aligned columns.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so callers can chain them to build up
// a row at once.
type Table struct {
	// Gap separates adjacent columns. If empty, one space is used.
	Gap string

	rows [][]textCell
}

type textCell struct {
	value     string
	alignment align
	rule      bool
}

// A CellOption modifies a cell.
type CellOption func(c *textCell)

// Right right-aligns a cell. Cells are left-aligned by default.
var Right CellOption = func(c *textCell) { c.alignment = alignRight }

type align int

const (
	alignLeft align = iota
	alignRight
)

func (a align) pad(s string, w int) string {
	n := w - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// Row starts a new row in t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell adds a cell to the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	c := textCell{value: value}
	for _, o := range opts {
		o(&c)
	}
	last := len(t.rows) - 1
	t.rows[last] = append(t.rows[last], c)
	return t
}

// Rule adds a row that is drawn as a horizontal line across every
// column.
func (t *Table) Rule() *Table {
	t.rows = append(t.rows, []textCell{{rule: true}})
	return t
}

// Format lays out t and writes it to w. Trailing spaces are trimmed
// from each line.
func (t *Table) Format(w io.Writer) error {
	gap := t.Gap
	if gap == "" {
		gap = " "
	}

	var ws []int
	for _, row := range t.rows {
		for col, cell := range row {
			if cell.rule {
				continue
			}
			for len(ws) <= col {
				ws = append(ws, 0)
			}
			if n := utf8.RuneCountInString(cell.value); n > ws[col] {
				ws[col] = n
			}
		}
	}
	total := 0
	for i, cw := range ws {
		if i > 0 {
			total += utf8.RuneCountInString(gap)
		}
		total += cw
	}

	var line strings.Builder
	for _, row := range t.rows {
		line.Reset()
		if len(row) == 1 && row[0].rule {
			line.WriteString(strings.Repeat("-", total))
		} else {
			for col, cell := range row {
				if col > 0 {
					line.WriteString(gap)
				}
				line.WriteString(cell.alignment.pad(cell.value, ws[col]))
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
