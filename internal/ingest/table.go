// Package ingest reads instrument text files and turns their data rows into
// typed columns.
package ingest

import (
	"fmt"

	"github.com/banshee-data/ctdconvert/internal/dataset"
)

// Kind is the storage class of a column.
type Kind int

const (
	Numeric Kind = iota
	Text
	Time
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Time:
		return "time"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Column is one named data column. Exactly one of Values, Text or Times is
// populated, matching Kind.
type Column struct {
	Name    string
	Comment string
	Kind    Kind
	// Code is the instrument's own name for the column.
	Code string

	Values dataset.Values
	Text   []string
	Times  dataset.Instants
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Text:
		return len(c.Text)
	case Time:
		return len(c.Times)
	}
	return len(c.Values)
}

// Table is an ordered set of equal-length columns.
type Table struct {
	Columns []*Column
}

// Len is the number of rows, zero for a table without columns.
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// TimeColumn returns the first column holding explicit timestamps.
func (t *Table) TimeColumn() (*Column, bool) {
	for _, c := range t.Columns {
		if c.Kind == Time {
			return c, true
		}
	}
	return nil, false
}

// Names lists the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// add appends c, suffixing its name with _2, _3, ... when a column of the
// same name already exists. Secondary sensors end up as TEMP_2 and so on.
func (t *Table) add(c *Column) {
	base := c.Name
	for n := 2; ; n++ {
		if _, dup := t.Column(c.Name); !dup {
			break
		}
		c.Name = fmt.Sprintf("%s_%d", base, n)
	}
	t.Columns = append(t.Columns, c)
}
