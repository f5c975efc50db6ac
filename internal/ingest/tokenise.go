package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/header"
)

var (
	// ErrRaggedRow is returned when a data row has a different number of
	// fields from the column header.
	ErrRaggedRow = errors.New("row has the wrong number of fields")
	// ErrBadValue is returned for a field that is not a number or timestamp.
	ErrBadValue = errors.New("unparsable value")
	// ErrNoColumns is returned when the header names no data columns.
	ErrNoColumns = errors.New("header names no data columns")
)

// builder accumulates one output column.
type builder struct {
	ch  channel
	col *Column
	// year anchors julian day codes.
	year int
}

func (b *builder) push(field string, bad *float64) error {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return fmt.Errorf("%s %q: %w", b.col.Code, field, ErrBadValue)
	}
	missing := math.IsNaN(v) || (bad != nil && v == *bad)

	if b.col.Kind == Time {
		if missing {
			b.col.Times = append(b.col.Times, dataset.NoTime())
			return nil
		}
		b.col.Times = append(b.col.Times, dataset.At(b.instant(v)))
		return nil
	}

	if missing {
		b.col.Values = append(b.col.Values, dataset.Missing())
		return nil
	}
	if b.ch.scale != 0 {
		v *= b.ch.scale
	}
	b.col.Values = append(b.col.Values, dataset.Float(v))
	return nil
}

func (b *builder) instant(v float64) time.Time {
	if b.ch.julian {
		// Day 1.0 is midnight on 1 January.
		start := time.Date(b.year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start.Add(time.Duration((v - 1) * float64(24*time.Hour)))
	}
	return b.ch.epoch.Add(time.Duration(v * float64(b.ch.unit)))
}

// Tokenise splits the data rows of s into typed columns named from the
// parsed header. Values equal to the header's bad flag become missing.
func Tokenise(s *header.Sections, rec *header.Record, f *header.Format) (*Table, error) {
	if f.TerminatorIsColumnHeader {
		return tokeniseTimestamped(s, rec, f)
	}
	return tokeniseNamed(s, rec)
}

// tokeniseNamed handles formats whose columns are listed in the processed
// header, one "code: description" entry per column.
func tokeniseNamed(s *header.Sections, rec *header.Record) (*Table, error) {
	if len(rec.ColumnNames) == 0 {
		return nil, ErrNoColumns
	}

	year := deploymentYear(rec)
	builders := make([]*builder, len(rec.ColumnNames))
	t := &Table{}
	for i, raw := range rec.ColumnNames {
		code, desc := splitSeaBirdName(raw)
		ch := lookup(seaBirdChannels, code)
		if ch.drop {
			continue
		}
		if ch.julian && year == 0 {
			// No year to anchor day-of-year codes, keep them numeric.
			ch = channel{name: sanitise(code)}
		}
		col := &Column{Name: ch.name, Code: code, Comment: desc}
		if ch.isTime() {
			col.Kind = Time
		}
		builders[i] = &builder{ch: ch, col: col, year: year}
		t.add(col)
	}

	for i, row := range s.Data {
		fields := strings.Fields(row)
		if len(fields) != len(builders) {
			return nil, fmt.Errorf("data row %d has %d fields, want %d: %w", i+1, len(fields), len(builders), ErrRaggedRow)
		}
		for j, b := range builders {
			if b == nil {
				continue
			}
			if err := b.push(fields[j], rec.BadFlag); err != nil {
				return nil, fmt.Errorf("data row %d: %w", i+1, err)
			}
		}
	}
	return t, nil
}

// tokeniseTimestamped handles formats whose column header row starts with a
// "Date & Time" label and whose rows start with a date and a time token.
func tokeniseTimestamped(s *header.Sections, rec *header.Record, f *header.Format) (*Table, error) {
	if s.ColumnHeader == "" {
		return nil, ErrNoColumns
	}
	labels := strings.Fields(s.ColumnHeader)
	for len(labels) > 0 && (labels[0] == "Date" || labels[0] == "&" || labels[0] == "Time") {
		labels = labels[1:]
	}

	t := &Table{}
	timeCol := &Column{Name: "TIME", Code: "Date & Time", Kind: Time}
	t.add(timeCol)

	builders := make([]*builder, len(labels))
	for i, label := range labels {
		ch := lookup(rbrChannels, label)
		col := &Column{Name: ch.name, Code: label}
		builders[i] = &builder{ch: ch, col: col}
		t.add(col)
	}

	const stampFields = 2
	for i, row := range s.Data {
		fields := strings.Fields(row)
		if len(fields) != stampFields+len(builders) {
			return nil, fmt.Errorf("data row %d has %d fields, want %d: %w", i+1, len(fields), stampFields+len(builders), ErrRaggedRow)
		}
		ts, err := header.ParseTime(fields[0]+" "+fields[1], f.RowTimeLayouts)
		if err != nil {
			return nil, fmt.Errorf("data row %d: %v: %w", i+1, err, ErrBadValue)
		}
		timeCol.Times = append(timeCol.Times, dataset.At(ts))
		for j, b := range builders {
			if err := b.push(fields[stampFields+j], rec.BadFlag); err != nil {
				return nil, fmt.Errorf("data row %d: %w", i+1, err)
			}
		}
	}
	return t, nil
}

// deploymentYear is the year day-of-year time codes count from.
func deploymentYear(rec *header.Record) int {
	switch {
	case !rec.StartTime.IsZero():
		return rec.StartTime.Year()
	case len(rec.Casts) > 0:
		return rec.Casts[0].Date.Year()
	}
	return 0
}
