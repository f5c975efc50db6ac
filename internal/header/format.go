// Package header classifies the header lines of instrument text files and
// extracts structured metadata from them with ordered, per-format rule
// tables.
package header

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedHeader is returned when input ends before the header/data
// boundary is found.
var ErrMalformedHeader = errors.New("malformed header: no header/data boundary found")

// Kind classifies a single line.
type Kind int

const (
	Blank Kind = iota
	// Instrument lines were written by the instrument firmware.
	Instrument
	// Processed lines were written by the processing software.
	Processed
	// DataBoundary ends the header.
	DataBoundary
	// DataRow is a line of tabular data.
	DataRow
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Instrument:
		return "instrument"
	case Processed:
		return "processed"
	case DataBoundary:
		return "boundary"
	case DataRow:
		return "data"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Format describes one vendor's file layout: how header lines are marked,
// what ends the header, and the rule table for each header section.
type Format struct {
	Name       string
	Extensions []string

	// InstrumentMarker prefixes instrument header lines. When empty every
	// line before the terminator is instrument header.
	InstrumentMarker string
	// ProcessedMarker prefixes processing-software header lines.
	ProcessedMarker string
	// Terminator matches the line that ends the header.
	Terminator *regexp.Regexp
	// TerminatorIsColumnHeader is set when the terminating line names the
	// data columns.
	TerminatorIsColumnHeader bool

	// ScanInterval is the raw scan period in seconds used to turn a cast's
	// scan average into a sample interval.
	ScanInterval float64
	// RowTimeLayouts parse the date and time tokens leading each data row.
	// Empty when rows carry no timestamp.
	RowTimeLayouts []string

	InstrumentRules []Rule
	ProcessedRules  []Rule
}

// Rules returns the rule table for a header section.
func (f *Format) Rules(section Kind) []Rule {
	switch section {
	case Instrument:
		return f.InstrumentRules
	case Processed:
		return f.ProcessedRules
	}
	return nil
}

// Classify decides which section a line belongs to. Blank lines are
// reported as Blank and carry no classification.
func Classify(line string, f *Format) Kind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Blank
	case f.Terminator != nil && f.Terminator.MatchString(trimmed):
		return DataBoundary
	case f.InstrumentMarker != "" && strings.HasPrefix(trimmed, f.InstrumentMarker):
		return Instrument
	case f.ProcessedMarker != "" && strings.HasPrefix(trimmed, f.ProcessedMarker):
		return Processed
	case f.InstrumentMarker == "":
		return Instrument
	}
	// Fails every marker: the header ended without an explicit terminator.
	return DataRow
}

// Sections is a file split at its header/data boundary.
type Sections struct {
	Instrument []string
	Processed  []string
	// ColumnHeader is the terminating line when it names the columns.
	ColumnHeader string
	Data         []string
	// DataStart is the 1-based line number of the first data row.
	DataStart int
}

// Split walks lines until the header/data boundary and returns the header
// sections and the remaining non-blank data rows.
func Split(lines []string, f *Format) (*Sections, error) {
	s := &Sections{}
	for i, line := range lines {
		switch Classify(line, f) {
		case Blank:
			continue
		case Instrument:
			s.Instrument = append(s.Instrument, strings.TrimSpace(line))
		case Processed:
			s.Processed = append(s.Processed, strings.TrimSpace(line))
		case DataBoundary:
			if f.TerminatorIsColumnHeader {
				s.ColumnHeader = strings.TrimSpace(line)
			}
			s.collect(lines, i+1)
			return s, nil
		case DataRow:
			s.collect(lines, i)
			return s, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", f.Name, ErrMalformedHeader)
}

func (s *Sections) collect(lines []string, from int) {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		if s.DataStart == 0 {
			s.DataStart = j + 1
		}
		s.Data = append(s.Data, lines[j])
	}
}

// Formats lists the supported file formats.
var Formats = []*Format{SeaBirdCNV, RBRDat}

// FormatByName looks a format up by its name.
func FormatByName(name string) (*Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown format %q", name)
}
