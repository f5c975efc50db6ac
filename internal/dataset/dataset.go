// Package dataset holds the normalised, CF-ordered representation of one
// instrument file: named dimensions, variables indexed on them, and the
// metadata gathered while converting.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/ctdconvert/internal/header"
)

// Mode selects how samples are laid out.
type Mode string

const (
	Profile    Mode = "profile"
	TimeSeries Mode = "timeseries"
)

// ParseMode accepts the command line spellings of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "profile", "Profile", "PROFILE":
		return Profile, nil
	case "timeseries", "TimeSeries", "TIMESERIES", "time-series", "moored":
		return TimeSeries, nil
	}
	return "", fmt.Errorf("unknown mode %q (want profile or timeseries)", s)
}

// Axis tags a dimension with its CF axis role.
type Axis string

const (
	AxisNone     Axis = ""
	AxisTime     Axis = "T"
	AxisVertical Axis = "Z"
	AxisY        Axis = "Y"
	AxisX        Axis = "X"
	// AxisInstance marks a profile index, ordered with the horizontal axes.
	AxisInstance Axis = "INSTANCE"
)

// rank gives the CF ordering: time, vertical, horizontal, everything else.
func (a Axis) rank() int {
	switch a {
	case AxisTime:
		return 0
	case AxisVertical:
		return 1
	case AxisY, AxisX, AxisInstance:
		return 2
	}
	return 3
}

// Dimension is a named, one-dimensional coordinate.
type Dimension struct {
	Name string `json:"name"`
	Axis Axis   `json:"axis,omitempty"`
	Data Array  `json:"data"`
}

// Len is the dimension length.
func (d Dimension) Len() int { return d.Data.Len() }

// Variable is a named array indexed on zero or more dimensions.
type Variable struct {
	Name string `json:"name"`
	// Type is the output type reported by the parameter catalog.
	Type string `json:"type"`
	// Dims holds indices into Dataset.Dimensions; empty means scalar.
	Dims        []int  `json:"dimensions"`
	Data        Array  `json:"data"`
	Comment     string `json:"comment,omitempty"`
	Coordinates string `json:"coordinates,omitempty"`
	// AppliedOffset records a correction already applied upstream.
	AppliedOffset *float64 `json:"applied_offset,omitempty"`
}

// IsScalar reports whether the variable has no dimensions.
func (v Variable) IsScalar() bool { return len(v.Dims) == 0 }

// Metadata is the header record plus everything derived during conversion.
type Metadata struct {
	Header      *header.Record `json:"header"`
	SourceFile  string         `json:"source_file,omitempty"`
	Format      string         `json:"format,omitempty"`
	Mode        Mode           `json:"mode"`
	FeatureType string         `json:"feature_type"`
	TimeSource  string         `json:"time_source"`
	Samples     int            `json:"samples"`

	// LowConfidenceTime is set when timestamps came from configured defaults
	// rather than anything in the file.
	LowConfidenceTime bool              `json:"low_confidence_time"`
	DateCreated       time.Time         `json:"date_created"`
	ToolVersion       string            `json:"tool_version,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

// Dataset is the converted form of one input file. It is built once and
// treated as read-only afterwards.
type Dataset struct {
	ID         string      `json:"id"`
	Dimensions []Dimension `json:"dimensions"`
	Variables  []Variable  `json:"variables"`
	Meta       Metadata    `json:"metadata"`
}

// Dimension returns the index of the named dimension.
func (d *Dataset) Dimension(name string) (int, bool) {
	for i, dim := range d.Dimensions {
		if dim.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Variable returns the named variable.
func (d *Dataset) Variable(name string) (*Variable, bool) {
	for i := range d.Variables {
		if d.Variables[i].Name == name {
			return &d.Variables[i], true
		}
	}
	return nil, false
}

// DimensionNames lists the dimensions a variable is indexed on.
func (d *Dataset) DimensionNames(v *Variable) []string {
	out := make([]string, len(v.Dims))
	for i, idx := range v.Dims {
		out[i] = d.Dimensions[idx].Name
	}
	return out
}

var (
	ErrDimensionOrder = errors.New("dimensions are not in CF order")
	ErrShape          = errors.New("variable shape does not match its dimensions")
	ErrDuplicateName  = errors.New("duplicate name")
)

// OrderDimensions sorts dimensions into CF order, keeping the relative order
// of dimensions that share a rank.
func OrderDimensions(dims []Dimension) []Dimension {
	out := append([]Dimension(nil), dims...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Axis.rank() < out[j].Axis.rank()
	})
	return out
}

// Validate checks the ordering and shape invariants.
func (d *Dataset) Validate() error {
	seen := make(map[string]bool, len(d.Dimensions))
	last := -1
	for _, dim := range d.Dimensions {
		if seen[dim.Name] {
			return fmt.Errorf("dimension %s: %w", dim.Name, ErrDuplicateName)
		}
		seen[dim.Name] = true
		r := dim.Axis.rank()
		if r < last {
			return fmt.Errorf("dimension %s after rank %d: %w", dim.Name, last, ErrDimensionOrder)
		}
		last = r
	}

	names := make(map[string]bool, len(d.Variables))
	for _, v := range d.Variables {
		if names[v.Name] {
			return fmt.Errorf("variable %s: %w", v.Name, ErrDuplicateName)
		}
		names[v.Name] = true

		want := 1
		for _, idx := range v.Dims {
			if idx < 0 || idx >= len(d.Dimensions) {
				return fmt.Errorf("variable %s references dimension %d: %w", v.Name, idx, ErrShape)
			}
			want *= d.Dimensions[idx].Len()
		}
		if v.Data == nil || v.Data.Len() != want {
			got := 0
			if v.Data != nil {
				got = v.Data.Len()
			}
			return fmt.Errorf("variable %s has %d values, want %d: %w", v.Name, got, want, ErrShape)
		}
	}
	return nil
}
