// Package normalise lays a tokenised data table out as a CF-ordered
// dataset, either as a time series or as down/up profile legs.
package normalise

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/header"
	"github.com/banshee-data/ctdconvert/internal/ingest"
	"github.com/banshee-data/ctdconvert/internal/params"
	"github.com/banshee-data/ctdconvert/internal/units"
)

var (
	// ErrMissingVerticalCoordinate is returned in profile mode when the
	// table has neither DEPTH nor PRES_REL.
	ErrMissingVerticalCoordinate = errors.New("profile needs a DEPTH or PRES_REL column")
	// ErrShortAxis is returned when the time axis has fewer entries than
	// the table has rows.
	ErrShortAxis = errors.New("time axis shorter than the data")
)

// Coordinate attribute values.
const (
	ProfileCoordinates    = "TIME LATITUDE LONGITUDE DEPTH"
	TimeSeriesCoordinates = "TIME LATITUDE LONGITUDE NOMINAL_DEPTH"
)

// CF feature types.
const (
	FeatureProfile    = "profile"
	FeatureTimeSeries = "timeSeries"
)

var presRel = regexp.MustCompile(`^PRES_REL(_\d+)?$`)

// Options configures Build.
type Options struct {
	// Catalog supplies output types. The embedded catalog is used when nil.
	Catalog *params.Catalog
}

// Build lays table out for the given mode. axis must hold at least one
// timestamp per row; extra trailing entries are ignored.
func Build(table *ingest.Table, rec *header.Record, axis dataset.Instants, mode dataset.Mode, opts Options) (*dataset.Dataset, error) {
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = params.Default(); err != nil {
			return nil, err
		}
	}

	n := table.Len()
	if len(axis) < n {
		return nil, fmt.Errorf("%d timestamps for %d rows: %w", len(axis), n, ErrShortAxis)
	}
	axis = axis[:n]

	l := &layout{catalog: cat}
	var feature string
	switch mode {
	case dataset.TimeSeries:
		l.timeSeries(table, axis)
		feature = FeatureTimeSeries
	case dataset.Profile:
		if err := l.profile(table, axis); err != nil {
			return nil, err
		}
		feature = FeatureProfile
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	ds, err := l.dataset()
	if err != nil {
		return nil, err
	}
	ds.Meta = dataset.Metadata{Header: rec, Mode: mode, FeatureType: feature, Attributes: l.attrs}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("build %s dataset: %w", mode, err)
	}
	return ds, nil
}

// pending is a variable whose dimensions are still named.
type pending struct {
	v    dataset.Variable
	dims []string
}

// layout collects dimensions and variables before the dimensions are put
// into CF order and variable dimension indices are resolved.
type layout struct {
	catalog *params.Catalog
	dims    []dataset.Dimension
	vars    []pending
	attrs   map[string]string
}

func (l *layout) attr(k, v string) {
	if l.attrs == nil {
		l.attrs = make(map[string]string)
	}
	l.attrs[k] = v
}

func (l *layout) dim(name string, axis dataset.Axis, data dataset.Array) {
	l.dims = append(l.dims, dataset.Dimension{Name: name, Axis: axis, Data: data})
}

func (l *layout) variable(name string, data dataset.Array, dims ...string) *dataset.Variable {
	l.vars = append(l.vars, pending{
		v:    dataset.Variable{Name: name, Type: l.catalog.Type(name), Data: data},
		dims: dims,
	})
	return &l.vars[len(l.vars)-1].v
}

// column adds a variable for a table column, carrying its comment and
// any correction already applied to it.
func (l *layout) column(c *ingest.Column, data dataset.Array, coordinates string, dims ...string) {
	v := l.variable(c.Name, data, dims...)
	v.Comment = c.Comment
	v.Coordinates = coordinates
	if presRel.MatchString(c.Name) {
		off := units.PresRelAppliedOffset
		v.AppliedOffset = &off
	}
}

func (l *layout) dataset() (*dataset.Dataset, error) {
	ds := &dataset.Dataset{Dimensions: dataset.OrderDimensions(l.dims)}
	for _, p := range l.vars {
		v := p.v
		v.Dims = make([]int, len(p.dims))
		for i, name := range p.dims {
			idx, ok := ds.Dimension(name)
			if !ok {
				return nil, fmt.Errorf("variable %s uses unknown dimension %s", v.Name, name)
			}
			v.Dims[i] = idx
		}
		ds.Variables = append(ds.Variables, v)
	}
	return ds, nil
}

// skipColumn reports whether a column is already represented by the axis.
func skipColumn(c *ingest.Column) bool {
	return c.Kind == ingest.Time
}
