package normalise

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/ingest"
)

// Profile direction labels.
const (
	Descending = "D"
	Ascending  = "A"
)

const depthProxyComment = "Depth approximated by relative pressure"

// Boundary returns the 1-based index of the deepest sample: the last
// occurrence of the largest value of z. Missing (NaN) entries are ignored.
// When every entry is missing the whole series is one leg.
func Boundary(z []float64) int {
	valid := make([]float64, 0, len(z))
	for _, v := range z {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return len(z)
	}

	deepest := floats.Max(valid)
	b := 0
	for i, v := range z {
		if v == deepest {
			b = i + 1
		}
	}
	return b
}

// verticalColumn picks DEPTH, falling back to PRES_REL as a proxy.
func verticalColumn(table *ingest.Table) (*ingest.Column, bool, error) {
	if c, ok := table.Column("DEPTH"); ok && c.Kind == ingest.Numeric {
		return c, false, nil
	}
	if c, ok := table.Column("PRES_REL"); ok && c.Kind == ingest.Numeric {
		return c, true, nil
	}
	return nil, false, ErrMissingVerticalCoordinate
}

// profile splits the samples at the deepest point into a descending and an
// ascending leg.
func (l *layout) profile(table *ingest.Table, axis dataset.Instants) error {
	vert, proxy, err := verticalColumn(table)
	if err != nil {
		return err
	}
	if proxy {
		l.attr("vertical_source", vert.Name)
	}
	b := Boundary(vert.Values.Float64s())
	if b == table.Len() {
		l.singleLeg(table, axis, vert, proxy)
		return nil
	}
	l.twoLegs(table, axis, vert, proxy, b)
	return nil
}

// singleLeg lays out a downcast with no upcast on a DEPTH dimension.
func (l *layout) singleLeg(table *ingest.Table, axis dataset.Instants, vert *ingest.Column, proxy bool) {
	l.dim("DEPTH", dataset.AxisVertical, vert.Values)

	l.variable("PROFILE", dataset.Ints{1})
	l.variable("TIME", dataset.Instants{first(axis)})
	l.variable("DIRECTION", dataset.Labels{Descending})
	l.variable("LATITUDE", dataset.MissingValues(1))
	l.variable("LONGITUDE", dataset.MissingValues(1))
	l.variable("BOT_DEPTH", dataset.MissingValues(1))

	for _, c := range table.Columns {
		if skipColumn(c) || (c == vert && !proxy) {
			continue
		}
		l.column(c, columnData(c), ProfileCoordinates, "DEPTH")
	}
}

// twoLegs lays every column out on MAXZ x PROFILE. The shorter leg is
// padded at the end with missing values.
func (l *layout) twoLegs(table *ingest.Table, axis dataset.Instants, vert *ingest.Column, proxy bool, b int) {
	n := table.Len()
	maxz := max(b, n-b)

	levels := make(dataset.Ints, maxz)
	for i := range levels {
		levels[i] = i + 1
	}
	l.dim("MAXZ", dataset.AxisVertical, levels)
	l.dim("PROFILE", dataset.AxisInstance, dataset.Ints{1, 2})

	l.variable("TIME", dataset.Instants{first(axis[:b]), first(axis[b:])}, "PROFILE")
	l.variable("DIRECTION", dataset.Labels{Descending, Ascending}, "PROFILE")
	l.variable("LATITUDE", dataset.MissingValues(2), "PROFILE")
	l.variable("LONGITUDE", dataset.MissingValues(2), "PROFILE")
	l.variable("BOT_DEPTH", dataset.MissingValues(2), "PROFILE")

	if proxy {
		v := l.variable("DEPTH", legGrid(vert.Values, b, maxz), "MAXZ", "PROFILE")
		v.Comment = depthProxyComment
	}
	for _, c := range table.Columns {
		if skipColumn(c) {
			continue
		}
		coords := ProfileCoordinates
		if c == vert && !proxy {
			coords = ""
		}
		var data dataset.Array
		if c.Kind == ingest.Text {
			data = legLabels(c.Text, b, maxz)
		} else {
			data = legGrid(c.Values, b, maxz)
		}
		l.column(c, data, coords, "MAXZ", "PROFILE")
	}
}

// first is the timestamp of a leg's first sample.
func first(axis dataset.Instants) dataset.Instant {
	if len(axis) == 0 {
		return dataset.NoTime()
	}
	return axis[0]
}

// legGrid places samples [0,b) in column 0 and [b,n) in column 1.
func legGrid(v dataset.Values, b, rows int) *dataset.Grid {
	g := dataset.NewGrid(rows, 2)
	for i, x := range v {
		if i < b {
			g.Set(i, 0, x)
		} else {
			g.Set(i-b, 1, x)
		}
	}
	return g
}

func legLabels(v []string, b, rows int) dataset.Labels {
	out := make(dataset.Labels, rows*2)
	for i, s := range v {
		if i < b {
			out[i*2] = s
		} else {
			out[(i-b)*2+1] = s
		}
	}
	return out
}
