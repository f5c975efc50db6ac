package dataset

import (
	"encoding/json"
	"math"
	"time"
)

// Value is a numeric sample that may be missing. The zero Value is missing.
type Value struct {
	v  float64
	ok bool
}

// Float returns a present value. NaN is treated as missing so that values
// decoded with the usual NaN fill convention round-trip cleanly.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Missing returns an undefined value.
func Missing() Value { return Value{} }

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// IsMissing reports whether the value is undefined.
func (v Value) IsMissing() bool { return !v.ok }

// Float64 returns the value, or NaN when missing.
func (v Value) Float64() float64 {
	if !v.ok {
		return math.NaN()
	}
	return v.v
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// Instant is a timestamp that may be missing. The zero Instant is missing.
type Instant struct {
	t  time.Time
	ok bool
}

// At returns a present instant.
func At(t time.Time) Instant { return Instant{t: t, ok: true} }

// NoTime returns an undefined instant.
func NoTime() Instant { return Instant{} }

// Get returns the time and whether it is present.
func (i Instant) Get() (time.Time, bool) { return i.t, i.ok }

// IsMissing reports whether the instant is undefined.
func (i Instant) IsMissing() bool { return !i.ok }

func (i Instant) MarshalJSON() ([]byte, error) {
	if !i.ok {
		return []byte("null"), nil
	}
	return json.Marshal(i.t.UTC().Format(time.RFC3339Nano))
}

// Array is the backing store of a dimension or variable.
type Array interface {
	Len() int
}

// Values is a one-dimensional numeric array.
type Values []Value

func (v Values) Len() int { return len(v) }

// Float64s returns a copy with missing entries as NaN.
func (v Values) Float64s() []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x.Float64()
	}
	return out
}

// Valid returns the present entries only, in order.
func (v Values) Valid() []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if f, ok := x.Get(); ok {
			out = append(out, f)
		}
	}
	return out
}

// FromFloat64s wraps raw samples, treating NaN as missing.
func FromFloat64s(in []float64) Values {
	out := make(Values, len(in))
	for i, f := range in {
		out[i] = Float(f)
	}
	return out
}

// MissingValues returns n undefined values.
func MissingValues(n int) Values { return make(Values, n) }

// Instants is a one-dimensional time array, also used as the time axis.
type Instants []Instant

func (t Instants) Len() int { return len(t) }

// First returns the first present instant in the array.
func (t Instants) First() Instant {
	for _, i := range t {
		if !i.IsMissing() {
			return i
		}
	}
	return NoTime()
}

// Ints holds integer identity variables such as PROFILE or TIMESERIES.
type Ints []int

func (v Ints) Len() int { return len(v) }

// Labels holds single-character labels such as DIRECTION.
type Labels []string

func (v Labels) Len() int { return len(v) }

// Grid is a row-major two-dimensional numeric array. For profile data
// rows index the vertical dimension and columns index the profile.
type Grid struct {
	Rows int
	Cols int
	Data []Value
}

// NewGrid allocates a grid with every cell missing.
func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]Value, rows*cols)}
}

func (g *Grid) Len() int { return len(g.Data) }

// At returns the cell at row r, column c.
func (g *Grid) At(r, c int) Value { return g.Data[r*g.Cols+c] }

// Set assigns the cell at row r, column c.
func (g *Grid) Set(r, c int, v Value) { g.Data[r*g.Cols+c] = v }

// Column returns column c as a one-dimensional array.
func (g *Grid) Column(c int) Values {
	out := make(Values, g.Rows)
	for r := 0; r < g.Rows; r++ {
		out[r] = g.At(r, c)
	}
	return out
}

// MarshalJSON writes the grid as nested rows.
func (g *Grid) MarshalJSON() ([]byte, error) {
	rows := make([][]Value, g.Rows)
	for r := range rows {
		rows[r] = g.Data[r*g.Cols : (r+1)*g.Cols]
	}
	return json.Marshal(rows)
}
