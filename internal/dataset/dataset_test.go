package dataset

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(dims []Dimension) []string {
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = d.Name
	}
	return out
}

func TestOrderDimensions(t *testing.T) {
	in := []Dimension{
		{Name: "PROFILE", Axis: AxisInstance, Data: Ints{1, 2}},
		{Name: "EXTRA", Data: Ints{1}},
		{Name: "MAXZ", Axis: AxisVertical, Data: Ints{1, 2, 3}},
		{Name: "LATITUDE", Axis: AxisY, Data: Ints{1}},
		{Name: "TIME", Axis: AxisTime, Data: Instants{NoTime()}},
	}
	got := OrderDimensions(in)

	want := []string{"TIME", "MAXZ", "PROFILE", "LATITUDE", "EXTRA"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("OrderDimensions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "PROFILE", in[0].Name, "input left untouched")
}

func TestValidate(t *testing.T) {
	valid := func() *Dataset {
		return &Dataset{
			Dimensions: []Dimension{
				{Name: "MAXZ", Axis: AxisVertical, Data: Ints{1, 2}},
				{Name: "PROFILE", Axis: AxisInstance, Data: Ints{1, 2}},
			},
			Variables: []Variable{
				{Name: "TEMP", Dims: []int{0, 1}, Data: NewGrid(2, 2)},
				{Name: "DIRECTION", Dims: []int{1}, Data: Labels{"D", "A"}},
				{Name: "LATITUDE", Data: MissingValues(1)},
			},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Dataset)
		want   error
	}{
		{"dimension order", func(d *Dataset) { d.Dimensions[0], d.Dimensions[1] = d.Dimensions[1], d.Dimensions[0] }, ErrDimensionOrder},
		{"duplicate dimension", func(d *Dataset) { d.Dimensions[1].Name = "MAXZ" }, ErrDuplicateName},
		{"duplicate variable", func(d *Dataset) { d.Variables[1].Name = "TEMP" }, ErrDuplicateName},
		{"short data", func(d *Dataset) { d.Variables[0].Data = NewGrid(1, 2) }, ErrShape},
		{"nil data", func(d *Dataset) { d.Variables[2].Data = nil }, ErrShape},
		{"bad index", func(d *Dataset) { d.Variables[1].Dims = []int{2} }, ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := valid()
			tt.mutate(ds)
			assert.ErrorIs(t, ds.Validate(), tt.want)
		})
	}
}

func TestDatasetLookups(t *testing.T) {
	ds := &Dataset{
		Dimensions: []Dimension{
			{Name: "MAXZ", Axis: AxisVertical, Data: Ints{1, 2}},
			{Name: "PROFILE", Axis: AxisInstance, Data: Ints{1, 2}},
		},
		Variables: []Variable{{Name: "TEMP", Dims: []int{0, 1}, Data: NewGrid(2, 2)}},
	}

	i, ok := ds.Dimension("PROFILE")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = ds.Dimension("TIME")
	assert.False(t, ok)

	v, ok := ds.Variable("TEMP")
	require.True(t, ok)
	assert.False(t, v.IsScalar())
	assert.Equal(t, []string{"MAXZ", "PROFILE"}, ds.DimensionNames(v))
}

func TestValueAndInstant(t *testing.T) {
	assert.True(t, Float(math.NaN()).IsMissing())
	assert.True(t, math.IsNaN(Missing().Float64()))
	v, ok := Float(2.5).Get()
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	at := time.Date(2011, time.January, 5, 10, 36, 18, 0, time.UTC)
	assert.Equal(t, At(at), Instants{NoTime(), At(at)}.First())
	assert.True(t, Instants{NoTime()}.First().IsMissing())

	assert.Equal(t, []float64{1, 3}, Values{Float(1), Missing(), Float(3)}.Valid())
}

func TestJSON(t *testing.T) {
	at := time.Date(2011, time.January, 5, 10, 36, 18, 0, time.UTC)
	g := NewGrid(2, 2)
	g.Set(0, 0, Float(1))
	g.Set(1, 1, Float(4))

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"values", Values{Float(1.5), Missing()}, `[1.5,null]`},
		{"instants", Instants{At(at), NoTime()}, `["2011-01-05T10:36:18Z",null]`},
		{"grid", g, `[[1,null],[null,4]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestGridColumn(t *testing.T) {
	g := NewGrid(3, 2)
	g.Set(0, 1, Float(7))
	g.Set(2, 1, Float(9))

	col := g.Column(1)
	require.Len(t, col, 3)
	assert.Equal(t, 7.0, col[0].Float64())
	assert.True(t, col[1].IsMissing())
	assert.Equal(t, 9.0, col[2].Float64())
	assert.Equal(t, 6, g.Len())
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"profile": Profile, "PROFILE": Profile, "timeseries": TimeSeries, "moored": TimeSeries} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("sideways")
	assert.Error(t, err)
}
