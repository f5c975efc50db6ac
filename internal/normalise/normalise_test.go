package normalise

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/header"
	"github.com/banshee-data/ctdconvert/internal/ingest"
	"github.com/banshee-data/ctdconvert/internal/params"
)

var t0 = time.Date(2011, time.January, 5, 10, 36, 18, 0, time.UTC)

func numeric(name string, v ...float64) *ingest.Column {
	return &ingest.Column{Name: name, Kind: ingest.Numeric, Values: dataset.FromFloat64s(v), Comment: name + " comment"}
}

func seconds(n int) dataset.Instants {
	axis := make(dataset.Instants, n)
	for i := range axis {
		axis[i] = dataset.At(t0.Add(time.Duration(i) * time.Second))
	}
	return axis
}

func catalog(t *testing.T) Options {
	t.Helper()
	c, err := params.Default()
	require.NoError(t, err)
	return Options{Catalog: c}
}

func dimNames(ds *dataset.Dataset) []string {
	var out []string
	for _, d := range ds.Dimensions {
		out = append(out, d.Name)
	}
	return out
}

func variable(t *testing.T, ds *dataset.Dataset, name string) *dataset.Variable {
	t.Helper()
	v, ok := ds.Variable(name)
	require.True(t, ok, "variable %s", name)
	return v
}

func TestBoundary(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		z    []float64
		want int
	}{
		{"down and up", []float64{1, 2, 5, 4, 2, 1}, 3},
		{"repeated maximum takes the last", []float64{1, 5, 5, 2}, 3},
		{"downcast only", []float64{1, 2, 3}, 3},
		{"missing entries ignored", []float64{nan, 2, 7, nan, 1}, 3},
		{"all missing", []float64{nan, nan}, 2},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Boundary(tt.z)
			assert.Equal(t, tt.want, b)

			desc, asc := tt.z[:b], tt.z[b:]
			assert.Equal(t, len(tt.z), len(desc)+len(asc))
		})
	}
}

func TestBuild_TimeSeries(t *testing.T) {
	table := &ingest.Table{Columns: []*ingest.Column{
		numeric("PRES_REL", 10.1, 10.2, 10.3),
		numeric("TEMP", 20.1, math.NaN(), 20.3),
		numeric("PRES_REL_2", 1, 2, 3),
	}}
	rec := header.NewRecord()

	ds, err := Build(table, rec, seconds(5), dataset.TimeSeries, catalog(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"TIME"}, dimNames(ds))
	assert.Equal(t, 3, ds.Dimensions[0].Len())
	assert.Equal(t, FeatureTimeSeries, ds.Meta.FeatureType)
	assert.Same(t, rec, ds.Meta.Header)

	for _, name := range []string{"TIMESERIES", "LATITUDE", "LONGITUDE", "NOMINAL_DEPTH"} {
		v := variable(t, ds, name)
		assert.True(t, v.IsScalar(), name)
		assert.Equal(t, 1, v.Data.Len(), name)
	}
	assert.Equal(t, "int", variable(t, ds, "TIMESERIES").Type)
	assert.True(t, variable(t, ds, "NOMINAL_DEPTH").Data.(dataset.Values)[0].IsMissing())

	pres := variable(t, ds, "PRES_REL")
	require.NotNil(t, pres.AppliedOffset)
	assert.InDelta(t, -10.1352972, *pres.AppliedOffset, 1e-9)
	assert.Equal(t, []float64{10.1, 10.2, 10.3}, pres.Data.(dataset.Values).Float64s())
	assert.Equal(t, TimeSeriesCoordinates, pres.Coordinates)
	assert.Equal(t, "PRES_REL comment", pres.Comment)
	assert.Equal(t, []string{"TIME"}, ds.DimensionNames(pres))

	require.NotNil(t, variable(t, ds, "PRES_REL_2").AppliedOffset)

	temp := variable(t, ds, "TEMP")
	assert.Nil(t, temp.AppliedOffset)
	assert.Equal(t, "float", temp.Type)
	assert.True(t, temp.Data.(dataset.Values)[1].IsMissing())
}

func TestBuild_TimeSeriesSkipsTimeColumn(t *testing.T) {
	axis := seconds(2)
	table := &ingest.Table{Columns: []*ingest.Column{
		{Name: "TIME", Kind: ingest.Time, Times: axis},
		numeric("TEMP", 1, 2),
	}}
	ds, err := Build(table, header.NewRecord(), axis, dataset.TimeSeries, catalog(t))
	require.NoError(t, err)
	_, ok := ds.Variable("TIME")
	assert.False(t, ok)
	assert.Equal(t, axis, ds.Dimensions[0].Data)
}

func TestBuild_ProfileTwoLegs(t *testing.T) {
	table := &ingest.Table{Columns: []*ingest.Column{
		numeric("DEPTH", 1, 2, 5, 4, 2, 1, 0.5),
		numeric("TEMP", 20, 19, 15, 16, 18, 19.5, 20.5),
	}}
	axis := seconds(7)

	ds, err := Build(table, header.NewRecord(), axis, dataset.Profile, catalog(t))
	require.NoError(t, err)
	require.NoError(t, ds.Validate())

	assert.Equal(t, []string{"MAXZ", "PROFILE"}, dimNames(ds))
	assert.Equal(t, 4, ds.Dimensions[0].Len())
	assert.Equal(t, dataset.Ints{1, 2}, ds.Dimensions[1].Data)

	tm := variable(t, ds, "TIME")
	assert.Equal(t, []string{"PROFILE"}, ds.DimensionNames(tm))
	assert.Equal(t, dataset.Instants{axis[0], axis[3]}, tm.Data)
	assert.Equal(t, "double", tm.Type)

	dir := variable(t, ds, "DIRECTION")
	assert.Equal(t, dataset.Labels{"D", "A"}, dir.Data)
	assert.Equal(t, "char", dir.Type)

	for _, name := range []string{"LATITUDE", "LONGITUDE", "BOT_DEPTH"} {
		v := variable(t, ds, name)
		assert.Equal(t, 2, v.Data.Len())
		assert.True(t, v.Data.(dataset.Values)[0].IsMissing())
	}

	temp := variable(t, ds, "TEMP")
	assert.Equal(t, []string{"MAXZ", "PROFILE"}, ds.DimensionNames(temp))
	assert.Equal(t, ProfileCoordinates, temp.Coordinates)
	g := temp.Data.(*dataset.Grid)
	down, up := g.Column(0), g.Column(1)
	assert.Equal(t, []float64{20, 19, 15}, down.Float64s()[:3])
	assert.True(t, math.IsNaN(down.Float64s()[3]), "shorter leg is padded with NaN")
	assert.Equal(t, []float64{16, 18, 19.5, 20.5}, up.Float64s())

	depth := variable(t, ds, "DEPTH")
	assert.Empty(t, depth.Coordinates)
	dg := depth.Data.(*dataset.Grid)
	assert.Equal(t, 5.0, floatsMax(dg.Column(0).Valid()))
	assert.Nil(t, ds.Meta.Attributes)
}

func floatsMax(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}

func TestBuild_ProfileSingleLeg(t *testing.T) {
	table := &ingest.Table{Columns: []*ingest.Column{
		numeric("DEPTH", 1, 2, 3),
		numeric("TEMP", 20, 19, 18),
	}}
	axis := seconds(3)

	ds, err := Build(table, header.NewRecord(), axis, dataset.Profile, catalog(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"DEPTH"}, dimNames(ds))
	for _, name := range []string{"PROFILE", "TIME", "DIRECTION", "LATITUDE", "LONGITUDE", "BOT_DEPTH"} {
		assert.True(t, variable(t, ds, name).IsScalar(), name)
	}
	assert.Equal(t, dataset.Labels{"D"}, variable(t, ds, "DIRECTION").Data)
	assert.Equal(t, dataset.Instants{axis[0]}, variable(t, ds, "TIME").Data)
	_, ok := ds.Variable("DEPTH")
	assert.False(t, ok, "DEPTH is the dimension")

	temp := variable(t, ds, "TEMP")
	assert.Equal(t, []string{"DEPTH"}, ds.DimensionNames(temp))
	assert.Equal(t, ProfileCoordinates, temp.Coordinates)
}

func TestBuild_ProfilePressureProxy(t *testing.T) {
	table := &ingest.Table{Columns: []*ingest.Column{
		numeric("PRES_REL", 1, 3, 2),
		numeric("TEMP", 20, 18, 19),
	}}
	ds, err := Build(table, header.NewRecord(), seconds(3), dataset.Profile, catalog(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"MAXZ", "PROFILE"}, dimNames(ds))
	depth := variable(t, ds, "DEPTH")
	assert.Equal(t, depthProxyComment, depth.Comment)
	assert.Equal(t, []float64{1, 3}, depth.Data.(*dataset.Grid).Column(0).Float64s())

	pres := variable(t, ds, "PRES_REL")
	require.NotNil(t, pres.AppliedOffset)
	assert.Equal(t, ProfileCoordinates, pres.Coordinates)
	assert.Equal(t, "PRES_REL", ds.Meta.Attributes["vertical_source"])
}

func TestBuild_Errors(t *testing.T) {
	table := &ingest.Table{Columns: []*ingest.Column{numeric("TEMP", 1, 2)}}

	_, err := Build(table, header.NewRecord(), seconds(2), dataset.Profile, catalog(t))
	assert.ErrorIs(t, err, ErrMissingVerticalCoordinate)

	_, err = Build(table, header.NewRecord(), seconds(1), dataset.TimeSeries, catalog(t))
	assert.ErrorIs(t, err, ErrShortAxis)

	_, err = Build(table, header.NewRecord(), seconds(2), dataset.Mode("sideways"), catalog(t))
	assert.Error(t, err)
}

func TestBuild_DefaultCatalog(t *testing.T) {
	table := &ingest.Table{Columns: []*ingest.Column{numeric("TEMP", 1)}}
	ds, err := Build(table, header.NewRecord(), seconds(1), dataset.TimeSeries, Options{})
	require.NoError(t, err)
	assert.Equal(t, "int", variable(t, ds, "TIMESERIES").Type)
}
