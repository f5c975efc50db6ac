package ingest

import (
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/fsutil"
	"github.com/banshee-data/ctdconvert/internal/header"
)

func TestReadLines(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("/data/a.cnv", []byte("\xef\xbb\xbf* one\r\n# two\r\n*END*\r\n1 2\r\n"), 0644))
	require.NoError(t, fs.WriteFile("/data/b.cnv", []byte("* one\r# two\r"), 0644))

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte("* one\n# two\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, fs.WriteFile("/data/c.cnv.gz", gz.Bytes(), 0644))

	tests := []struct {
		path string
		want []string
	}{
		{"/data/a.cnv", []string{"* one", "# two", "*END*", "1 2"}},
		{"/data/b.cnv", []string{"* one", "# two"}},
		{"/data/c.cnv.gz", []string{"* one", "# two"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			lines, err := ReadLines(fs, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}

	_, err = ReadLines(fs, "/data/missing.cnv")
	assert.Error(t, err)
}

func TestSplitLines_Empty(t *testing.T) {
	assert.Nil(t, SplitLines(nil))
	assert.Nil(t, SplitLines([]byte("\n")))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    *header.Format
		wantErr bool
	}{
		{"cast.cnv", header.SeaBirdCNV, false},
		{"CAST.CNV.gz", header.SeaBirdCNV, false},
		{"mooring/xr420.dat", header.RBRDat, false},
		{"xr420.txt.bz2", header.RBRDat, false},
		{"notes.csv", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, f)
		})
	}
}

func tokeniseLines(t *testing.T, f *header.Format, lines []string) (*Table, error) {
	t.Helper()
	s, err := header.Split(lines, f)
	require.NoError(t, err)
	rec := header.NewParser(f, nil).ParseSections(s)
	return Tokenise(s, rec, f)
}

func TestTokenise_SeaBird(t *testing.T) {
	lines := []string{
		"* SBE 19plus V 2.3 SERIAL NO. 1234",
		"# name 0 = prdM: Pressure, Strain Gauge [db]",
		"# name 1 = t090C: Temperature [ITS-90, deg C]",
		"# name 2 = t190C: Temperature, 2 [ITS-90, deg C]",
		"# name 3 = c0mS/cm: Conductivity [mS/cm]",
		"# name 4 = v0: Voltage 0",
		"# name 5 = flag:  0.000e+00",
		"# bad_flag = -9.990e-29",
		"*END*",
		"  1.0  20.5  20.6  52.0  0.1  0.0",
		"  2.0  -9.990e-29  20.4  51.0  0.2  0.0",
	}
	table, err := tokeniseLines(t, header.SeaBirdCNV, lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"PRES_REL", "TEMP", "TEMP_2", "CNDC", "V0"}, table.Names())
	assert.Equal(t, 2, table.Len())

	pres, ok := table.Column("PRES_REL")
	require.True(t, ok)
	assert.Equal(t, "prdM", pres.Code)
	assert.Equal(t, "Pressure, Strain Gauge [db]", pres.Comment)
	assert.Equal(t, []float64{1, 2}, pres.Values.Float64s())

	temp, _ := table.Column("TEMP")
	assert.False(t, temp.Values[0].IsMissing())
	assert.True(t, temp.Values[1].IsMissing())

	cndc, _ := table.Column("CNDC")
	assert.InDeltaSlice(t, []float64{5.2, 5.1}, cndc.Values.Float64s(), 1e-12)

	_, hasTime := table.TimeColumn()
	assert.False(t, hasTime)
}

func TestTokenise_SeaBirdTimeCodes(t *testing.T) {
	t.Run("unix seconds", func(t *testing.T) {
		table, err := tokeniseLines(t, header.SeaBirdCNV, []string{
			"# name 0 = timeY: Time, System [seconds]",
			"# name 1 = depSM: Depth [salt water, m]",
			"*END*",
			"1294223778 1.5",
		})
		require.NoError(t, err)
		col, ok := table.TimeColumn()
		require.True(t, ok)
		assert.Equal(t, "TIME", col.Name)
		got, present := col.Times[0].Get()
		require.True(t, present)
		assert.Equal(t, time.Date(2011, time.January, 5, 10, 36, 18, 0, time.UTC), got)
	})

	t.Run("julian days with a start time", func(t *testing.T) {
		table, err := tokeniseLines(t, header.SeaBirdCNV, []string{
			"# name 0 = timeJ: Julian Days",
			"# start_time = Jan 05 2011 10:36:18 [Instrument's time stamp, header]",
			"*END*",
			"5.5",
		})
		require.NoError(t, err)
		col, ok := table.TimeColumn()
		require.True(t, ok)
		got, _ := col.Times[0].Get()
		assert.Equal(t, time.Date(2011, time.January, 5, 12, 0, 0, 0, time.UTC), got)
	})

	t.Run("julian days without a year", func(t *testing.T) {
		table, err := tokeniseLines(t, header.SeaBirdCNV, []string{
			"# name 0 = timeJ: Julian Days",
			"*END*",
			"5.5",
		})
		require.NoError(t, err)
		_, ok := table.TimeColumn()
		assert.False(t, ok)
		assert.Equal(t, []string{"TIMEJ"}, table.Names())
	})
}

func TestTokenise_Errors(t *testing.T) {
	_, err := tokeniseLines(t, header.SeaBirdCNV, []string{
		"# name 0 = prdM: Pressure",
		"# name 1 = t090C: Temperature",
		"*END*",
		"1.0 2.0",
		"1.0",
	})
	assert.ErrorIs(t, err, ErrRaggedRow)

	_, err = tokeniseLines(t, header.SeaBirdCNV, []string{
		"# name 0 = prdM: Pressure",
		"*END*",
		"abc",
	})
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = tokeniseLines(t, header.SeaBirdCNV, []string{"* SBE 19plus V 2.3 SERIAL NO. 1234", "*END*", "1.0"})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestTokenise_RBR(t *testing.T) {
	lines := []string{
		"RBR XR-420 6.43 013431",
		"Sample period 00:00:01",
		"Date & Time  Cond  Temp  Pres  Fluor",
		"08/02/19 08:00:00.000  45.2  12.30  10.20  0.5",
		"08/02/19 08:00:01.000  45.1  12.31  10.25  0.6",
	}
	table, err := tokeniseLines(t, header.RBRDat, lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"TIME", "CNDC", "TEMP", "PRES", "FLUOR"}, table.Names())
	col, ok := table.TimeColumn()
	require.True(t, ok)
	want := dataset.Instants{
		dataset.At(time.Date(2008, time.February, 19, 8, 0, 0, 0, time.UTC)),
		dataset.At(time.Date(2008, time.February, 19, 8, 0, 1, 0, time.UTC)),
	}
	assert.Equal(t, want, col.Times)

	cndc, _ := table.Column("CNDC")
	assert.InDeltaSlice(t, []float64{4.52, 4.51}, cndc.Values.Float64s(), 1e-12)

	_, err = tokeniseLines(t, header.RBRDat, []string{
		"RBR XR-420 6.43 013431",
		"Date & Time  Cond",
		"08/02/19 08:00:00 45.2 1.0",
	})
	assert.ErrorIs(t, err, ErrRaggedRow)

	_, err = tokeniseLines(t, header.RBRDat, []string{
		"Date & Time  Cond",
		"yesterday 08:00:00 45.2",
	})
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestSanitise(t *testing.T) {
	tests := map[string]string{
		"v0":       "V0",
		"c0uS/cm":  "C0US_CM",
		"sigma-é":  "SIGMA",
		"0x":       "V0X",
		"///":      "UNKNOWN",
		"Fluor":    "FLUOR",
		"altM":     "ALTM",
		"scan":     "SCAN",
		"pumps":    "PUMPS",
		"nbin":     "NBIN",
		"wetCDOM":  "WETCDOM",
		"upoly0":   "UPOLY0",
		"latitude": "LATITUDE",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitise(in), in)
	}
}

func TestTable_Add(t *testing.T) {
	table := &Table{}
	table.add(&Column{Name: "TEMP"})
	table.add(&Column{Name: "TEMP"})
	table.add(&Column{Name: "TEMP"})
	assert.Equal(t, []string{"TEMP", "TEMP_2", "TEMP_3"}, table.Names())
	assert.Equal(t, 0, (&Table{}).Len())
}
