package timeaxis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/header"
	"github.com/banshee-data/ctdconvert/internal/ingest"
)

var (
	epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	t0    = time.Date(2011, time.January, 5, 10, 0, 0, 0, time.UTC)

	defaults = Options{DefaultStart: epoch, DefaultInterval: time.Second, BaseScanInterval: 250 * time.Millisecond}
)

func instant(t *testing.T, axis dataset.Instants, i int) time.Time {
	t.Helper()
	v, ok := axis[i].Get()
	require.True(t, ok, "index %d missing", i)
	return v
}

func TestReconstruct_TimeColumnIsIdentity(t *testing.T) {
	times := dataset.Instants{dataset.At(t0), dataset.NoTime(), dataset.At(t0.Add(time.Minute))}
	table := &ingest.Table{Columns: []*ingest.Column{
		{Name: "TEMP", Kind: ingest.Numeric, Values: dataset.Values{dataset.Float(1), dataset.Float(2), dataset.Float(3)}},
		{Name: "TIME", Kind: ingest.Time, Times: times},
	}}
	rec := header.NewRecord()
	rec.StartTime = epoch
	rec.SampleInterval = 10

	got := Reconstruct(rec, table, 3, defaults)
	assert.Equal(t, SourceColumn, got.Source)
	assert.Equal(t, times, got.Axis)
	assert.False(t, got.Source.LowConfidence())
}

func TestReconstruct_DisjointCasts(t *testing.T) {
	rec := header.NewRecord()
	rec.Casts = []header.Cast{
		{Number: 1, Date: t0, Start: 1, End: 3, AvgInterval: 0.5},
		{Number: 2, Date: t0.Add(time.Hour), Start: 5, End: 7, AvgInterval: 0.5},
	}

	got := Reconstruct(rec, &ingest.Table{}, 7, defaults)
	require.Equal(t, SourceCasts, got.Source)
	require.Len(t, got.Axis, 7)

	assert.True(t, got.Axis[3].IsMissing())
	assert.Equal(t, t0, instant(t, got.Axis, 0))
	assert.Equal(t, t0.Add(500*time.Millisecond), instant(t, got.Axis, 1))
	assert.Equal(t, t0.Add(time.Second), instant(t, got.Axis, 2))
	assert.Equal(t, t0.Add(time.Hour), instant(t, got.Axis, 4))
	assert.Equal(t, t0.Add(time.Hour+time.Second), instant(t, got.Axis, 6))
}

func TestReconstruct_CastsNeverShorterThanN(t *testing.T) {
	rec := header.NewRecord()
	rec.Casts = []header.Cast{
		{Number: 1, Date: t0, Start: 1, End: 2, AvgInterval: 1},
		{Number: 2, Date: t0, Start: 3, End: 4, AvgInterval: 1},
	}
	got := Reconstruct(rec, nil, 10, defaults)
	require.Len(t, got.Axis, 10)
	for i := 4; i < 10; i++ {
		assert.True(t, got.Axis[i].IsMissing())
	}

	// A cast running past the data extends the axis.
	rec.Casts[1].End = 12
	got = Reconstruct(rec, nil, 10, defaults)
	assert.Len(t, got.Axis, 12)
}

func TestReconstruct_Uniform(t *testing.T) {
	tests := []struct {
		name string
		rec  func(*header.Record)
		step time.Duration
	}{
		{
			name: "processed interval wins",
			rec: func(r *header.Record) {
				r.StartTime = t0
				r.Interval = 0.5
				r.SampleInterval = 10
			},
			step: 500 * time.Millisecond,
		},
		{
			name: "sample interval",
			rec: func(r *header.Record) {
				r.StartTime = t0
				r.SampleInterval = 10
				r.ScanAvg = 4
			},
			step: 10 * time.Second,
		},
		{
			name: "scan average times base scan",
			rec: func(r *header.Record) {
				r.StartTime = t0
				r.ScanAvg = 4
			},
			step: time.Second,
		},
		{
			name: "single cast date as start",
			rec: func(r *header.Record) {
				r.Casts = []header.Cast{{Number: 1, Date: t0, Start: 1, End: 100, AvgInterval: 0.25}}
				r.ScanAvg = 1
			},
			step: 250 * time.Millisecond,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := header.NewRecord()
			tt.rec(rec)
			got := Reconstruct(rec, nil, 4, defaults)
			require.Equal(t, SourceUniform, got.Source)
			require.Len(t, got.Axis, 4)
			for i := range got.Axis {
				assert.Equal(t, t0.Add(time.Duration(i)*tt.step), instant(t, got.Axis, i))
			}
		})
	}
}

func TestReconstruct_Default(t *testing.T) {
	tests := []struct {
		name string
		rec  func(*header.Record)
	}{
		{"empty header", func(*header.Record) {}},
		{"start without interval", func(r *header.Record) { r.StartTime = t0 }},
		{"interval without start", func(r *header.Record) { r.SampleInterval = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := header.NewRecord()
			tt.rec(rec)
			got := Reconstruct(rec, nil, 3, defaults)
			assert.Equal(t, SourceDefault, got.Source)
			assert.True(t, got.Source.LowConfidence())
			require.Len(t, got.Axis, 3)
			assert.Equal(t, epoch.Add(2*time.Second), instant(t, got.Axis, 2))
		})
	}
}

func TestReconstruct_ZeroSamples(t *testing.T) {
	got := Reconstruct(header.NewRecord(), nil, 0, defaults)
	assert.Empty(t, got.Axis)
}
