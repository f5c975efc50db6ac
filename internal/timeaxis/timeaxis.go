// Package timeaxis rebuilds per-sample timestamps for data files that do
// not carry an explicit time column.
package timeaxis

import (
	"math"
	"time"

	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/header"
	"github.com/banshee-data/ctdconvert/internal/ingest"
)

// Source names the evidence a time axis was built from.
type Source string

const (
	// SourceColumn means the data carried its own timestamps.
	SourceColumn Source = "column"
	// SourceCasts means per-cast dates and index ranges were used.
	SourceCasts Source = "casts"
	// SourceUniform means a header start time and sample interval were used.
	SourceUniform Source = "uniform"
	// SourceDefault means nothing in the file dated the samples.
	SourceDefault Source = "default"
)

// LowConfidence reports whether the axis came from configured defaults.
func (s Source) LowConfidence() bool { return s == SourceDefault }

// Options holds the fallbacks used when the header lacks timing information.
type Options struct {
	DefaultStart    time.Time
	DefaultInterval time.Duration
	// BaseScanInterval is the raw scan period multiplied by the scan
	// average count when no sample interval is recorded.
	BaseScanInterval time.Duration
}

// Result is a reconstructed time axis.
type Result struct {
	Axis   dataset.Instants
	Source Source
}

// Reconstruct returns a time axis for n samples. It tries, in order: an
// explicit time column, per-cast index ranges, a uniform start and interval
// from the header, and finally the configured defaults. The axis is never
// shorter than n.
func Reconstruct(rec *header.Record, table *ingest.Table, n int, opts Options) Result {
	if table != nil {
		if col, ok := table.TimeColumn(); ok {
			axis := col.Times
			if len(axis) < n {
				axis = append(append(make(dataset.Instants, 0, n), axis...), make(dataset.Instants, n-len(axis))...)
			}
			return Result{Axis: axis, Source: SourceColumn}
		}
	}

	if ranged := rangedCasts(rec); len(ranged) > 1 {
		return Result{Axis: fromCasts(ranged, n), Source: SourceCasts}
	}

	start, okStart := startTime(rec)
	step, okStep := sampleInterval(rec, opts)
	if okStart && okStep {
		return Result{Axis: uniform(start, step, n), Source: SourceUniform}
	}

	return Result{Axis: uniform(opts.DefaultStart, opts.DefaultInterval, n), Source: SourceDefault}
}

func rangedCasts(rec *header.Record) []header.Cast {
	var out []header.Cast
	for _, c := range rec.Casts {
		if c.HasRange() {
			out = append(out, c)
		}
	}
	return out
}

// fromCasts dates every index covered by a cast. Indices outside all casts
// stay missing.
func fromCasts(casts []header.Cast, n int) dataset.Instants {
	length := n
	for _, c := range casts {
		length = max(length, c.End)
	}
	axis := make(dataset.Instants, length)
	for _, c := range casts {
		step := seconds(c.AvgInterval)
		for i := c.Start; i <= c.End; i++ {
			axis[i-1] = dataset.At(c.Date.Add(time.Duration(i-c.Start) * step))
		}
	}
	return axis
}

func startTime(rec *header.Record) (time.Time, bool) {
	if !rec.StartTime.IsZero() {
		return rec.StartTime, true
	}
	if len(rec.Casts) > 0 && !rec.Casts[0].Date.IsZero() {
		return rec.Casts[0].Date, true
	}
	return time.Time{}, false
}

func sampleInterval(rec *header.Record, opts Options) (time.Duration, bool) {
	switch {
	case rec.Interval > 0:
		return seconds(rec.Interval), true
	case rec.SampleInterval > 0:
		return seconds(rec.SampleInterval), true
	case rec.ScanAvg > 0 && opts.BaseScanInterval > 0:
		return time.Duration(rec.ScanAvg) * opts.BaseScanInterval, true
	}
	return 0, false
}

func uniform(start time.Time, step time.Duration, n int) dataset.Instants {
	axis := make(dataset.Instants, n)
	for i := range axis {
		axis[i] = dataset.At(start.Add(time.Duration(i) * step))
	}
	return axis
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
