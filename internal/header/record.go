package header

import (
	"sort"
	"strings"
	"time"
)

// Cast is one deployment recorded by the instrument. Start and End are
// 1-based, inclusive sample indices.
type Cast struct {
	Number int       `json:"number"`
	Date   time.Time `json:"date"`
	Start  int       `json:"start"`
	End    int       `json:"end"`
	// AvgInterval is the spacing between samples of this cast in seconds.
	AvgInterval float64 `json:"avg_interval"`
}

// HasRange reports whether the cast names an explicit index range.
func (c Cast) HasRange() bool { return c.Start > 0 && c.End >= c.Start }

// Record is the structured result of parsing the header sections of one
// file. Zero values mean "not present in the header".
type Record struct {
	InstrumentModel string `json:"instrument_model,omitempty"`
	ModelVariant    string `json:"model_variant,omitempty"`
	SerialNumber    string `json:"serial_no,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`

	LoggingMode    string `json:"logging_mode,omitempty"`
	PressureSensor string `json:"pressure_sensor,omitempty"`

	ScanAvg               int `json:"scan_avg,omitempty"`
	MeasurementsPerSample int `json:"measurements_per_sample,omitempty"`
	SampleCount           int `json:"sample_count,omitempty"`
	CastCount             int `json:"cast_count,omitempty"`
	// SampleInterval is in seconds.
	SampleInterval float64 `json:"sample_interval,omitempty"`

	StartTime time.Time `json:"start_time,omitzero"`
	EndTime   time.Time `json:"end_time,omitzero"`

	Casts []Cast `json:"casts,omitempty"`

	// Processed section.
	ColumnNames []string `json:"column_names,omitempty"`
	NumColumns  int      `json:"num_columns,omitempty"`
	ValueCount  int      `json:"value_count,omitempty"`
	BadFlag     *float64 `json:"bad_flag,omitempty"`
	BinSize     float64  `json:"bin_size,omitempty"`
	// Interval is the processed sample interval in seconds.
	Interval float64 `json:"interval,omitempty"`

	SensorIDs   []string `json:"sensor_ids,omitempty"`
	SensorTypes []string `json:"sensor_types,omitempty"`

	// Extra holds name=value pairs no specific rule claimed.
	Extra map[string]string `json:"extra,omitempty"`

	// populated names the fields a rule has already set.
	populated map[string]bool
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{Extra: make(map[string]string), populated: make(map[string]bool)}
}

// claim marks the named field as populated and reports whether it was still
// free.
func (r *Record) claim(name string) bool {
	if r.populated == nil {
		r.populated = make(map[string]bool)
	}
	if r.populated[name] {
		return false
	}
	r.populated[name] = true
	return true
}

// Instrument joins the model and its variant for display.
func (r *Record) Instrument() string {
	return strings.TrimSpace(r.InstrumentModel + " " + r.ModelVariant)
}

// setExtra stores a free-form pair unless the key is already present.
func (r *Record) setExtra(key, value string) {
	key = normaliseKey(key)
	if key == "" {
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	if _, ok := r.Extra[key]; ok {
		return
	}
	r.Extra[key] = value
}

func normaliseKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.Join(strings.Fields(k), "_")
}

// CastPolicy decides how a newly parsed cast joins the casts already
// recorded and returns the updated list.
type CastPolicy func(casts []Cast, c Cast) []Cast

// FirstCast keeps only the first cast seen. Time-series files repeat the
// cast line for the same deployment.
func FirstCast(casts []Cast, c Cast) []Cast {
	if len(casts) > 0 {
		return casts
	}
	return append(casts, c)
}

// DistinctCasts keeps every distinct cast, ordered by start index.
func DistinctCasts(casts []Cast, c Cast) []Cast {
	for _, existing := range casts {
		if existing.Number == c.Number && existing.Start == c.Start &&
			existing.End == c.End && existing.Date.Equal(c.Date) {
			return casts
		}
	}
	casts = append(casts, c)
	sort.SliceStable(casts, func(i, j int) bool { return casts[i].Start < casts[j].Start })
	return casts
}
