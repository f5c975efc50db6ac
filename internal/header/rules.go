package header

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/ctdconvert/internal/units"
)

// Env is handed to every handler for one parse.
type Env struct {
	// Casts decides how parsed casts accumulate.
	Casts CastPolicy
	// ScanInterval is the format's raw scan period in seconds.
	ScanInterval float64
}

// Handler converts the captured groups of a matched rule and returns the
// write to apply to the record. A returned error means the captured text
// could not be converted; the line is then treated as unrecognised and the
// record is left untouched.
type Handler func(m []string, env Env) (apply func(*Record), err error)

// Rule pairs a pattern with the handler run when it matches. A rule's
// priority is its position in the table.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  Handler
}

func rule(name, pattern string, h Handler) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Handle: h}
}

// field names a record slot for set-if-absent rules.
type field[T any] struct {
	name string
	get  func(*Record) *T
}

// converter turns the captures of one match into a typed value.
type converter[T any] func(m []string) (T, error)

// set builds a set-if-absent handler: the first rule to populate a field
// wins, even when the value it parsed is zero.
func set[T any](f field[T], conv converter[T]) Handler {
	return func(m []string, _ Env) (func(*Record), error) {
		v, err := conv(m)
		if err != nil {
			return nil, err
		}
		return func(r *Record) {
			if r.claim(f.name) {
				*f.get(r) = v
			}
		}, nil
	}
}

func setString(f field[string], g int) Handler { return set(f, text(g)) }
func setInt(f field[int], g int) Handler       { return set(f, integer(g)) }
func setFloat(f field[float64], g int) Handler { return set(f, float(g)) }

func setTime(f field[time.Time], g int, layouts ...string) Handler {
	return set(f, timestamp(g, layouts))
}

// sampleInterval converts "<value> <unit>" captures into seconds.
func sampleInterval(f field[float64], vg, ug int) Handler {
	return set(f, func(m []string) (float64, error) {
		v, err := strconv.ParseFloat(m[vg], 64)
		if err != nil {
			return 0, fmt.Errorf("parse interval %q: %w", m[vg], err)
		}
		return units.ToSeconds(v, m[ug])
	})
}

// duration converts a clock ("00:00:10") or "<value> <unit>" capture into
// seconds.
func duration(f field[float64], g int) Handler {
	return set(f, func(m []string) (float64, error) {
		return units.ParseDuration(m[g])
	})
}

func text(g int) converter[string] {
	return func(m []string) (string, error) { return strings.TrimSpace(m[g]), nil }
}

func integer(g int) converter[int] {
	return func(m []string) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(m[g]))
		if err != nil {
			return 0, fmt.Errorf("parse int %q: %w", m[g], err)
		}
		return v, nil
	}
}

func float(g int) converter[float64] {
	return func(m []string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(m[g]), 64)
		if err != nil {
			return 0, fmt.Errorf("parse float %q: %w", m[g], err)
		}
		return v, nil
	}
}

func timestamp(g int, layouts []string) converter[time.Time] {
	return func(m []string) (time.Time, error) { return ParseTime(m[g], layouts) }
}

// all converts every capture of the match before any handler writes, so one
// failed conversion leaves the whole line unapplied.
func all(hs ...Handler) Handler {
	return func(m []string, env Env) (func(*Record), error) {
		applies := make([]func(*Record), 0, len(hs))
		for _, h := range hs {
			apply, err := h(m, env)
			if err != nil {
				return nil, err
			}
			applies = append(applies, apply)
		}
		return func(r *Record) {
			for _, apply := range applies {
				apply(r)
			}
		}, nil
	}
}

// appendString builds a handler for repeatable string fields.
func appendString(get func(*Record) *[]string, g int) Handler {
	return func(m []string, _ Env) (func(*Record), error) {
		v := strings.TrimSpace(m[g])
		return func(r *Record) {
			dst := get(r)
			*dst = append(*dst, v)
		}, nil
	}
}

// extra stores the pair captured by groups k and v in the overflow map.
func extra(k, v int) Handler {
	return func(m []string, _ Env) (func(*Record), error) {
		key, value := m[k], strings.TrimSpace(m[v])
		return func(r *Record) { r.setExtra(key, value) }, nil
	}
}

// ParseTime tries each layout in order after collapsing runs of whitespace.
// The first layout that parses wins.
func ParseTime(s string, layouts []string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// Fields shared by the format tables.
var (
	model          = field[string]{"instrument_model", func(r *Record) *string { return &r.InstrumentModel }}
	variant        = field[string]{"model_variant", func(r *Record) *string { return &r.ModelVariant }}
	serial         = field[string]{"serial_no", func(r *Record) *string { return &r.SerialNumber }}
	firmware       = field[string]{"firmware_version", func(r *Record) *string { return &r.FirmwareVersion }}
	loggingMode    = field[string]{"logging_mode", func(r *Record) *string { return &r.LoggingMode }}
	pressureSensor = field[string]{"pressure_sensor", func(r *Record) *string { return &r.PressureSensor }}
	scanAvg        = field[int]{"scan_avg", func(r *Record) *int { return &r.ScanAvg }}
	perSample      = field[int]{"measurements_per_sample", func(r *Record) *int { return &r.MeasurementsPerSample }}
	sampleCount    = field[int]{"sample_count", func(r *Record) *int { return &r.SampleCount }}
	castCount      = field[int]{"cast_count", func(r *Record) *int { return &r.CastCount }}
	numColumns     = field[int]{"num_columns", func(r *Record) *int { return &r.NumColumns }}
	valueCount     = field[int]{"value_count", func(r *Record) *int { return &r.ValueCount }}
	interval       = field[float64]{"sample_interval", func(r *Record) *float64 { return &r.SampleInterval }}
	procInterval   = field[float64]{"interval", func(r *Record) *float64 { return &r.Interval }}
	binSize        = field[float64]{"bin_size", func(r *Record) *float64 { return &r.BinSize }}
	badFlag        = field[*float64]{"bad_flag", func(r *Record) **float64 { return &r.BadFlag }}
	startTime      = field[time.Time]{"start_time", func(r *Record) *time.Time { return &r.StartTime }}
	endTime        = field[time.Time]{"end_time", func(r *Record) *time.Time { return &r.EndTime }}
)

func columns(r *Record) *[]string     { return &r.ColumnNames }
func sensorIDs(r *Record) *[]string   { return &r.SensorIDs }
func sensorTypes(r *Record) *[]string { return &r.SensorTypes }
