package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ctdconvert/internal/dataset"
)

// Conversion statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Conversion is one row of the conversions table.
type Conversion struct {
	ID                string
	SourcePath        string
	Format            string
	Mode              string
	FeatureType       string
	Instrument        string
	SerialNumber      string
	CastCount         int
	SampleCount       int
	TimeSource        string
	LowConfidenceTime bool
	TimeStart         *time.Time
	TimeEnd           *time.Time
	Status            string
	Stage             string
	Error             string
	CreatedAt         time.Time
}

func (c *Conversion) String() string {
	if c.Status == StatusFailed {
		return fmt.Sprintf("%s %s failed at %s: %s", c.ID, c.SourcePath, c.Stage, c.Error)
	}
	return fmt.Sprintf("%s %s %s %s samples=%d time=%s", c.ID, c.SourcePath, c.Format, c.Mode, c.SampleCount, c.TimeSource)
}

// VariableSummary describes one variable of a recorded conversion.
type VariableSummary struct {
	Name          string
	Type          string
	Dimensions    []string
	ValidCount    int
	Min           *float64
	Max           *float64
	Mean          *float64
	AppliedOffset *float64
}

// Failure describes a file that could not be converted.
type Failure struct {
	SourcePath string
	Format     string
	Mode       string
	Stage      string
	Err        error
	At         time.Time
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordConversion stores a converted dataset and a summary of each of its
// variables.
func (db *DB) RecordConversion(ds *dataset.Dataset) error {
	id := ds.ID
	if id == "" {
		id = uuid.New().String()
	}
	m := ds.Meta

	var instrument, serial string
	var casts int
	if m.Header != nil {
		instrument = m.Header.Instrument()
		serial = m.Header.SerialNumber
		casts = len(m.Header.Casts)
	}
	start, end := timeRange(ds)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conversions (
			conversion_id, source_path, format, mode, feature_type, instrument, serial_no,
			cast_count, sample_count, time_source, low_confidence_time, time_start, time_end,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.SourceFile, m.Format, string(m.Mode), m.FeatureType, instrument, serial,
		casts, m.Samples, m.TimeSource, m.LowConfidenceTime, start, end,
		StatusOK, m.DateCreated.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	for i := range ds.Variables {
		v := &ds.Variables[i]
		s := summarise(ds, v)
		_, err := tx.Exec(`
			INSERT INTO conversion_variables (
				conversion_id, ordinal, name, type, dimensions, valid_count,
				min_value, max_value, mean_value, applied_offset
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, s.Name, s.Type, strings.Join(s.Dimensions, " "), s.ValidCount,
			s.Min, s.Max, s.Mean, s.AppliedOffset,
		)
		if err != nil {
			return fmt.Errorf("failed to insert variable %s: %w", v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversion: %w", err)
	}
	return nil
}

// RecordFailure stores a failed conversion and returns its id.
func (db *DB) RecordFailure(f Failure) (string, error) {
	id := uuid.New().String()
	at := f.At
	if at.IsZero() {
		at = time.Now()
	}
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}

	_, err := db.Exec(`
		INSERT INTO conversions (conversion_id, source_path, format, mode, status, stage, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.SourcePath, f.Format, f.Mode, StatusFailed, f.Stage, msg, at.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert failure: %w", err)
	}
	return id, nil
}

// Conversions returns the most recent conversions, newest first. A limit
// of zero or less returns every row.
func (db *DB) Conversions(limit int) ([]Conversion, error) {
	query := `
		SELECT conversion_id, source_path, format, mode, feature_type, instrument, serial_no,
			cast_count, sample_count, time_source, low_confidence_time, time_start, time_end,
			status, stage, error, created_at
		FROM conversions
		ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		var format, mode, feature, instrument, serial, source, stage, msg sql.NullString
		var start, end sql.NullString
		var created string
		if err := rows.Scan(
			&c.ID, &c.SourcePath, &format, &mode, &feature, &instrument, &serial,
			&c.CastCount, &c.SampleCount, &source, &c.LowConfidenceTime, &start, &end,
			&c.Status, &stage, &msg, &created,
		); err != nil {
			return nil, err
		}
		c.Format, c.Mode, c.FeatureType = format.String, mode.String, feature.String
		c.Instrument, c.SerialNumber, c.TimeSource = instrument.String, serial.String, source.String
		c.Stage, c.Error = stage.String, msg.String
		c.TimeStart = parseTime(start)
		c.TimeEnd = parseTime(end)
		if t, err := time.Parse(timeLayout, created); err == nil {
			c.CreatedAt = t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Variables returns the variable summaries recorded for a conversion, in
// dataset order.
func (db *DB) Variables(conversionID string) ([]VariableSummary, error) {
	rows, err := db.Query(`
		SELECT name, type, dimensions, valid_count, min_value, max_value, mean_value, applied_offset
		FROM conversion_variables
		WHERE conversion_id = ?
		ORDER BY ordinal`, conversionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VariableSummary
	for rows.Next() {
		var s VariableSummary
		var typ, dims sql.NullString
		var lo, hi, mean, off sql.NullFloat64
		if err := rows.Scan(&s.Name, &typ, &dims, &s.ValidCount, &lo, &hi, &mean, &off); err != nil {
			return nil, err
		}
		s.Type = typ.String
		if dims.String != "" {
			s.Dimensions = strings.Fields(dims.String)
		}
		s.Min, s.Max, s.Mean, s.AppliedOffset = nullFloat(lo), nullFloat(hi), nullFloat(mean), nullFloat(off)
		out = append(out, s)
	}
	return out, rows.Err()
}

// summarise computes the catalog statistics for a numeric variable.
// Non-numeric variables only report how many entries are present.
func summarise(ds *dataset.Dataset, v *dataset.Variable) VariableSummary {
	s := VariableSummary{
		Name:          v.Name,
		Type:          v.Type,
		Dimensions:    ds.DimensionNames(v),
		AppliedOffset: v.AppliedOffset,
	}

	var valid []float64
	switch data := v.Data.(type) {
	case dataset.Values:
		valid = data.Valid()
	case *dataset.Grid:
		valid = dataset.Values(data.Data).Valid()
	case dataset.Ints:
		valid = make([]float64, len(data))
		for i, x := range data {
			valid[i] = float64(x)
		}
	case dataset.Instants:
		for _, t := range data {
			if !t.IsMissing() {
				s.ValidCount++
			}
		}
		return s
	case dataset.Labels:
		for _, l := range data {
			if l != "" {
				s.ValidCount++
			}
		}
		return s
	}

	s.ValidCount = len(valid)
	if len(valid) == 0 {
		return s
	}
	lo, hi, mean := floats.Min(valid), floats.Max(valid), stat.Mean(valid, nil)
	s.Min, s.Max, s.Mean = &lo, &hi, &mean
	return s
}

// timeRange finds the first and last timestamps of the dataset, from the
// TIME dimension or the TIME variable.
func timeRange(ds *dataset.Dataset) (start, end sql.NullString) {
	var axis dataset.Instants
	if i, ok := ds.Dimension("TIME"); ok {
		axis, _ = ds.Dimensions[i].Data.(dataset.Instants)
	} else if v, ok := ds.Variable("TIME"); ok {
		axis, _ = v.Data.(dataset.Instants)
	}

	for _, inst := range axis {
		t, ok := inst.Get()
		if !ok {
			continue
		}
		if !start.Valid {
			start = sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
		}
		end = sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
	}
	return start, end
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
