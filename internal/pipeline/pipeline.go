// Package pipeline converts one instrument file into a dataset by running
// the read, split, parse, tokenise, time and layout stages in order.
package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/banshee-data/ctdconvert/internal/config"
	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/fsutil"
	"github.com/banshee-data/ctdconvert/internal/header"
	"github.com/banshee-data/ctdconvert/internal/ingest"
	"github.com/banshee-data/ctdconvert/internal/monitoring"
	"github.com/banshee-data/ctdconvert/internal/normalise"
	"github.com/banshee-data/ctdconvert/internal/params"
	"github.com/banshee-data/ctdconvert/internal/security"
	"github.com/banshee-data/ctdconvert/internal/timeaxis"
	"github.com/banshee-data/ctdconvert/internal/timeutil"
	"github.com/banshee-data/ctdconvert/internal/version"
)

// Stage names reported in errors.
const (
	StageRead     = "read"
	StageDetect   = "detect"
	StageSplit    = "split"
	StageTokenise = "tokenise"
	StageBuild    = "build"
)

// Error attaches the failing file and stage to a conversion error.
type Error struct {
	File  string
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Converter holds what a conversion needs besides the file itself. It is
// safe to share between goroutines.
type Converter struct {
	FS      fsutil.FileSystem
	Catalog *params.Catalog
	Clock   timeutil.Clock
	Config  *config.Config
}

// NewConverter returns a converter on the local filesystem. The parameter
// catalog comes from cfg's params_path, or the embedded catalog.
func NewConverter(cfg *config.Config) (*Converter, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	fs := fsutil.OSFileSystem{}

	var cat *params.Catalog
	var err error
	if p := cfg.GetParamsPath(); p != "" {
		cat, err = params.LoadFile(fs, p)
	} else {
		cat, err = params.Default()
	}
	if err != nil {
		return nil, err
	}
	return &Converter{FS: fs, Catalog: cat, Clock: timeutil.RealClock{}, Config: cfg}, nil
}

// Convert reads path and lays it out for mode. A nil format is detected
// from the file extension. No dataset is returned on error.
func (c *Converter) Convert(path string, mode dataset.Mode, format *header.Format) (*dataset.Dataset, error) {
	started := c.Clock.Now()
	fail := func(stage string, err error) (*dataset.Dataset, error) {
		return nil, &Error{File: path, Stage: stage, Err: err}
	}

	if format == nil {
		f, err := ingest.DetectFormat(path)
		if err != nil {
			return fail(StageDetect, err)
		}
		format = f
	}

	lines, err := ingest.ReadLines(c.FS, path)
	if err != nil {
		return fail(StageRead, err)
	}

	sections, err := header.Split(lines, format)
	if err != nil {
		return fail(StageSplit, err)
	}

	rec := header.NewParser(format, castPolicy(mode)).ParseSections(sections)

	table, err := ingest.Tokenise(sections, rec, format)
	if err != nil {
		return fail(StageTokenise, err)
	}

	n := table.Len()
	axis := timeaxis.Reconstruct(rec, table, n, c.timeOptions())

	ds, err := normalise.Build(table, rec, axis.Axis, mode, normalise.Options{Catalog: c.Catalog})
	if err != nil {
		return fail(StageBuild, err)
	}

	ds.ID = uuid.New().String()
	ds.Meta.SourceFile = path
	ds.Meta.Format = format.Name
	ds.Meta.TimeSource = string(axis.Source)
	ds.Meta.LowConfidenceTime = axis.Source.LowConfidence()
	ds.Meta.Samples = n
	ds.Meta.DateCreated = c.Clock.Now().UTC()
	ds.Meta.ToolVersion = version.Version

	if ds.Meta.LowConfidenceTime {
		monitoring.Warnf("%s: no timing information in header, timestamps start at %s every %s",
			path, c.config().GetDefaultStartTime().Format("2006-01-02T15:04:05Z"), c.config().GetDefaultInterval())
	}
	monitoring.Logf("converted %s (%s, %s): %d samples, %d variables, time from %s in %s",
		path, format.Name, mode, n, len(ds.Variables), axis.Source, c.Clock.Since(started))
	return ds, nil
}

func (c *Converter) config() *config.Config {
	if c.Config == nil {
		return config.Empty()
	}
	return c.Config
}

func (c *Converter) timeOptions() timeaxis.Options {
	cfg := c.config()
	return timeaxis.Options{
		DefaultStart:     cfg.GetDefaultStartTime(),
		DefaultInterval:  cfg.GetDefaultInterval(),
		BaseScanInterval: cfg.GetBaseScanInterval(),
	}
}

// castPolicy keeps one cast per file for moorings, which repeat the cast
// line, and every distinct cast for profiles.
func castPolicy(mode dataset.Mode) header.CastPolicy {
	if mode == dataset.TimeSeries {
		return header.FirstCast
	}
	return header.DistinctCasts
}

// WriteJSON writes ds as indented JSON into dir, named after the source
// file, and returns the path written.
func (c *Converter) WriteJSON(ds *dataset.Dataset, dir string) (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", ds.Meta.SourceFile, err)
	}
	if err := c.FS.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := OutputPath(dir, ds.Meta.SourceFile, ".json")
	if err != nil {
		return "", err
	}
	if err := c.FS.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}

// OutputName derives an output file name from a source path, dropping its
// data and compression extensions.
func OutputName(source, ext string) string {
	base := filepath.Base(source)
	dataExt, compression := ingest.DetectType(base)
	if compression != "" {
		base = base[:len(base)-len(filepath.Ext(base))]
	}
	base = base[:len(base)-len(dataExt)]
	return security.SanitizeFilename(base) + ext
}

// OutputPath places the output for source in dir and checks that it does
// not escape dir.
func OutputPath(dir, source, ext string) (string, error) {
	out := filepath.Join(dir, OutputName(source, ext))
	if err := security.ValidatePathWithinDirectory(out, dir); err != nil {
		return "", err
	}
	return out, nil
}
