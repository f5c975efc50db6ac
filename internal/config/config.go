package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/ctdconvert/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/ctdconvert.defaults.json"

// Default values used when a field is absent from the JSON.
const (
	DefaultStartTime        = "1970-01-01T00:00:00Z"
	DefaultInterval         = time.Second
	DefaultBaseScanInterval = 250 * time.Millisecond
	DefaultMode             = "profile"
	DefaultCatalogPath      = "ctdconvert.db"
	DefaultPlotVariable     = "TEMP"
	DefaultWorkers          = 4
)

// Config holds conversion settings. Every field is optional; the Get*
// methods supply defaults for fields left out of the file.
type Config struct {
	// Fallback time axis for files whose header dates nothing.
	DefaultStartTime *string `json:"default_start_time,omitempty"` // RFC 3339
	DefaultInterval  *string `json:"default_interval,omitempty"`   // duration string like "1s"

	// BaseScanInterval is the raw instrument scan period, multiplied by the
	// header's scan average count when no sample interval is recorded.
	BaseScanInterval *string `json:"base_scan_interval,omitempty"`

	Mode         *string `json:"mode,omitempty"`
	CatalogPath  *string `json:"catalog_path,omitempty"`
	ParamsPath   *string `json:"params_path,omitempty"`
	PlotVariable *string `json:"plot_variable,omitempty"`
	Workers      *int    `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Defaults returns a Config with every field set to its default.
func Defaults() *Config {
	return &Config{
		DefaultStartTime: ptrString(DefaultStartTime),
		DefaultInterval:  ptrString(DefaultInterval.String()),
		BaseScanInterval: ptrString(DefaultBaseScanInterval.String()),
		Mode:             ptrString(DefaultMode),
		CatalogPath:      ptrString(DefaultCatalogPath),
		PlotVariable:     ptrString(DefaultPlotVariable),
		Workers:          ptrInt(DefaultWorkers),
	}
}

// Load reads a Config from a JSON file.
// The file must have a .json extension and be under the max file size.
// Fields omitted from the JSON file keep their defaults, so partial
// configs are safe.
func Load(path string) (*Config, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values parse.
func (c *Config) Validate() error {
	if c.DefaultStartTime != nil && *c.DefaultStartTime != "" {
		if _, err := time.Parse(time.RFC3339, *c.DefaultStartTime); err != nil {
			return fmt.Errorf("invalid default_start_time '%s': %w", *c.DefaultStartTime, err)
		}
	}

	for name, v := range map[string]*string{
		"default_interval":   c.DefaultInterval,
		"base_scan_interval": c.BaseScanInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	if c.Mode != nil && *c.Mode != "" && *c.Mode != "profile" && *c.Mode != "timeseries" {
		return fmt.Errorf("mode must be profile or timeseries, got %q", *c.Mode)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetDefaultStartTime returns the fallback start of the time axis.
func (c *Config) GetDefaultStartTime() time.Time {
	def, _ := time.Parse(time.RFC3339, DefaultStartTime)
	if c.DefaultStartTime == nil || *c.DefaultStartTime == "" {
		return def
	}
	t, err := time.Parse(time.RFC3339, *c.DefaultStartTime)
	if err != nil {
		return def
	}
	return t.UTC()
}

// GetDefaultInterval returns the fallback sample spacing.
func (c *Config) GetDefaultInterval() time.Duration {
	return durationOr(c.DefaultInterval, DefaultInterval)
}

// GetBaseScanInterval returns the raw scan period.
func (c *Config) GetBaseScanInterval() time.Duration {
	return durationOr(c.BaseScanInterval, DefaultBaseScanInterval)
}

// GetMode returns the configured layout mode.
func (c *Config) GetMode() string {
	if c.Mode == nil || *c.Mode == "" {
		return DefaultMode
	}
	return *c.Mode
}

// GetCatalogPath returns the SQLite catalog path.
func (c *Config) GetCatalogPath() string {
	if c.CatalogPath == nil || *c.CatalogPath == "" {
		return DefaultCatalogPath
	}
	return *c.CatalogPath
}

// GetParamsPath returns the parameter catalog override, empty for the
// embedded catalog.
func (c *Config) GetParamsPath() string {
	if c.ParamsPath == nil {
		return ""
	}
	return *c.ParamsPath
}

// GetPlotVariable returns the variable drawn in quick-look plots.
func (c *Config) GetPlotVariable() string {
	if c.PlotVariable == nil || *c.PlotVariable == "" {
		return DefaultPlotVariable
	}
	return *c.PlotVariable
}

// GetWorkers returns how many files are converted at once.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
