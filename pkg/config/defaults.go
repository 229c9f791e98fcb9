package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/fields"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/vtk"
)

// Defaults
const (
	DefaultInputDir      = "_output"
	DefaultOutputDir     = "_vtk"
	DefaultStatsDir      = "_stats"
	DefaultTimeIncrement = 300.0
	DefaultRESTPort      = 8080
)

// Environment variables that override the configuration file
const (
	EnvInputDir       = "AMRVTK_INPUT_DIR"
	EnvOutputDir      = "AMRVTK_OUTPUT_DIR"
	EnvStatsDir       = "AMRVTK_STATS_DIR"
	EnvSQLitePath     = "AMRVTK_SQLITE_PATH"
	EnvTimescaleDBURL = "AMRVTK_TIMESCALEDB_URL"
)

// Default returns the configuration used when no file is given.
func Default() *ConfigData {
	return &ConfigData{
		InputDir:  DefaultInputDir,
		OutputDir: DefaultOutputDir,
		StatsDir:  DefaultStatsDir,
		Conversion: ConversionData{
			DryTolerance:  fields.DefaultDryTolerance,
			TimeIncrement: DefaultTimeIncrement,
			Resample:      string(fields.Duplicate),
			Encoding:      string(vtk.ASCII),
			Arrays:        append([]string(nil), fields.DefaultArrays...),
			Prefix:        vtk.DefaultPrefix,
			ManifestName:  vtk.DefaultCollectionName,
			Workers:       1,
		},
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *ConfigData) ApplyEnvOverrides() {
	if v := os.Getenv(EnvInputDir); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvStatsDir); v != "" {
		c.StatsDir = v
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.Storage.SQLite = &SQLiteData{Path: v}
	}
	if v := os.Getenv(EnvTimescaleDBURL); v != "" {
		c.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: v}
	}
}

// Validate checks the configuration as a whole.
func (c *ConfigData) Validate() error {
	for name, dir := range map[string]string{"input_dir": c.InputDir, "output_dir": c.OutputDir, "stats_dir": c.StatsDir} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	cv := c.Conversion
	if math.IsNaN(cv.DryTolerance) || math.IsInf(cv.DryTolerance, 0) || cv.DryTolerance < 0 {
		return fmt.Errorf("dry_tolerance must be a finite value >= 0, got %v", cv.DryTolerance)
	}
	if math.IsNaN(cv.TimeIncrement) || math.IsInf(cv.TimeIncrement, 0) || cv.TimeIncrement <= 0 {
		return fmt.Errorf("time_increment must be a finite value > 0, got %v", cv.TimeIncrement)
	}
	if math.IsNaN(cv.SeaLevel) || math.IsInf(cv.SeaLevel, 0) {
		return fmt.Errorf("sea_level must be finite, got %v", cv.SeaLevel)
	}
	if _, err := fields.ParseStrategy(cv.Resample); err != nil {
		return err
	}
	if _, err := vtk.ParseEncoding(cv.Encoding); err != nil {
		return err
	}
	if err := fields.ValidateArrays(cv.Arrays); err != nil {
		return err
	}
	if cv.Prefix == "" || filepath.Base(cv.Prefix) != cv.Prefix {
		return fmt.Errorf("prefix %q must be a plain filename prefix", cv.Prefix)
	}
	if filepath.Base(cv.ManifestName) != cv.ManifestName || filepath.Ext(cv.ManifestName) != ".pvd" {
		return fmt.Errorf("manifest_name %q must be a plain .pvd filename", cv.ManifestName)
	}
	if cv.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cv.Workers)
	}

	if c.Storage.SQLite != nil && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path must not be empty")
	}
	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection_string must not be empty")
	}
	if c.REST != nil && (c.REST.Port < 1 || c.REST.Port > 65535) {
		return fmt.Errorf("rest.port %d out of range", c.REST.Port)
	}
	return nil
}
