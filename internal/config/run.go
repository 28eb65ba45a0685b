package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the checked-in defaults file. The CLI reads it from
// the working directory when no --config is given.
const DefaultConfigPath = "config/run.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// RunConfig holds everything needed to set up an experiment run or the
// API server. Fields left nil fall back to the Get* defaults, so partial
// files are safe. The same schema is accepted as JSON or YAML.
type RunConfig struct {
	// World
	MapFile           *string  `json:"map_file,omitempty" yaml:"map_file,omitempty"`
	GenerateDimension *int     `json:"generate_dimension,omitempty" yaml:"generate_dimension,omitempty"`
	WallFraction      *float64 `json:"wall_fraction,omitempty" yaml:"wall_fraction,omitempty"`

	// Simulation
	Seed       *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	PathLength *int   `json:"path_length,omitempty" yaml:"path_length,omitempty"`

	// Outputs
	DatabasePath *string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
	PlotDir      *string `json:"plot_dir,omitempty" yaml:"plot_dir,omitempty"`
	ReportPath   *string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	LogFile      *string `json:"log_file,omitempty" yaml:"log_file,omitempty"`

	// Server
	Listen *string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// Empty returns a RunConfig with all fields nil.
func Empty() *RunConfig {
	return &RunConfig{}
}

// Defaults returns a RunConfig with every field set to its default.
func Defaults() *RunConfig {
	return &RunConfig{
		MapFile:           ptrString(""),
		GenerateDimension: ptrInt(4),
		WallFraction:      ptrFloat64(0.25),
		Seed:              ptrInt64(0),
		PathLength:        ptrInt(10),
		DatabasePath:      ptrString(""),
		PlotDir:           ptrString(""),
		ReportPath:        ptrString(""),
		LogFile:           ptrString(""),
		Listen:            ptrString(":8080"),
	}
}

// Load reads a RunConfig from a .json, .yaml or .yml file and validates it.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *RunConfig) Validate() error {
	if c.GenerateDimension != nil && *c.GenerateDimension < 1 {
		return fmt.Errorf("generate_dimension must be at least 1, got %d", *c.GenerateDimension)
	}
	if c.WallFraction != nil {
		if *c.WallFraction < 0 || *c.WallFraction >= 1 {
			return fmt.Errorf("wall_fraction must be in [0, 1), got %f", *c.WallFraction)
		}
	}
	if c.PathLength != nil && *c.PathLength < 1 {
		return fmt.Errorf("path_length must be at least 1, got %d", *c.PathLength)
	}
	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	return nil
}

// Merge copies every non-nil field of o over c.
func (c *RunConfig) Merge(o *RunConfig) {
	if o == nil {
		return
	}
	if o.MapFile != nil {
		c.MapFile = o.MapFile
	}
	if o.GenerateDimension != nil {
		c.GenerateDimension = o.GenerateDimension
	}
	if o.WallFraction != nil {
		c.WallFraction = o.WallFraction
	}
	if o.Seed != nil {
		c.Seed = o.Seed
	}
	if o.PathLength != nil {
		c.PathLength = o.PathLength
	}
	if o.DatabasePath != nil {
		c.DatabasePath = o.DatabasePath
	}
	if o.PlotDir != nil {
		c.PlotDir = o.PlotDir
	}
	if o.ReportPath != nil {
		c.ReportPath = o.ReportPath
	}
	if o.LogFile != nil {
		c.LogFile = o.LogFile
	}
	if o.Listen != nil {
		c.Listen = o.Listen
	}
}

// GetMapFile returns the map file path, empty to generate a map.
func (c *RunConfig) GetMapFile() string {
	if c.MapFile == nil {
		return ""
	}
	return *c.MapFile
}

// GetGenerateDimension returns the side length for generated maps.
func (c *RunConfig) GetGenerateDimension() int {
	if c.GenerateDimension == nil {
		return 4 // default
	}
	return *c.GenerateDimension
}

// GetWallFraction returns the wall probability for generated maps.
func (c *RunConfig) GetWallFraction() float64 {
	if c.WallFraction == nil {
		return 0.25 // default
	}
	return *c.WallFraction
}

// GetSeed returns the random seed.
func (c *RunConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetPathLength returns the number of simulated steps.
func (c *RunConfig) GetPathLength() int {
	if c.PathLength == nil {
		return 10 // default
	}
	return *c.PathLength
}

func (c *RunConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

func (c *RunConfig) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}

func (c *RunConfig) GetReportPath() string {
	if c.ReportPath == nil {
		return ""
	}
	return *c.ReportPath
}

func (c *RunConfig) GetLogFile() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}

// GetListen returns the HTTP listen address.
func (c *RunConfig) GetListen() string {
	if c.Listen == nil {
		return ":8080" // default
	}
	return *c.Listen
}
