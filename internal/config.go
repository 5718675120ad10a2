package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tferro/esmcat/internal/catalog"
	"github.com/tferro/esmcat/internal/parse"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Sources SourcesConfig     `yaml:"sources"`
	Parse   ParseConfig       `yaml:"parse"`
	Output  OutputConfig      `yaml:"output"`
	Watch   WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Sources.Validate(); err != nil {
		return err
	}
	if err := c.Parse.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceRoot describes one crawl starting point.
type SourceRoot struct {
	Path    string   `yaml:"path"`
	Depth   int      `yaml:"depth"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Validate validates a single source root.
func (c *SourceRoot) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Depth, validation.Min(0)),
	)
}

// SourcesConfig holds the directory trees to crawl.
type SourcesConfig struct {
	Roots []SourceRoot `yaml:"roots"`
}

// Validate validates the sources configuration.
func (c *SourcesConfig) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("sources: at least one root is required")
	}
	for i := range c.Roots {
		if err := c.Roots[i].Validate(); err != nil {
			return fmt.Errorf("sources: root %d: %w", i, err)
		}
	}
	return nil
}

// ParseConfig holds metadata extraction configuration.
type ParseConfig struct {
	// Parser names a registered parser; see the parsers package.
	Parser    string `yaml:"parser"`
	Jobs      int    `yaml:"jobs"`
	BatchSize int    `yaml:"batch_size"`
}

// Validate validates the parse configuration.
func (c *ParseConfig) Validate() error {
	if c.Parser == "" {
		c.Parser = "default"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Jobs, validation.Min(0)),
		validation.Field(&c.BatchSize, validation.Min(0)),
	)
}

// Options returns the executor options for this configuration.
func (c *ParseConfig) Options() parse.Options {
	return parse.Options{Jobs: c.Jobs, BatchSize: c.BatchSize}
}

// OutputConfig holds catalog persistence configuration.
type OutputConfig struct {
	Directory      string `yaml:"directory"`
	Name           string `yaml:"name"`
	PathColumn     string `yaml:"path_column"`
	VariableColumn string `yaml:"variable_column"`
	// Exactly one of DataFormat and FormatColumn must be set.
	DataFormat    string                `yaml:"data_format"`
	FormatColumn  string                `yaml:"format_column"`
	GroupbyAttrs  []string              `yaml:"groupby_attrs"`
	Aggregations  []catalog.Aggregation `yaml:"aggregations"`
	ID            string                `yaml:"id"`
	Description   string                `yaml:"description"`
	AbsolutePaths bool                  `yaml:"absolute_paths"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Directory, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.PathColumn, validation.Required),
		validation.Field(&c.VariableColumn, validation.Required),
	); err != nil {
		return err
	}
	if (c.DataFormat == "") == (c.FormatColumn == "") {
		return fmt.Errorf("output: exactly one of data_format and format_column must be set")
	}
	return nil
}

// CatalogFile returns the path of the persisted CSV table.
func (c *OutputConfig) CatalogFile() string {
	return filepath.Join(c.Directory, c.Name+".csv")
}

// SaveOptions maps the output configuration onto writer options.
func (c *OutputConfig) SaveOptions() catalog.SaveOptions {
	return catalog.SaveOptions{
		CatalogFile:         c.CatalogFile(),
		PathColumn:          c.PathColumn,
		VariableColumn:      c.VariableColumn,
		DataFormat:          c.DataFormat,
		FormatColumn:        c.FormatColumn,
		GroupbyAttrs:        c.GroupbyAttrs,
		Aggregations:        c.Aggregations,
		ID:                  c.ID,
		Description:         c.Description,
		AbsoluteCatalogFile: c.AbsolutePaths,
	}
}

// WatchConfig holds filesystem watch configuration for serve mode.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DebounceMS, validation.Min(0)),
	)
}

// Debounce returns the settle interval before a watched change triggers an
// update.
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Parse: ParseConfig{
			Parser:    "default",
			BatchSize: parse.DefaultBatchSize,
		},
		Output: OutputConfig{
			Directory:      ".",
			Name:           "catalog",
			PathColumn:     "path",
			VariableColumn: "variable",
			DataFormat:     catalog.FormatNetCDF,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: 500,
		},
	}
}
