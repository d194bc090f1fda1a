package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

// AppDir is the directory under the user config dir searched for configs.
const AppDir = "go-html2tex"

// MaxInputSize limits YAML input to prevent memory exhaustion (1MB).
const MaxInputSize = 1 << 20

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file too large")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field limits.
const (
	MaxPathLength = 4096
	MaxFontLength = 100
	MaxURLLength  = 2048
	MaxWorkers    = 64
	MaxRetries    = 10
)

// Engines accepted for compile.engine.
var Engines = []string{"xelatex", "lualatex"}

// LogLevels accepted for log.level.
var LogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Config holds all configuration for a conversion run.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Images  ImagesConfig  `yaml:"images"`
	Fonts   FontsConfig   `yaml:"fonts"`
	Emoji   EmojiConfig   `yaml:"emoji"`
	Compile CompileConfig `yaml:"compile"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = next to the input
}

// LogConfig defines logging options.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warning, error
	File  bool   `yaml:"file"`  // write <output>.conversion.log
}

// ImagesConfig defines image post-processing options.
type ImagesConfig struct {
	Optimize     bool `yaml:"optimize"`
	Quality      int  `yaml:"quality"`      // JPEG quality, 1-100
	MaxDimension int  `yaml:"maxDimension"` // pixels, longest side
}

// FontsConfig defines the Arabic main font.
type FontsConfig struct {
	Main string `yaml:"main"`
}

// EmojiConfig defines emoji image fetching.
type EmojiConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"` // must contain %s for the code points
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
}

// CompileConfig defines the TeX engine run.
type CompileConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Engine      string        `yaml:"engine"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	ShellEscape bool          `yaml:"shellEscape"`
	KeepAux     bool          `yaml:"keepAux"`
}

// RuntimeConfig defines process-level limits.
type RuntimeConfig struct {
	MemoryLimitMB int `yaml:"memoryLimit"` // 0 = no limit
	MaxWorkers    int `yaml:"maxWorkers"`  // 0 = auto
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", File: true},
		Images: ImagesConfig{Optimize: true, Quality: 85, MaxDimension: 2000},
		Fonts:  FontsConfig{Main: "Amiri"},
		Emoji: EmojiConfig{
			Enabled: true,
			URL:     "https://cdnjs.cloudflare.com/ajax/libs/twemoji/14.0.2/72x72/%s.png",
			Retries: 3,
			Backoff: 2 * time.Second,
		},
		Compile: CompileConfig{
			Enabled: true,
			Engine:  "xelatex",
			Timeout: 5 * time.Minute,
			Retries: 3,
		},
		Runtime: RuntimeConfig{MaxWorkers: 4},
	}
}

// Validate checks ranges and enumerations.
// Called automatically by LoadConfig, but available for callers that build
// a Config by hand.
func (c *Config) Validate() error {
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if c.Log.Level != "" && !contains(LogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%w: log.level %q (must be one of %s)", ErrInvalidValue, c.Log.Level, strings.Join(LogLevels, ", "))
	}

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("%w: images.quality must be between 1 and 100, got %d", ErrInvalidValue, c.Images.Quality)
	}
	if c.Images.MaxDimension < 0 {
		return fmt.Errorf("%w: images.maxDimension must not be negative, got %d", ErrInvalidValue, c.Images.MaxDimension)
	}

	if err := validateFieldLength("fonts.main", c.Fonts.Main, MaxFontLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.Fonts.Main, `{}\%`) {
		return fmt.Errorf("%w: fonts.main %q contains LaTeX special characters", ErrInvalidValue, c.Fonts.Main)
	}

	if err := validateFieldLength("emoji.url", c.Emoji.URL, MaxURLLength); err != nil {
		return err
	}
	if c.Emoji.Enabled {
		if c.Emoji.URL != "" && strings.Count(c.Emoji.URL, "%s") != 1 {
			return fmt.Errorf("%w: emoji.url must contain exactly one %%s", ErrInvalidValue)
		}
		if c.Emoji.Retries < 1 || c.Emoji.Retries > MaxRetries {
			return fmt.Errorf("%w: emoji.retries must be between 1 and %d, got %d", ErrInvalidValue, MaxRetries, c.Emoji.Retries)
		}
		if c.Emoji.Backoff < 0 {
			return fmt.Errorf("%w: emoji.backoff must not be negative", ErrInvalidValue)
		}
	}

	if c.Compile.Enabled {
		if !contains(Engines, c.Compile.Engine) {
			return fmt.Errorf("%w: compile.engine %q (must be one of %s)", ErrInvalidValue, c.Compile.Engine, strings.Join(Engines, ", "))
		}
		if c.Compile.Retries < 1 || c.Compile.Retries > MaxRetries {
			return fmt.Errorf("%w: compile.retries must be between 1 and %d, got %d", ErrInvalidValue, MaxRetries, c.Compile.Retries)
		}
		if c.Compile.Timeout < 0 {
			return fmt.Errorf("%w: compile.timeout must not be negative", ErrInvalidValue)
		}
	}

	if c.Runtime.MemoryLimitMB < 0 {
		return fmt.Errorf("%w: runtime.memoryLimit must not be negative, got %d", ErrInvalidValue, c.Runtime.MemoryLimitMB)
	}
	if c.Runtime.MaxWorkers < 0 || c.Runtime.MaxWorkers > MaxWorkers {
		return fmt.Errorf("%w: runtime.maxWorkers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Runtime.MaxWorkers)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig in strict mode (unknown keys are
// rejected) and validates the result.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxInputSize)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
// Tries extensions .yaml then .yml, in the current directory and then in
// the user config directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
