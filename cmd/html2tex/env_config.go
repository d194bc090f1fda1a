package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-html2tex/internal/config"
)

const envPrefix = "HTML2TEX_"

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // HTML2TEX_CONFIG: config file name or path
	OutputDir  string        // HTML2TEX_OUTPUT_DIR: default output directory
	Font       string        // HTML2TEX_FONT: Arabic main font
	Engine     string        // HTML2TEX_ENGINE: xelatex or lualatex
	Timeout    time.Duration // HTML2TEX_TIMEOUT: per-attempt compile timeout
	Workers    int           // HTML2TEX_WORKERS: parallel conversions
	LogLevel   string        // HTML2TEX_LOG_LEVEL: debug, info, warning, error
}

// knownEnvVars lists valid HTML2TEX_* environment variables.
var knownEnvVars = map[string]bool{
	"HTML2TEX_CONFIG":     true,
	"HTML2TEX_OUTPUT_DIR": true,
	"HTML2TEX_FONT":       true,
	"HTML2TEX_ENGINE":     true,
	"HTML2TEX_TIMEOUT":    true,
	"HTML2TEX_WORKERS":    true,
	"HTML2TEX_LOG_LEVEL":  true,
}

// loadEnvConfig reads the recognized HTML2TEX_* variables.
// Unparseable durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("HTML2TEX_CONFIG"),
		OutputDir:  getenv("HTML2TEX_OUTPUT_DIR"),
		Font:       getenv("HTML2TEX_FONT"),
		Engine:     getenv("HTML2TEX_ENGINE"),
		LogLevel:   getenv("HTML2TEX_LOG_LEVEL"),
	}

	if timeout := getenv("HTML2TEX_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := getenv("HTML2TEX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars reports HTML2TEX_* variables that are not recognized.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config file values with set environment values.
// CLI flags are merged afterwards and win over both.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Font != "" {
		cfg.Fonts.Main = env.Font
	}
	if env.Engine != "" {
		cfg.Compile.Engine = env.Engine
	}
	if env.Timeout > 0 {
		cfg.Compile.Timeout = env.Timeout
	}
	if env.Workers > 0 {
		cfg.Runtime.MaxWorkers = env.Workers
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}
