package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/rigbuild/internal/report"
)

// ErrBuildFailed is returned by Run in strict mode when any job failed.
var ErrBuildFailed = errors.New("build failed")

var (
	logFormats = []string{"text", "json"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths []string // manifest files, directories or patterns

	LogFormat string
	LogLevel  string

	// Stages restricts and orders the stages to run. Empty runs every
	// stage in manifest order.
	Stages []string

	ReportFormat    string
	ReportURL       string // socket.io endpoint; empty disables publishing
	ReportNamespace string

	// Strict makes Run return ErrBuildFailed when the report has errors.
	Strict bool
	// Inspect prints the namespace tree after the report.
	Inspect bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one manifest path is required")
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	cfg.ReportFormat = strings.ToLower(cfg.ReportFormat)
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = report.FormatTable
	}
	if !slices.Contains(report.Formats, cfg.ReportFormat) {
		return nil, fmt.Errorf("invalid report-format %q: must be one of %s", cfg.ReportFormat, strings.Join(report.Formats, ", "))
	}

	return &cfg, nil
}
