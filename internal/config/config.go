// Package config turns command line flags, environment variables and config files,
// collected by viper, into typed configuration for the commands.
package config

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/PenroseTiles/amplification/internal/profiling"
	"github.com/spf13/viper"
)

// LogConfig holds the configuration of the log command.
type LogConfig struct {
	// Fields selects and orders the fields to log. Empty means all fields.
	Fields []string
	// LogPath is the absolute directory below which the events directory is created.
	// Empty disables the event log.
	LogPath string
	// StepField names the record entry that holds the step.
	StepField string
	// Input is the file to read records from. Empty or "-" means stdin.
	Input string
	// JSONOutput is a file that receives every event as JSON (optional).
	JSONOutput string
	// MetricsAddr is the address to serve Prometheus metrics on (optional).
	MetricsAddr string
	// RateLimit is the maximum number of records logged per second.
	RateLimit float64
	// Profiles holds the output paths of the profilers to run.
	Profiles profiling.Profiles
}

// NewLogConfig reads the log command configuration from v.
func NewLogConfig(v *viper.Viper) (*LogConfig, error) {
	cfg := &LogConfig{
		Fields:      v.GetStringSlice("fields"),
		LogPath:     v.GetString("log-path"),
		StepField:   v.GetString("step-field"),
		Input:       v.GetString("input"),
		JSONOutput:  v.GetString("json-output"),
		MetricsAddr: v.GetString("metrics-addr"),
		RateLimit:   v.GetFloat64("rate-limit"),
		Profiles: profiling.Profiles{
			CPU:    v.GetString("cpu-profile"),
			Mem:    v.GetString("mem-profile"),
			Trace:  v.GetString("trace"),
			FgProf: v.GetString("fgprof-profile"),
		},
	}

	if !v.IsSet("rate-limit") {
		cfg.RateLimit = math.Inf(1)
	}
	if cfg.RateLimit <= 0 || math.IsNaN(cfg.RateLimit) {
		return nil, fmt.Errorf("rate-limit must be positive, got %v", cfg.RateLimit)
	}

	seen := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f == "" {
			return nil, fmt.Errorf("empty field name in fields")
		}
		if seen[f] {
			return nil, fmt.Errorf("field %q listed more than once", f)
		}
		seen[f] = true
	}

	if cfg.LogPath != "" {
		var err error
		cfg.LogPath, err = filepath.Abs(cfg.LogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		}
	}
	return cfg, nil
}

// EventDir returns the directory holding event files for a path given on the command line.
// If path contains an events directory with event files, that directory is used.
func EventDir(path, eventsDir string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %v", err)
	}
	sub := filepath.Join(abs, eventsDir)
	if matches, _ := filepath.Glob(filepath.Join(sub, "*.tfevents.*")); len(matches) > 0 {
		return sub, nil
	}
	return abs, nil
}
