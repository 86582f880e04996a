package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/PenroseTiles/amplification/internal/config"
	"github.com/PenroseTiles/amplification/internal/profiling"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestNewLogConfig(t *testing.T) {
	v := viper.New()
	v.Set("fields", []string{"loss", "acc"})
	v.Set("log-path", "runs/exp1")
	v.Set("step-field", "epoch")
	v.Set("rate-limit", 10.0)
	v.Set("cpu-profile", "cpu.prof")

	cfg, err := config.NewLogConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := &config.LogConfig{
		Fields:    []string{"loss", "acc"},
		LogPath:   filepath.Join(wd, "runs", "exp1"),
		StepField: "epoch",
		RateLimit: 10,
		Profiles:  profiling.Profiles{CPU: "cpu.prof"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLogConfigDefaults(t *testing.T) {
	cfg, err := config.NewLogConfig(viper.New())
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(cfg.RateLimit, 1) {
		t.Errorf("RateLimit = %v, want +Inf", cfg.RateLimit)
	}
	if cfg.LogPath != "" || len(cfg.Fields) != 0 || cfg.StepField != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestNewLogConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"DuplicateField", "fields", []string{"a", "a"}},
		{"EmptyField", "fields", []string{""}},
		{"ZeroRate", "rate-limit", 0.0},
		{"NegativeRate", "rate-limit", -1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			if _, err := config.NewLogConfig(v); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEventDir(t *testing.T) {
	dir := t.TempDir()
	got, err := config.EventDir(dir, "events")
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("EventDir() = %q, want %q", got, dir)
	}

	sub := filepath.Join(dir, "events")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "events.out.tfevents.1.host"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = config.EventDir(dir, "events")
	if err != nil {
		t.Fatal(err)
	}
	if got != sub {
		t.Errorf("EventDir() = %q, want %q", got, sub)
	}
}
