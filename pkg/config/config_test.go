package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Source.SampleSize != 500 {
		t.Fatalf("expected default sample size 500, got %d", cfg.Source.SampleSize)
	}
	if cfg.Source.Seed != 42 {
		t.Fatalf("expected default seed 42, got %d", cfg.Source.Seed)
	}
	if cfg.Live.Interval != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s live interval, got %v", cfg.Live.Interval)
	}
	if cfg.Live.HistorySize != 200 {
		t.Fatalf("expected history size 200, got %d", cfg.Live.HistorySize)
	}
	if cfg.DB.Driver != DBDriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DB.Driver)
	}
	if cfg.HasWarehouse() {
		t.Fatal("warehouse should be disabled without project and dataset")
	}
	if cfg.Redis.Enabled() {
		t.Fatal("redis should be disabled without url")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvGCPProjectID, "project-123")
	t.Setenv(EnvBigQuerySet, "sales")
	t.Setenv(EnvSourceSample, "50")
	t.Setenv(EnvLiveInterval, "3s")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.HasWarehouse() {
		t.Fatal("expected warehouse to be configured")
	}
	if cfg.Source.SampleSize != 50 {
		t.Fatalf("unexpected sample size %d", cfg.Source.SampleSize)
	}
	if cfg.Live.Interval != 3*time.Second {
		t.Fatalf("unexpected interval %v", cfg.Live.Interval)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis enabled")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv(EnvDBDriver, "mysql")
		if _, err := Load(); err == nil {
			t.Fatal("expected unsupported driver to fail")
		}
	})
	t.Run("sample size", func(t *testing.T) {
		t.Setenv(EnvSourceSample, "0")
		if _, err := Load(); err == nil {
			t.Fatal("expected zero sample size to fail")
		}
	})
	t.Run("seed", func(t *testing.T) {
		t.Setenv(EnvSourceSeed, "not-a-number")
		if _, err := Load(); err == nil {
			t.Fatal("expected unparsable seed to fail")
		}
	})
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
