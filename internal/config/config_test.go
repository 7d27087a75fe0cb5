package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANALYSIS_URL", "")
	t.Setenv("ANALYSIS_TIMEOUT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("WEB_ANALYSIS_RATE_PER_MINUTE", "")

	cfg := Load()

	if cfg.Analysis.Timeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %s", cfg.Analysis.Timeout)
	}
	if cfg.Analysis.MaxImageSize != 0 {
		t.Errorf("expected resize disabled by default, got %d", cfg.Analysis.MaxImageSize)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Web.AnalysisRatePerMinute != 10 {
		t.Errorf("expected rate 10, got %d", cfg.Web.AnalysisRatePerMinute)
	}
	if cfg.Database.MaxOpenConns != 25 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("unexpected pool defaults: %+v", cfg.Database)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("ANALYSIS_URL", "https://analysis.example.com/phase-two")
	t.Setenv("ANALYSIS_TIMEOUT", "15s")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := Load()

	if cfg.Analysis.URL != "https://analysis.example.com/phase-two" {
		t.Errorf("unexpected URL %q", cfg.Analysis.URL)
	}
	if cfg.Analysis.Timeout != 15*time.Second {
		t.Errorf("expected 15s, got %s", cfg.Analysis.Timeout)
	}
	if cfg.Storage.Backend != "redis" {
		t.Errorf("expected backend to be lower-cased, got %q", cfg.Storage.Backend)
	}
	if len(cfg.Web.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ANALYSIS_TIMEOUT", "soon")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "-3")
	t.Setenv("ANALYSIS_MAX_IMAGE_SIZE", "big")

	cfg := Load()

	if cfg.Analysis.Timeout != 60*time.Second {
		t.Errorf("expected fallback timeout, got %s", cfg.Analysis.Timeout)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected fallback 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Analysis.MaxImageSize != 0 {
		t.Errorf("expected fallback 0, got %d", cfg.Analysis.MaxImageSize)
	}
}

func TestFlow_Navigation(t *testing.T) {
	cfg := Load()

	tests := []struct {
		step string
		back string
		next string
	}{
		{"introduce", "/", "/analysis/city"},
		{"city", "/analysis/introduce", "/analysis/permissions"},
		{"permissions", "/analysis/city", "/analysis/image"},
		{"image", "/analysis/permissions", "/analysis/demographics"},
		{"selfie", "/analysis/image", "/analysis/demographics"},
		{"demographics", "/analysis/image", "/summary"},
		{"summary", "/analysis/demographics", "/"},
	}

	for _, tc := range tests {
		t.Run(tc.step, func(t *testing.T) {
			if got := cfg.Flow.BackPath(tc.step); got != tc.back {
				t.Errorf("BackPath(%s) = %s, want %s", tc.step, got, tc.back)
			}
			if got := cfg.Flow.NextPath(tc.step); got != tc.next {
				t.Errorf("NextPath(%s) = %s, want %s", tc.step, got, tc.next)
			}
		})
	}
}

func TestFlow_UnknownStep(t *testing.T) {
	cfg := Load()

	if _, ok := cfg.Flow.Step("nope"); ok {
		t.Error("expected unknown step to be missing")
	}
	if got := cfg.Flow.BackPath("nope"); got != "/" {
		t.Errorf("expected / for unknown step, got %s", got)
	}
}

func TestFlow_ValidateRejectsDanglingReference(t *testing.T) {
	flow := FlowConfig{Steps: []Step{{ID: "a", Path: "/a", Next: "missing"}}}
	if err := flow.validate(); err == nil {
		t.Error("expected error for dangling reference")
	}
}
