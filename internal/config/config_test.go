package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("default port: %q", cfg.Port)
	}
	if cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: mode=%q level=%q", cfg.GinMode, cfg.LogLevel)
	}
	if cfg.ListingPath != "/dashboard/invoices" {
		t.Fatalf("default listing path: %q", cfg.ListingPath)
	}
	if cfg.PageSize != 20 || cfg.MaxPageSize != 100 {
		t.Fatalf("default page sizes: %d/%d", cfg.PageSize, cfg.MaxPageSize)
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LISTING_PATH", "dashboard/invoices/")
	t.Setenv("READ_TIMEOUT", "25s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test , https://b.test,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Fatalf("port override: %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("unknown gin mode must normalize to release: %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("warning must normalize to warn: %q", cfg.LogLevel)
	}
	if cfg.ListingPath != "/dashboard/invoices" {
		t.Fatalf("listing path must normalize: %q", cfg.ListingPath)
	}
	if cfg.ReadTimeout != 25*time.Second {
		t.Fatalf("read timeout override: %v", cfg.ReadTimeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.test" {
		t.Fatalf("CORS origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		k, v string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"zero read timeout", "READ_TIMEOUT", "0s"},
		{"bad header bytes", "MAX_HEADER_BYTES", "0"},
		{"bad page size", "PAGE_SIZE", "0"},
		{"max below default page size", "MAX_PAGE_SIZE", "5"},
		{"negative rps", "RATE_RPS", "-1"},
		{"zero burst", "RATE_BURST", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.k, tc.v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tc.k, tc.v)
			}
		})
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "nope")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustLoad()
}
