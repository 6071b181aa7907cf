package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("unexpected access ttl: %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %s", cfg.RefreshTokenTTL)
	}
	if cfg.ListCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected list cache ttl: %s", cfg.ListCacheTTL)
	}
	if cfg.LoginRateLimitMax != 5 || cfg.LoginRateLimitWindow != 15*time.Minute {
		t.Fatalf("unexpected login limiter: %d/%s", cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("LIST_CACHE_TTL_SECONDS", "60")
	t.Setenv("LIST_CACHE_TTL", "")

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.AccessTokenTTL)
	}
	if cfg.RateLimitMax != 10 {
		t.Fatalf("unexpected rate limit max: %d", cfg.RateLimitMax)
	}
	if cfg.ListCacheTTL != time.Minute {
		t.Fatalf("unexpected list cache ttl: %s", cfg.ListCacheTTL)
	}
}
