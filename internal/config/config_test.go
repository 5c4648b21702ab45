package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "8000"); got != "8000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8000")
	}

	// 环境变量设置后，应优先返回环境变量
	if err := os.Setenv(key, "9090"); err != nil {
		t.Fatalf("Setenv error: %v", err)
	}
	defer os.Unsetenv(key)
	if got := getEnv(key, "8000"); got != "9090" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9090")
	}
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	const key = "TEST_FETCH_RETRIES"

	_ = os.Setenv(key, "not-a-number")
	defer os.Unsetenv(key)
	if got := getEnvInt(key, 3); got != 3 {
		t.Fatalf("getEnvInt(%q) = %d, want 3", key, got)
	}

	_ = os.Setenv(key, "5")
	if got := getEnvInt(key, 3); got != 5 {
		t.Fatalf("getEnvInt(%q) = %d, want 5", key, got)
	}
}

func TestLoadReadsFetchSettings(t *testing.T) {
	_ = os.Setenv("APP_PORT", "1234")
	_ = os.Setenv("FETCH_TIMEOUT_SECONDS", "7")
	_ = os.Setenv("RECENT_CAP", "5")
	_ = os.Setenv("BROWSER_FALLBACK", "false")
	defer func() {
		_ = os.Unsetenv("APP_PORT")
		_ = os.Unsetenv("FETCH_TIMEOUT_SECONDS")
		_ = os.Unsetenv("RECENT_CAP")
		_ = os.Unsetenv("BROWSER_FALLBACK")
	}()

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.FetchTimeout != 7*time.Second {
		t.Fatalf("FetchTimeout = %v, want 7s", cfg.FetchTimeout)
	}
	if cfg.RecentCap != 5 {
		t.Fatalf("RecentCap = %d, want 5", cfg.RecentCap)
	}
	if cfg.BrowserFallback {
		t.Fatalf("BrowserFallback = true, want false")
	}
}
