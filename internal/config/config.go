package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	FetchTimeout time.Duration
	FetchRetries int
	FetchBackoff time.Duration

	RecentCap int

	// BrowserFallback 为 false 时商务部站点只走静态抓取
	BrowserFallback bool
	BrowserTimeout  time.Duration
}

func Load() *Config {
	cfg := &Config{
		AppPort:         getEnv("APP_PORT", "8000"),
		FetchTimeout:    time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		FetchRetries:    getEnvInt("FETCH_RETRIES", 3),
		FetchBackoff:    time.Duration(getEnvInt("FETCH_BACKOFF_MS", 1000)) * time.Millisecond,
		RecentCap:       getEnvInt("RECENT_CAP", 3),
		BrowserFallback: getEnvBool("BROWSER_FALLBACK", true),
		BrowserTimeout:  time.Duration(getEnvInt("BROWSER_TIMEOUT_SECONDS", 25)) * time.Second,
	}

	log.Printf("config loaded: port=%s timeout=%s retries=%d cap=%d browser=%v",
		cfg.AppPort, cfg.FetchTimeout, cfg.FetchRetries, cfg.RecentCap, cfg.BrowserFallback)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q 不是整数，使用默认值 %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: %s=%q 不是布尔值，使用默认值 %v", key, v, def)
		return def
	}
	return b
}
