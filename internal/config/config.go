package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisAddr   string

	// MediaRoot is the security boundary: every scan location must resolve
	// under it, symlinks included.
	MediaRoot string

	JWTSecret string
	JWTExpiry time.Duration

	// EncryptionKey protects Plex tokens at rest.
	EncryptionKey string

	PlexClientID    string
	PlexProduct     string
	PlexVersion     string
	PlexServerURL   string
	PlexRateLimit   float64
	FFprobePath     string
	MKVPropeditPath string

	// ScanSchedule is a cron expression for periodic rescans; empty disables them.
	ScanSchedule string
	WatchEnabled bool

	CORSOrigins []string
}

func Load() *Config {
	return &Config{
		Port:            envInt("PORT", 8070),
		DatabaseURL:     env("DATABASE_URL", "postgres://trackhound:trackhound@db:5432/trackhound?sslmode=disable"),
		RedisAddr:       env("REDIS_ADDR", "redis:6379"),
		MediaRoot:       env("MEDIA_ROOT", "/media"),
		JWTSecret:       env("JWT_SECRET", "change-me-in-production"),
		JWTExpiry:       time.Duration(envInt("JWT_EXPIRY_MINUTES", 60*24*7)) * time.Minute,
		EncryptionKey:   env("ENCRYPTION_KEY", "change-me-in-production"),
		PlexClientID:    env("PLEX_CLIENT_IDENTIFIER", "trackhound"),
		PlexProduct:     env("PLEX_PRODUCT", "TrackHound"),
		PlexVersion:     env("PLEX_VERSION", "1.0.0"),
		PlexServerURL:   env("PLEX_SERVER_URL", ""),
		PlexRateLimit:   envFloat("PLEX_RATE_LIMIT", 5),
		FFprobePath:     env("FFPROBE_PATH", "ffprobe"),
		MKVPropeditPath: env("MKVPROPEDIT_PATH", "mkvpropedit"),
		ScanSchedule:    env("SCAN_SCHEDULE", "0 3 * * *"),
		WatchEnabled:    envBool("WATCH_ENABLED", true),
		CORSOrigins:     envList("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := env(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
