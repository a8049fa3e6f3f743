package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment. It is
// built once at startup and passed to the components that need it; nothing
// reads os.Getenv after Load returns.
type Config struct {
	ListenAddr     string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	AuthServiceURL  string
	ServiceToken    string
	AuthTimeout     time.Duration
	StoreTimeout    time.Duration
	DeliveryTimeout time.Duration

	ConnectionRetention time.Duration
	SnapshotInterval    time.Duration
	SnapshotTopN        int

	// R2 object storage for leaderboard snapshots.
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
}

// Load reads .env (if present) and the process environment, applying
// defaults for tunables and failing fast when a required variable is
// missing.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":5300"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		AuthServiceURL:  os.Getenv("AUTH_SERVICE_URL"),
		ServiceToken:    os.Getenv("LEADERBOARD_SERVICE_TOKEN"),
		AuthTimeout:     getDuration("AUTH_TIMEOUT", 10*time.Second),
		StoreTimeout:    getDuration("STORE_TIMEOUT", 5*time.Second),
		DeliveryTimeout: getDuration("DELIVERY_TIMEOUT", 5*time.Second),

		ConnectionRetention: getDuration("CONNECTION_RETENTION", 7*24*time.Hour),
		SnapshotInterval:    getDuration("SNAPSHOT_INTERVAL", time.Hour),
		SnapshotTopN:        getInt("SNAPSHOT_TOP_N", 10),

		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
	}

	required := map[string]string{
		"DATABASE_URL":              cfg.DatabaseURL,
		"AUTH_SERVICE_URL":          cfg.AuthServiceURL,
		"LEADERBOARD_SERVICE_TOKEN": cfg.ServiceToken,
	}
	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// SnapshotsEnabled reports whether R2 snapshot publishing is configured.
func (c *Config) SnapshotsEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %s", name, v, fallback)
		return fallback
	}
	return d
}

func getInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using default %d", name, v, fallback)
		return fallback
	}
	return n
}
