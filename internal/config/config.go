package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // SPINNER_DATABASE_URL (required; "memory://" = in-process store)
	GRPCAddr    string // SPINNER_GRPC_ADDR (default ":9090")
	HTTPAddr    string // SPINNER_HTTP_ADDR (default ":8080")
	NATSURL     string // SPINNER_NATS_URL (optional, empty = no events)
	AuthToken   string // SPINNER_AUTH_TOKEN (optional, empty = auth disabled)

	// AnalyticsLocation buckets peak hours (SPINNER_ANALYTICS_TZ, default "UTC").
	AnalyticsLocation *time.Location

	// Export settings
	SyncInterval   time.Duration // SPINNER_SYNC_INTERVAL (default 1h; 0 = disabled)
	SyncS3Bucket   string        // SPINNER_SYNC_S3_BUCKET (enables export when set)
	SyncS3Endpoint string        // SPINNER_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // SPINNER_SYNC_S3_REGION (default "us-east-1")
	SyncS3Prefix   string        // SPINNER_SYNC_S3_PREFIX (default "spinner/history")
}

// MemoryDatabaseURL selects the in-process store instead of PostgreSQL.
const MemoryDatabaseURL = "memory://"

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("SPINNER_DATABASE_URL"),
		GRPCAddr:       envOrDefault("SPINNER_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("SPINNER_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("SPINNER_NATS_URL"),
		AuthToken:      os.Getenv("SPINNER_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("SPINNER_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("SPINNER_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("SPINNER_SYNC_S3_REGION", "us-east-1"),
		SyncS3Prefix:   envOrDefault("SPINNER_SYNC_S3_PREFIX", "spinner/history"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("SPINNER_DATABASE_URL is required")
	}

	loc, err := time.LoadLocation(envOrDefault("SPINNER_ANALYTICS_TZ", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("SPINNER_ANALYTICS_TZ: %w", err)
	}
	c.AnalyticsLocation = loc

	intervalStr := envOrDefault("SPINNER_SYNC_INTERVAL", "1h")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("SPINNER_SYNC_INTERVAL: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("SPINNER_SYNC_INTERVAL: must not be negative, got %s", d)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
