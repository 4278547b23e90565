package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Object store
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"s3"`
	Bucket         string `envconfig:"S3_BUCKET" required:"true"`
	AuthKeyPrefix  string `envconfig:"AUTH_KEY_PREFIX" default:"authentications/"`
	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// Provider
	FaceProvider string `envconfig:"FACE_PROVIDER" default:"rekognition"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-2"`
	Collection   string `envconfig:"REKOGNITION_COLLECTION" default:"database-faces"`

	// Workflows
	StagingDir         string        `envconfig:"STAGING_DIR"`
	CallTimeout        time.Duration `envconfig:"CALL_TIMEOUT" default:"10s"`
	RetryMaxAttempts   int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitial       time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"200ms"`
	RollbackOnFailure  bool          `envconfig:"ROLLBACK_ON_FAILURE" default:"false"`
	AttributesCacheTTL time.Duration `envconfig:"ATTRIBUTES_CACHE_TTL" default:"1h"`
	CacheCleanup       time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"10m"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ClientConfig configures the interactive command line client.
type ClientConfig struct {
	BaseURL string        `envconfig:"FACEGATE_URL" default:"http://localhost:3000"`
	Timeout time.Duration `envconfig:"CLIENT_TIMEOUT" default:"30s"`
}

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	return &cfg, nil
}
