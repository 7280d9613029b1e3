package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config aggregates application configuration values loaded from environment variables.
// Empty MongoURI, ScyllaHosts or KafkaBrokers select the in-memory adapters.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB" envDefault:"unimate"`

	ScyllaHosts             []string      `env:"SCYLLA_HOSTS" envSeparator:","`
	ScyllaKeyspace          string        `env:"SCYLLA_KEYSPACE" envDefault:"unimate"`
	ScyllaUsername          string        `env:"SCYLLA_USERNAME"`
	ScyllaPassword          string        `env:"SCYLLA_PASSWORD"`
	ScyllaConsistency       string        `env:"SCYLLA_CONSISTENCY" envDefault:"quorum"`
	ScyllaTimeout           time.Duration `env:"SCYLLA_TIMEOUT" envDefault:"5s"`
	ScyllaReplicationFactor int           `env:"SCYLLA_REPLICATION_FACTOR" envDefault:"1"`

	KafkaBrokers       []string        `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix   string          `env:"KAFKA_TOPIC_PREFIX"`
	KafkaGroupID       string          `env:"KAFKA_GROUP_ID" envDefault:"unimate-push-notify"`
	IdempotencyTTL     time.Duration   `env:"IDEMP_TTL" envDefault:"168h"`
	OutboxPollInterval time.Duration   `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	RetryBackoff       []time.Duration `env:"RETRY_BACKOFF" envSeparator:"," envDefault:"1s,5s,30s"`

	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3PublicEndpoint string `env:"S3_PUBLIC_ENDPOINT"`
	S3AccessKey      string `env:"S3_ACCESS_KEY" envDefault:"minioadmin"`
	S3SecretKey      string `env:"S3_SECRET_KEY" envDefault:"minioadmin"`
	S3UseSSL         bool   `env:"S3_USE_SSL" envDefault:"false"`
	S3ListingBucket  string `env:"S3_LISTING_BUCKET" envDefault:"listing-media"`
	S3ChatBucket     string `env:"S3_CHAT_BUCKET" envDefault:"chat-media"`

	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	AuthJWTIssuer string `env:"AUTH_JWT_ISSUER"`

	VapidPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VapidPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VapidSubject    string `env:"VAPID_SUBJECT" envDefault:"mailto:support@unimate.local"`

	CleanupBatchSize  int  `env:"CLEANUP_BATCH_SIZE" envDefault:"100"`
	StudentEmailCheck bool `env:"STUDENT_EMAIL_CHECK" envDefault:"false"`
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.ScyllaHosts = compact(cfg.ScyllaHosts)
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}
	if cfg.CleanupBatchSize <= 0 {
		return Config{}, fmt.Errorf("config: CLEANUP_BATCH_SIZE must be positive")
	}
	if cfg.ScyllaReplicationFactor <= 0 {
		return Config{}, fmt.Errorf("config: SCYLLA_REPLICATION_FACTOR must be positive")
	}
	return cfg, nil
}

// Dev reports whether the process runs in a local environment.
func (c Config) Dev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "local":
		return true
	}
	return false
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
