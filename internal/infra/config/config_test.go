package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("KAFKA_BROKERS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.MongoDB != "unimate" || cfg.CleanupBatchSize != 100 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.KafkaBrokers != nil || cfg.MongoURI != "" {
		t.Fatalf("adapters should default to memory, got %+v", cfg)
	}
	want := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	if len(cfg.RetryBackoff) != len(want) {
		t.Fatalf("retry backoff %v", cfg.RetryBackoff)
	}
	for i := range want {
		if cfg.RetryBackoff[i] != want[i] {
			t.Fatalf("retry backoff %v", cfg.RetryBackoff)
		}
	}
	if !cfg.Dev() {
		t.Fatalf("default env should be dev")
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SCYLLA_HOSTS", "s1")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("APP_ENV", "prod")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers %q", cfg.KafkaBrokers)
	}
	if len(cfg.ScyllaHosts) != 1 || cfg.S3PublicEndpoint != "http://minio:9000" || cfg.Dev() {
		t.Fatalf("unexpected %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"CLEANUP_BATCH_SIZE":   "0",
		"OUTBOX_POLL_INTERVAL": "soon",
		"STUDENT_EMAIL_CHECK":  "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
