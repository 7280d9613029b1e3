package kafka

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(nil, nil); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
}

func TestProducerDefaults(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.ClientID = "unimate-test"
	applyProducerDefaults(cfg)
	if !cfg.Producer.Idempotent || cfg.Producer.RequiredAcks != sarama.WaitForAll || cfg.Net.MaxOpenRequests != 1 {
		t.Fatalf("idempotent delivery settings missing: %+v", cfg.Producer)
	}
	if cfg.ClientID != "unimate-test" {
		t.Fatalf("caller settings must be kept")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
}

func TestRecordHeadersSorted(t *testing.T) {
	hs := recordHeaders(map[string]string{"ce-type": "b", "ce-id": "a", "content-type": "c"})
	want := []string{"ce-id", "ce-type", "content-type"}
	for i, h := range hs {
		if string(h.Key) != want[i] {
			t.Fatalf("header %d = %s, want %s", i, h.Key, want[i])
		}
	}
}
