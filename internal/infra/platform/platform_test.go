package platform

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"unimate/internal/app/uow"
	"unimate/internal/infra/config"
	"unimate/internal/infra/storage/memory"
	"unimate/internal/infra/storage/s3"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.Config{}, discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(ctx)

	if _, ok := s.Factory.(memory.Factory); !ok {
		t.Fatalf("expected memory factory, got %T", s.Factory)
	}
	if s.Memory == nil || s.Outbox != s.Memory || s.Queue != nil {
		t.Fatalf("expected in-process outbox")
	}
	if len(s.Probes) != 0 {
		t.Fatalf("memory stores need no readiness probes, got %v", s.Probes)
	}
	unit, err := s.Factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if unit.Listings() != s.Listings || unit.PushSubscriptions() != s.Push {
		t.Fatalf("stores must share repositories with the unit of work")
	}
}

func TestUploadersWithoutEndpoint(t *testing.T) {
	listing, chat, err := Uploaders(config.Config{}, discardLogger())
	if err != nil {
		t.Fatalf("uploaders: %v", err)
	}
	if _, ok := listing.(s3.NoopUploader); !ok {
		t.Fatalf("listing uploader %T", listing)
	}
	if _, ok := chat.(s3.NoopUploader); !ok {
		t.Fatalf("chat uploader %T", chat)
	}
}
