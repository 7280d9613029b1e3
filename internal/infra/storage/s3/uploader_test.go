package s3

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestObjectURLRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		base string
		key  string
	}{
		{"plain", "http://localhost:9000", "listing-1/abc.jpg"},
		{"trailing slash", "https://cdn.example.com/", "chat/u1/1700000000000.mp4"},
		{"leading slash key", "http://minio:9000", "/x/y.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := objectURL(tc.base, "listing-media", tc.key)
			key, ok := keyOf(tc.base, "listing-media", u)
			if !ok || key != strings.TrimLeft(tc.key, "/") {
				t.Fatalf("url %s gave key %q ok=%v", u, key, ok)
			}
		})
	}
	if _, ok := keyOf("http://minio:9000", "listing-media", "http://minio:9000/chat-media/a.png"); ok {
		t.Fatalf("other bucket must not match")
	}
}

func TestNewClientValidatesOptions(t *testing.T) {
	if _, err := NewClient(Options{Bucket: "b"}, nil); err == nil {
		t.Fatalf("expected endpoint error")
	}
	if _, err := NewClient(Options{Endpoint: "http://localhost:9000"}, nil); err == nil {
		t.Fatalf("expected bucket error")
	}
	c, err := NewClient(Options{Endpoint: "http://localhost:9000", Bucket: "chat-media"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Remove(context.Background(), "https://elsewhere/x.png"); !errors.Is(err, ErrForeignURL) {
		t.Fatalf("expected ErrForeignURL, got %v", err)
	}
}

func TestNoopUploader(t *testing.T) {
	if _, err := (NoopUploader{}).Upload(context.Background(), "k", strings.NewReader("x"), 1, "image/png"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
