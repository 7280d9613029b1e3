package push

import (
	"strings"
	"testing"
)

func TestNewMessagePayload(t *testing.T) {
	p := NewMessagePayload("")
	if p.Body != DefaultMessageBody || p.Title != "New Message" || p.URL != "/messages" {
		t.Fatalf("unexpected payload %+v", p)
	}
	p = NewMessagePayload("hello")
	if p.Body != "hello" {
		t.Fatalf("got %q", p.Body)
	}
	if p := NewMessagePayload(strings.Repeat("b", 50)); p.Body != strings.Repeat("b", 50) {
		t.Fatalf("exactly 50 chars must not be cut: %q", p.Body)
	}
	long := strings.Repeat("a", 80)
	p = NewMessagePayload(long)
	if p.Body != strings.Repeat("a", 50)+"..." {
		t.Fatalf("got %q", p.Body)
	}
}

func TestSubscriptionValidate(t *testing.T) {
	if err := (Subscription{UserID: "u", Endpoint: "e"}).Validate(); err != ErrInvalidSubscription {
		t.Fatalf("expected ErrInvalidSubscription, got %v", err)
	}
	if err := (Subscription{UserID: "u", Endpoint: "e", P256dh: "k", Auth: "a"}).Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
