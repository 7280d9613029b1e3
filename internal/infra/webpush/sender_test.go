package webpush

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	webpushgo "github.com/SherClockHolmes/webpush-go"

	domainpush "unimate/internal/domain/push"
)

func testSubscription(t *testing.T, endpoint string) domainpush.Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("auth: %v", err)
	}
	return domainpush.Subscription{
		UserID:   "u1",
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
}

func TestSenderMapsStatusCodes(t *testing.T) {
	private, public, err := webpushgo.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("vapid: %v", err)
	}
	cases := []struct {
		name   string
		status int
		want   error
		fails  bool
	}{
		{name: "created", status: http.StatusCreated},
		{name: "gone", status: http.StatusGone, want: domainpush.ErrGone},
		{name: "server error", status: http.StatusInternalServerError, fails: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") == "" {
					t.Errorf("missing vapid authorization header")
				}
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			sender, err := NewSender(public, private, "mailto:ops@unimate.local")
			if err != nil {
				t.Fatalf("sender: %v", err)
			}
			err = sender.Send(context.Background(), testSubscription(t, srv.URL), domainpush.NewMessagePayload("hello"))
			switch {
			case tc.want != nil:
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			case tc.fails:
				if err == nil || errors.Is(err, domainpush.ErrGone) {
					t.Fatalf("expected generic failure, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
			}
		})
	}
}

func TestNewSenderRequiresKeys(t *testing.T) {
	if _, err := NewSender("", "", ""); !errors.Is(err, ErrVapidKeysRequired) {
		t.Fatalf("expected ErrVapidKeysRequired, got %v", err)
	}
}
