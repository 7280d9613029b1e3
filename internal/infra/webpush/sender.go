// Package webpush delivers notifications with VAPID-signed Web Push requests.
package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpushgo "github.com/SherClockHolmes/webpush-go"

	domainpush "unimate/internal/domain/push"
)

var ErrVapidKeysRequired = errors.New("webpush: vapid keys are required")

const defaultTTL = 24 * time.Hour

type Sender struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        time.Duration
	HTTPClient *http.Client
}

func NewSender(publicKey, privateKey, subject string) (*Sender, error) {
	if publicKey == "" || privateKey == "" {
		return nil, ErrVapidKeysRequired
	}
	return &Sender{PublicKey: publicKey, PrivateKey: privateKey, Subject: subject, TTL: defaultTTL}, nil
}

// Send returns domainpush.ErrGone when the push service answers 410.
func (s *Sender) Send(ctx context.Context, sub domainpush.Subscription, payload domainpush.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	opts := &webpushgo.Options{
		Subscriber:      s.Subject,
		VAPIDPublicKey:  s.PublicKey,
		VAPIDPrivateKey: s.PrivateKey,
		TTL:             int(ttl.Seconds()),
		Urgency:         webpushgo.UrgencyNormal,
	}
	if s.HTTPClient != nil {
		opts.HTTPClient = s.HTTPClient
	}
	resp, err := webpushgo.SendNotificationWithContext(ctx, body, &webpushgo.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpushgo.Keys{Auth: sub.Auth, P256dh: sub.P256dh},
	}, opts)
	if err != nil {
		return fmt.Errorf("webpush: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone:
		return domainpush.ErrGone
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("webpush: push service returned %d", resp.StatusCode)
	}
}

var _ domainpush.Sender = (*Sender)(nil)
