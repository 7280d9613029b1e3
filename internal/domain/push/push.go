// Package push models browser push subscriptions and notification payloads.
package push

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrInvalidSubscription = errors.New("push: endpoint and keys are required")
	// ErrGone is returned by a Sender when the endpoint no longer exists (HTTP 410).
	ErrGone = errors.New("push: subscription gone")
)

// Subscription is keyed uniquely by Endpoint.
type Subscription struct {
	UserID    string
	Endpoint  string
	P256dh    string
	Auth      string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.UserID) == "" || strings.TrimSpace(s.Endpoint) == "" ||
		strings.TrimSpace(s.P256dh) == "" || strings.TrimSpace(s.Auth) == "" {
		return ErrInvalidSubscription
	}
	return nil
}

type Repository interface {
	// Upsert inserts or replaces the subscription with the same endpoint.
	Upsert(ctx context.Context, sub Subscription) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)
}

type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Sender delivers a payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload Payload) error
}

const (
	NewMessageTitle    = "New Message"
	DefaultMessageBody = "You have received a new message"
	MessagesURL        = "/messages"
	previewRunes       = 50
)

// NewMessagePayload previews the first 50 characters of the message text,
// with an ellipsis only when the text was cut.
func NewMessagePayload(text string) Payload {
	body := DefaultMessageBody
	if text = strings.TrimSpace(text); text != "" {
		body = text
		if utf8.RuneCountInString(text) > previewRunes {
			body = string([]rune(text)[:previewRunes]) + "..."
		}
	}
	return Payload{Title: NewMessageTitle, Body: body, URL: MessagesURL}
}
