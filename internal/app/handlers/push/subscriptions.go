package push

import (
	"context"
	"strings"
	"time"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/queries"
	"unimate/internal/app/uow"
	domainpush "unimate/internal/domain/push"
)

const (
	registerSubscriptionKey   = "push.subscriptions.register"
	unregisterSubscriptionKey = "push.subscriptions.unregister"
	vapidKeyKey               = "push.vapid_key"
)

// RegisterSubscriptionCommand stores a browser push subscription. A known
// endpoint is re-bound to the current user.
type RegisterSubscriptionCommand struct {
	UserID    string
	Endpoint  string
	P256dh    string
	Auth      string
	UserAgent string
}

func (c RegisterSubscriptionCommand) Key() string     { return registerSubscriptionKey }
func (c RegisterSubscriptionCommand) ActorID() string { return c.UserID }

func (c RegisterSubscriptionCommand) subscription(now time.Time) domainpush.Subscription {
	return domainpush.Subscription{
		UserID:    c.UserID,
		Endpoint:  strings.TrimSpace(c.Endpoint),
		P256dh:    strings.TrimSpace(c.P256dh),
		Auth:      strings.TrimSpace(c.Auth),
		UserAgent: c.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c RegisterSubscriptionCommand) Validate() error {
	return c.subscription(time.Time{}).Validate()
}

type RegisterSubscriptionHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *RegisterSubscriptionHandler) Handle(ctx context.Context, cmd RegisterSubscriptionCommand) (dto.PushSubscription, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PushSubscription{}, err
	}
	defer unit.Close()

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	sub := cmd.subscription(now)
	if err := unit.PushSubscriptions().Upsert(unit.Ctx, sub); err != nil {
		return dto.PushSubscription{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.PushSubscription{}, err
	}
	return dto.PushSubscription{Endpoint: sub.Endpoint, UserAgent: sub.UserAgent, UpdatedAt: sub.UpdatedAt}, nil
}

type UnregisterSubscriptionCommand struct {
	UserID   string
	Endpoint string
}

func (c UnregisterSubscriptionCommand) Key() string     { return unregisterSubscriptionKey }
func (c UnregisterSubscriptionCommand) ActorID() string { return c.UserID }

func (c UnregisterSubscriptionCommand) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return domainpush.ErrInvalidSubscription
	}
	return nil
}

type UnregisterSubscriptionHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnregisterSubscriptionHandler) Handle(ctx context.Context, cmd UnregisterSubscriptionCommand) (struct{}, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Close()
	if err := unit.PushSubscriptions().DeleteByEndpoint(unit.Ctx, strings.TrimSpace(cmd.Endpoint)); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, unit.Commit()
}

type VapidKeyQuery struct{}

func (VapidKeyQuery) Key() string { return vapidKeyKey }

type VapidKeyHandler struct {
	PublicKey string
}

func (h VapidKeyHandler) Handle(context.Context, VapidKeyQuery) (dto.VapidKey, error) {
	return dto.VapidKey{PublicKey: h.PublicKey}, nil
}

var _ commands.Handler[RegisterSubscriptionCommand, dto.PushSubscription] = (*RegisterSubscriptionHandler)(nil)
var _ commands.Handler[UnregisterSubscriptionCommand, struct{}] = (*UnregisterSubscriptionHandler)(nil)
var _ queries.Handler[VapidKeyQuery, dto.VapidKey] = VapidKeyHandler{}
