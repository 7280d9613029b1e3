package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"unimate/internal/app/busy"
	"unimate/internal/app/commands"
	"unimate/internal/app/queries"
)

type pingCommand struct {
	Actor string
	Body  string
}

func (pingCommand) Key() string { return "test.ping" }

func (c pingCommand) ActorID() string { return c.Actor }

func (c pingCommand) Validate() error {
	if c.Body == "" {
		return errors.New("body required")
	}
	return nil
}

type pingQuery struct{}

func (pingQuery) Key() string { return "test.ping" }

func TestChainAppliesAuthorizationValidationAndBusy(t *testing.T) {
	tracker := busy.NewTracker()
	bus := commands.NewInMemoryBus()
	var sawBusy bool
	commands.RegisterHandler[pingCommand, string](bus, "test.ping", commands.HandlerFunc[pingCommand, string](
		func(ctx context.Context, cmd pingCommand) (string, error) {
			sawBusy = tracker.Busy()
			return "pong:" + cmd.Body, nil
		}))
	chain := ChainCommands(bus, Busy(tracker), Authorization(RequireActor{}), Validation(SelfValidating{}))

	if _, err := commands.Dispatch[pingCommand, string](context.Background(), chain, pingCommand{Body: "x"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := commands.Dispatch[pingCommand, string](context.Background(), chain, pingCommand{Actor: "u"}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := commands.Dispatch[pingCommand, string](context.Background(), chain, pingCommand{Actor: "u", Body: "x"})
	if err != nil || got != "pong:x" {
		t.Fatalf("got %q %v", got, err)
	}
	if !sawBusy {
		t.Fatalf("handler should run while tracker is busy")
	}
	if tracker.Busy() {
		t.Fatalf("tracker must be idle after dispatch")
	}
}

func TestQueryBusyReleasesOnError(t *testing.T) {
	tracker := busy.NewTracker()
	bus := queries.NewInMemoryBus()
	boom := errors.New("boom")
	queries.RegisterHandler[pingQuery, int](bus, "test.ping", queries.HandlerFunc[pingQuery, int](
		func(context.Context, pingQuery) (int, error) { return 0, boom }))
	chain := ChainQueries(bus, QueryBusy(tracker))
	if _, err := queries.Ask[pingQuery, int](context.Background(), chain, pingQuery{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if tracker.Busy() {
		t.Fatalf("tracker must be idle after failure")
	}
}

func TestChainSkipsNilMiddleware(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, pingCommand{}.Key(), commands.HandlerFunc[pingCommand, string](
		func(_ context.Context, cmd pingCommand) (string, error) { return cmd.Body, nil }))
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	chain := ChainCommands(bus, nil, Logging(nil), Logging(logger))

	got, err := commands.Dispatch[pingCommand, string](context.Background(), chain, pingCommand{Actor: "u1", Body: "x"})
	if err != nil || got != "x" {
		t.Fatalf("got %q %v", got, err)
	}
	if out := buf.String(); !strings.Contains(out, "command handled") || !strings.Contains(out, "actor_id=u1") {
		t.Fatalf("unexpected log output %q", out)
	}
}
