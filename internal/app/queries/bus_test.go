package queries

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type countQuery struct{ N int }

func (countQuery) Key() string { return "test.count" }

type strayQuery struct{}

func (strayQuery) Key() string { return "test.count" }

func TestAsk(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, countQuery{}.Key(), HandlerFunc[countQuery, int](func(_ context.Context, q countQuery) (int, error) {
		return q.N * 2, nil
	}))
	ctx := context.Background()

	cases := []struct {
		name    string
		run     func() error
		wantErr error
		mention string
	}{
		{
			name: "typed result",
			run: func() error {
				got, err := Ask[countQuery, int](ctx, bus, countQuery{N: 4})
				if err == nil && got != 8 {
					t.Errorf("got %d, want 8", got)
				}
				return err
			},
		},
		{
			name:    "wrong result type names both types",
			run:     func() error { _, err := Ask[countQuery, string](ctx, bus, countQuery{}); return err },
			wantErr: ErrResultType,
			mention: "want string",
		},
		{
			name:    "query of another type under the same key",
			run:     func() error { _, err := bus.Ask(ctx, strayQuery{}); return err },
			wantErr: ErrInvalidQuery,
			mention: "strayQuery",
		},
		{
			name:    "nil bus",
			run:     func() error { _, err := Ask[countQuery, int](ctx, nil, countQuery{}); return err },
			wantErr: ErrNilBus,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.mention != "" && !strings.Contains(err.Error(), tc.mention) {
				t.Fatalf("error %q does not mention %q", err, tc.mention)
			}
		})
	}
}
