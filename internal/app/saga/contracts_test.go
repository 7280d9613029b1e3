package saga

import (
	"context"
	"errors"
	"testing"
)

func TestRunCompensatesInReverse(t *testing.T) {
	var trail []string
	boom := errors.New("boom")
	err := Run(context.Background(),
		Step{Name: "a", Execute: func(context.Context) error { trail = append(trail, "a"); return nil },
			Compensate: func(context.Context) error { trail = append(trail, "undo-a"); return nil }},
		Step{Name: "b", Execute: func(context.Context) error { trail = append(trail, "b"); return nil }},
		Step{Name: "c", Execute: func(context.Context) error { return boom }},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != "c" {
		t.Fatalf("expected StepError for c, got %v", err)
	}
	want := []string{"a", "b", "undo-a"}
	if len(trail) != len(want) {
		t.Fatalf("trail = %v", trail)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("trail = %v", trail)
		}
	}
}
