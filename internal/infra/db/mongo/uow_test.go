package mongo

import (
	"errors"
	"fmt"
	"testing"

	driversession "go.mongodb.org/mongo-driver/x/mongo/driver/session"
)

func TestAbortSettled(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "clean abort", err: nil, want: true},
		{name: "after commit", err: driversession.ErrAbortAfterCommit, want: true},
		{name: "aborted twice", err: driversession.ErrAbortTwice, want: true},
		{name: "session ended", err: fmt.Errorf("rollback: %w", driversession.ErrSessionEnded), want: true},
		{name: "server failure", err: errors.New("connection reset"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := abortSettled(tc.err); got != tc.want {
				t.Fatalf("abortSettled(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
