package auth

import (
	"errors"
	"testing"
	"time"
)

func TestVerifierRoundTrip(t *testing.T) {
	v, err := NewVerifier("secret", "unimate-auth")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := v.Issue(Principal{ID: "u1", Email: "Student@Uni.edu"}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.ID != "u1" || p.Email != "student@uni.edu" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestVerifierRejects(t *testing.T) {
	v, _ := NewVerifier("secret", "unimate-auth")
	other, _ := NewVerifier("other", "unimate-auth")
	wrongIssuer, _ := NewVerifier("secret", "someone-else")
	future := time.Now().Add(time.Hour)

	forged, _ := other.Issue(Principal{ID: "u1"}, future)
	expired, _ := v.Issue(Principal{ID: "u1"}, time.Now().Add(-time.Minute))
	foreign, _ := wrongIssuer.Issue(Principal{ID: "u1"}, future)
	anonymous, _ := v.Issue(Principal{}, future)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": forged,
		"expired":      expired,
		"issuer":       foreign,
		"no subject":   anonymous,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
	if _, err := NewVerifier(" ", ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
