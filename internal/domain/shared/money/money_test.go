package money

import (
	"errors"
	"testing"
)

func TestFromMajor(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		cur   string
		want  Money
		err   error
	}{
		{name: "whole", value: 500, cur: "bdt", want: Money{Amount: 50000, Currency: "BDT"}},
		{name: "fraction", value: 499.5, cur: "BDT", want: Money{Amount: 49950, Currency: "BDT"}},
		{name: "default currency", value: 1, cur: "", want: Money{Amount: 100, Currency: DefaultCurrency}},
		{name: "negative", value: -1, cur: "BDT", err: ErrNegativeAmount},
		{name: "bad code", value: 1, cur: "TAKA", err: ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMajor(tt.value, tt.cur)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAddCurrencyMismatch(t *testing.T) {
	_, err := Must(100, "BDT").Add(Must(100, "USD"))
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}
