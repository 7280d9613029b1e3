package reviews

import (
	"errors"
	"testing"
	"time"
)

func TestSubmitRules(t *testing.T) {
	tests := []struct {
		name string
		p    SubmitParams
		err  error
	}{
		{name: "ok", p: SubmitParams{ID: "r", ListingID: "l", SellerID: "s", ReviewerID: "b", Rating: 5}},
		{name: "rating low", p: SubmitParams{SellerID: "s", ReviewerID: "b", Rating: 0}, err: ErrInvalidRating},
		{name: "rating high", p: SubmitParams{SellerID: "s", ReviewerID: "b", Rating: 6}, err: ErrInvalidRating},
		{name: "own listing", p: SubmitParams{SellerID: "s", ReviewerID: "s", Rating: 3}, err: ErrOwnListing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Submit(tt.p)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestEditAndAverage(t *testing.T) {
	r, err := Submit(SubmitParams{ID: "r", ListingID: "l", SellerID: "s", ReviewerID: "b", Rating: 2, Text: "  meh "})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Text != "meh" {
		t.Fatalf("text not trimmed: %q", r.Text)
	}
	if err := r.Edit("other", 5, "", time.Now()); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if err := r.Edit("b", 4, "", time.Now()); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if Average(nil) != nil {
		t.Fatalf("average of nothing must be nil")
	}
	other := &Review{Rating: 5}
	if avg := Average([]*Review{r, other}); avg == nil || *avg != 4.5 {
		t.Fatalf("unexpected average %v", avg)
	}
}
