package media

import (
	"errors"
	"testing"
)

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		ct     string
		size   int64
		kind   Kind
		err    error
	}{
		{name: "chat image ok", limits: ChatLimits, ct: "image/png", size: 5 * MB, kind: KindImage},
		{name: "chat image too big", limits: ChatLimits, ct: "image/png", size: 7 * MB, err: ErrTooLarge},
		{name: "listing image too big", limits: ListingLimits, ct: "image/jpeg", size: 3 * MB, err: ErrTooLarge},
		{name: "video ok", limits: ListingLimits, ct: "video/mp4", size: 20 * MB, kind: KindVideo},
		{name: "video too big", limits: ChatLimits, ct: "video/mp4", size: 21 * MB, err: ErrTooLarge},
		{name: "pdf rejected", limits: ChatLimits, ct: "application/pdf", size: 1, err: ErrUnsupportedType},
		{name: "empty", limits: ChatLimits, ct: "image/png", size: 0, err: ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := tt.limits.Validate(tt.ct, tt.size)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil || kind != tt.kind {
				t.Fatalf("got %q %v, want %q", kind, err, tt.kind)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	if got := Extension("photo.JPG", "image/jpeg"); got != "jpg" {
		t.Fatalf("got %q", got)
	}
	if got := Extension("blob", "image/svg+xml"); got != "svg" {
		t.Fatalf("got %q", got)
	}
	if got := Extension("", ""); got != "bin" {
		t.Fatalf("got %q", got)
	}
}
