package scylla

import (
	"context"
	"errors"
	"reflect"
	"testing"

	domainchats "unimate/internal/domain/chats"
)

type recordedWrites struct {
	steps    []string
	fail     map[string]error
	claimed  bool
	rowsSeen map[domainchats.ChatID]bool
}

func newRecordedWrites(claimed bool) *recordedWrites {
	return &recordedWrites{fail: map[string]error{}, claimed: claimed, rowsSeen: map[domainchats.ChatID]bool{}}
}

func (w *recordedWrites) step(name string) error {
	w.steps = append(w.steps, name)
	return w.fail[name]
}

func (w *recordedWrites) putChat(_ context.Context, chat *domainchats.Chat) error {
	w.rowsSeen[chat.ID] = true
	return w.step("put")
}

func (w *recordedWrites) claimPair(_ context.Context, chat *domainchats.Chat) (bool, error) {
	if !w.rowsSeen[chat.ID] {
		return false, errors.New("pair claimed before the chat row exists")
	}
	return w.claimed, w.step("claim")
}

func (w *recordedWrites) indexChat(context.Context, *domainchats.Chat) error { return w.step("index") }
func (w *recordedWrites) releasePair(context.Context, *domainchats.Chat) error {
	return w.step("release")
}
func (w *recordedWrites) dropChat(context.Context, domainchats.ChatID) error { return w.step("drop") }

func (w *recordedWrites) claimDeal(context.Context, *domainchats.Deal) (bool, error) {
	return w.claimed, w.step("claim")
}
func (w *recordedWrites) indexDeal(context.Context, *domainchats.Deal) error { return w.step("index") }
func (w *recordedWrites) releaseDeal(context.Context, *domainchats.Deal) error {
	return w.step("release")
}

func TestInsertChatOrdering(t *testing.T) {
	indexErr := errors.New("write timeout")
	cases := []struct {
		name      string
		claimed   bool
		fail      map[string]error
		wantErr   error
		wantSteps []string
	}{
		{name: "fresh pair", claimed: true, wantSteps: []string{"put", "claim", "index"}},
		{name: "pair taken drops the unused row", claimed: false, wantErr: domainchats.ErrChatExists, wantSteps: []string{"put", "claim", "drop"}},
		{name: "index failure frees the pair", claimed: true, fail: map[string]error{"index": indexErr}, wantErr: indexErr, wantSteps: []string{"put", "claim", "index", "release"}},
		{name: "row failure claims nothing", claimed: true, fail: map[string]error{"put": indexErr}, wantErr: indexErr, wantSteps: []string{"put"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newRecordedWrites(tc.claimed)
			for k, v := range tc.fail {
				w.fail[k] = v
			}
			err := insertChat(context.Background(), w, &domainchats.Chat{ID: "c1", ListingID: "l1", BuyerID: "b1", SellerID: "s1"})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if !reflect.DeepEqual(w.steps, tc.wantSteps) {
				t.Fatalf("steps = %v, want %v", w.steps, tc.wantSteps)
			}
		})
	}
}

func TestInsertDealReleasesSlotWhenIndexFails(t *testing.T) {
	indexErr := errors.New("write timeout")
	cases := []struct {
		name      string
		claimed   bool
		fail      map[string]error
		wantErr   error
		wantSteps []string
	}{
		{name: "first deal", claimed: true, wantSteps: []string{"claim", "index"}},
		{name: "deal exists", claimed: false, wantErr: domainchats.ErrDealExists, wantSteps: []string{"claim"}},
		{name: "index failure", claimed: true, fail: map[string]error{"index": indexErr}, wantErr: indexErr, wantSteps: []string{"claim", "index", "release"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newRecordedWrites(tc.claimed)
			for k, v := range tc.fail {
				w.fail[k] = v
			}
			err := insertDeal(context.Background(), w, &domainchats.Deal{ID: "d1", ChatID: "c1"})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if !reflect.DeepEqual(w.steps, tc.wantSteps) {
				t.Fatalf("steps = %v, want %v", w.steps, tc.wantSteps)
			}
		})
	}
}
