package listings

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"unimate/internal/domain/discovery"
	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/media"
	"unimate/internal/infra/storage/memory"
)

type fakeUploader struct {
	failAfter int
	keys      []string
	removed   []string
}

func (u *fakeUploader) Remove(_ context.Context, url string) error {
	u.removed = append(u.removed, url)
	return nil
}

func (u *fakeUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if u.failAfter > 0 && len(u.keys) >= u.failAfter {
		return "", errors.New("bucket unavailable")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "https://cdn.test/listing-media/" + key, nil
}

func image(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Size: 1024, Reader: strings.NewReader("png")}
}

func fixedNow() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }

func createCommand(images ...Upload) CreateListingCommand {
	return CreateListingCommand{
		SellerID:    "seller",
		SellerEmail: "ana@uni.edu",
		Payload: ListingPayload{
			Title:      "Desk lamp",
			Price:      450,
			CategoryID: "furniture",
			Attributes: map[string]string{"material": " metal ", "color": "black"},
		},
		Images: images,
	}
}

func TestCreateListingStepsAndPrimaryImage(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	uploader := &fakeUploader{}
	h := &CreateListingHandler{UoWFactory: factory, Outbox: box, Uploader: uploader, StudentEmailCheck: true, Now: fixedNow}

	got, err := h.Handle(context.Background(), createCommand(image("a.png"), image("b.png")))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(got.Images) != 2 || !got.Images[0].IsPrimary || got.Images[1].IsPrimary {
		t.Fatalf("unexpected images %+v", got.Images)
	}
	if got.ImageURL != got.Images[0].URL {
		t.Fatalf("primary url %q != first image %q", got.ImageURL, got.Images[0].URL)
	}
	if got.Attributes["material"] != "metal" || got.Category.Kind != string(domainlistings.KindFurniture) {
		t.Fatalf("unexpected attributes %+v / %+v", got.Attributes, got.Category)
	}
	if got.Countdown != "Deletes in: 30d 00h 00m 00s" {
		t.Fatalf("countdown = %q", got.Countdown)
	}
	if len(uploader.keys) != 2 || !strings.HasPrefix(uploader.keys[0], got.ID+"/") || !strings.HasSuffix(uploader.keys[0], ".png") {
		t.Fatalf("unexpected object keys %v", uploader.keys)
	}
	if len(box.Pending()) == 0 {
		t.Fatalf("expected listing events in outbox")
	}
}

func TestCreateListingCompensatesOnUploadFailure(t *testing.T) {
	factory := memory.NewFactory()
	h := &CreateListingHandler{UoWFactory: factory, Uploader: &fakeUploader{failAfter: 1}, Now: fixedNow}

	_, err := h.Handle(context.Background(), createCommand(image("a.png"), image("b.png")))
	if err == nil {
		t.Fatalf("expected upload failure")
	}
	left, _ := factory.ListingsRepo.ListBySeller(context.Background(), "seller")
	if len(left) != 0 {
		t.Fatalf("listing should be deleted after failure, found %d", len(left))
	}
}

func TestCreateListingRejections(t *testing.T) {
	factory := memory.NewFactory()
	h := &CreateListingHandler{UoWFactory: factory, Uploader: &fakeUploader{}, StudentEmailCheck: true, Now: fixedNow}

	cmd := createCommand(image("a.png"))
	cmd.SellerEmail = "someone@gmail.com"
	if _, err := h.Handle(context.Background(), cmd); !errors.Is(err, ErrStudentEmailRequired) {
		t.Fatalf("expected ErrStudentEmailRequired, got %v", err)
	}

	cmd = createCommand(image("a.png"))
	cmd.Payload.Attributes = map[string]string{"isbn": "123"}
	if _, err := h.Handle(context.Background(), cmd); !errors.Is(err, domainlistings.ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}

	tests := []struct {
		name string
		cmd  CreateListingCommand
		want error
	}{
		{"no images", createCommand(), ErrImageRequired},
		{"too large", createCommand(Upload{Filename: "big.jpg", ContentType: "image/jpeg", Size: 3 * media.MB, Reader: strings.NewReader("x")}), media.ErrTooLarge},
		{"not media", createCommand(Upload{Filename: "a.pdf", ContentType: "application/pdf", Size: 10, Reader: strings.NewReader("x")}), media.ErrUnsupportedType},
		{"video as image", createCommand(Upload{Filename: "a.mp4", ContentType: "video/mp4", Size: 10, Reader: strings.NewReader("x")}), media.ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestIsStudentEmail(t *testing.T) {
	tests := map[string]bool{
		"ana@uni.edu":             true,
		"bob@cs.university.ac.uk": true,
		"x@gmail.com":             false,
		"x@Outlook.com":           false,
		"x@mailinator.net":        false,
		"no-at-sign":              false,
		"x@":                      false,
	}
	for email, want := range tests {
		if got := IsStudentEmail(email); got != want {
			t.Errorf("IsStudentEmail(%q) = %v, want %v", email, got, want)
		}
	}
}

func TestEditMediaAndOwnership(t *testing.T) {
	factory := memory.NewFactory()
	uploader := &fakeUploader{}
	ctx := context.Background()
	created, err := (&CreateListingHandler{UoWFactory: factory, Uploader: uploader, Now: fixedNow}).Handle(ctx, createCommand(image("a.png")))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	add := &AddListingMediaHandler{UoWFactory: factory, Uploader: uploader, Now: fixedNow}
	if _, err := add.Handle(ctx, AddListingMediaCommand{SellerID: "intruder", ListingID: created.ID, File: image("c.png")}); !errors.Is(err, domainlistings.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	withTwo, err := add.Handle(ctx, AddListingMediaCommand{SellerID: "seller", ListingID: created.ID, File: image("c.png")})
	if err != nil || len(withTwo.Images) != 2 {
		t.Fatalf("add image: %+v %v", withTwo, err)
	}

	second := withTwo.Images[1].ID
	primary, err := (&SetPrimaryImageHandler{UoWFactory: factory, Now: fixedNow}).Handle(ctx, SetPrimaryImageCommand{SellerID: "seller", ListingID: created.ID, ImageID: second})
	if err != nil {
		t.Fatalf("set primary: %v", err)
	}
	if primary.ImageURL != withTwo.Images[1].URL {
		t.Fatalf("primary image not switched: %+v", primary.Images)
	}

	removed, err := (&RemoveListingMediaHandler{UoWFactory: factory, Storage: uploader, Now: fixedNow}).Handle(ctx, RemoveListingMediaCommand{SellerID: "seller", ListingID: created.ID, MediaID: second})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(uploader.removed) != 1 || uploader.removed[0] != withTwo.Images[1].URL {
		t.Fatalf("removed object %v", uploader.removed)
	}
	if len(removed.Images) != 1 || !removed.Images[0].IsPrimary {
		t.Fatalf("remaining image should become primary: %+v", removed.Images)
	}

	if _, err := (&DeleteListingHandler{UoWFactory: factory, Now: fixedNow}).Handle(ctx, DeleteListingCommand{SellerID: "seller", ListingID: created.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := (&GetListingHandler{UoWFactory: factory, Now: fixedNow}).Handle(ctx, GetListingQuery{ListingID: created.ID}); !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMarketplaceHidesExpiredListings(t *testing.T) {
	factory := memory.NewFactory()
	ctx := context.Background()
	create := &CreateListingHandler{UoWFactory: factory, Uploader: &fakeUploader{}, Now: fixedNow}
	if _, err := create.Handle(ctx, createCommand(image("a.png"))); err != nil {
		t.Fatalf("create: %v", err)
	}

	market := &MarketplaceHandler{UoWFactory: factory, Engine: discovery.New()}
	market.Now = func() time.Time { return fixedNow().Add(29 * 24 * time.Hour) }
	page, err := market.Handle(ctx, MarketplaceQuery{})
	if err != nil || page.Count != 1 {
		t.Fatalf("day 29: count=%d err=%v", page.Count, err)
	}
	if len(page.Facets.Materials) != 1 || page.Facets.Materials[0].Value != "metal" {
		t.Fatalf("unexpected facets %+v", page.Facets)
	}

	market.Now = func() time.Time { return fixedNow().Add(31 * 24 * time.Hour) }
	page, err = market.Handle(ctx, MarketplaceQuery{})
	if err != nil || page.Count != 0 {
		t.Fatalf("day 31: count=%d err=%v", page.Count, err)
	}
	mine, err := (&MyListingsHandler{UoWFactory: factory, Now: market.Now}).Handle(ctx, MyListingsQuery{SellerID: "seller"})
	if err != nil || mine.Total != 1 || mine.Items[0].Countdown != "Expired" {
		t.Fatalf("dashboard should keep expired listing: %+v %v", mine, err)
	}
}

func TestRelatedListings(t *testing.T) {
	factory := memory.NewFactory()
	ctx := context.Background()
	create := &CreateListingHandler{UoWFactory: factory, Uploader: &fakeUploader{}, Now: fixedNow}
	var first string
	for i := 0; i < 7; i++ {
		got, err := create.Handle(ctx, createCommand(image("a.png")))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if i == 0 {
			first = got.ID
		}
	}
	related, err := (&RelatedListingsHandler{UoWFactory: factory, Now: fixedNow}).Handle(ctx, RelatedListingsQuery{ListingID: first})
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if related.Total != 5 {
		t.Fatalf("related total = %d, want 5", related.Total)
	}
	for _, item := range related.Items {
		if item.ID == first {
			t.Fatalf("related must exclude the listing itself")
		}
	}
}
