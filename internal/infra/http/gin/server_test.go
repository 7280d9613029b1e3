package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/busy"
	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	chatsapp "unimate/internal/app/handlers/chats"
	listingsapp "unimate/internal/app/handlers/listings"
	"unimate/internal/app/middleware"
	"unimate/internal/app/queries"
	"unimate/internal/domain/discovery"
	"unimate/internal/infra/auth"
	"unimate/internal/infra/obs"
	"unimate/internal/infra/storage/memory"
	"unimate/internal/infra/storage/s3"
)

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://cdn.test/" + key, nil
}

type testServer struct {
	router   *gin.Engine
	verifier *auth.Verifier
	tracker  *busy.Tracker
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	factory := memory.NewFactory()
	tracker := busy.NewTracker()
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	commands.RegisterHandler(commandBus, listingsapp.CreateListingCommand{}.Key(), &listingsapp.CreateListingHandler{UoWFactory: factory, Uploader: stubUploader{}})
	commands.RegisterHandler(commandBus, chatsapp.OpenChatCommand{}.Key(), &chatsapp.OpenChatHandler{UoWFactory: factory})
	commands.RegisterHandler(commandBus, chatsapp.SendTextCommand{}.Key(), &chatsapp.SendTextHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingsapp.ListCategoriesQuery{}.Key(), listingsapp.ListCategoriesHandler{})
	queries.RegisterHandler(queryBus, listingsapp.GetListingQuery{}.Key(), &listingsapp.GetListingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingsapp.MarketplaceQuery{}.Key(), &listingsapp.MarketplaceHandler{UoWFactory: factory, Engine: discovery.New()})
	queries.RegisterHandler(queryBus, chatsapp.ListMessagesQuery{}.Key(), &chatsapp.ListMessagesHandler{UoWFactory: factory})

	cmds := middleware.ChainCommands(commandBus,
		middleware.Busy(tracker),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(middleware.SelfValidating{}),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryBusy(tracker))

	verifier, err := auth.NewVerifier("test-secret", "")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	router := NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Listings:       ListingHandler{Commands: cmds, Queries: qs},
		Chats:          ChatHandler{Commands: cmds, Queries: qs},
		Status:         StatusHandler{Tracker: tracker},
		AuthMiddleware: AuthMiddleware{Verifier: verifier}.Handle,
	})
	return testServer{router: router, verifier: verifier, tracker: tracker}
}

func (s testServer) token(t *testing.T, id, email string) string {
	t.Helper()
	raw, err := s.verifier.Issue(auth.Principal{ID: id, Email: email}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return raw
}

func (s testServer) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func listingForm(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("field: %v", err)
		}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="images"; filename="lamp.png"`)
	header.Set("Content-Type", "image/png")
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("part: %v", err)
	}
	_, _ = part.Write([]byte("\x89PNG fake"))
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestListingChatFlow(t *testing.T) {
	srv := newTestServer(t)
	seller := srv.token(t, "seller", "ana@uni.edu")
	buyer := srv.token(t, "buyer", "bo@uni.edu")

	rec := srv.do(t, listingForm(t, map[string]string{
		"title":       "Desk lamp",
		"price":       "450",
		"category_id": "furniture",
		"attributes":  `{"color":"black"}`,
	}), seller)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create listing: %d %s", rec.Code, rec.Body.String())
	}
	listing := decode[dto.Listing](t, rec)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace?color=black&sort=latest", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("marketplace: %d %s", rec.Code, rec.Body.String())
	}
	if market := decode[dto.Marketplace](t, rec); market.Count != 1 || market.Items[0].ID != listing.ID {
		t.Fatalf("unexpected marketplace %+v", market)
	}

	rec = srv.do(t, jsonRequest(http.MethodPost, "/api/v1/chats", openChatRequest{ListingID: listing.ID}), seller)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("seller opening own chat: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, jsonRequest(http.MethodPost, "/api/v1/chats", openChatRequest{ListingID: listing.ID}), buyer)
	if rec.Code != http.StatusOK {
		t.Fatalf("open chat: %d %s", rec.Code, rec.Body.String())
	}
	chat := decode[dto.Chat](t, rec)

	rec = srv.do(t, jsonRequest(http.MethodPost, "/api/v1/chats/"+chat.ID+"/messages", sendMessageRequest{Text: "Is it still available?"}), buyer)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+chat.ID+"/messages", nil), seller)
	if rec.Code != http.StatusOK {
		t.Fatalf("list messages: %d %s", rec.Code, rec.Body.String())
	}
	if list := decode[dto.ChatMessageList](t, rec); len(list.Items) != 1 || list.Items[0].SenderID != "buyer" {
		t.Fatalf("unexpected messages %+v", list)
	}

	outsider := srv.token(t, "outsider", "cy@uni.edu")
	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+chat.ID+"/messages", nil), outsider)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider read: %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	user := srv.token(t, "u1", "u1@uni.edu")

	tests := []struct {
		name   string
		req    *http.Request
		token  string
		status int
	}{
		{"missing listing", httptest.NewRequest(http.MethodGet, "/api/v1/listings/nope", nil), "", http.StatusNotFound},
		{"anonymous dashboard", httptest.NewRequest(http.MethodGet, "/api/v1/me/listings", nil), "", http.StatusUnauthorized},
		{"bad token", httptest.NewRequest(http.MethodPost, "/api/v1/chats", nil), "garbage", http.StatusUnauthorized},
		{"open chat without listing", jsonRequest(http.MethodPost, "/api/v1/chats", openChatRequest{}), user, http.StatusBadRequest},
		{"create without images", jsonRequest(http.MethodPost, "/api/v1/listings", nil), user, http.StatusBadRequest},
		{"bad price filter", httptest.NewRequest(http.MethodGet, "/api/v1/marketplace?price_min=abc", nil), "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.req, tt.token)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestCategoriesAndBusyStatus(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: %d", rec.Code)
	}
	body := decode[struct {
		Items []dto.Category `json:"items"`
	}](t, rec)
	if len(body.Items) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(body.Items))
	}

	release := srv.tracker.Acquire()
	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/status/busy", nil), "")
	release()
	if state := decode[struct {
		Busy bool `json:"busy"`
	}](t, rec); !state.Busy {
		t.Fatalf("expected busy while a job is in flight: %s", rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&middleware.ValidationError{Err: errors.New("x")}, http.StatusBadRequest},
		{middleware.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
		{commands.ErrHandlerNotFound, http.StatusServiceUnavailable},
		{fmt.Errorf("upload: %w", s3.ErrNotConfigured), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	if got := extractBearerToken("Bearer  abc "); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := extractBearerToken("Basic abc"); got != "" {
		t.Fatalf("got %q", got)
	}
	if !strings.HasPrefix(principalContextKey, "unimate.") {
		t.Fatalf("unexpected context key %q", principalContextKey)
	}
}
