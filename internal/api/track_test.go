package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/craftpixel/event-relay/internal/klaviyo"
	"github.com/craftpixel/event-relay/internal/pipeline"
	"github.com/craftpixel/event-relay/internal/store"
)

type stubResolver struct {
	tenants map[string]*domain.Tenant
}

func (s *stubResolver) Resolve(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	if t, ok := s.tenants[shopDomain]; ok {
		return t, nil
	}
	if stripped := strings.TrimSuffix(shopDomain, ".myshopify.com"); stripped != shopDomain {
		return s.tenants[stripped], nil
	}
	return nil, nil
}

type stubRecorder struct {
	failures int
	logs     int
}

func (s *stubRecorder) InsertFailedEvent(ctx context.Context, rec store.FailedEventRecord) error {
	s.failures++
	return nil
}

func (s *stubRecorder) InsertDebugLog(ctx context.Context, rec store.DebugLogRecord) error {
	s.logs++
	return nil
}

type stubSender struct {
	calls int
	err   error
}

func (s *stubSender) Send(ctx context.Context, apiKey string, event klaviyo.Event) error {
	s.calls++
	return s.err
}

func boolPtr(b bool) *bool { return &b }

func newTestRouter(t *testing.T, resolver *stubResolver, recorder *stubRecorder, sender *stubSender) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	p := pipeline.New(resolver, recorder, sender, nil, nil, logger)
	return NewRouter(nil, p, nil, logger)
}

func postTrack(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rr.Body.String())
	}
	return body
}

func TestTrack_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &stubResolver{}, &stubRecorder{}, &stubSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/track", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] == nil {
		t.Error("405 body should carry an error field")
	}
}

func TestTrack_MalformedJSON(t *testing.T) {
	router := newTestRouter(t, &stubResolver{}, &stubRecorder{}, &stubSender{})

	rr := postTrack(t, router, `{"event": "Page Viewed",`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] != "Failed to process event" {
		t.Errorf("error = %v", body["error"])
	}
	if body["details"] == nil {
		t.Error("500 body should carry details")
	}
}

func TestTrack_MissingRequiredFields(t *testing.T) {
	router := newTestRouter(t, &stubResolver{}, &stubRecorder{}, &stubSender{})

	rr := postTrack(t, router, `{"data": {"productId": "p-1"}}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestTrack_ShopNotFound(t *testing.T) {
	router := newTestRouter(t, &stubResolver{tenants: map[string]*domain.Tenant{}}, &stubRecorder{}, &stubSender{})

	rr := postTrack(t, router, `{"event":"Page Viewed","data":{},"timestamp":"2026-08-30T10:00:00Z","shopDomain":"nobody.myshopify.com"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "Shop not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestTrack_SuffixStrippedResolution(t *testing.T) {
	sender := &stubSender{}
	resolver := &stubResolver{tenants: map[string]*domain.Tenant{
		"foo": {ID: "t-foo", ShopDomain: "foo", KlaviyoAPIKey: "pk_test"},
	}}
	router := newTestRouter(t, resolver, &stubRecorder{}, sender)

	rr := postTrack(t, router, `{"event":"Page Viewed","data":{},"timestamp":"2026-08-30T10:00:00Z","shopDomain":"foo.myshopify.com"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if sender.calls != 1 {
		t.Errorf("sender called %d times, want 1", sender.calls)
	}
}

func TestTrack_EventDisabled(t *testing.T) {
	sender := &stubSender{}
	recorder := &stubRecorder{}
	resolver := &stubResolver{tenants: map[string]*domain.Tenant{
		"jo-store": {
			ID:            "t-1",
			ShopDomain:    "jo-store",
			KlaviyoAPIKey: "pk_test",
			EventSettings: map[string]domain.EventToggle{"AddtoCart": {Enabled: boolPtr(false)}},
		},
	}}
	router := newTestRouter(t, resolver, recorder, sender)

	rr := postTrack(t, router, `{"event":"Add to Cart","data":{},"timestamp":"2026-08-30T10:00:00Z","shopDomain":"jo-store"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["message"] != "Event tracking disabled" {
		t.Errorf("message = %v", body["message"])
	}
	if _, hasSuccess := body["success"]; hasSuccess {
		t.Error("policy skips respond with message only")
	}
	if sender.calls != 0 {
		t.Error("no forwarding call for a disabled event")
	}
	if recorder.failures != 0 {
		t.Error("no failure record for a policy skip")
	}
}

func TestTrack_NoConsent(t *testing.T) {
	resolver := &stubResolver{tenants: map[string]*domain.Tenant{
		"jo-store": {
			ID:           "t-1",
			ShopDomain:   "jo-store",
			ConsentFlags: &domain.ConsentFlags{Marketing: boolPtr(false)},
		},
	}}
	router := newTestRouter(t, resolver, &stubRecorder{}, &stubSender{})

	rr := postTrack(t, router, `{"event":"Page Viewed","data":{},"timestamp":"2026-08-30T10:00:00Z","shopDomain":"jo-store"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := decodeBody(t, rr); body["message"] != "No marketing consent" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestTrack_ProviderFailureStillSucceeds(t *testing.T) {
	sender := &stubSender{err: context.DeadlineExceeded}
	recorder := &stubRecorder{}
	resolver := &stubResolver{tenants: map[string]*domain.Tenant{
		"jo-store": {ID: "t-1", ShopDomain: "jo-store", KlaviyoAPIKey: "pk_test"},
	}}
	router := newTestRouter(t, resolver, recorder, sender)

	rr := postTrack(t, router, `{"event":"Purchase Completed","data":{},"timestamp":"2026-08-30T10:00:00Z","shopDomain":"jo-store"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (caller never blocked on provider)", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if recorder.failures != 1 {
		t.Errorf("failure records = %d, want exactly 1", recorder.failures)
	}
}

func TestTrack_NoCredentialSkipsForwarding(t *testing.T) {
	sender := &stubSender{}
	resolver := &stubResolver{tenants: map[string]*domain.Tenant{
		"jo-store": {ID: "t-1", ShopDomain: "jo-store"},
	}}
	router := newTestRouter(t, resolver, &stubRecorder{}, sender)

	rr := postTrack(t, router, `{"event":"Page Viewed","data":{},"timestamp":"2026-08-30T10:00:00Z","shopDomain":"jo-store"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := decodeBody(t, rr); body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if sender.calls != 0 {
		t.Error("no provider call without a credential")
	}
}
