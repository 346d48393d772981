package klaviyo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/craftpixel/event-relay/internal/payload"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEvent() Event {
	return BuildEvent("Product Viewed", domain.EnrichedEvent{
		Data:           payload.Fields{"productId": "p-1"},
		StoreDomain:    "jo-store",
		EventTimestamp: "2026-08-30T10:00:00Z",
		ReceivedAt:     time.Now(),
	})
}

func TestClient_Send_Success(t *testing.T) {
	var gotAuth, gotRevision, gotContentType string
	var gotBody Event

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRevision = r.Header.Get("revision")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Revision: "2024-10-15"}, testLogger())

	if err := client.Send(context.Background(), "pk_test_123", testEvent()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAuth != "Klaviyo-API-Key pk_test_123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotRevision != "2024-10-15" {
		t.Errorf("revision = %q", gotRevision)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody.Data.Attributes.Metric.Name != "Viewed Product" {
		t.Errorf("forwarded metric = %q", gotBody.Data.Attributes.Metric.Name)
	}
}

func TestClient_Send_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"detail":"invalid api key"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Revision: "2024-10-15"}, testLogger())

	err := client.Send(context.Background(), "bad-key", testEvent())
	if err == nil {
		t.Fatal("Send() should fail on a non-2xx status")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q should contain the status code", err)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error %q should contain the response body verbatim", err)
	}
}

func TestClient_Send_NetworkFailure(t *testing.T) {
	// A server that is immediately closed gives a connection refusal.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client := NewClient(Config{Endpoint: endpoint, Revision: "2024-10-15", Timeout: 2 * time.Second}, testLogger())

	if err := client.Send(context.Background(), "pk_test_123", testEvent()); err == nil {
		t.Fatal("Send() should fail when the provider is unreachable")
	}
}
