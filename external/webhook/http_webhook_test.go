package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxseedlab/standupbot/internal/webhook"
)

func TestSendReport_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("", time.Second)
	if err := sender.SendReport(context.Background(), webhook.ReportWebhookPayload{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendReport_Success(t *testing.T) {
	var got webhook.ReportWebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != webhookUserAgent {
			t.Fatalf("unexpected user agent: %s", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, 5*time.Second)
	payload := webhook.ReportWebhookPayload{
		SchemaVersion:     webhook.ReportWebhookSchemaVersion,
		Date:              "2026-03-04",
		VoiceAttendees:    []string{"Alice", "Bob"},
		AsyncOnly:         []string{"Carol"},
		NoParticipation:   []string{"Dave"},
		TotalTeam:         4,
		ParticipationRate: 75,
		Status:            "Good",
	}
	if err := sender.SendReport(context.Background(), payload); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Date != "2026-03-04" || got.Status != "Good" || got.ParticipationRate != 75 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if len(got.VoiceAttendees) != 2 || got.AsyncOnly[0] != "Carol" || got.NoParticipation[0] != "Dave" {
		t.Fatalf("unexpected participant lists: %+v", got)
	}
}

func TestSendReport_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("  unknown schema_version \n"))
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, 5*time.Second)
	err := sender.SendReport(context.Background(), webhook.ReportWebhookPayload{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Body != "unknown schema_version" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestSendReport_HonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := NewHTTPSender(server.URL, 5*time.Second)
	if err := sender.SendReport(ctx, webhook.ReportWebhookPayload{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
