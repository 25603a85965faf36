package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/foxseedlab/standupbot/internal/webhook"
)

const (
	webhookUserAgent    = "standupbot-report/1"
	errorBodyPreviewLen = 512
)

// StatusError is returned when the receiver answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("report webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("report webhook returned status %d: %s", e.StatusCode, e.Body)
}

type HTTPSender struct {
	reportURL string
	client    *http.Client
}

// NewHTTPSender returns a sender that posts reports to reportURL. An empty
// URL disables delivery.
func NewHTTPSender(reportURL string, timeout time.Duration) webhook.Sender {
	return &HTTPSender{
		reportURL: reportURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSender) SendReport(ctx context.Context, payload webhook.ReportWebhookPayload) error {
	if s.reportURL == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.reportURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyPreviewLen))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(preview))}
	}
	slog.Info("report webhook delivered", "session_id", payload.SessionID, "date", payload.Date, "status_code", resp.StatusCode)
	return nil
}
