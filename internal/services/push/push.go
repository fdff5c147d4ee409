package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"towlot/internal/config"
)

const userAgent = "Towlot/0.1.0"

// Sender delivers one notification to a recipient topic.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body, priority string) error
	Test(ctx context.Context) error
}

// NewSender builds a push sender backed by the configured endpoint. When no
// endpoint is configured, a noop implementation is returned.
func NewSender(cfg *config.Config) Sender {
	endpoint := strings.TrimSpace(cfg.Notifications.PushEndpoint)
	if endpoint == "" {
		return noopSender{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpSender{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type httpSender struct {
	endpoint string
	client   *http.Client
}

func (s *httpSender) Send(ctx context.Context, recipient, subject, body, priority string) error {
	if s == nil || s.client == nil {
		return nil
	}

	target := s.endpoint
	if topic := strings.TrimSpace(recipient); topic != "" {
		target = s.endpoint + "/" + topic
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if subject != "" {
		req.Header.Set("Title", subject)
	}
	if priority != "" && priority != "default" {
		req.Header.Set("Priority", priority)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *httpSender) Test(ctx context.Context) error {
	return s.Send(ctx, "", "Towlot - Test", "Notification system test", "low")
}

type noopSender struct{}

func (noopSender) Send(context.Context, string, string, string, string) error { return nil }

func (noopSender) Test(context.Context) error { return nil }
