package push_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"towlot/internal/services/push"
	"towlot/internal/testsupport"
)

type recordedRequest struct {
	path     string
	title    string
	priority string
	body     string
}

func newRecordingServer(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			path:     r.URL.Path,
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			body:     string(payload),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		cp := make([]recordedRequest, len(requests))
		copy(cp, requests)
		return cp
	}
}

func TestSendPostsToRecipientTopic(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithPushEndpoint(server.URL))

	sender := push.NewSender(cfg)
	if err := sender.Send(context.Background(), "operators", "Pickup overdue", "vehicle C-1 overdue", "high"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	requests := recorded()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.path != "/operators" {
		t.Fatalf("expected topic path /operators, got %s", req.path)
	}
	if req.title != "Pickup overdue" {
		t.Fatalf("title header: %q", req.title)
	}
	if req.priority != "high" {
		t.Fatalf("priority header: %q", req.priority)
	}
	if req.body != "vehicle C-1 overdue" {
		t.Fatalf("body: %q", req.body)
	}
}

func TestSendReportsNon2xx(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusBadGateway)
	cfg := testsupport.NewConfig(t, testsupport.WithPushEndpoint(server.URL))

	sender := push.NewSender(cfg)
	if err := sender.Send(context.Background(), "operators", "subject", "body", ""); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestUnconfiguredEndpointIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sender := push.NewSender(cfg)

	if err := sender.Send(context.Background(), "operators", "subject", "body", "high"); err != nil {
		t.Fatalf("noop sender must not error: %v", err)
	}
	if err := sender.Test(context.Background()); err != nil {
		t.Fatalf("noop test must not error: %v", err)
	}
}

func TestTestNotificationHitsBaseEndpoint(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithPushEndpoint(server.URL))

	sender := push.NewSender(cfg)
	if err := sender.Test(context.Background()); err != nil {
		t.Fatalf("Test: %v", err)
	}
	requests := recorded()
	if len(requests) != 1 || requests[0].path != "/" {
		t.Fatalf("expected base endpoint, got %+v", requests)
	}
}
