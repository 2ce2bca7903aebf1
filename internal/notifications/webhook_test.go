package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSend_NoWebhook(t *testing.T) {
	s := NewSender("", "TestService")
	if s.Enabled() {
		t.Fatal("should not be enabled with empty URL")
	}
	// Should log to console without error
	s.Send("hello from test")
}

func TestSend_SlackFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "TestService")
	if !s.Enabled() {
		t.Fatal("should be enabled")
	}

	s.Send("database FULLY is unhealthy")

	if received["username"] != "TestService" {
		t.Fatalf("username: got %s", received["username"])
	}
	if !strings.Contains(received["text"], "database FULLY is unhealthy") {
		t.Fatalf("text: got %q", received["text"])
	}
}

func TestSend_DiscordFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// URL containing "discord" triggers Discord format
	s := NewSender(srv.URL+"/discord/webhook", "fully-web")
	s.Send("database FULLY recovered")

	if received["content"] == "" {
		t.Fatal("content should not be empty for Discord")
	}
	if _, hasText := received["text"]; hasText {
		t.Fatal("Discord payload should not have 'text' field")
	}
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "fully-web")
	s.retry.BaseDelay = 10 * time.Millisecond
	s.Send("retry me")

	if attempts.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestSend_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "fully-web")
	s.retry.BaseDelay = 10 * time.Millisecond
	s.Send("bad payload")

	if attempts.Load() != 1 {
		t.Fatalf("should not retry on 4xx, got %d attempts", attempts.Load())
	}
}

func TestDatabaseStatus(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &p)
		mu.Lock()
		texts = append(texts, p["text"])
		mu.Unlock()
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "fully-web")
	s.DatabaseStatus("FULLY", false)
	s.DatabaseStatus("FULLY", true)

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "unhealthy") || !strings.Contains(texts[1], "recovered") {
		t.Fatalf("unexpected notifications: %v", texts)
	}
}

func TestDefaultServiceName(t *testing.T) {
	s := NewSender("", "")
	if s.serviceName != "fully-web" {
		t.Fatalf("expected default service name, got %s", s.serviceName)
	}
}

func TestStartDatabaseAlerts_DeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &p)

		mu.Lock()
		first := len(texts) == 0
		mu.Unlock()
		if first {
			// a slow first delivery must not let later alerts overtake it
			time.Sleep(50 * time.Millisecond)
		}

		mu.Lock()
		texts = append(texts, p["text"])
		mu.Unlock()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSender(srv.URL, "fully-web")
	hook := s.StartDatabaseAlerts(ctx, 8)
	hook("FULLY", false)
	hook("FULLY", true)
	hook("FULLY", false)

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(texts)
		mu.Unlock()
		if n == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 notifications, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"unhealthy", "recovered", "unhealthy"}
	for i, w := range want {
		if !strings.Contains(texts[i], w) {
			t.Fatalf("notification %d: want %q, got %v", i, w, texts)
		}
	}
}

func TestStartDatabaseAlerts_StopsWithContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSender(srv.URL, "fully-web")
	hook := s.StartDatabaseAlerts(ctx, 1)
	cancel()

	// must not block once the sender is stopped
	hook("FULLY", false)
	hook("FULLY", true)
	time.Sleep(20 * time.Millisecond)

	if hits.Load() > 1 {
		t.Fatalf("expected at most one delivery after cancel, got %d", hits.Load())
	}
}
