package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/fully-web/internal/retry"
)

type Sender struct {
	webhookURL  string
	serviceName string
	httpClient  *http.Client
	retry       retry.Config
}

func NewSender(webhookURL, serviceName string) *Sender {
	if serviceName == "" {
		serviceName = "fully-web"
	}
	return &Sender{
		webhookURL:  webhookURL,
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		retry: retry.Config{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
}

func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.serviceName, msg)
	fmt.Printf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), formatted)

	if s.webhookURL == "" {
		return
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		fmt.Printf("[NOTIFY ERROR] marshal: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = retry.Do(ctx, s.retry, "[NOTIFY] webhook", func(ctx context.Context) error {
		return s.post(ctx, body)
	})
	if err != nil {
		fmt.Printf("[NOTIFY ERROR] Failed to send notification: %v\n", err)
	}
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(snippet))
	if resp.StatusCode < 500 {
		return retry.Permanent(err)
	}
	return err
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.serviceName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.serviceName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// DatabaseStatus is a db.StatusHook that announces health transitions.
func (s *Sender) DatabaseStatus(name string, healthy bool) {
	if healthy {
		s.Send(fmt.Sprintf("database %s recovered", name))
		return
	}
	s.Send(fmt.Sprintf("database %s is unhealthy", name))
}

type statusAlert struct {
	name    string
	healthy bool
}

// StartDatabaseAlerts starts one delivery goroutine and returns a
// db.StatusHook that queues transitions for it. Alerts go out in the order
// the hook saw them until ctx is done; when more than buffer alerts are
// waiting, new ones are dropped and logged.
func (s *Sender) StartDatabaseAlerts(ctx context.Context, buffer int) func(name string, healthy bool) {
	queue := make(chan statusAlert, buffer)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-queue:
				s.DatabaseStatus(a.name, a.healthy)
			}
		}
	}()

	return func(name string, healthy bool) {
		select {
		case queue <- statusAlert{name: name, healthy: healthy}:
		case <-ctx.Done():
		default:
			fmt.Printf("[NOTIFY ERROR] alert queue full, dropped status of database %s (healthy=%t)\n", name, healthy)
		}
	}
}
