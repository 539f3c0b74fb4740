// Package notify pushes fill notifications to a chat webhook. Delivery is
// best effort: a failed notification is logged and dropped, never allowed
// to fail the trade path.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Sender struct {
	url    string
	name   string
	client *http.Client
	log    *zap.Logger
}

func NewSender(webhookURL, botName string, log *zap.Logger) *Sender {
	if botName == "" {
		botName = "spotbot"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{
		url:    webhookURL,
		name:   botName,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (s *Sender) Enabled() bool { return s.url != "" }

// Send posts a message to the webhook. Discord and Slack-compatible
// payloads are chosen by URL.
func (s *Sender) Send(ctx context.Context, msg string) {
	if s.url == "" {
		return
	}

	body, err := json.Marshal(s.payload(fmt.Sprintf("[%s] %s", s.name, msg)))
	if err != nil {
		s.log.Warn("webhook payload marshal failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.log.Warn("webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("webhook send failed", zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.log.Warn("webhook rejected", zap.Int("status", resp.StatusCode))
	}
}

func (s *Sender) payload(msg string) map[string]string {
	if strings.Contains(s.url, "discord") {
		return map[string]string{"content": msg, "username": s.name}
	}
	return map[string]string{"text": msg, "username": s.name}
}
