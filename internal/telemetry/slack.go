package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
)

// SlackSink posts failures to a Slack incoming webhook. Delivery errors
// are logged and swallowed.
type SlackSink struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

// NewSlackSink creates a Slack-backed sink.
func NewSlackSink(webhookURL string, logger *slog.Logger) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type slackMessage struct {
	Text string `json:"text"`
}

func (s *SlackSink) Record(ctx context.Context, f model.UpstreamFailure) {
	msg := slackMessage{
		Text: fmt.Sprintf(":rotating_light: collection failed for *%s* (%s): %s",
			f.EmployerName, f.Source, f.Message),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("encoding slack message", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("building slack request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("posting to slack", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("slack webhook rejected message", "status", resp.StatusCode)
	}
}
