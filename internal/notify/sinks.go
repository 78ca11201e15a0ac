package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/strayaid-systems/strayaid/pkg/logging"
)

// Sink delivers notifications to one destination. Deliver must be idempotent
// with respect to the notification key; the fan-out retries on error.
type Sink interface {
	Name() string
	// Wants reports whether the sink subscribes to an event kind.
	Wants(kind string) bool
	Deliver(ctx context.Context, n *Notification) error
}

// SinkConfig is one entry in the sinks file.
type SinkConfig struct {
	Name    string        `yaml:"name"`
	Type    string        `yaml:"type"` // log or webhook
	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Events  []string      `yaml:"events,omitempty"` // empty means all kinds
}

type sinksFile struct {
	Sinks []SinkConfig `yaml:"sinks"`
}

// LoadSinks reads the sink registry from a YAML file and constructs the
// configured sinks.
func LoadSinks(path string, logger *logging.Logger) ([]Sink, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	var file sinksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sinks file: %w", err)
	}

	sinks := make([]Sink, 0, len(file.Sinks))
	for _, cfg := range file.Sinks {
		switch cfg.Type {
		case "log":
			sinks = append(sinks, NewLogSink(cfg.Name, cfg.Events, logger))
		case "webhook":
			if cfg.URL == "" {
				return nil, fmt.Errorf("webhook sink %q has no url", cfg.Name)
			}
			sinks = append(sinks, NewWebhookSink(cfg.Name, cfg.URL, cfg.Timeout, cfg.Events))
		default:
			return nil, fmt.Errorf("sink %q has unknown type %q", cfg.Name, cfg.Type)
		}
	}
	return sinks, nil
}

func wantsKind(events []string, kind string) bool {
	if len(events) == 0 {
		return true
	}
	for _, e := range events {
		if e == kind {
			return true
		}
	}
	return false
}

// LogSink writes notifications to the structured log. Useful as a default
// sink and in development.
type LogSink struct {
	name   string
	events []string
	logger *logging.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(name string, events []string, logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{name: name, events: events, logger: logger}
}

func (s *LogSink) Name() string           { return s.name }
func (s *LogSink) Wants(kind string) bool { return wantsKind(s.events, kind) }

func (s *LogSink) Deliver(ctx context.Context, n *Notification) error {
	s.logger.InfoContext(ctx, "notification",
		logging.Component("notify."+s.name),
		logging.CaseID(n.CaseID),
		logging.Seq(n.SourceSeq),
		"kind", n.Kind,
	)
	return nil
}

// WebhookSink POSTs notifications to an HTTP endpoint. The idempotency key
// rides in a header so receivers can dedup without parsing the body.
type WebhookSink struct {
	name   string
	url    string
	events []string
	http   *http.Client
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(name, url string, timeout time.Duration, events []string) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		name:   name,
		url:    url,
		events: events,
		http:   &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSink) Name() string           { return s.name }
func (s *WebhookSink) Wants(kind string) bool { return wantsKind(s.events, kind) }

func (s *WebhookSink) Deliver(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", n.Key)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sink %s returned %d", s.name, resp.StatusCode)
	}
	return nil
}
