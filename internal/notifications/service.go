package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dubber/internal/config"
)

const userAgent = "dubber/0.1.0"

// Event names a run milestone.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventRunFailed    Event = "run_failed"
	EventTest         Event = "test"
)

// Payload carries event details keyed by name.
type Payload map[string]any

// Service publishes run events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy notifier, or a no-op when no topic is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	video := payload.text("video")
	language := payload.text("language")
	switch event {
	case EventRunCompleted:
		body := fmt.Sprintf("Dub ready: %s", video)
		if language != "" {
			body = fmt.Sprintf("Dub ready (%s): %s", language, video)
		}
		if output := payload.text("output"); output != "" {
			body += "\nFile: " + output
		}
		if uri := payload.text("published"); uri != "" {
			body += "\nPublished: " + uri
		}
		if skipped := payload.count("skipped"); skipped > 0 {
			body += fmt.Sprintf("\nSkipped segments: %d", skipped)
		}
		if d := payload.elapsed("duration"); d > 0 {
			body += "\nTook: " + d.Round(time.Second).String()
		}
		return message{
			title: "Dubber - Complete",
			body:  body,
			tags:  []string{"dubber", "run", "completed"},
		}, true
	case EventRunFailed:
		var b strings.Builder
		b.WriteString("Dub failed")
		if stage := payload.text("stage"); stage != "" {
			b.WriteString(" during ")
			b.WriteString(stage)
		}
		if video != "" {
			b.WriteString(": ")
			b.WriteString(video)
		}
		if errText := payload.text("error"); errText != "" {
			b.WriteString("\n")
			b.WriteString(errText)
		}
		return message{
			title:    "Dubber - Failed",
			body:     b.String(),
			tags:     []string{"dubber", "run", "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Dubber - Test",
			body:     "Notification system test",
			tags:     []string{"dubber", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) count(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) elapsed(key string) time.Duration {
	if p == nil {
		return 0
	}
	if v, ok := p[key].(time.Duration); ok {
		return v
	}
	return 0
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
