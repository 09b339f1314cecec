package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dubber/internal/config"
	"dubber/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
	calls    int
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		data, _ := io.ReadAll(r.Body)
		got.body = string(data)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newService(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.Payload{"video": "clip.mp4"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "run completed",
			event: notifications.EventRunCompleted,
			payload: notifications.Payload{
				"video":     "clip.mp4",
				"language":  "Hindi",
				"output":    "/out/dubbed_clip.mp4",
				"published": "s3://dubs/dubbed_videos/dubbed_clip.mp4",
				"skipped":   2,
				"duration":  95 * time.Second,
			},
			expectTitle: "Dubber - Complete",
			expectBody:  "Dub ready (Hindi): clip.mp4\nFile: /out/dubbed_clip.mp4\nPublished: s3://dubs/dubbed_videos/dubbed_clip.mp4\nSkipped segments: 2\nTook: 1m35s",
			expectTags:  "dubber,run,completed",
		},
		{
			name:  "run failed",
			event: notifications.EventRunFailed,
			payload: notifications.Payload{
				"video": "clip.mp4",
				"stage": "analysis",
				"error": errors.New("script parse failed"),
			},
			expectTitle:    "Dubber - Failed",
			expectBody:     "Dub failed during analysis: clip.mp4\nscript parse failed",
			expectTags:     "dubber,run,failed",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Dubber - Test",
			expectBody:     "Notification system test",
			expectTags:     "dubber,test",
			expectPriority: "low",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, got := newServer(t, http.StatusOK)
			if err := newService(srv.URL).Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Errorf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectBody {
				t.Errorf("body = %q, want %q", got.body, tc.expectBody)
			}
			if got.tags != tc.expectTags {
				t.Errorf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Errorf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceIgnoresUnknownEvents(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	if err := newService(srv.URL).Publish(context.Background(), notifications.Event("segment_started"), nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("expected no request, got %d", got.calls)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusTooManyRequests)
	err := newService(srv.URL).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
