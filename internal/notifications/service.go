package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"mapwatch/internal/config"
)

const userAgent = "mapwatch/0.1.0"

// Event names a notification type.
type Event string

const (
	EventMapDetected   Event = "map_detected"
	EventUnknownMap    Event = "unknown_map"
	EventCaptureFailed Event = "capture_failed"
	EventError         Event = "error"
	EventDaemonStarted Event = "daemon_started"
	EventDaemonStopped Event = "daemon_stopped"
	EventTest          Event = "test"
)

// Payload carries the event fields. Keys used: streamer, map, score, context,
// error, streamers.
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when the topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		detections:     cfg.Notifications.Detections,
		includeUnknown: cfg.Notifications.IncludeUnknown,
		errors:         cfg.Notifications.Errors,
		lastMap:        make(map[string]string),
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	detections     bool
	includeUnknown bool
	errors         bool

	mu      sync.Mutex
	lastMap map[string]string
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventMapDetected:
		if !n.detections {
			return message{}, false
		}
		streamer, label := payloadString(payload, "streamer"), payloadString(payload, "map")
		if !n.changed(streamer, label) {
			return message{}, false
		}
		body := fmt.Sprintf("🗺️ %s is on %s", streamer, label)
		if score := payloadString(payload, "score"); score != "" {
			body += fmt.Sprintf(" (score %s)", score)
		}
		return message{
			title: "mapwatch - Map Detected",
			body:  body,
			tags:  []string{"mapwatch", "map", "detected"},
		}, true
	case EventUnknownMap:
		if !n.detections || !n.includeUnknown {
			return message{}, false
		}
		streamer := payloadString(payload, "streamer")
		if !n.changed(streamer, "Unknown Map") {
			return message{}, false
		}
		return message{
			title:    "mapwatch - Unknown Map",
			body:     fmt.Sprintf("❔ Could not identify the map for %s", streamer),
			tags:     []string{"mapwatch", "map", "unknown"},
			priority: "low",
		}, true
	case EventCaptureFailed, EventError:
		if !n.errors {
			return message{}, false
		}
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		if streamer := payloadString(payload, "streamer"); streamer != "" {
			b.WriteString(" for ")
			b.WriteString(streamer)
		}
		b.WriteString(": ")
		if errText := payloadString(payload, "error"); errText != "" {
			b.WriteString(errText)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "mapwatch - Error",
			body:     b.String(),
			tags:     []string{"mapwatch", "error", "alert"},
			priority: "high",
		}, true
	case EventDaemonStarted:
		return message{
			title:    "mapwatch - Started",
			body:     fmt.Sprintf("▶️ Watching %s streamers", payloadString(payload, "streamers")),
			tags:     []string{"mapwatch", "daemon", "started"},
			priority: "low",
		}, true
	case EventDaemonStopped:
		return message{
			title:    "mapwatch - Stopped",
			body:     "⏹️ Watcher stopped",
			tags:     []string{"mapwatch", "daemon", "stopped"},
			priority: "low",
		}, true
	case EventTest:
		return message{
			title:    "mapwatch - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"mapwatch", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

// changed records label as the streamer's current map and reports whether it differs.
func (n *ntfyService) changed(streamer, label string) bool {
	key := strings.ToLower(strings.TrimSpace(streamer))
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastMap[key] == label {
		return false
	}
	n.lastMap[key] = label
	return true
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

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
	if msg.priority != "" && msg.priority != "default" {
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

func payloadString(p Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case error:
		return strings.TrimSpace(t.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
