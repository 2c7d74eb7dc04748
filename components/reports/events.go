package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// BroadcastHook fans canvas events out to in-process subscribers.
// Slow subscribers drop events instead of blocking the mutation path.
type BroadcastHook struct {
	// CheckOrigin vets websocket upgrades. Nil allows same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

type subscription struct {
	templateID string
	ch         chan CanvasEvent
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]subscription)}
}

// CanvasChanged implements ChangeHook.
func (h *BroadcastHook) CanvasChanged(_ context.Context, event CanvasEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.templateID != "" && sub.templateID != event.TemplateID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events for templateID ("" for all templates) and a cancel func.
func (h *BroadcastHook) Subscribe(templateID string) (<-chan CanvasEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan CanvasEvent, 16)
	h.subs[id] = subscription{templateID: templateID, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// ServeWebSocket upgrades the request and streams events as JSON.
// The optional "template" query parameter narrows the stream. The stream ends
// once the client closes or the connection fails.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: h.CheckOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(r.URL.Query().Get("template"))
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go func() {
		defer stop()
		// drains control frames so close and ping are handled
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams events as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe(r.URL.Query().Get("template"))
	defer cancel()

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				return
			}
			if _, err := w.Write([]byte("event: " + event.Reason + "\ndata: " + string(data) + "\n\n")); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// ChangeHooks fans an event out to several hooks and joins their errors.
type ChangeHooks []ChangeHook

// CanvasChanged implements ChangeHook.
func (hooks ChangeHooks) CanvasChanged(ctx context.Context, event CanvasEvent) error {
	var errs error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook.CanvasChanged(ctx, event); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// NotificationsClient is the minimal surface needed from an external notifications service.
type NotificationsClient interface {
	PublishReportEvent(ctx context.Context, event CanvasEvent) error
}

// NotificationsHook forwards canvas events to a notifications client.
type NotificationsHook struct {
	Client NotificationsClient
	// Reasons limits forwarding to these reasons; empty forwards everything.
	Reasons []string
}

// CanvasChanged implements ChangeHook.
func (h *NotificationsHook) CanvasChanged(ctx context.Context, event CanvasEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	if len(h.Reasons) > 0 {
		match := false
		for _, reason := range h.Reasons {
			if reason == event.Reason {
				match = true
				break
			}
		}
		if !match {
			return nil
		}
	}
	return h.Client.PublishReportEvent(ctx, event)
}

type noopChangeHook struct{}

func (noopChangeHook) CanvasChanged(context.Context, CanvasEvent) error { return nil }
