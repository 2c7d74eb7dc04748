package activity

import (
	"context"
	"errors"
	"sync"
)

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, evt Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, evt Event) error

// Notify implements Hook.
func (f HookFunc) Notify(ctx context.Context, evt Event) error { return f(ctx, evt) }

// Hooks fans an event out to several hooks.
type Hooks []Hook

// Notify normalizes evt, skips it when verb or object is missing, and joins hook errors.
func (hooks Hooks) Notify(ctx context.Context, evt Event) error {
	evt = NormalizeEvent(evt)
	if !evt.valid() {
		return nil
	}
	var errs error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, evt); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// CaptureHook records events in memory.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
}

// Notify implements Hook.
func (c *CaptureHook) Notify(_ context.Context, evt Event) error {
	c.mu.Lock()
	c.Events = append(c.Events, evt)
	c.mu.Unlock()
	return nil
}
