package activity

import "context"

// DefaultChannel tags events that do not carry a channel.
const DefaultChannel = "reports"

// Config toggles activity emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter stamps the configured channel on events and forwards them to hooks.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter builds an emitter. It stays disabled when no hooks are given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether Emit forwards anything.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit forwards evt when the emitter is enabled.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	return e.hooks.Notify(ctx, evt)
}
