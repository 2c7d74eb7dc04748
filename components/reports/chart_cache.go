package reports

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes rendered chart HTML per template.
type RenderCache interface {
	GetOrRender(templateID, key string, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered charts grouped by template for ttl. It doubles as a ChangeHook:
// any canvas event drops the charts of the template it names. A zero TTL disables caching.
type ChartCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	templates map[string]map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

var (
	_ RenderCache = (*ChartCache)(nil)
	_ ChangeHook  = (*ChartCache)(nil)
)

// NewChartCache builds a cache with the provided TTL.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:       ttl,
		now:       time.Now,
		templates: map[string]map[string]cachedChart{},
	}
}

// GetOrRender returns the cached chart for key or renders and stores it. Render errors are not cached.
func (c *ChartCache) GetOrRender(templateID, key string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	now := c.now()
	c.mu.Lock()
	entry, ok := c.templates[templateID][key]
	if ok && now.After(entry.expires) {
		delete(c.templates[templateID], key)
		ok = false
	}
	c.mu.Unlock()
	if ok {
		return entry.html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	charts := c.templates[templateID]
	if charts == nil {
		charts = map[string]cachedChart{}
		c.templates[templateID] = charts
	}
	charts[key] = cachedChart{html: html, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return html, nil
}

// Forget drops every chart cached for templateID.
func (c *ChartCache) Forget(templateID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.templates, templateID)
	c.mu.Unlock()
}

// Invalidate drops every cached chart.
func (c *ChartCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.templates = map[string]map[string]cachedChart{}
	c.mu.Unlock()
}

// Len returns the number of cached charts for templateID.
func (c *ChartCache) Len(templateID string) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.templates[templateID])
}

// CanvasChanged implements ChangeHook.
func (c *ChartCache) CanvasChanged(_ context.Context, event CanvasEvent) error {
	c.Forget(event.TemplateID)
	return nil
}

// configHash returns a deterministic hash of an element config. encoding/json sorts map keys.
func configHash(cfg map[string]any) string {
	if len(cfg) == 0 {
		return "empty"
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
