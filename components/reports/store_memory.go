package reports

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryTemplateStore is a concurrency-safe TemplateStore for tests and single-process use.
type InMemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewInMemoryTemplateStore creates an empty store.
func NewInMemoryTemplateStore() *InMemoryTemplateStore {
	return &InMemoryTemplateStore{templates: make(map[string]Template)}
}

// Create stores a new template. The id must be set and unused.
func (s *InMemoryTemplateStore) Create(_ context.Context, tpl Template) (Template, error) {
	if tpl.ID == "" {
		return Template{}, errMissingTemplateID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[tpl.ID]; exists {
		return Template{}, fmt.Errorf("reports: template %s already exists", tpl.ID)
	}
	s.templates[tpl.ID] = cloneTemplate(tpl)
	return cloneTemplate(tpl), nil
}

// Get returns a copy of the stored template.
func (s *InMemoryTemplateStore) Get(_ context.Context, id string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return cloneTemplate(tpl), nil
}

// Update replaces the full document.
func (s *InMemoryTemplateStore) Update(_ context.Context, tpl Template) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[tpl.ID]; !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, tpl.ID)
	}
	s.templates[tpl.ID] = cloneTemplate(tpl)
	return cloneTemplate(tpl), nil
}

// Delete removes the template.
func (s *InMemoryTemplateStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	delete(s.templates, id)
	return nil
}

// List returns copies of every template ordered by creation time, then id.
func (s *InMemoryTemplateStore) List(_ context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, cloneTemplate(tpl))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
