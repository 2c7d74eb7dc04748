package reports

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// InMemorySelectionStore keeps one selected element per viewer and template.
type InMemorySelectionStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewInMemorySelectionStore creates an empty selection store.
func NewInMemorySelectionStore() *InMemorySelectionStore {
	return &InMemorySelectionStore{data: make(map[string]string)}
}

// Selection returns the selected element id, or "" when nothing is selected.
// Anonymous viewers never have a selection.
func (s *InMemorySelectionStore) Selection(_ context.Context, viewer ViewerContext, templateID string) (string, error) {
	if viewer.UserID == "" {
		return "", nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[selectionKey(viewer, templateID)], nil
}

// SaveSelection stores elementID as the selection. An empty id clears it.
func (s *InMemorySelectionStore) SaveSelection(_ context.Context, viewer ViewerContext, templateID, elementID string) error {
	if viewer.UserID == "" {
		return errors.New("reports: selection store requires viewer user id")
	}
	key := selectionKey(viewer, templateID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if elementID == "" {
		delete(s.data, key)
		return nil
	}
	s.data[key] = elementID
	return nil
}

// ClearTemplate drops every viewer's selection on templateID.
func (s *InMemorySelectionStore) ClearTemplate(_ context.Context, templateID string) {
	suffix := "::" + templateID
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if strings.HasSuffix(key, suffix) {
			delete(s.data, key)
		}
	}
}

func selectionKey(viewer ViewerContext, templateID string) string {
	return viewer.UserID + "::" + templateID
}
