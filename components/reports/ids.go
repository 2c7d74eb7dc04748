package reports

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator issues identifiers for templates and elements.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function into an IDGenerator.
type IDGeneratorFunc func() string

// NewID implements IDGenerator.
func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceGenerator issues prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceGenerator struct {
	Prefix string

	mu   sync.Mutex
	next int
}

// NewID implements IDGenerator.
func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "e"
	}
	return fmt.Sprintf("%s%d", prefix, g.next)
}

func normalizeIDGenerator(gen IDGenerator) IDGenerator {
	if gen == nil {
		return UUIDGenerator{}
	}
	return gen
}
