package domain

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for application-owned entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IDGenerator hands out identifiers for tables, fields and links.
// Implementations must never return the same value twice.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates UUIDv7 identifiers.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string { return NewID() }

// SequenceGenerator generates "<prefix><n>" identifiers from a monotonic counter.
// Safe for concurrent use.
type SequenceGenerator struct {
	prefix string
	mu     sync.Mutex
	next   int
}

// NewSequenceGenerator returns a SequenceGenerator starting at 1.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix, next: 1}
}

// NewID implements IDGenerator.
func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.prefix + strconv.Itoa(g.next)
	g.next++
	return id
}
