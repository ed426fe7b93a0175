package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownSearchType is returned by Resolve for unregistered names.
var ErrUnknownSearchType = errors.New("unknown searchtype")

// Registry maps searchtype names to parsers. Names are case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// DefaultRegistry registers the BLAST parser under every BLAST program name
// and the custom table parser under "custom".
func DefaultRegistry(enricher Enricher, logger *slog.Logger) *Registry {
	r := NewRegistry()
	blast := NewBlast(enricher, logger)
	for _, p := range BlastPrograms {
		r.Register(p, blast)
	}
	r.Register(CustomSearchType, NewCustom(logger))
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register binds name to p, replacing any previous binding.
func (r *Registry) Register(name string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[normalize(name)] = p
}

// Resolve returns the parser bound to name.
func (r *Registry) Resolve(name string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSearchType, name)
	}
	return p, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.parsers))
	for n := range r.parsers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
