package loader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// Mux dispatches to a loader by URL scheme.
type Mux struct {
	mu       sync.RWMutex
	schemes  map[string]Loader
	fallback Loader
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{schemes: make(map[string]Loader)}
}

// Handle routes URLs with the given schemes to l.
func (m *Mux) Handle(l Loader, schemes ...string) *Mux {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range schemes {
		m.schemes[strings.ToLower(s)] = l
	}
	return m
}

// Fallback sets the loader used for schemes without a route.
func (m *Mux) Fallback(l Loader) *Mux {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = l
	return m
}

// Load dispatches u.
func (m *Mux) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	m.mu.RLock()
	l, ok := m.schemes[strings.ToLower(u.Scheme)]
	if !ok {
		l = m.fallback
	}
	m.mu.RUnlock()

	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return l.Load(ctx, u)
}
