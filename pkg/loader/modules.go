package loader

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// Modules is an in-process module map from specifiers to implementations.
//
// A URL is looked up by its full string, then by its path, then by its path
// without the leading slash, so "file:///elements/x-a.js", "/elements/x-a.js"
// and "elements/x-a.js" all name the same module.
type Modules struct {
	mu      sync.RWMutex
	modules map[string]customelements.Implementation
}

// NewModules creates an empty module map.
func NewModules() *Modules {
	return &Modules{modules: make(map[string]customelements.Implementation)}
}

// Import is the process-wide module map and the default loader.
var Import = NewModules()

// Register adds a module to the process-wide map. It panics if the
// specifier is already registered. A nil implementation registers a module
// that loads but defines nothing.
func Register(specifier string, impl customelements.Implementation) {
	Import.Register(specifier, impl)
}

// Register adds a module. It panics if the specifier is already registered.
func (m *Modules) Register(specifier string, impl customelements.Implementation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.modules[specifier]; dup {
		panic("loader: Register called twice for module " + specifier)
	}
	m.modules[specifier] = impl
}

// Specifiers returns the registered specifiers in sorted order.
func (m *Modules) Specifiers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.modules))
	for s := range m.modules {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Load returns the module registered for u.
func (m *Modules) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range []string{u.String(), u.Path, strings.TrimPrefix(u.Path, "/")} {
		if key == "" {
			continue
		}
		if impl, ok := m.modules[key]; ok {
			return impl, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
}
