package customelements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/lazydefine/pkg/dom"
)

var (
	// ErrAlreadyDefined is returned by Define when the name is taken.
	ErrAlreadyDefined = errors.New("customelements: name already defined")

	// ErrInvalidName is returned by Define for names that cannot be custom
	// element names.
	ErrInvalidName = errors.New("customelements: invalid custom element name")

	// ErrInvalidExtends is returned by Define when Extends names a custom
	// element instead of a built-in tag.
	ErrInvalidExtends = errors.New("customelements: extends must name a built-in element")

	// ErrNilImplementation is returned by Define when impl is nil.
	ErrNilImplementation = errors.New("customelements: nil implementation")
)

// Implementation constructs the behaviour attached to an upgraded element.
type Implementation interface {
	Construct(el *dom.Node) (any, error)
}

// ImplementationFunc adapts a function to Implementation.
type ImplementationFunc func(el *dom.Node) (any, error)

// Construct calls f(el).
func (f ImplementationFunc) Construct(el *dom.Node) (any, error) { return f(el) }

// DefineOptions configures a definition.
type DefineOptions struct {
	// Extends names the built-in tag a customized built-in definition
	// extends. Empty for autonomous definitions.
	Extends string
}

// Definition is a registered custom element.
type Definition struct {
	Name      string
	Extends   string
	Impl      Implementation
	DefinedAt time.Time
}

// Autonomous reports whether the definition matches by tag name.
func (d Definition) Autonomous() bool { return d.Extends == "" }

// Option configures a Registry.
type Option func(*Registry)

// WithRoleAttribute sets the attribute customized built-ins are matched by.
// The default is "role".
func WithRoleAttribute(name string) Option {
	return func(r *Registry) {
		if name != "" {
			r.roleAttr = strings.ToLower(name)
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry maps names to definitions. It is safe for concurrent use.
type Registry struct {
	roleAttr string
	logger   *slog.Logger

	mu      sync.RWMutex
	defs    map[string]*Definition
	waiters map[string]chan struct{}
	docs    []*dom.Document
	hooks   []func(Definition)
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		roleAttr: "role",
		logger:   slog.Default(),
		defs:     make(map[string]*Definition),
		waiters:  make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// RoleAttribute returns the attribute customized built-ins are matched by.
func (r *Registry) RoleAttribute() string { return r.roleAttr }

// Define registers impl under name. Matching elements in attached documents
// are upgraded before Define returns.
func (r *Registry) Define(name string, impl Implementation, opts DefineOptions) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if impl == nil {
		return fmt.Errorf("%w: %q", ErrNilImplementation, name)
	}
	extends := strings.ToLower(opts.Extends)
	if strings.Contains(extends, "-") {
		return fmt.Errorf("%w: %q extends %q", ErrInvalidExtends, name, extends)
	}

	def := &Definition{
		Name:      name,
		Extends:   extends,
		Impl:      impl,
		DefinedAt: time.Now(),
	}

	r.mu.Lock()
	if _, ok := r.defs[name]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadyDefined, name)
	}
	r.defs[name] = def
	if ch, ok := r.waiters[name]; ok {
		close(ch)
		delete(r.waiters, name)
	}
	docs := slices.Clone(r.docs)
	hooks := slices.Clone(r.hooks)
	r.mu.Unlock()

	r.logger.Debug("custom element defined", "name", name, "extends", extends)

	for _, doc := range docs {
		r.upgradeWith(doc.Node(), def)
	}
	for _, fn := range hooks {
		fn(*def)
	}
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return *def, true
}

// IsDefined reports whether name is registered.
func (r *Registry) IsDefined(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, *def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WhenDefined blocks until name is defined or ctx is done.
func (r *Registry) WhenDefined(ctx context.Context, name string) (Definition, error) {
	if !validName(name) {
		return Definition{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	r.mu.Lock()
	if def, ok := r.defs[name]; ok {
		r.mu.Unlock()
		return *def, nil
	}
	ch, ok := r.waiters[name]
	if !ok {
		ch = make(chan struct{})
		r.waiters[name] = ch
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return Definition{}, ctx.Err()
	case <-ch:
		def, _ := r.Get(name)
		return def, nil
	}
}

// OnDefine registers fn to be called after every successful Define.
func (r *Registry) OnDefine(fn func(Definition)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// validName is the registry's own check: lower-case first letter and a
// hyphen somewhere after it.
func validName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	return strings.IndexByte(name[1:], '-') >= 0
}
