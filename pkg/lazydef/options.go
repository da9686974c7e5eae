package lazydef

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/customelements"
	"github.com/vango-dev/lazydefine/pkg/loader"
)

// DefaultBaseURL is the location relative URL strings are resolved against.
const DefaultBaseURL = "file:///"

// FilterFunc decides whether a name should be handled. It must return the
// same answer for the same name.
type FilterFunc func(name string) bool

// FilterSet is an explicit set of names to handle.
type FilterSet map[string]struct{}

// NewFilterSet returns a FilterSet holding names.
func NewFilterSet(names ...string) FilterSet {
	s := make(FilterSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set.
func (s FilterSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// URLResolverFunc maps a name to a module URL string. Relative strings are
// resolved against the observer's base URL.
type URLResolverFunc func(name string) (string, error)

// URLTable maps names to module URL strings. Names missing from the table
// have no URL and fail resolution.
type URLTable map[string]string

// Option configures an Observer. Options that receive a value of an
// unsupported shape make New fail with E200.
type Option func(*Observer) error

// WithFilter sets the name filter. Accepted shapes: FilterFunc,
// func(string) bool, FilterSet, []string, map[string]bool (names mapped to
// true) and nil (handle every name).
func WithFilter(filter any) Option {
	return func(o *Observer) error {
		switch f := filter.(type) {
		case nil:
			o.filter = nil
		case FilterFunc:
			o.filter = f
		case func(string) bool:
			o.filter = f
		case FilterSet:
			o.filter = f.Contains
		case []string:
			o.filter = NewFilterSet(f...).Contains
		case map[string]bool:
			set := make(FilterSet, len(f))
			for name, ok := range f {
				if ok {
					set[name] = struct{}{}
				}
			}
			o.filter = set.Contains
		default:
			return invalidOption("filter", filter)
		}
		return nil
	}
}

// WithURLResolver sets how names become module URLs. Accepted shapes:
// URLResolverFunc, func(string) string, func(string) (string, error),
// func(string) *url.URL, func(string) (*url.URL, error), URLTable,
// map[string]string and map[string]*url.URL.
func WithURLResolver(resolver any) Option {
	return func(o *Observer) error {
		switch r := resolver.(type) {
		case URLResolverFunc:
			o.resolve = func(name string) (any, error) { return r(name) }
		case func(string) (string, error):
			o.resolve = func(name string) (any, error) { return r(name) }
		case func(string) string:
			o.resolve = func(name string) (any, error) { return r(name), nil }
		case func(string) *url.URL:
			o.resolve = func(name string) (any, error) { return r(name), nil }
		case func(string) (*url.URL, error):
			o.resolve = func(name string) (any, error) { return r(name) }
		case URLTable:
			o.resolve = lookupTable(r)
		case map[string]string:
			o.resolve = lookupTable(r)
		case map[string]*url.URL:
			o.resolve = func(name string) (any, error) {
				if u, ok := r[name]; ok {
					return u, nil
				}
				return nil, nil
			}
		default:
			return invalidOption("urlResolver", resolver)
		}
		return nil
	}
}

func lookupTable(table map[string]string) func(string) (any, error) {
	return func(name string) (any, error) {
		if s, ok := table[name]; ok {
			return s, nil
		}
		return nil, nil
	}
}

// WithLoader sets the loader. Accepted shapes: loader.Loader,
// func(context.Context, *url.URL) (customelements.Implementation, error) and
// func(*url.URL) (customelements.Implementation, error).
func WithLoader(l any) Option {
	return func(o *Observer) error {
		switch fn := l.(type) {
		case loader.Loader:
			o.loader = fn
		case func(context.Context, *url.URL) (customelements.Implementation, error):
			o.loader = loader.LoaderFunc(fn)
		case func(*url.URL) (customelements.Implementation, error):
			o.loader = loader.LoaderFunc(func(_ context.Context, u *url.URL) (customelements.Implementation, error) {
				return fn(u)
			})
		default:
			return invalidOption("loader", l)
		}
		return nil
	}
}

// WithRegistry sets the registry definitions are installed into. The default
// is customelements.Default().
func WithRegistry(r *customelements.Registry) Option {
	return func(o *Observer) error {
		if r == nil {
			return invalidOption("registry", r)
		}
		o.registry = r
		return nil
	}
}

// WithRoleAttribute sets the attribute built-in elements name their
// customization with. It must match the registry's attribute, which is also
// the default.
func WithRoleAttribute(name string) Option {
	return func(o *Observer) error {
		if name == "" {
			return errors.New("E200").WithDetail("The role attribute name must not be empty.")
		}
		o.roleAttr = strings.ToLower(name)
		return nil
	}
}

// WithBaseURL sets the URL relative resolver results are resolved against.
func WithBaseURL(base string) Option {
	return func(o *Observer) error {
		u, err := url.Parse(base)
		if err != nil {
			return errors.New("E200").
				WithDetail(fmt.Sprintf("Base URL %q does not parse.", base)).
				Wrap(err)
		}
		o.base = u
		return nil
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// WithMetrics registers the observer's metrics with reg instead of
// prometheus.DefaultRegisterer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Observer) error {
		if reg != nil {
			o.metrics = metricsFor(reg)
		}
		return nil
	}
}

// WithTracer sets the tracer load spans are recorded with.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Observer) error {
		if tracer != nil {
			o.tracer = tracer
		}
		return nil
	}
}

// WithContext sets the context loads run under. Cancelling it cancels loads
// that honour their context; it does not stop observation.
func WithContext(ctx context.Context) Option {
	return func(o *Observer) error {
		if ctx != nil {
			o.ctx = ctx
		}
		return nil
	}
}

func invalidOption(option string, v any) *errors.Error {
	return errors.New("E200").
		WithDetail(fmt.Sprintf("Option %s does not accept a value of type %T.", option, v)).
		WithSuggestion("Pass a function or one of the collection types listed in the option's documentation.")
}

// defaultResolver maps a name to "<name>.js" relative to the base URL.
func defaultResolver(name string) (any, error) {
	return name + ".js", nil
}
