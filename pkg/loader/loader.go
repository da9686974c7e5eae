package loader

import (
	"context"
	"errors"
	"net/url"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// ErrNotFound is returned when no module exists at a URL.
var ErrNotFound = errors.New("loader: module not found")

// ErrUnsupportedScheme is returned by Mux for URLs whose scheme has no loader.
var ErrUnsupportedScheme = errors.New("loader: unsupported URL scheme")

// Loader loads the implementation published at a URL. A nil implementation
// with a nil error means there is nothing to define.
type Loader interface {
	Load(ctx context.Context, u *url.URL) (customelements.Implementation, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, u *url.URL) (customelements.Implementation, error)

// Load calls f(ctx, u).
func (f LoaderFunc) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	return f(ctx, u)
}
