package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// FS loads element descriptors from a file system. The URL path, without its
// leading slash, names the file.
type FS struct {
	fsys fs.FS
}

// NewFS creates a loader reading from fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Load reads and decodes the file named by u.
func (l *FS) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(u.Path, "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("loader: invalid path %q", u.Path)
	}

	data, err := fs.ReadFile(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	if err != nil {
		return nil, err
	}
	return Decode(data, DetectFormat("", name))
}
