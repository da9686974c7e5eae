package watch

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/dom"
	"github.com/vango-dev/lazydefine/pkg/vdom"
)

// File keeps a live document in sync with an HTML file on disk. Each reload
// diffs the new markup against the previous parse and applies the patches,
// so observers of the document see ordinary mutations.
type File struct {
	path   string
	doc    *dom.Document
	logger *slog.Logger

	mu      sync.Mutex
	gen     *vdom.HIDGenerator
	current *vdom.VNode
}

// Open parses path and loads it into a new document.
func Open(path string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &File{
		path:   path,
		doc:    dom.NewDocument(),
		gen:    vdom.NewHIDGenerator(),
		logger: logger.With("file", path),
	}

	v, err := f.parse()
	if err != nil {
		return nil, err
	}
	vdom.AssignHIDs(v, f.gen)
	if err := f.doc.LoadVNode(v); err != nil {
		return nil, errors.New("E302").WithDetail(path).Wrap(err)
	}
	f.current = v
	return f, nil
}

// Document returns the live document.
func (f *File) Document() *dom.Document { return f.doc }

// Path returns the watched file path.
func (f *File) Path() string { return f.path }

// Reload re-reads the file and applies the difference to the document,
// then flushes pending mutation records. It returns the number of patches
// applied.
func (f *File) Reload() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := f.parse()
	if err != nil {
		return 0, err
	}

	patches := vdom.Diff(f.current, next)
	vdom.AssignHIDs(next, f.gen)
	if err := f.doc.Apply(patches); err != nil {
		return 0, errors.New("E302").WithDetail(f.path).Wrap(err)
	}
	f.current = next
	f.doc.Flush()
	return len(patches), nil
}

func (f *File) parse() (*vdom.VNode, error) {
	r, err := os.Open(f.path)
	if err != nil {
		return nil, errors.New("E302").WithDetail(f.path).Wrap(err)
	}
	defer r.Close()

	v, err := vdom.ParseHTML(r)
	if err != nil {
		return nil, errors.New("E302").WithDetail(f.path).Wrap(err)
	}
	return v, nil
}

// Run reloads f on every signal from w until ctx is cancelled. Reload and
// watcher errors are logged and do not stop the loop.
func Run(ctx context.Context, f *File, w *Watcher) error {
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			n, err := f.Reload()
			if err != nil {
				f.logger.Error("reload failed", "error", err)
				continue
			}
			f.logger.Info("document reloaded", "patches", n)
		case err := <-w.Errors():
			f.logger.Warn("watch error", "error", err)
		}
	}
}
