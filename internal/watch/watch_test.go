package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/customelements"
	"github.com/vango-dev/lazydefine/pkg/dom"
	"github.com/vango-dev/lazydefine/pkg/lazydef"
	"github.com/vango-dev/lazydefine/pkg/loader"
)

func writeHTML(t *testing.T, path, body string) {
	t.Helper()
	page := "<!DOCTYPE html><html><head></head><body>" + body + "</body></html>"
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		t.Fatal(err)
	}
}

func tags(doc *dom.Document) []string {
	var out []string
	for _, el := range doc.Elements() {
		switch el.TagName() {
		case "html", "head", "body":
			continue
		}
		out = append(out, el.TagName())
	}
	return out
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.html"), nil)
	if !errors.HasCode(err, "E302") {
		t.Errorf("Open() error = %v, want E302", err)
	}
}

func TestReloadAppliesDiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	writeHTML(t, path, `<x-a></x-a><p>text</p>`)

	f, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	doc := f.Document()
	if got := tags(doc); len(got) != 2 || got[0] != "x-a" || got[1] != "p" {
		t.Fatalf("tags = %v, want [x-a p]", got)
	}
	first := doc.Elements()[3]

	var added []string
	mo := dom.NewMutationObserver(func(records []dom.MutationRecord, _ *dom.MutationObserver) {
		for _, rec := range records {
			for _, n := range rec.AddedNodes {
				if n.IsElement() {
					added = append(added, n.TagName())
				}
			}
		}
	})
	if err := mo.Observe(doc.Node(), dom.ObserveOptions{ChildList: true, Subtree: true}); err != nil {
		t.Fatal(err)
	}

	writeHTML(t, path, `<x-a></x-a><p>text</p><x-b><y-c></y-c></x-b>`)
	n, err := f.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if n == 0 {
		t.Error("Reload() applied no patches")
	}
	if len(added) != 2 || added[0] != "x-b" || added[1] != "y-c" {
		t.Errorf("added = %v, want [x-b y-c]", added)
	}
	if doc.Elements()[3] != first {
		t.Error("unchanged element should keep its identity across reloads")
	}
}

func TestReloadKeepsDocumentOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	writeHTML(t, path, `<x-a></x-a>`)

	f, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Reload(); !errors.HasCode(err, "E302") {
		t.Errorf("Reload() error = %v, want E302", err)
	}
	if got := tags(f.Document()); len(got) != 1 || got[0] != "x-a" {
		t.Errorf("tags after failed reload = %v, want [x-a]", got)
	}
}

func TestWatcherDebounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	writeHTML(t, path, "")

	w, err := NewWatcher(Config{Path: path, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	changes, err := w.Start()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		writeHTML(t, path, "<p></p>")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-changes:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	other := filepath.Join(dir, "other.html")
	writeHTML(t, path, "")
	writeHTML(t, other, "")

	w, err := NewWatcher(Config{Path: path, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	changes, err := w.Start()
	if err != nil {
		t.Fatal(err)
	}

	writeHTML(t, other, "<p></p>")
	select {
	case <-changes:
		t.Fatal("write to another file should not notify")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRunDefinesInsertedElements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	writeHTML(t, path, `<p></p>`)

	f, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	mods := loader.NewModules()
	mods.Register("x-late.js", customelements.ImplementationFunc(func(*dom.Node) (any, error) {
		return "late", nil
	}))
	reg := customelements.New()
	reg.Attach(f.Document())

	obs, err := lazydef.New(
		lazydef.WithLoader(mods),
		lazydef.WithRegistry(reg),
		lazydef.WithMetrics(prometheus.NewRegistry()),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := obs.Observe(f.Document().Node(), lazydef.DefaultObserveOptions()); err != nil {
		t.Fatal(err)
	}
	defer obs.Disconnect()

	w, err := NewWatcher(Config{Path: path, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, f, w) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	writeHTML(t, path, `<p></p><x-late></x-late>`)

	wctx, wcancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer wcancel()
	if _, err := reg.WhenDefined(wctx, "x-late"); err != nil {
		t.Fatalf("x-late was not defined: %v", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
