package lazydef

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/customelements"
	"github.com/vango-dev/lazydefine/pkg/dom"
	"github.com/vango-dev/lazydefine/pkg/vdom"
)

// errSink collects errors reported through the unhandled error handler.
type errSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errSink) add(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errSink) all() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.errs)
}

func captureUnhandled(t *testing.T) *errSink {
	t.Helper()
	sink := &errSink{}
	prev := SetUnhandledErrorHandler(sink.add)
	t.Cleanup(func() { SetUnhandledErrorHandler(prev) })
	return sink
}

// filterLog records every name the filter is asked about.
type filterLog struct {
	mu     sync.Mutex
	names  []string
	accept bool
}

func (f *filterLog) filter(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return f.accept
}

func (f *filterLog) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.names)
}

func newObserver(t *testing.T, reg *customelements.Registry, opts ...Option) *Observer {
	t.Helper()
	opts = append([]Option{WithRegistry(reg), WithMetrics(prometheus.NewRegistry())}, opts...)
	obs, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(obs.Disconnect)
	return obs
}

// mount builds markup into a fresh <main> container attached to a new
// document and returns the container.
func mount(t *testing.T, markup string) (*dom.Document, *dom.Node) {
	t.Helper()
	doc := dom.NewDocument()
	container := doc.CreateElement("main")
	if err := doc.Node().AppendChild(container); err != nil {
		t.Fatal(err)
	}
	nodes, err := vdom.ParseFragment(markup)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range nodes {
		if _, err := doc.Mount(container, v); err != nil {
			t.Fatal(err)
		}
	}
	return doc, container
}

func implFor(tag string) customelements.Implementation {
	return customelements.ImplementationFunc(func(el *dom.Node) (any, error) {
		return tag, nil
	})
}

func TestScanDisabled(t *testing.T) {
	_, container := mount(t, `<x-a><x-b></x-b></x-a>`)
	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))

	if err := obs.Observe(container, ObserveOptions{Scan: false, Subtree: true}); err != nil {
		t.Fatal(err)
	}
	if n := len(log.seen()); n != 0 {
		t.Errorf("filter called %d times, want 0", n)
	}
}

func TestScanTargetOnly(t *testing.T) {
	doc, _ := mount(t, ``)
	target := doc.CreateElement("x-target")
	_ = target.AppendChild(doc.CreateElement("x-child"))
	_ = doc.Node().AppendChild(target)

	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))
	if err := obs.Observe(target, ObserveOptions{Scan: true, Subtree: false}); err != nil {
		t.Fatal(err)
	}

	if got := log.seen(); !slices.Equal(got, []string{"x-target"}) {
		t.Errorf("filter saw %v, want [x-target]", got)
	}
}

func TestScanSubtreeDocumentOrder(t *testing.T) {
	doc, container := mount(t, `
		<x-a>
			<x-a1><x-a11></x-a11></x-a1>
			<div role="X-B"></div>
		</x-a>
		<span></span>
		<x-c></x-c>`)

	// Shadow content is not part of the scan.
	for _, el := range doc.Elements() {
		if el.TagName() == "x-a" {
			shadow, _ := el.AttachShadow()
			_ = shadow.AppendChild(doc.CreateElement("x-hidden"))
		}
	}

	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))
	if err := obs.Observe(container, DefaultObserveOptions()); err != nil {
		t.Fatal(err)
	}

	want := []string{"x-a", "x-a1", "x-a11", "x-b", "x-c"}
	if got := log.seen(); !slices.Equal(got, want) {
		t.Errorf("filter saw %v, want %v", got, want)
	}
}

func TestGateSkipsDefinedNames(t *testing.T) {
	doc, container := mount(t, `<x-known></x-known><div role="x-known"></div><x-new></x-new>`)
	reg := customelements.New()
	_ = reg.Define("x-known", implFor("known"), customelements.DefineOptions{})

	var log filterLog
	obs := newObserver(t, reg, WithFilter(log.filter))
	_ = obs.Observe(container, DefaultObserveOptions())

	_ = container.AppendChild(doc.CreateElement("x-known"))
	doc.Flush()

	for _, name := range log.seen() {
		if name == "x-known" {
			t.Fatal("filter consulted for an already defined name")
		}
	}
	if got := log.seen(); !slices.Equal(got, []string{"x-new"}) {
		t.Errorf("filter saw %v, want [x-new]", got)
	}
}

func TestMutationEvents(t *testing.T) {
	doc, container := mount(t, `<div id="d"></div>`)
	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))
	if err := obs.Observe(container, ObserveOptions{Scan: false, Subtree: true}); err != nil {
		t.Fatal(err)
	}

	// One event per element of an inserted subtree; text is ignored.
	added := doc.CreateElement("x-new")
	child := doc.CreateElement("x-child")
	_ = child.AppendChild(doc.CreateTextNode("text"))
	_ = added.AppendChild(child)
	_ = container.AppendChild(added)
	doc.Flush()

	if got := log.seen(); !slices.Equal(got, []string{"x-new", "x-child"}) {
		t.Fatalf("filter saw %v, want [x-new x-child]", got)
	}

	// Each role change on an attached element is its own event.
	div := container.ElementChildren()[0]
	div.SetAttribute("role", "x-r1")
	div.SetAttribute("role", "x-r2")
	div.SetAttribute("class", "not-watched")
	div.SetAttribute("role", "x-r3")
	doc.Flush()

	want := []string{"x-new", "x-child", "x-r1", "x-r2", "x-r3"}
	if got := log.seen(); !slices.Equal(got, want) {
		t.Errorf("filter saw %v, want %v", got, want)
	}
}

func TestSubtreeFalseWatchesDirectChildrenOnly(t *testing.T) {
	doc, container := mount(t, `<section></section>`)
	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))
	_ = obs.Observe(container, ObserveOptions{Scan: false, Subtree: false})

	section := container.ElementChildren()[0]
	_ = section.AppendChild(doc.CreateElement("x-deep"))
	_ = container.AppendChild(doc.CreateElement("x-direct"))
	doc.Flush()

	if got := log.seen(); !slices.Equal(got, []string{"x-direct"}) {
		t.Errorf("filter saw %v, want [x-direct]", got)
	}
}

func TestEndToEnd(t *testing.T) {
	sink := captureUnhandled(t)
	doc, container := mount(t, `<x-element></x-element><div role="y-element"></div>`)
	reg := customelements.New()
	reg.Attach(doc)

	type xElement struct{ el *dom.Node }
	type yElement struct{ el *dom.Node }
	impls := map[string]customelements.Implementation{
		"file:///x-element.js": customelements.ImplementationFunc(func(el *dom.Node) (any, error) {
			return &xElement{el}, nil
		}),
		"file:///y-element.js": customelements.ImplementationFunc(func(el *dom.Node) (any, error) {
			return &yElement{el}, nil
		}),
	}

	obs := newObserver(t, reg,
		WithURLResolver(func(name string) string { return name + ".js" }),
		WithLoader(func(_ context.Context, u *url.URL) (customelements.Implementation, error) {
			return impls[u.String()], nil
		}),
	)
	if err := obs.Observe(container, DefaultObserveOptions()); err != nil {
		t.Fatal(err)
	}
	obs.Wait()

	if errs := sink.all(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	x, ok := reg.Get("x-element")
	if !ok || !x.Autonomous() {
		t.Errorf("x-element = %+v, %v, want an autonomous definition", x, ok)
	}
	y, ok := reg.Get("y-element")
	if !ok || y.Extends != "div" {
		t.Errorf("y-element = %+v, %v, want a definition extending div", y, ok)
	}

	children := container.ElementChildren()
	if _, ok := children[0].Instance().(*xElement); !ok {
		t.Errorf("<x-element> instance = %T, want *xElement", children[0].Instance())
	}
	if _, ok := children[1].Instance().(*yElement); !ok {
		t.Errorf("<div role=y-element> instance = %T, want *yElement", children[1].Instance())
	}

	// Elements inserted after definition are upgraded on connect and do not
	// trigger another load.
	late := doc.CreateElement("x-element")
	_ = container.AppendChild(late)
	doc.Flush()
	obs.Wait()
	if _, ok := late.Instance().(*xElement); !ok {
		t.Error("late <x-element> should be upgraded")
	}

	var defined int
	for _, out := range obs.Outcomes() {
		if out.Kind == OutcomeDefined {
			defined++
		}
	}
	if defined != 2 {
		t.Errorf("%d definitions, want 2", defined)
	}
}

func TestPipelineErrors(t *testing.T) {
	tests := []struct {
		name     string
		resolver any
		loader   any
		code     string
	}{
		{
			name:     "resolver table miss",
			resolver: URLTable{},
			code:     "E201",
		},
		{
			name:     "unparseable URL",
			resolver: func(string) string { return "http://[::1" },
			code:     "E202",
		},
		{
			name: "loader error",
			loader: func(*url.URL) (customelements.Implementation, error) {
				return nil, fmt.Errorf("connection refused")
			},
			code: "E210",
		},
		{
			name: "loader panic",
			loader: func(*url.URL) (customelements.Implementation, error) {
				panic("boom")
			},
			code: "E212",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := captureUnhandled(t)
			doc, container := mount(t, ``)

			opts := []Option{}
			if tt.resolver != nil {
				opts = append(opts, WithURLResolver(tt.resolver))
			}
			if tt.loader != nil {
				opts = append(opts, WithLoader(tt.loader))
			}
			reg := customelements.New()
			obs := newObserver(t, reg, opts...)
			_ = obs.Observe(container, DefaultObserveOptions())

			_ = container.AppendChild(doc.CreateElement("x-broken"))
			doc.Flush()
			obs.Wait()

			errs := sink.all()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
			}
			if !errors.HasCode(errs[0], tt.code) {
				t.Errorf("error = %v, want %s", errs[0], tt.code)
			}
			var e *errors.Error
			if stderrors.As(errs[0], &e) && e.Name != "x-broken" {
				t.Errorf("error name = %q, want x-broken", e.Name)
			}
			if reg.IsDefined("x-broken") {
				t.Error("failed name must stay undefined")
			}
		})
	}
}

func TestDefineRejected(t *testing.T) {
	sink := captureUnhandled(t)
	doc, container := mount(t, ``)
	reg := customelements.New()

	// Another party defines the name while the load is running.
	obs := newObserver(t, reg, WithLoader(func(*url.URL) (customelements.Implementation, error) {
		_ = reg.Define("x-raced", implFor("other"), customelements.DefineOptions{})
		return implFor("mine"), nil
	}))
	_ = obs.Observe(container, DefaultObserveOptions())

	_ = container.AppendChild(doc.CreateElement("x-raced"))
	doc.Flush()
	obs.Wait()

	errs := sink.all()
	if len(errs) != 1 || !errors.HasCode(errs[0], "E211") {
		t.Fatalf("errors = %v, want one E211", errs)
	}
	if !stderrors.Is(errs[0], customelements.ErrAlreadyDefined) {
		t.Error("E211 should wrap the registry's ErrAlreadyDefined")
	}
	if errors.CategoryOf(errs[0]) != errors.CategoryLoad {
		t.Errorf("category = %q, want load", errors.CategoryOf(errs[0]))
	}
}

func TestNilImplementationSkips(t *testing.T) {
	sink := captureUnhandled(t)
	doc, container := mount(t, ``)
	reg := customelements.New()
	metricsReg := prometheus.NewRegistry()

	obs, err := New(
		WithRegistry(reg),
		WithMetrics(metricsReg),
		WithLoader(func(*url.URL) (customelements.Implementation, error) { return nil, nil }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer obs.Disconnect()
	_ = obs.Observe(container, DefaultObserveOptions())

	_ = container.AppendChild(doc.CreateElement("x-skip"))
	doc.Flush()
	obs.Wait()

	if errs := sink.all(); len(errs) != 0 {
		t.Errorf("skip must not be an error, got %v", errs)
	}
	if reg.IsDefined("x-skip") {
		t.Error("skipped name must not be defined")
	}
	outs := obs.Outcomes()
	if len(outs) != 1 || outs[0].Kind != OutcomeSkipped {
		t.Errorf("outcomes = %+v, want one skip", outs)
	}
	if got := testutil.ToFloat64(metricsFor(metricsReg).attempts.WithLabelValues(string(OutcomeSkipped))); got != 1 {
		t.Errorf("skipped attempts metric = %v, want 1", got)
	}
}

func TestDuplicateInFlightSuppressed(t *testing.T) {
	captureUnhandled(t)
	doc, container := mount(t, ``)
	reg := customelements.New()

	release := make(chan struct{})
	var loads atomic.Int32
	obs := newObserver(t, reg, WithLoader(func(*url.URL) (customelements.Implementation, error) {
		loads.Add(1)
		<-release
		return implFor("slow"), nil
	}))
	_ = obs.Observe(container, DefaultObserveOptions())

	_ = container.AppendChild(doc.CreateElement("x-slow"))
	_ = container.AppendChild(doc.CreateElement("x-slow"))
	doc.Flush()
	close(release)
	obs.Wait()

	if loads.Load() != 1 {
		t.Errorf("loader called %d times, want 1", loads.Load())
	}
	var kinds []OutcomeKind
	for _, out := range obs.Outcomes() {
		kinds = append(kinds, out.Kind)
	}
	if !slices.Equal(kinds, []OutcomeKind{OutcomeDuplicateInFlight, OutcomeDefined}) {
		t.Errorf("outcomes = %v, want [duplicate_in_flight defined]", kinds)
	}
}

func TestFailedNameRetriedOnLaterOccurrence(t *testing.T) {
	sink := captureUnhandled(t)
	doc, container := mount(t, ``)
	reg := customelements.New()

	var calls atomic.Int32
	obs := newObserver(t, reg, WithLoader(func(*url.URL) (customelements.Implementation, error) {
		if calls.Add(1) == 1 {
			return nil, fmt.Errorf("temporarily unavailable")
		}
		return implFor("ok"), nil
	}))
	_ = obs.Observe(container, DefaultObserveOptions())

	_ = container.AppendChild(doc.CreateElement("x-flaky"))
	doc.Flush()
	obs.Wait()
	if reg.IsDefined("x-flaky") {
		t.Fatal("first attempt should fail")
	}

	_ = container.AppendChild(doc.CreateElement("x-flaky"))
	doc.Flush()
	obs.Wait()

	if !reg.IsDefined("x-flaky") {
		t.Error("a later occurrence should trigger a fresh attempt")
	}
	if len(sink.all()) != 1 {
		t.Errorf("got %d errors, want 1", len(sink.all()))
	}
}

func TestDisconnect(t *testing.T) {
	captureUnhandled(t)
	doc, container := mount(t, ``)
	reg := customelements.New()

	release := make(chan struct{})
	var log filterLog
	log.accept = true
	obs := newObserver(t, reg,
		WithFilter(log.filter),
		WithLoader(func(*url.URL) (customelements.Implementation, error) {
			<-release
			return implFor("x"), nil
		}),
	)
	_ = obs.Observe(container, DefaultObserveOptions())

	_ = container.AppendChild(doc.CreateElement("x-pending"))
	doc.Flush()

	obs.Disconnect()
	obs.Disconnect()
	if obs.Observing() {
		t.Error("Observing() = true after Disconnect")
	}

	_ = container.AppendChild(doc.CreateElement("x-after"))
	doc.Flush()

	close(release)
	obs.Wait()

	if got := log.seen(); !slices.Equal(got, []string{"x-pending"}) {
		t.Errorf("filter saw %v, want [x-pending]", got)
	}
	if !reg.IsDefined("x-pending") {
		t.Error("load in flight at Disconnect should still define")
	}
}

func TestObserveReplacesSubscription(t *testing.T) {
	doc := dom.NewDocument()
	first := doc.CreateElement("section")
	second := doc.CreateElement("section")
	_ = doc.Node().AppendChild(first)
	_ = doc.Node().AppendChild(second)

	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))
	_ = obs.Observe(first, ObserveOptions{Subtree: true})
	_ = obs.Observe(second, ObserveOptions{Subtree: true})

	_ = first.AppendChild(doc.CreateElement("x-first"))
	_ = second.AppendChild(doc.CreateElement("x-second"))
	doc.Flush()

	if got := log.seen(); !slices.Equal(got, []string{"x-second"}) {
		t.Errorf("filter saw %v, want [x-second]", got)
	}
}

func TestCustomRoleAttribute(t *testing.T) {
	captureUnhandled(t)
	doc, container := mount(t, `<div is="y-element" role="presentation"></div>`)
	reg := customelements.New(customelements.WithRoleAttribute("is"))
	reg.Attach(doc)

	obs := newObserver(t, reg,
		WithRoleAttribute("is"),
		WithLoader(func(*url.URL) (customelements.Implementation, error) { return implFor("y"), nil }),
	)
	_ = obs.Observe(container, DefaultObserveOptions())
	obs.Wait()

	def, ok := reg.Get("y-element")
	if !ok || def.Extends != "div" {
		t.Fatalf("y-element = %+v, %v", def, ok)
	}
	if container.ElementChildren()[0].Instance() != "y" {
		t.Error("div should be upgraded through the is attribute")
	}
}

func TestRunLoopDrivesObserver(t *testing.T) {
	captureUnhandled(t)
	doc, container := mount(t, ``)
	reg := customelements.New()
	obs := newObserver(t, reg, WithLoader(func(*url.URL) (customelements.Implementation, error) {
		return implFor("x"), nil
	}))
	_ = obs.Observe(container, DefaultObserveOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = doc.Run(ctx) }()

	_ = container.AppendChild(doc.CreateElement("x-live"))

	wctx, wcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer wcancel()
	if _, err := reg.WhenDefined(wctx, "x-live"); err != nil {
		t.Fatalf("WhenDefined() error = %v", err)
	}
}

func TestRoleChangesInOneBatchEachAttempted(t *testing.T) {
	captureUnhandled(t)
	doc, container := mount(t, `<div></div>`)
	reg := customelements.New()

	var mu sync.Mutex
	var loaded []string
	obs := newObserver(t, reg, WithLoader(func(u *url.URL) (customelements.Implementation, error) {
		mu.Lock()
		loaded = append(loaded, u.Path)
		mu.Unlock()
		return nil, nil
	}))
	if err := obs.Observe(container, ObserveOptions{Subtree: true}); err != nil {
		t.Fatal(err)
	}

	div := container.ElementChildren()[0]
	div.SetAttribute("role", "x-r1")
	div.SetAttribute("role", "x-r2")
	div.SetAttribute("role", "x-r3")
	div.RemoveAttribute("role")
	doc.Flush()
	obs.Wait()

	mu.Lock()
	defer mu.Unlock()
	slices.Sort(loaded)
	want := []string{"/x-r1.js", "/x-r2.js", "/x-r3.js"}
	if !slices.Equal(loaded, want) {
		t.Errorf("loaded %v, want %v", loaded, want)
	}
	for _, out := range obs.Outcomes() {
		if out.Kind == OutcomeDuplicateInFlight {
			t.Errorf("unexpected duplicate outcome for %s", out.Name)
		}
	}
}

func TestEmptyRoleDefinesTag(t *testing.T) {
	captureUnhandled(t)
	_, container := mount(t, `<x-a role=""></x-a>`)
	reg := customelements.New()

	obs := newObserver(t, reg, WithLoader(func(*url.URL) (customelements.Implementation, error) {
		return implFor("x"), nil
	}))
	_ = obs.Observe(container, DefaultObserveOptions())
	obs.Wait()

	def, ok := reg.Get("x-a")
	if !ok || !def.Autonomous() {
		t.Errorf("x-a = %+v, %v, want an autonomous definition", def, ok)
	}
}

func TestObserveWhileRunLoopDelivers(t *testing.T) {
	doc, container := mount(t, ``)
	var log filterLog
	obs := newObserver(t, customelements.New(), WithFilter(log.filter))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = doc.Run(ctx) }()

	// Elements inserted while Observe subscribes are found by the scan or
	// delivered as mutations; none is lost in between.
	const n = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			_ = container.AppendChild(doc.CreateElement(fmt.Sprintf("x-e%d", i)))
		}
	}()
	if err := obs.Observe(container, DefaultObserveOptions()); err != nil {
		t.Fatal(err)
	}
	<-done
	doc.Flush()

	seen := func() []string {
		got := log.seen()
		slices.Sort(got)
		return slices.Compact(got)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(seen()) < n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := seen(); len(got) != n {
		t.Errorf("filter saw %d distinct names, want %d", len(got), n)
	}
}
