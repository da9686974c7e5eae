package lazydef

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/customelements"
	"github.com/vango-dev/lazydefine/pkg/dom"
	"github.com/vango-dev/lazydefine/pkg/loader"
)

const tracerName = "github.com/vango-dev/lazydefine/pkg/lazydef"

// maxOutcomes bounds the outcome log kept for diagnostics.
const maxOutcomes = 1024

// ObserveOptions configures a single Observe call.
type ObserveOptions struct {
	// Scan walks the target once before mutations are watched.
	Scan bool

	// Subtree extends the scan and the mutation scope to the target's
	// descendants instead of the target alone.
	Subtree bool
}

// DefaultObserveOptions scans the whole subtree and watches it.
func DefaultObserveOptions() ObserveOptions {
	return ObserveOptions{Scan: true, Subtree: true}
}

// Observer defines custom elements lazily as they appear in a document.
//
// An Observer watches at most one target at a time. Loads run on their own
// goroutines; their failures go to the handler installed with
// SetUnhandledErrorHandler.
type Observer struct {
	id       string
	filter   func(string) bool
	resolve  func(string) (any, error)
	loader   loader.Loader
	registry *customelements.Registry
	roleAttr string
	base     *url.URL
	logger   *slog.Logger
	metrics  *metrics
	tracer   trace.Tracer
	ctx      context.Context

	mu       sync.Mutex
	mo       *dom.MutationObserver
	inFlight map[string]struct{}
	outcomes []Outcome
	loads    sync.WaitGroup
}

// New creates an Observer. It fails with E200 when an option is given a
// value of an unsupported shape.
func New(opts ...Option) (*Observer, error) {
	base, _ := url.Parse(DefaultBaseURL)
	o := &Observer{
		id:       uuid.NewString(),
		resolve:  defaultResolver,
		loader:   loader.Import,
		registry: customelements.Default(),
		base:     base,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		ctx:      context.Background(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	// Customized built-ins are upgraded by the registry, so both must read
	// the same attribute.
	switch want := o.registry.RoleAttribute(); {
	case o.roleAttr == "":
		o.roleAttr = want
	case o.roleAttr != want:
		return nil, errors.New("E200").WithDetail(fmt.Sprintf(
			"The role attribute %q differs from the registry's %q.", o.roleAttr, want))
	}
	if o.metrics == nil {
		o.metrics = metricsFor(prometheus.DefaultRegisterer)
	}
	o.logger = o.logger.With("observer", o.id)
	return o, nil
}

// ID returns the observer's unique ID, as used in its log records.
func (o *Observer) ID() string { return o.id }

// Registry returns the registry definitions are installed into.
func (o *Observer) Registry() *customelements.Registry { return o.registry }

// RoleAttribute returns the role attribute name.
func (o *Observer) RoleAttribute() string { return o.roleAttr }

// Observe starts watching target, replacing any previous observation. With
// opts.Scan set, the already-present tree is scanned before Observe returns;
// loads it starts complete asynchronously (see Wait).
func (o *Observer) Observe(target *dom.Node, opts ObserveOptions) error {
	if target == nil {
		return errors.New("E200").WithDetail("Observe needs a target node.")
	}

	// o.mu is held across registration so a batch delivered by a concurrent
	// Run loop is not dropped as stale before the subscription is published.
	mo := dom.NewMutationObserver(o.deliver)
	o.mu.Lock()
	err := mo.Observe(target, dom.ObserveOptions{
		ChildList:       true,
		Subtree:         opts.Subtree,
		AttributeFilter: []string{o.roleAttr},
	})
	if err != nil {
		o.mu.Unlock()
		return err
	}
	prev := o.mo
	o.mo = mo
	o.mu.Unlock()
	if prev != nil {
		prev.Disconnect()
	}

	o.logger.Debug("observing", "target", target.String(), "scan", opts.Scan, "subtree", opts.Subtree)

	if opts.Scan {
		o.scan(target, opts.Subtree)
	}
	return nil
}

// Disconnect stops mutation delivery. Loads already started still complete
// and define. Calling Disconnect again has no effect.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	mo := o.mo
	o.mo = nil
	o.mu.Unlock()

	if mo != nil {
		mo.Disconnect()
		o.logger.Debug("disconnected")
	}
}

// Observing reports whether the observer has an active subscription.
func (o *Observer) Observing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mo != nil
}

// Wait blocks until every load started so far has finished.
func (o *Observer) Wait() {
	o.loads.Wait()
}

// deliver handles one batch of mutation records: each added element and
// each role attribute change is one event.
func (o *Observer) deliver(records []dom.MutationRecord, mo *dom.MutationObserver) {
	o.mu.Lock()
	current := o.mo == mo
	o.mu.Unlock()
	if !current {
		return
	}

	for _, rec := range records {
		o.metrics.records.WithLabelValues(string(rec.Type)).Inc()
		switch rec.Type {
		case dom.MutationChildList:
			for _, n := range rec.AddedNodes {
				if n.IsElement() {
					o.process(ResolveNames(n, o.roleAttr))
				}
			}
		case dom.MutationAttributes:
			if rec.Target.IsElement() {
				o.process(resolveChange(rec))
			}
		}
	}
}
