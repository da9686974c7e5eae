package lazydef

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// OutcomeKind is the terminal state of one pipeline attempt.
type OutcomeKind string

const (
	OutcomeDefined           OutcomeKind = "defined"
	OutcomeSkipped           OutcomeKind = "skipped"
	OutcomeDuplicateInFlight OutcomeKind = "duplicate_in_flight"
	OutcomeFailed            OutcomeKind = "failed"
)

// Outcome records how one attempt for a name ended.
type Outcome struct {
	Name string
	URL  string
	Kind OutcomeKind
	Err  error
	At   time.Time
}

// Outcomes returns a snapshot of the most recent attempt outcomes, oldest
// first.
func (o *Observer) Outcomes() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Outcome, len(o.outcomes))
	copy(out, o.outcomes)
	return out
}

// process runs one element's names through the gate and, if it passes, the pipeline.
func (o *Observer) process(names ResolvedNames) {
	if !o.shouldHandle(names.ElementName) {
		return
	}
	o.logger.Debug("handling element", "name", names.ElementName, "tag", names.TagName, "role", names.HasRole)
	o.run(names)
}

// run resolves the module URL synchronously and loads it on a new
// goroutine. A name already in flight is not attempted again until the
// running attempt ends.
func (o *Observer) run(names ResolvedNames) {
	name := names.ElementName

	o.mu.Lock()
	if _, busy := o.inFlight[name]; busy {
		o.mu.Unlock()
		o.logger.Debug("load already in flight", "name", name)
		o.record(Outcome{Name: name, Kind: OutcomeDuplicateInFlight})
		return
	}
	o.inFlight[name] = struct{}{}
	o.loads.Add(1)
	o.mu.Unlock()

	u, rerr := o.resolveURL(name)

	go func() {
		defer o.loads.Done()
		defer o.release(name)

		if rerr != nil {
			o.fail(rerr)
			return
		}
		o.loadAndDefine(names, u)
	}()
}

func (o *Observer) release(name string) {
	o.mu.Lock()
	delete(o.inFlight, name)
	o.mu.Unlock()
}

// resolveURL runs the URL resolver for name. Strings are resolved against
// the base URL.
func (o *Observer) resolveURL(name string) (*url.URL, *errors.Error) {
	v, err := o.resolve(name)
	if err != nil {
		return nil, errors.New("E201").WithName(name).Wrap(err)
	}

	switch r := v.(type) {
	case *url.URL:
		if r != nil {
			return r, nil
		}
	case string:
		if r == "" {
			break
		}
		ref, err := url.Parse(r)
		if err != nil {
			return nil, errors.New("E202").WithName(name).WithURL(r).Wrap(err)
		}
		return o.base.ResolveReference(ref), nil
	}
	return nil, errors.New("E201").
		WithName(name).
		WithDetail(fmt.Sprintf("The URL resolver returned %T for %q.", v, name)).
		WithSuggestion("Return a URL string for every name the filter accepts, or add the name to the URL table.")
}

// loadAndDefine loads the implementation at u and defines it.
func (o *Observer) loadAndDefine(names ResolvedNames, u *url.URL) {
	name := names.ElementName
	ctx, span := o.tracer.Start(o.ctx, "lazydef.load",
		trace.WithAttributes(
			attribute.String("lazydef.name", name),
			attribute.String("lazydef.url", u.String()),
			attribute.Bool("lazydef.customized", names.HasRole),
		))
	defer span.End()

	start := time.Now()
	impl, panicked, err := o.load(ctx, u)
	o.metrics.loadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		code := "E210"
		if panicked {
			code = "E212"
		}
		o.fail(errors.New(code).WithName(name).WithURL(u.String()).Wrap(err))
		return
	}

	if impl == nil {
		o.logger.Warn("loader returned no implementation, skipping definition", "name", name, "url", u.String())
		span.SetAttributes(attribute.Bool("lazydef.skipped", true))
		o.record(Outcome{Name: name, URL: u.String(), Kind: OutcomeSkipped})
		return
	}

	var opts customelements.DefineOptions
	if names.HasRole {
		opts.Extends = names.TagName
	}
	if err := o.registry.Define(name, impl, opts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.fail(errors.New("E211").WithName(name).WithURL(u.String()).Wrap(err))
		return
	}

	span.SetStatus(codes.Ok, "")
	o.logger.Info("custom element defined", "name", name, "extends", opts.Extends, "url", u.String())
	o.record(Outcome{Name: name, URL: u.String(), Kind: OutcomeDefined})
}

// load calls the loader, recovering a panic into an error.
func (o *Observer) load(ctx context.Context, u *url.URL) (impl customelements.Implementation, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			impl, panicked, err = nil, true, fmt.Errorf("panic: %v", r)
		}
	}()
	impl, err = o.loader.Load(ctx, u)
	return impl, false, err
}

// fail records a failed attempt and hands the error to the unhandled
// error handler.
func (o *Observer) fail(err *errors.Error) {
	o.record(Outcome{Name: err.Name, URL: err.URL, Kind: OutcomeFailed, Err: err})
	reportUnhandled(err)
}

func (o *Observer) record(out Outcome) {
	out.At = time.Now()
	o.metrics.attempts.WithLabelValues(string(out.Kind)).Inc()

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.outcomes) == maxOutcomes {
		copy(o.outcomes, o.outcomes[1:])
		o.outcomes = o.outcomes[:maxOutcomes-1]
	}
	o.outcomes = append(o.outcomes, out)
}
