package dom

import (
	"slices"
	"strings"
	"sync"
)

// MutationType identifies the kind of change a record describes.
type MutationType string

const (
	MutationChildList  MutationType = "childList"
	MutationAttributes MutationType = "attributes"
)

// MutationRecord describes a single change to the tree.
type MutationRecord struct {
	Type         MutationType
	Target       *Node
	AddedNodes   []*Node
	RemovedNodes []*Node

	// Attribute records only. Value is the value the change set; HasValue is
	// false for a removal.
	AttributeName string
	OldValue      string
	HadOldValue   bool
	Value         string
	HasValue      bool
}

// ObserveOptions selects which mutations an observer is notified of.
type ObserveOptions struct {
	ChildList  bool
	Attributes bool
	Subtree    bool

	// AttributeFilter restricts attribute records to the listed names and
	// implies Attributes.
	AttributeFilter []string

	// AttributeOldValue keeps the previous value on attribute records.
	AttributeOldValue bool
}

// MutationCallback receives a batch of records.
type MutationCallback func(records []MutationRecord, o *MutationObserver)

// MutationObserver queues records for the targets it observes and hands them
// to its callback when the document delivers.
type MutationObserver struct {
	callback MutationCallback

	mu      sync.Mutex
	records []MutationRecord
	docs    map[*Document]struct{}
}

type registration struct {
	observer *MutationObserver
	target   *Node
	opts     ObserveOptions
}

// NewMutationObserver creates an observer that delivers batches to fn.
func NewMutationObserver(fn MutationCallback) *MutationObserver {
	return &MutationObserver{
		callback: fn,
		docs:     make(map[*Document]struct{}),
	}
}

// Observe registers interest in mutations of target. Observing a target that
// is already observed replaces its options.
func (o *MutationObserver) Observe(target *Node, opts ObserveOptions) error {
	if len(opts.AttributeFilter) > 0 {
		opts.Attributes = true
		filter := make([]string, len(opts.AttributeFilter))
		for i, name := range opts.AttributeFilter {
			filter[i] = strings.ToLower(name)
		}
		opts.AttributeFilter = filter
	}
	if !opts.ChildList && !opts.Attributes {
		return ErrInvalidObserveOptions
	}

	d := target.doc
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.regs {
		if r.observer == o && r.target == target {
			r.opts = opts
			return nil
		}
	}
	d.regs = append(d.regs, &registration{observer: o, target: target, opts: opts})

	o.mu.Lock()
	o.docs[d] = struct{}{}
	o.mu.Unlock()
	return nil
}

// Disconnect stops all observation and discards undelivered records.
func (o *MutationObserver) Disconnect() {
	o.mu.Lock()
	docs := make([]*Document, 0, len(o.docs))
	for d := range o.docs {
		docs = append(docs, d)
	}
	clear(o.docs)
	o.mu.Unlock()

	for _, d := range docs {
		d.mu.Lock()
		d.regs = slices.DeleteFunc(d.regs, func(r *registration) bool {
			return r.observer == o
		})
		d.mu.Unlock()
	}

	o.mu.Lock()
	o.records = nil
	o.mu.Unlock()
}

// TakeRecords returns and clears the observer's undelivered records.
func (o *MutationObserver) TakeRecords() []MutationRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	records := o.records
	o.records = nil
	return records
}

func (o *ObserveOptions) wants(rec *MutationRecord) bool {
	switch rec.Type {
	case MutationChildList:
		return o.ChildList
	case MutationAttributes:
		if !o.Attributes {
			return false
		}
		return len(o.AttributeFilter) == 0 || slices.Contains(o.AttributeFilter, rec.AttributeName)
	}
	return false
}

// queueLocked hands rec to every observer interested in it: observers of the
// target itself, and observers of an ancestor with Subtree set. The walk stops
// at shadow roots. Each observer receives the record at most once.
func (d *Document) queueLocked(rec MutationRecord) {
	if len(d.regs) == 0 {
		return
	}

	var interested []*registration
	for x := rec.Target; x != nil; x = x.parent {
		for _, r := range d.regs {
			if r.target != x || (x != rec.Target && !r.opts.Subtree) || !r.opts.wants(&rec) {
				continue
			}
			if slices.ContainsFunc(interested, func(s *registration) bool { return s.observer == r.observer }) {
				continue
			}
			interested = append(interested, r)
		}
	}

	for _, r := range interested {
		out := rec
		if out.Type == MutationAttributes && !r.opts.AttributeOldValue {
			out.OldValue, out.HadOldValue = "", false
		}
		o := r.observer
		o.mu.Lock()
		o.records = append(o.records, out)
		o.mu.Unlock()
		if !d.queued[o] {
			d.queued[o] = true
			d.pending = append(d.pending, o)
		}
	}
}
