package dom

import (
	"context"
	"strings"
	"sync"
)

// Document owns a tree of nodes and the observers registered on it.
type Document struct {
	mu    sync.Mutex
	root  *Node
	byHID map[string]*Node

	regs    []*registration
	pending []*MutationObserver
	queued  map[*MutationObserver]bool

	hooks []func(*Node)

	// delivery serializes Flush so batches never interleave.
	delivery sync.Mutex
	notify   chan struct{}
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{
		byHID:  make(map[string]*Node),
		queued: make(map[*MutationObserver]bool),
		notify: make(chan struct{}, 1),
	}
	d.root = &Node{typ: DocumentNode, doc: d}
	return d
}

// Node returns the document node, the root of the tree.
func (d *Document) Node() *Node { return d.root }

// CreateElement creates a detached element. The tag is lower-cased.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{typ: ElementNode, doc: d, tag: strings.ToLower(tag)}
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) *Node {
	return &Node{typ: TextNode, doc: d, data: data}
}

// NodeByHID returns the node indexed under the given ID.
func (d *Document) NodeByHID(hid string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byHID[hid]
}

// AddConnectHook registers fn to be called, outside the document lock, with
// the root of every subtree that becomes connected. Hooks run before the
// mutation records of the insertion are delivered.
func (d *Document) AddConnectHook(fn func(*Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, fn)
}

// Elements returns every connected element in document order, including
// elements inside shadow roots. The result is a snapshot.
func (d *Document) Elements() []*Node {
	return d.root.ComposedElements()
}

// ComposedElements returns the elements of n's subtree in document order,
// entering shadow roots (before light children). n itself is included when it
// is an element.
func (n *Node) ComposedElements() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	var out []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if x.typ == ElementNode {
			out = append(out, x)
		}
		for i := len(x.children) - 1; i >= 0; i-- {
			stack = append(stack, x.children[i])
		}
		if x.shadow != nil {
			stack = append(stack, x.shadow)
		}
	}
	return out
}

// Flush delivers queued mutation records to their observers, repeating until
// no observer has pending records. Callbacks run on the calling goroutine and
// may mutate the document; the resulting records are delivered by the same
// call.
func (d *Document) Flush() {
	d.delivery.Lock()
	defer d.delivery.Unlock()

	for {
		d.mu.Lock()
		observers := d.pending
		d.pending = nil
		clear(d.queued)
		d.mu.Unlock()

		if len(observers) == 0 {
			return
		}
		for _, o := range observers {
			records := o.TakeRecords()
			if len(records) == 0 {
				continue
			}
			o.callback(records, o)
		}
	}
}

// Run delivers records as they are queued until ctx is done.
func (d *Document) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.notify:
			d.Flush()
		}
	}
}

func (d *Document) signal() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *Document) runHooks(roots []*Node) {
	if len(roots) == 0 {
		return
	}
	d.mu.Lock()
	hooks := make([]func(*Node), len(d.hooks))
	copy(hooks, d.hooks)
	d.mu.Unlock()

	for _, root := range roots {
		for _, fn := range hooks {
			fn(root)
		}
	}
}

func (d *Document) indexLocked(n *Node) {
	if n.hid != "" {
		d.byHID[n.hid] = n
	}
	for _, c := range n.children {
		d.indexLocked(c)
	}
}

func (d *Document) unindexLocked(n *Node) {
	if n.hid != "" && d.byHID[n.hid] == n {
		delete(d.byHID, n.hid)
	}
	for _, c := range n.children {
		d.unindexLocked(c)
	}
}
