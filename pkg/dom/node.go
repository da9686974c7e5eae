package dom

import (
	"fmt"
	"strings"
)

// NodeType is the node type discriminator.
type NodeType uint8

const (
	DocumentNode   NodeType = iota // Root of a document
	ElementNode                    // <div>, <x-widget>, etc.
	TextNode                       // Character data
	ShadowRootNode                 // Encapsulated subtree attached to an element
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "Document"
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case ShadowRootNode:
		return "ShadowRoot"
	default:
		return "Unknown"
	}
}

// Attribute is a single name/value pair. Names are lower-case.
type Attribute struct {
	Name  string
	Value string
}

// Node is a node in a live document. All state is guarded by the owning
// document's lock; methods are safe for concurrent use.
type Node struct {
	typ      NodeType
	doc      *Document
	tag      string
	data     string
	hid      string
	attrs    []Attribute
	parent   *Node
	children []*Node
	shadow   *Node
	host     *Node

	ceName    string
	instance  any
	upgrading bool
}

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool { return n != nil && n.typ == ElementNode }

// TagName returns the lower-case tag of an element, or "" for other nodes.
func (n *Node) TagName() string { return n.tag }

// HID returns the node ID the node was built with, if any.
func (n *Node) HID() string { return n.hid }

// OwnerDocument returns the document the node belongs to.
func (n *Node) OwnerDocument() *Document { return n.doc }

// GetAttribute returns the value of the named attribute.
func (n *Node) GetAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether the named attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// Attributes returns a copy of the element's attributes in insertion order.
func (n *Node) Attributes() []Attribute {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make([]Attribute, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// SetAttribute sets an attribute and queues an attributes record, even when
// the value is unchanged.
func (n *Node) SetAttribute(name, value string) {
	if n.typ != ElementNode {
		return
	}
	name = strings.ToLower(name)

	d := n.doc
	d.mu.Lock()
	old, found := "", false
	for i, a := range n.attrs {
		if a.Name == name {
			old, found = a.Value, true
			n.attrs[i].Value = value
			break
		}
	}
	if !found {
		n.attrs = append(n.attrs, Attribute{Name: name, Value: value})
	}
	d.queueLocked(MutationRecord{
		Type:          MutationAttributes,
		Target:        n,
		AttributeName: name,
		OldValue:      old,
		HadOldValue:   found,
		Value:         value,
		HasValue:      true,
	})
	d.mu.Unlock()
	d.signal()
}

// RemoveAttribute removes an attribute. Removing a missing attribute is a no-op.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)

	d := n.doc
	d.mu.Lock()
	for i, a := range n.attrs {
		if a.Name != name {
			continue
		}
		n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
		d.queueLocked(MutationRecord{
			Type:          MutationAttributes,
			Target:        n,
			AttributeName: name,
			OldValue:      a.Value,
			HadOldValue:   true,
		})
		break
	}
	d.mu.Unlock()
	d.signal()
}

// Parent returns the parent node, or nil for detached nodes, documents and
// shadow roots.
func (n *Node) Parent() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.parent
}

// Children returns a copy of the node's child list.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ElementChildren returns the node's element children.
func (n *Node) ElementChildren() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var out []*Node
	for _, c := range n.children {
		if c.typ == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Data returns the character data of a text node.
func (n *Node) Data() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.data
}

// TextContent returns the concatenated text of the node's light subtree.
func (n *Node) TextContent() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var b strings.Builder
	var walk func(*Node)
	walk = func(x *Node) {
		if x.typ == TextNode {
			b.WriteString(x.data)
		}
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// AttachShadow attaches an empty shadow root to an element.
func (n *Node) AttachShadow() (*Node, error) {
	if n.typ != ElementNode {
		return nil, fmt.Errorf("%w: shadow roots attach to elements only", ErrHierarchy)
	}
	d := n.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	if n.shadow != nil {
		return nil, ErrShadowExists
	}
	n.shadow = &Node{typ: ShadowRootNode, doc: d, host: n}
	return n.shadow, nil
}

// ShadowRoot returns the element's shadow root, if any.
func (n *Node) ShadowRoot() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.shadow
}

// Host returns the element a shadow root is attached to.
func (n *Node) Host() *Node { return n.host }

// IsConnected reports whether the node is reachable from its document root,
// crossing shadow boundaries through their hosts.
func (n *Node) IsConnected() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.connectedLocked()
}

func (n *Node) connectedLocked() bool {
	for x := n; x != nil; {
		switch {
		case x == n.doc.root:
			return true
		case x.typ == ShadowRootNode:
			x = x.host
		default:
			x = x.parent
		}
	}
	return false
}

// CustomElementName returns the definition name the element was upgraded
// with, or "" if it has not been upgraded.
func (n *Node) CustomElementName() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.ceName
}

// Instance returns the value produced when the element was upgraded.
func (n *Node) Instance() any {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.instance
}

// BeginUpgrade claims the element for construction. It returns false if the
// element is already upgraded or another caller holds the claim. A
// successful claim ends with MarkUpgraded or AbortUpgrade.
func (n *Node) BeginUpgrade() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.ceName != "" || n.upgrading {
		return false
	}
	n.upgrading = true
	return true
}

// AbortUpgrade releases a claim taken with BeginUpgrade without upgrading.
func (n *Node) AbortUpgrade() {
	n.doc.mu.Lock()
	n.upgrading = false
	n.doc.mu.Unlock()
}

// MarkUpgraded records the definition and instance of an upgraded element
// and releases any claim. It returns false if the element was already
// upgraded.
func (n *Node) MarkUpgraded(name string, instance any) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.ceName != "" {
		return false
	}
	n.ceName = name
	n.instance = instance
	n.upgrading = false
	return true
}

// String returns a short description of the node for logs.
func (n *Node) String() string {
	switch n.typ {
	case ElementNode:
		var b strings.Builder
		b.WriteString("<" + n.tag)
		for _, a := range n.Attributes() {
			fmt.Fprintf(&b, " %s=%q", a.Name, a.Value)
		}
		b.WriteString(">")
		return b.String()
	case TextNode:
		return fmt.Sprintf("#text %q", n.Data())
	default:
		return "#" + strings.ToLower(n.typ.String())
	}
}
