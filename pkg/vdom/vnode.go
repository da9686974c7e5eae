package vdom

import "sort"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <x-widget>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// VNode is a node in a description tree.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name, lower-case
	Attrs    Attrs    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText
	HID      string   // Node ID (assigned before mounting or diffing)
}

// Attrs holds string attributes keyed by lower-case name.
type Attrs map[string]string

// Names returns the attribute names in sorted order.
func (a Attrs) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attr returns the value of the named attribute.
func (v *VNode) Attr(name string) (string, bool) {
	if v == nil || v.Attrs == nil {
		return "", false
	}
	value, ok := v.Attrs[name]
	return value, ok
}

// Walk visits v and its descendants in document order.
// Returning false from fn skips the node's children.
func (v *VNode) Walk(fn func(*VNode) bool) {
	if v == nil {
		return
	}
	stack := []*VNode{v}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			continue
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			if node.Children[i] != nil {
				stack = append(stack, node.Children[i])
			}
		}
	}
}

// Clone returns a deep copy of v.
func (v *VNode) Clone() *VNode {
	if v == nil {
		return nil
	}
	c := *v
	if v.Attrs != nil {
		c.Attrs = make(Attrs, len(v.Attrs))
		for k, val := range v.Attrs {
			c.Attrs[k] = val
		}
	}
	if v.Children != nil {
		c.Children = make([]*VNode, len(v.Children))
		for i, child := range v.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}
