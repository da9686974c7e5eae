package dom

import (
	"fmt"

	"github.com/vango-dev/lazydefine/pkg/vdom"
)

// Build creates detached nodes for a description tree. Fragments are
// flattened, so a single VNode may produce several nodes.
func (d *Document) Build(v *vdom.VNode) []*Node {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case vdom.KindText:
		return []*Node{{typ: TextNode, doc: d, data: v.Text, hid: v.HID}}
	case vdom.KindFragment:
		var out []*Node
		for _, c := range v.Children {
			out = append(out, d.Build(c)...)
		}
		return out
	}

	el := &Node{typ: ElementNode, doc: d, tag: v.Tag, hid: v.HID}
	for _, name := range v.Attrs.Names() {
		el.attrs = append(el.attrs, Attribute{Name: name, Value: v.Attrs[name]})
	}
	if v.Key != "" {
		el.attrs = append(el.attrs, Attribute{Name: "key", Value: v.Key})
	}
	for _, c := range v.Children {
		for _, child := range d.Build(c) {
			child.parent = el
			el.children = append(el.children, child)
		}
	}
	return []*Node{el}
}

// Mount builds v and appends the result to parent.
func (d *Document) Mount(parent *Node, v *vdom.VNode) ([]*Node, error) {
	nodes := d.Build(v)
	for _, n := range nodes {
		if err := parent.AppendChild(n); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// LoadVNode mounts a whole description tree under the document node. A
// fragment root's HID is assigned to the document node so patches produced
// by diffing against it address the right parent.
func (d *Document) LoadVNode(v *vdom.VNode) error {
	if v == nil {
		return nil
	}
	if v.Kind == vdom.KindFragment && v.HID != "" {
		d.mu.Lock()
		d.root.hid = v.HID
		d.byHID[v.HID] = d.root
		d.mu.Unlock()
	}
	_, err := d.Mount(d.root, v)
	return err
}

// Apply applies patches in order. Patches address nodes by HID; a patch
// naming an unknown node stops the run with ErrUnknownHID.
func (d *Document) Apply(patches []vdom.Patch) error {
	for i := range patches {
		if err := d.apply(&patches[i]); err != nil {
			return fmt.Errorf("patch %d (%s): %w", i, patches[i].Op, err)
		}
	}
	return nil
}

func (d *Document) apply(p *vdom.Patch) error {
	switch p.Op {
	case vdom.PatchInsertNode:
		parent, err := d.lookup(p.ParentID)
		if err != nil {
			return err
		}
		return d.insertAt(parent, d.Build(p.Node), p.Index)

	case vdom.PatchMoveNode:
		parent, err := d.lookup(p.ParentID)
		if err != nil {
			return err
		}
		n, err := d.lookup(p.HID)
		if err != nil {
			return err
		}
		n.Remove()
		return d.insertAt(parent, []*Node{n}, p.Index)
	}

	n, err := d.lookup(p.HID)
	if err != nil {
		return err
	}

	switch p.Op {
	case vdom.PatchSetText:
		if n.typ == TextNode {
			d.mu.Lock()
			n.data = p.Value
			d.mu.Unlock()
			return nil
		}
		for _, c := range n.Children() {
			if err := n.RemoveChild(c); err != nil {
				return err
			}
		}
		return n.AppendChild(d.CreateTextNode(p.Value))

	case vdom.PatchSetAttr:
		n.SetAttribute(p.Key, p.Value)
	case vdom.PatchRemoveAttr:
		n.RemoveAttribute(p.Key)
	case vdom.PatchRemoveNode:
		n.Remove()

	case vdom.PatchReplaceNode:
		parent := n.Parent()
		if parent == nil {
			return fmt.Errorf("%w: node %s is detached", ErrHierarchy, p.HID)
		}
		index := indexOf(parent.Children(), n)
		n.Remove()
		return d.insertAt(parent, d.Build(p.Node), index)

	default:
		return fmt.Errorf("unsupported patch op %s", p.Op)
	}
	return nil
}

func (d *Document) insertAt(parent *Node, nodes []*Node, index int) error {
	for i, n := range nodes {
		children := parent.Children()
		var ref *Node
		if index >= 0 && index+i < len(children) {
			ref = children[index+i]
		}
		if err := parent.InsertBefore(n, ref); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) lookup(hid string) (*Node, error) {
	if n := d.NodeByHID(hid); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHID, hid)
}
