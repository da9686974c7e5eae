package vdom

// Diff compares two VNode trees and returns the patches needed to transform
// prev into next. Matched nodes in next inherit their HID from prev; new
// nodes keep whatever HID they already carry, so callers normally run
// AssignHIDs on next after diffing.
func Diff(prev, next *VNode) []Patch {
	var d differ
	d.diff(prev, next)
	return d.patches
}

type differ struct {
	patches []Patch
}

func (d *differ) emit(p Patch) {
	d.patches = append(d.patches, p)
}

func (d *differ) diff(prev, next *VNode) {
	switch {
	case prev == nil:
		// Insertions are emitted by the parent, which knows the position.
		return
	case next == nil:
		d.emit(Patch{Op: PatchRemoveNode, HID: prev.HID})
		return
	case prev.Kind != next.Kind,
		prev.Kind == KindElement && prev.Tag != next.Tag:
		d.emit(Patch{Op: PatchReplaceNode, HID: prev.HID, Node: next})
		return
	}

	next.HID = prev.HID

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			d.emit(Patch{Op: PatchSetText, HID: prev.HID, Value: next.Text})
		}
	case KindElement:
		d.diffAttrs(prev, next)
		d.diffChildren(prev, next)
	case KindFragment:
		d.diffChildren(prev, next)
	}
}

// diffAttrs emits removals first, then sets, each in name order.
func (d *differ) diffAttrs(prev, next *VNode) {
	for _, name := range prev.Attrs.Names() {
		if _, ok := next.Attrs[name]; !ok {
			d.emit(Patch{Op: PatchRemoveAttr, HID: prev.HID, Key: name})
		}
	}
	for _, name := range next.Attrs.Names() {
		value := next.Attrs[name]
		if old, ok := prev.Attrs[name]; !ok || old != value {
			d.emit(Patch{Op: PatchSetAttr, HID: prev.HID, Key: name, Value: value})
		}
	}
}

func (d *differ) diffChildren(prev, next *VNode) {
	if hasKeys(prev.Children) || hasKeys(next.Children) {
		d.diffKeyedChildren(prev, next)
		return
	}

	common := min(len(prev.Children), len(next.Children))
	for i := 0; i < common; i++ {
		d.diff(prev.Children[i], next.Children[i])
	}
	for i := common; i < len(prev.Children); i++ {
		d.emit(Patch{Op: PatchRemoveNode, HID: prev.Children[i].HID})
	}
	for i := common; i < len(next.Children); i++ {
		d.emit(Patch{
			Op:       PatchInsertNode,
			ParentID: prev.HID,
			Index:    i,
			Node:     next.Children[i],
		})
	}
}

// diffKeyedChildren reconciles children by key. Unmatched old children are
// removed first; the remaining order is then simulated so every move and
// insert carries the index the node must occupy when the patch is applied.
func (d *differ) diffKeyedChildren(prev, next *VNode) {
	wanted := make(map[string]bool, len(next.Children))
	for _, child := range next.Children {
		if key := child.Key; key != "" {
			wanted[key] = true
		}
	}

	byKey := make(map[string]*VNode)
	current := make([]*VNode, 0, len(prev.Children))
	for _, child := range prev.Children {
		key := child.Key
		if key == "" || !wanted[key] || byKey[key] != nil {
			d.emit(Patch{Op: PatchRemoveNode, HID: child.HID})
			continue
		}
		byKey[key] = child
		current = append(current, child)
	}

	used := make(map[string]bool, len(byKey))
	for idx, nc := range next.Children {
		pc := byKey[nc.Key]
		if nc.Key == "" || pc == nil || used[nc.Key] {
			d.emit(Patch{
				Op:       PatchInsertNode,
				ParentID: prev.HID,
				Index:    idx,
				Node:     nc,
			})
			current = insertAt(current, idx, nc)
			continue
		}
		used[nc.Key] = true

		if idx >= len(current) || current[idx] != pc {
			d.emit(Patch{
				Op:       PatchMoveNode,
				HID:      pc.HID,
				ParentID: prev.HID,
				Index:    idx,
			})
			current = insertAt(removeNode(current, pc), idx, pc)
		}
		d.diff(pc, nc)
	}
}

func insertAt(nodes []*VNode, idx int, n *VNode) []*VNode {
	if idx >= len(nodes) {
		return append(nodes, n)
	}
	nodes = append(nodes, nil)
	copy(nodes[idx+1:], nodes[idx:])
	nodes[idx] = n
	return nodes
}

func removeNode(nodes []*VNode, n *VNode) []*VNode {
	for i, c := range nodes {
		if c == n {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if child != nil && child.Key != "" {
			return true
		}
	}
	return false
}
