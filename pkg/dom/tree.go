package dom

import "fmt"

// AppendChild appends child to n. A child that already has a parent is
// removed from it first.
func (n *Node) AppendChild(child *Node) error {
	d := n.doc
	d.mu.Lock()
	connected, err := d.insertLocked(n, child, -1)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.signal()
	d.runHooks(connected)
	return nil
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	d := n.doc
	d.mu.Lock()
	index := -1
	if ref != nil {
		index = indexOf(n.children, ref)
		if index < 0 {
			d.mu.Unlock()
			return fmt.Errorf("%w: reference node is not a child", ErrNotFound)
		}
	}
	connected, err := d.insertLocked(n, child, index)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.signal()
	d.runHooks(connected)
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	d := n.doc
	d.mu.Lock()
	if child.parent != n {
		d.mu.Unlock()
		return fmt.Errorf("%w: node is not a child", ErrNotFound)
	}
	d.removeLocked(n, child)
	d.mu.Unlock()
	d.signal()
	return nil
}

// ReplaceChild replaces old with child.
func (n *Node) ReplaceChild(child, old *Node) error {
	d := n.doc
	d.mu.Lock()
	if old.parent != n {
		d.mu.Unlock()
		return fmt.Errorf("%w: node is not a child", ErrNotFound)
	}
	if child == old {
		d.mu.Unlock()
		return nil
	}
	if err := d.checkInsertLocked(n, child); err != nil {
		d.mu.Unlock()
		return err
	}
	index := indexOf(n.children, old)
	d.removeLocked(n, old)
	connected, err := d.insertLocked(n, child, index)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.signal()
	d.runHooks(connected)
	return nil
}

// Remove detaches n from its parent, if it has one.
func (n *Node) Remove() {
	if p := n.Parent(); p != nil {
		_ = p.RemoveChild(n)
	}
}

func (d *Document) checkInsertLocked(parent, child *Node) error {
	switch {
	case child.doc != d:
		return ErrWrongDocument
	case parent.typ == TextNode:
		return fmt.Errorf("%w: text nodes have no children", ErrHierarchy)
	case child.typ == DocumentNode, child.typ == ShadowRootNode:
		return fmt.Errorf("%w: cannot insert a %s", ErrHierarchy, child.typ)
	}
	for x := parent; x != nil; {
		if x == child {
			return fmt.Errorf("%w: node would contain itself", ErrHierarchy)
		}
		if x.typ == ShadowRootNode {
			x = x.host
		} else {
			x = x.parent
		}
	}
	return nil
}

// insertLocked places child at index (append when index < 0 or out of range)
// and queues the child-list records. It returns the inserted root when it
// became connected.
func (d *Document) insertLocked(parent, child *Node, index int) ([]*Node, error) {
	if err := d.checkInsertLocked(parent, child); err != nil {
		return nil, err
	}
	if child.parent != nil {
		old := child.parent
		if old == parent {
			// Moving within the same parent shifts later positions down.
			if i := indexOf(parent.children, child); i >= 0 && index > i {
				index--
			}
		}
		d.removeLocked(old, child)
	}

	if index < 0 || index >= len(parent.children) {
		parent.children = append(parent.children, child)
	} else {
		parent.children = append(parent.children, nil)
		copy(parent.children[index+1:], parent.children[index:])
		parent.children[index] = child
	}
	child.parent = parent
	d.indexLocked(child)

	d.queueLocked(MutationRecord{
		Type:       MutationChildList,
		Target:     parent,
		AddedNodes: []*Node{child},
	})
	d.queueSubtreeLocked(child)

	if parent.connectedLocked() {
		return []*Node{child}, nil
	}
	return nil, nil
}

// queueSubtreeLocked reports the descendants of an inserted node: one record
// per element that has children, in document order.
func (d *Document) queueSubtreeLocked(root *Node) {
	stack := []*Node{root}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if x.typ != ElementNode || len(x.children) == 0 {
			continue
		}
		added := make([]*Node, len(x.children))
		copy(added, x.children)
		d.queueLocked(MutationRecord{
			Type:       MutationChildList,
			Target:     x,
			AddedNodes: added,
		})
		for i := len(x.children) - 1; i >= 0; i-- {
			stack = append(stack, x.children[i])
		}
	}
}

func (d *Document) removeLocked(parent, child *Node) {
	i := indexOf(parent.children, child)
	if i < 0 {
		return
	}
	parent.children = append(parent.children[:i], parent.children[i+1:]...)
	child.parent = nil
	d.unindexLocked(child)

	d.queueLocked(MutationRecord{
		Type:         MutationChildList,
		Target:       parent,
		RemovedNodes: []*Node{child},
	})
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
