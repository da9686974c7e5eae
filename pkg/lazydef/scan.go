package lazydef

import "github.com/vango-dev/lazydefine/pkg/dom"

// scan visits root and, with subtree set, its light descendants in document
// order. Shadow roots are not entered.
func (o *Observer) scan(root *dom.Node, subtree bool) {
	stack := []*dom.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsElement() {
			o.metrics.scanned.Inc()
			o.process(ResolveNames(n, o.roleAttr))
		}
		if !subtree {
			continue
		}
		children := n.ElementChildren()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
