package vdom

import "strings"

// El creates an element with the given tag. Arguments can be:
// nil, Attr, []Attr, *VNode, []*VNode, string (text shorthand).
func El(tag string, args ...any) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   strings.ToLower(tag),
		Attrs: make(Attrs),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			node.setAttr(v)
		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}

	return node
}

func (v *VNode) setAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Key == "key" {
		v.Key = a.Value
		return
	}
	v.Attrs[a.Key] = a.Value
}

// Div creates a div element.
func Div(args ...any) *VNode { return El("div", args...) }

// Span creates a span element.
func Span(args ...any) *VNode { return El("span", args...) }

// Section creates a section element.
func Section(args ...any) *VNode { return El("section", args...) }

// Button creates a button element.
func Button(args ...any) *VNode { return El("button", args...) }

// P creates a paragraph element.
func P(args ...any) *VNode { return El("p", args...) }

// Ul creates an unordered list element.
func Ul(args ...any) *VNode { return El("ul", args...) }

// Li creates a list item element.
func Li(args ...any) *VNode { return El("li", args...) }

// Body creates a body element.
func Body(args ...any) *VNode { return El("body", args...) }
