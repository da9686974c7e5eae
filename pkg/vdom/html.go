package vdom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses a complete HTML document into a fragment whose children
// are the document's top-level nodes (normally a single <html> element).
// Comments, doctypes and whitespace-only text are dropped.
func ParseHTML(r io.Reader) (*VNode, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	root := &VNode{Kind: KindFragment}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if v := fromHTML(c); v != nil {
			root.Children = append(root.Children, v)
		}
	}
	return root, nil
}

// ParseFragment parses markup as the content of a <body> element.
func ParseFragment(markup string) ([]*VNode, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}
	out := make([]*VNode, 0, len(nodes))
	for _, n := range nodes {
		if v := fromHTML(n); v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func fromHTML(n *html.Node) *VNode {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return Text(n.Data)
	case html.ElementNode:
		v := &VNode{
			Kind:  KindElement,
			Tag:   strings.ToLower(n.Data),
			Attrs: make(Attrs, len(n.Attr)),
		}
		for _, a := range n.Attr {
			v.setAttr(A(a.Key, a.Val))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				v.Children = append(v.Children, child)
			}
		}
		return v
	default:
		return nil
	}
}

// RenderHTML writes v as HTML markup.
func RenderHTML(w io.Writer, v *VNode) error {
	if v == nil {
		return nil
	}
	if v.Kind == KindFragment {
		for _, child := range v.Children {
			if err := RenderHTML(w, child); err != nil {
				return err
			}
		}
		return nil
	}
	return html.Render(w, toHTML(v))
}

func toHTML(v *VNode) *html.Node {
	if v.Kind == KindText {
		return &html.Node{Type: html.TextNode, Data: v.Text}
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     v.Tag,
		DataAtom: atom.Lookup([]byte(v.Tag)),
	}
	for _, name := range v.Attrs.Names() {
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: v.Attrs[name]})
	}
	if v.Key != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "key", Val: v.Key})
	}
	for _, child := range v.Children {
		if child == nil {
			continue
		}
		if child.Kind == KindFragment {
			for _, gc := range child.Children {
				n.AppendChild(toHTML(gc))
			}
			continue
		}
		n.AppendChild(toHTML(child))
	}
	return n
}
