package vdom

import "testing"

func TestEl(t *testing.T) {
	node := El("X-Widget", ID("w"), Role("x-role"), nil, "label", Span())

	if node.Kind != KindElement {
		t.Errorf("Kind = %v, want Element", node.Kind)
	}
	if node.Tag != "x-widget" {
		t.Errorf("Tag = %q, want lower-cased x-widget", node.Tag)
	}
	if node.Attrs["id"] != "w" {
		t.Errorf("id = %q, want w", node.Attrs["id"])
	}
	if node.Attrs["role"] != "x-role" {
		t.Errorf("role = %q, want x-role", node.Attrs["role"])
	}
	if len(node.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(node.Children))
	}
	if node.Children[0].Kind != KindText || node.Children[0].Text != "label" {
		t.Error("string argument should become a text child")
	}
}

func TestElKeyIsNotAnAttribute(t *testing.T) {
	node := Li(Key("row-1"), Class("row"))

	if node.Key != "row-1" {
		t.Errorf("Key = %q, want row-1", node.Key)
	}
	if _, ok := node.Attrs["key"]; ok {
		t.Error("key should not be stored as an attribute")
	}
}

func TestElAttrSlicesAndChildSlices(t *testing.T) {
	node := Div(
		[]Attr{Class("a", "b"), Data("id", "7"), {}},
		[]*VNode{P(), nil, Ul()},
	)

	if node.Attrs["class"] != "a b" {
		t.Errorf("class = %q, want %q", node.Attrs["class"], "a b")
	}
	if node.Attrs["data-id"] != "7" {
		t.Errorf("data-id = %q, want 7", node.Attrs["data-id"])
	}
	if len(node.Children) != 2 {
		t.Errorf("len(Children) = %d, want 2 (nil dropped)", len(node.Children))
	}
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		attr Attr
		key  string
		val  string
	}{
		{ID("main"), "id", "main"},
		{Class("x", "y"), "class", "x y"},
		{Data("user-id", "42"), "data-user-id", "42"},
		{Role("x-fancy"), "role", "x-fancy"},
		{Is("x-fancy"), "is", "x-fancy"},
		{A("Aria-Label", "hi"), "aria-label", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.attr.Key != tt.key || tt.attr.Value != tt.val {
				t.Errorf("got %s=%q, want %s=%q", tt.attr.Key, tt.attr.Value, tt.key, tt.val)
			}
		})
	}
}

func TestFragmentAndRange(t *testing.T) {
	items := []string{"x-a", "", "x-c"}
	nodes := Range(items, func(_ int, tag string) *VNode {
		return If(tag != "", El(tag))
	})
	if len(nodes) != 2 {
		t.Fatalf("Range returned %d nodes, want 2", len(nodes))
	}

	frag := Fragment(nodes, "tail", nil)
	if frag.Kind != KindFragment {
		t.Errorf("Kind = %v, want Fragment", frag.Kind)
	}
	if len(frag.Children) != 3 {
		t.Errorf("len(Children) = %d, want 3", len(frag.Children))
	}
}
