// Package vdom provides description trees for documents observed by lazydefine.
//
// A VNode tree is an immutable-by-convention description of markup. It is
// the input format for building live documents (package dom), the output of
// HTML parsing, and the unit of change in watch mode: two successive
// descriptions are diffed into patches that the live document applies as
// real mutations.
//
// # Core Types
//
// VNode is the fundamental building block representing elements, text and
// fragments. Attrs holds string attributes. Attr is used to build Attrs.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"),
//	    El("x-counter", ID("main")),
//	    Button(Role("x-toggle"), Text("Toggle")),
//	)
//
// # Parsing
//
// ParseHTML and ParseFragment convert markup into VNode trees using
// golang.org/x/net/html.
//
// # Diffing
//
// Diff compares two VNode trees and returns a slice of Patch operations.
// Keyed reconciliation is used when children have Key attributes.
//
// # Node IDs
//
// AssignHIDs walks the tree and assigns hydration IDs to every element and
// text node that lacks one. The live document indexes nodes by HID so that
// patches can address them.
package vdom
