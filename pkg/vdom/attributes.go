package vdom

import "strings"

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value string
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// A creates an attribute with an arbitrary name.
func A(key, value string) Attr { return Attr{Key: strings.ToLower(key), Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return A("class", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return A("data-"+key, value) }

// Role sets the role attribute. lazydefine reads it as the name of the
// customized built-in element an ordinary tag should become.
func Role(role string) Attr { return A("role", role) }

// Is sets the is attribute, the platform spelling of a customized built-in.
func Is(name string) Attr { return A("is", name) }

// Key sets the reconciliation key. It is not rendered as an attribute.
func Key(key string) Attr { return Attr{Key: "key", Value: key} }
