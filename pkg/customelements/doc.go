// Package customelements implements a define-once registry of custom element
// definitions for documents built with package dom.
//
// A definition binds a name to an Implementation. Autonomous definitions
// match elements whose tag is the name:
//
//	<x-element></x-element>
//
// Customized built-in definitions extend a built-in tag and match elements of
// that tag whose role attribute carries the name:
//
//	<div role="y-element"></div>
//
// # Upgrades
//
// A registry attached to a document (Attach) upgrades matching elements that
// are already connected when a definition arrives, and elements connected
// later as they are inserted. Upgrading calls Implementation.Construct once
// per element and stores the result on the element (dom.Node.Instance).
//
// # Names
//
// A name can be defined once. Define rejects a second definition with
// ErrAlreadyDefined; callers racing to define the same name must treat that
// error as "someone else won".
package customelements
