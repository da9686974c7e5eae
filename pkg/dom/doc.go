// Package dom provides a live, observable document tree.
//
// It is the host environment lazydefine runs against: elements with
// lower-case tags and string attributes, text nodes, shadow roots that wall
// off encapsulated content, and a MutationObserver facility that queues
// records and delivers them in batches.
//
// # Delivery
//
// Mutations never call observers directly. Records are queued per observer
// and delivered when Flush is called (a checkpoint, usually right after a
// batch of edits) or by the loop started with Run. Batches reach each
// observer in the order its records were queued.
//
// # Inserted subtrees
//
// When a node with descendants is inserted, observers with Subtree set
// receive one child-list record per inserted element, each listing that
// element's children as added nodes. Every element of an inserted subtree is
// therefore reported individually and consumers never need to walk it.
//
// # Shadow roots
//
// A shadow root's parent is nil: tree walks and subtree observations stop at
// the shadow boundary. Content inside a shadow root is observed by observing
// the shadow root itself.
package dom
