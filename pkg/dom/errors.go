package dom

import "errors"

var (
	// ErrHierarchy is returned when an insertion would create an invalid tree.
	ErrHierarchy = errors.New("dom: hierarchy request error")

	// ErrNotFound is returned when a reference node is not a child of the parent.
	ErrNotFound = errors.New("dom: node not found")

	// ErrWrongDocument is returned when nodes from different documents are combined.
	ErrWrongDocument = errors.New("dom: node belongs to another document")

	// ErrShadowExists is returned by AttachShadow on an element that already has one.
	ErrShadowExists = errors.New("dom: element already hosts a shadow root")

	// ErrInvalidObserveOptions is returned when ObserveOptions select nothing to observe.
	ErrInvalidObserveOptions = errors.New("dom: observe options must include child list or attributes")

	// ErrUnknownHID is returned by Apply when a patch addresses a node that does not exist.
	ErrUnknownHID = errors.New("dom: unknown node id")
)
