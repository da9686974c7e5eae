// Package inspect serves a read-only HTTP view of a custom element registry.
//
// Routes:
//
//	GET /healthz             liveness
//	GET /definitions         all definitions, sorted by name
//	GET /definitions/{name}  one definition, 404 if undefined
//	GET /outcomes            recent pipeline outcomes of the observer
//	GET /metrics             Prometheus metrics
//	GET /ws                  WebSocket feed of definition events
package inspect
