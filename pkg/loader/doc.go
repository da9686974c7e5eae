// Package loader fetches custom element implementations by URL.
//
// A Loader turns a resolved module URL into a customelements.Implementation.
// A nil implementation with a nil error means "nothing to define": callers
// skip the definition without treating it as a failure.
//
// # Sources
//
//   - Modules: an in-process module map. Import is the process-wide map that
//     Go packages register compiled implementations into, typically from init.
//   - HTTP: fetches element descriptors over http(s).
//   - S3: reads element descriptors from an S3 bucket (s3://bucket/key).
//   - FS: reads element descriptors from an fs.FS (file:///path).
//   - Mux: dispatches on the URL scheme.
//
// Cached wraps any Loader with an expiring in-memory cache keyed by URL.
//
// # Descriptors
//
// Remote sources serve declarative descriptors decoded into a
// customelements.Template. JSON and YAML are supported; the format is picked
// from the content type, falling back to the file extension:
//
//	name: x-card
//	shadow: |
//	  <div class="frame"><slot></slot></div>
//	attributes:
//	  tabindex: "0"
//
// A descriptor whose body is empty or null yields a nil implementation.
package loader
