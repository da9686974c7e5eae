// Package lazydef defines custom elements lazily, the moment they first
// appear in a document.
//
// An Observer watches a subtree of a dom.Document. For every element that is
// inserted, and every element whose role attribute changes, it derives a
// name (ResolveNames), checks whether the name is new work, and runs the
// pipeline:
//
//	filter -> URL resolver -> loader -> registry.Define
//
// The filter and URL resolver run synchronously on the delivering goroutine.
// The loader runs on its own goroutine and its result is defined into a
// customelements.Registry, which upgrades matching elements.
//
// # Usage
//
//	obs, err := lazydef.New(
//	    lazydef.WithFilter([]string{"x-card", "x-menu"}),
//	    lazydef.WithURLResolver(func(name string) string {
//	        return "https://cdn.example.com/elements/" + name + ".json"
//	    }),
//	    lazydef.WithLoader(loader.NewHTTP(nil)),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := obs.Observe(doc.Node(), lazydef.DefaultObserveOptions()); err != nil {
//	    return err
//	}
//
// # Names
//
// An element's name is its role attribute, lower-cased, when it has one,
// otherwise its tag. A role-named definition customizes the element's tag
// (DefineOptions.Extends); a tag-named one is autonomous. Only names passing
// IsValidName are considered.
//
// # Failures
//
// Resolution and load failures are *errors.Error values (codes E201, E202,
// E210, E211, E212) carrying the element name and module URL. They are
// delivered to the handler set with SetUnhandledErrorHandler. A loader that
// returns a nil implementation skips the definition; that is logged at warn
// level and is not an error.
//
// A name is attempted at most once at a time per Observer. An attempt that
// fails is not retried, but a later occurrence of the name starts a new one.
package lazydef
