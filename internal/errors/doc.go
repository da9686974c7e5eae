// Package errors provides structured, coded errors for lazydefine.
//
// Every failure the definition engine can surface carries a stable code, a
// category and, where relevant, the element name and module URL it concerns:
//
//   - config: a constructor option had an unusable shape (E200)
//   - resolution: the URL resolver produced nothing usable (E201, E202)
//   - load: the loader or the registry rejected a definition (E210-E212)
//   - cli: command line and configuration file problems (E3xx)
//
// # Usage
//
//	err := errors.New("E210").
//	    WithName("x-button").
//	    WithURL("https://cdn.example.com/x-button.json").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E210: Element module failed to load
//	//
//	//   x-button  https://cdn.example.com/x-button.json
//	//
//	//   The loader returned an error for this module.
//	//
//	//   Caused by: connection refused
//
// Codes compare with errors.Is: any *Error matches another *Error carrying the
// same code, so callers can test for a failure class without type switches.
package errors
