package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Kind     Kind
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://github.com/vango-dev/lazydefine/blob/main/docs/errors.md#"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Engine Errors (E200-E299)
	// ============================================

	"E200": {
		Category: CategoryConfig,
		Kind:     KindTypeError,
		Message:  "Invalid observer option",
		Detail:   "A filter, URL resolver or loader option was given a value of an unsupported type.",
		DocURL:   docBase + "e200",
	},
	"E201": {
		Category: CategoryResolution,
		Kind:     KindTypeError,
		Message:  "URL resolver returned no URL",
		Detail:   "The URL resolver must return a URL or a URL string for every name the filter accepts.",
		DocURL:   docBase + "e201",
	},
	"E202": {
		Category: CategoryResolution,
		Kind:     KindSyntaxError,
		Message:  "Invalid module URL",
		Detail:   "The string returned by the URL resolver could not be parsed relative to the base URL.",
		DocURL:   docBase + "e202",
	},
	"E210": {
		Category: CategoryLoad,
		Kind:     KindNetworkError,
		Message:  "Element module failed to load",
		Detail:   "The loader returned an error for this module.",
		DocURL:   docBase + "e210",
	},
	"E211": {
		Category: CategoryLoad,
		Kind:     KindNotSupportedError,
		Message:  "Element definition rejected",
		Detail:   "The registry refused the definition, usually because the name was defined while the module was loading.",
		DocURL:   docBase + "e211",
	},
	"E212": {
		Category: CategoryLoad,
		Kind:     KindTypeError,
		Message:  "Element loader panicked",
		Detail:   "The loader panicked while producing an implementation. The panic was recovered.",
		DocURL:   docBase + "e212",
	},

	// ============================================
	// CLI Errors (E300-E399)
	// ============================================

	"E300": {
		Category: CategoryCLI,
		Message:  "Configuration file error",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   docBase + "e300",
	},
	"E301": {
		Category: CategoryCLI,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or has the wrong form.",
		DocURL:   docBase + "e301",
	},
	"E302": {
		Category: CategoryCLI,
		Message:  "Document could not be read",
		Detail:   "The HTML document passed on the command line could not be opened or parsed.",
		DocURL:   docBase + "e302",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
