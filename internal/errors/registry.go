package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Mutation Errors (F001-F009)
	// ============================================

	CodeValidationFailed: {
		Category: CategoryValidation,
		Message:  "Validation failed",
	},
	CodeMutationFailed: {
		Category: CategoryMutation,
		Message:  "Mutation failed",
	},
	CodeIncompleteTable: {
		Category:   CategoryCache,
		Message:    "Dependency table is incomplete",
		Suggestion: "Add a row for every (kind, operation) pair a user action can issue",
	},
	CodeUnknownRoute: {
		Category:   CategoryMutation,
		Message:    "No endpoint registered for mutation",
		Suggestion: "Add the route to api.routes in goalfeed.json",
	},
	CodeNotFound: {
		Category:   CategoryCache,
		Message:    "Not found in the feed",
		Suggestion: "Run `goalfeed list` to see the ids the feed knows about",
	},

	// ============================================
	// Config Errors (F010-F019)
	// ============================================

	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create goalfeed.json or pass --config",
	},
	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that goalfeed.json is valid JSON",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
