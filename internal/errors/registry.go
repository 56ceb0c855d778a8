package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Binding configuration (E101-E199)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "No base class was provided",
		Suggestion: "Pass BaseClass in the options or call classes.ProvideBaseClass on an ancestor scope",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "No binding target",
		Suggestion: "Create the scope with a host element or pass Target in the options",
	},

	// ============================================
	// Storage (E201-E299)
	// ============================================

	"E201": {
		Category:   CategoryStorage,
		Message:    "Storage quota exceeded",
		Suggestion: "Remove unused keys or raise the store's quota",
	},
	"E202": {
		Category:   CategoryStorage,
		Message:    "Storage backend failed",
		Suggestion: "Check that the backing file or bucket is reachable and writable",
	},
	"E203": {
		Category:   CategoryStorage,
		Message:    "Unknown storage backend",
		Suggestion: `Use one of "memory", "bolt" or "s3"`,
	},

	// ============================================
	// Hub (E301-E399)
	// ============================================

	"E301": {
		Category:   CategoryHub,
		Message:    "Hub connection failed",
		Suggestion: "Check the hub URL and that `composables serve` is running",
	},
	"E302": {
		Category:   CategoryHub,
		Message:    "Invalid hub message",
		Suggestion: "Hub clients and servers must run the same protocol version",
	},

	// ============================================
	// CLI and configuration files (E401-E499)
	// ============================================

	"E401": {
		Category:   CategoryCLI,
		Message:    "Invalid configuration",
		Suggestion: "Fix the reported field in composables.json or composables.yaml",
	},
	"E402": {
		Category:   CategoryCLI,
		Message:    "Configuration file not readable",
		Suggestion: "Run the command from the project directory or pass --config",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
