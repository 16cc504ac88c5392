package errors

import "sort"

// docBase is where each code's documentation anchor lives.
const docBase = "https://github.com/cooptacular/gravity/blob/main/docs/errors.md#"

// ErrorTemplate is the registered text for an error code.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]ErrorTemplate{
	// Configuration (G100-G199)

	"G101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No gravity.json was found at the given path.",
	},
	"G102": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file is not valid JSON or a field has the wrong type.",
	},
	"G103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range or not one of the accepted values.",
	},
	"G104": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A GRAVITY_* environment variable could not be parsed into its config field.",
	},
	"G105": {
		Category: CategoryConfig,
		Message:  "Cannot write config file",
	},
	"G106": {
		Category: CategoryConfig,
		Message:  "Config file already exists",
		Detail:   "gravity init will not overwrite an existing gravity.json.",
	},

	// Manifest (G200-G299)

	"G201": {
		Category: CategoryManifest,
		Message:  "Manifest not found",
		Detail:   "The manifest source could not be read. Local paths are read from disk and s3://bucket/key URIs from S3.",
	},
	"G202": {
		Category: CategoryManifest,
		Message:  "Invalid manifest",
		Detail:   "The manifest is not valid JSON or does not have the expected shape.",
	},
	"G203": {
		Category: CategoryManifest,
		Message:  "Invalid route pattern",
		Detail:   "A route pattern could not be compiled as a regular expression.",
	},
	"G204": {
		Category: CategoryManifest,
		Message:  "Invalid manifest key",
		Detail:   "The manifest key must be a base64-encoded 16, 24 or 32 byte AES key.",
	},
	"G205": {
		Category: CategoryManifest,
		Message:  "Route pattern does not match its segments",
		Detail:   "The path generated from a route's segments is rejected by the route's own pattern.",
	},
	"G206": {
		Category: CategoryRouting,
		Message:  "Route not found",
		Detail:   "No route in the manifest has this template.",
	},
	"G207": {
		Category: CategoryRouting,
		Message:  "Missing route parameter",
		Detail:   "A named parameter of the route template was not supplied or is empty.",
	},
	"G208": {
		Category: CategoryRouting,
		Message:  "No route matches path",
	},

	// CLI and server (G300-G399)

	"G301": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	"G302": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
}

func docURL(code string) string {
	if _, ok := registry[code]; !ok {
		return ""
	}
	return docBase + code
}

// GetAllCodes returns every registered code in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template registered for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template. It is not safe to call concurrently
// with New.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
