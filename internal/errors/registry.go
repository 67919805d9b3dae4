package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E199)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "The configuration file could not be parsed.",
		Suggestion: "Check that sitepipe.json is valid JSON (or sitepipe.toml is valid TOML)",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Overlapping asset destinations",
		Detail:     "Two asset categories write to the same destination directory.",
		Suggestion: "Give every category its own dest directory",
	},
	"E104": {
		Category:   CategoryConfig,
		Message:    "Unsupported configuration format",
		Suggestion: "Use sitepipe.json or sitepipe.toml",
	},

	// ============================================
	// Task Errors (E200-E299)
	// ============================================

	"E201": {
		Category:   CategoryTask,
		Message:    "Unknown task",
		Suggestion: "Run 'sitepipe tasks' to list the registered tasks",
	},
	"E202": {
		Category: CategoryTask,
		Message:  "Task panicked",
	},
	"E203": {
		Category:   CategoryTask,
		Message:    "Project is locked",
		Detail:     "Another sitepipe process is building or publishing this project.",
		Suggestion: "Wait for it to finish or stop it, then re-run",
	},
	"E204": {
		Category: CategoryTask,
		Message:  "Clean failed",
	},

	// ============================================
	// Transform Errors (E300-E399)
	// ============================================

	"E300": {
		Category: CategoryTransform,
		Message:  "Could not resolve source files",
	},
	"E301": {
		Category: CategoryTransform,
		Message:  "Style compilation failed",
	},
	"E302": {
		Category:   CategoryTransform,
		Message:    "Sass compiler not found",
		Detail:     "The styles task needs the dart-sass 'sass' executable.",
		Suggestion: "Install dart-sass (https://sass-lang.com/install) or set styles.sass to its path",
	},
	"E303": {
		Category: CategoryTransform,
		Message:  "CSS post-processing failed",
	},
	"E304": {
		Category: CategoryTransform,
		Message:  "Script bundling failed",
	},
	"E305": {
		Category: CategoryTransform,
		Message:  "Image optimization failed",
	},
	"E306": {
		Category: CategoryTransform,
		Message:  "Template rendering failed",
	},
	"E307": {
		Category: CategoryTransform,
		Message:  "Failed to write output",
	},

	// ============================================
	// Publish Errors (E400-E499)
	// ============================================

	"E401": {
		Category:   CategoryPublish,
		Message:    "git command failed",
		Suggestion: "Run the git command by hand to see the full output",
	},
	"E402": {
		Category:   CategoryPublish,
		Message:    "Push failed",
		Detail:     "The remote rejected the push or could not be reached.",
		Suggestion: "Check publish.remote, publish.branch and your network connection",
	},
	"E403": {
		Category:   CategoryPublish,
		Message:    "Remote not configured",
		Suggestion: "Add the remote with 'git remote add' or set publish.remoteURL",
	},
	"E404": {
		Category: CategoryPublish,
		Message:  "Object storage upload failed",
	},

	// ============================================
	// Server Errors (E500-E599)
	// ============================================

	"E501": {
		Category:   CategoryServer,
		Message:    "Port already in use",
		Suggestion: "Stop the other process or set dev.port",
	},
	"E502": {
		Category: CategoryServer,
		Message:  "File watcher failed",
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
