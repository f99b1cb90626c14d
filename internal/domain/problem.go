package domain

// Severity grades a problem.
type Severity string

const (
	// SeverityWarning indicates a recoverable condition; the affected path was skipped.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a condition that failed the operation.
	SeverityError Severity = "error"
)

// Problem codes reported by scanning, building and preference loading.
const (
	ProblemRootMissing           = "root_missing"
	ProblemRootUnreadable        = "root_unreadable"
	ProblemDirUnreadable         = "dir_unreadable"
	ProblemManifestInvalid       = "manifest_invalid"
	ProblemPathEscape            = "path_escape"
	ProblemSymlinkSkipped        = "symlink_skipped"
	ProblemDepthExceeded         = "depth_exceeded"
	ProblemDescriptionUnreadable = "description_unreadable"
	ProblemServiceConfigInvalid  = "service_config_invalid"
	ProblemServiceUnknown        = "service_unknown"
	ProblemMarkerWriteFailed     = "marker_write_failed"
	ProblemPreferencesInvalid    = "preferences_invalid"
)

// Problem is a non-fatal condition tied to a path. Problems are aggregated and returned
// to the caller rather than logged and dropped.
type Problem struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// Warn builds a warning problem.
func Warn(code, path, message string) Problem {
	return Problem{Severity: SeverityWarning, Code: code, Path: path, Message: message}
}

// BuildOutcome is the structured result of a build call.
type BuildOutcome struct {
	Success bool `json:"success"`
	// Cached is true when the stored registry was still valid and returned unchanged.
	Cached   bool      `json:"cached"`
	Problems []Problem `json:"problems"`
}
