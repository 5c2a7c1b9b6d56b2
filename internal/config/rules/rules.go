package rules

import (
	"fmt"
	"strings"
	"time"
)

// ExampleConfig is the annotated configuration shipped next to the binary.
const ExampleConfig = "adsgw.example.toml"

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	Field      string
	Message    string
	JSONPath   string
	Suggestion string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration error at %s: %s", e.JSONPath, e.Message))
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}
	return sb.String()
}

// UndefinedVariable creates a ValidationError for undefined environment variables
func UndefinedVariable(varName, jsonPath string) *ValidationError {
	return &ValidationError{
		Field:      "env variable",
		Message:    fmt.Sprintf("undefined environment variable referenced: %s", varName),
		JSONPath:   jsonPath,
		Suggestion: fmt.Sprintf("Set the environment variable %s before starting the gateway", varName),
	}
}

// MissingRequired creates a ValidationError for a required field left empty.
func MissingRequired(fieldName, jsonPath, suggestion string) *ValidationError {
	return &ValidationError{
		Field:      fieldName,
		Message:    fmt.Sprintf("'%s' is required", fieldName),
		JSONPath:   jsonPath,
		Suggestion: suggestion,
	}
}

// InvalidValue creates a ValidationError for a field whose value is malformed.
func InvalidValue(fieldName, message, jsonPath, suggestion string) *ValidationError {
	return &ValidationError{
		Field:      fieldName,
		Message:    message,
		JSONPath:   jsonPath,
		Suggestion: suggestion,
	}
}

// AppendConfigDocsFooter appends the pointer to the annotated example config.
func AppendConfigDocsFooter(sb *strings.Builder) {
	sb.WriteString("\n\nSee " + ExampleConfig + " for every supported setting,")
	sb.WriteString("\nor run 'adsgw --help' for the matching flags and environment variables.")
}

// PortRange validates that a port is in the valid range (1-65535)
// Returns nil if valid, *ValidationError if invalid
func PortRange(port int, jsonPath string) *ValidationError {
	if port < 1 || port > 65535 {
		return &ValidationError{
			Field:      "port",
			Message:    fmt.Sprintf("port must be between 1 and 65535, got %d", port),
			JSONPath:   jsonPath,
			Suggestion: "Use a valid port number (e.g., 8080)",
		}
	}
	return nil
}

// TimeoutPositive validates that a timeout is greater than zero.
func TimeoutPositive(timeout time.Duration, fieldName, jsonPath string) *ValidationError {
	if timeout <= 0 {
		return &ValidationError{
			Field:      fieldName,
			Message:    fmt.Sprintf("%s must be positive, got %s", fieldName, timeout),
			JSONPath:   jsonPath,
			Suggestion: "Use a duration such as \"30s\" or \"2m\"",
		}
	}
	return nil
}

// RetriesRange validates the number of extra delivery attempts.
func RetriesRange(retries int, jsonPath string) *ValidationError {
	if retries < 0 || retries > 10 {
		return &ValidationError{
			Field:      "retries",
			Message:    fmt.Sprintf("retries must be between 0 and 10, got %d", retries),
			JSONPath:   jsonPath,
			Suggestion: "Use 0 to disable retries; retries only repeat requests that never reached the tool host",
		}
	}
	return nil
}
