package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/venturelab/adsgw/internal/config/rules"
	"github.com/venturelab/adsgw/internal/logger"
)

// ValidationError is an alias for rules.ValidationError for backward compatibility
type ValidationError = rules.ValidationError

// Variable expression pattern: ${VARIABLE_NAME}
var varExprPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var logValidation = logger.New("config:validation")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// expandRawVariables expands every ${VAR} expression in a config file before
// it is parsed, so the schema sees the expanded values. The first undefined
// variable is reported.
func expandRawVariables(data []byte) ([]byte, error) {
	logValidation.Print("Expanding variables in raw config data")
	var undefinedVars []string

	result := varExprPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])

		if envValue, exists := os.LookupEnv(varName); exists {
			logValidation.Printf("Expanded variable: %s", varName)
			return []byte(envValue)
		}

		undefinedVars = append(undefinedVars, varName)
		return match
	})

	if len(undefinedVars) > 0 {
		logValidation.Printf("Variable expansion failed: undefined variables=%v", undefinedVars)
		return nil, rules.UndefinedVariable(undefinedVars[0], "configuration")
	}
	return result, nil
}

// Validate checks the final configuration. It returns the first problem as
// a *ValidationError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("failed to validate configuration: %w", err)
	}

	if err := validateListen(c.Gateway.Listen); err != nil {
		return err
	}

	logValidation.Print("Configuration is valid")
	return nil
}

func validateListen(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return rules.InvalidValue("listen", fmt.Sprintf("invalid listen address '%s'", addr),
			"gateway.listen", "Use host:port or :port (e.g., \":8080\")")
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return rules.InvalidValue("listen", fmt.Sprintf("invalid port '%s'", port),
			"gateway.listen", "Use a numeric port (e.g., \":8080\")")
	}
	if verr := rules.PortRange(n, "gateway.listen"); verr != nil {
		return verr
	}
	return nil
}

// fieldError turns a validator failure into the gateway's error vocabulary.
func fieldError(fe validator.FieldError) *ValidationError {
	path := strings.TrimPrefix(fe.Namespace(), "Config.")
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return rules.MissingRequired(field, path, suggestionFor(path))
	case "http_url":
		return rules.InvalidValue(field, fmt.Sprintf("'%v' is not an http(s) URL", fe.Value()), path, suggestionFor(path))
	case "gt":
		if d, ok := fe.Value().(time.Duration); ok {
			return rules.TimeoutPositive(d, field, path)
		}
	case "min", "max":
		if n, ok := fe.Value().(int); ok && field == "retries" {
			return rules.RetriesRange(n, path)
		}
	case "numeric":
		return rules.InvalidValue(field, fmt.Sprintf("'%v' must contain only digits", fe.Value()), path,
			"Account ids are 10 digits; dashes are stripped automatically")
	}
	return rules.InvalidValue(field, fmt.Sprintf("failed '%s' check", fe.Tag()), path, "")
}

func suggestionFor(path string) string {
	switch path {
	case "upstream.url":
		return "Set upstream.url or the MCP_URL environment variable to the tool host endpoint (e.g., \"http://localhost:8000/mcp\")"
	case "upstream.tool":
		return "Set upstream.tool to the tool name exposed by the tool host (default \"search\")"
	case "gateway.listen":
		return "Set gateway.listen, the PORT environment variable or --listen"
	}
	return ""
}
