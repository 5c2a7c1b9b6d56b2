package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/venturelab/adsgw/internal/config/rules"
)

//go:embed schemas/adsgw-config.schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/venturelab/adsgw/schemas/adsgw-config.schema.json"

var (
	// gatewayVersion stores the version string to include in error messages
	gatewayVersion = "dev"

	compiledSchema = sync.OnceValues(compileSchema)
)

// SetVersion sets the gateway version for error reporting
func SetVersion(version string) {
	if version != "" {
		gatewayVersion = version
	}
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

// validateSchema checks a decoded TOML or YAML document against the
// embedded JSON schema. The document is round-tripped through JSON first so
// the validator sees the same value kinds encoding/json produces.
func validateSchema(doc map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert configuration to JSON: %w", err)
	}
	var configObj any
	if err := json.Unmarshal(raw, &configObj); err != nil {
		return fmt.Errorf("failed to parse configuration JSON: %w", err)
	}

	if err := schema.Validate(configObj); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

// formatSchemaError formats JSON schema validation errors to be user-friendly
func formatSchemaError(err error) error {
	if err == nil {
		return nil
	}

	if ve, ok := err.(*jsonschema.ValidationError); ok {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Configuration validation error (adsgw version: %s):\n\n", gatewayVersion))
		formatValidationErrorRecursive(ve, &sb, 0)
		rules.AppendConfigDocsFooter(&sb)
		return fmt.Errorf("%s", sb.String())
	}

	return fmt.Errorf("configuration validation error (version: %s): %s", gatewayVersion, err.Error())
}

func formatValidationErrorRecursive(ve *jsonschema.ValidationError, sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)

	location := ve.InstanceLocation
	if location == "" {
		location = "<root>"
	}
	sb.WriteString(fmt.Sprintf("%sLocation: %s\n", indent, location))
	sb.WriteString(fmt.Sprintf("%sError: %s\n", indent, ve.Message))
	sb.WriteString(formatErrorContext(ve, indent))

	for _, cause := range ve.Causes {
		formatValidationErrorRecursive(cause, sb, depth+1)
	}
}

// formatErrorContext adds a hint for the schema failures operators hit most.
func formatErrorContext(ve *jsonschema.ValidationError, prefix string) string {
	msg := ve.Message
	switch {
	case strings.Contains(msg, "additionalProperties"):
		return fmt.Sprintf("%sDetails: unknown field; check for typos or remove it\n", prefix)
	case strings.Contains(msg, "expected") && strings.Contains(msg, "but got"):
		return fmt.Sprintf("%sDetails: wrong value type (durations are strings such as \"30s\")\n", prefix)
	case strings.Contains(msg, "does not match pattern"):
		return fmt.Sprintf("%sDetails: value format is incorrect\n", prefix)
	case strings.Contains(msg, "must be >=") || strings.Contains(msg, "must be <="):
		return fmt.Sprintf("%sDetails: value is outside the allowed range\n", prefix)
	}
	return ""
}
