package mcptest

import (
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerConfig defines the configuration for a test tool host
type ServerConfig struct {
	// Name is the name of the test server
	Name string
	// Version is the version of the test server
	Version string
	// Tools is the list of tools to expose
	Tools []ToolConfig
}

// ToolConfig defines a tool for the test server
type ToolConfig struct {
	// Name of the tool
	Name string
	// Description of what the tool does
	Description string
	// InputSchema defines the expected input parameters
	InputSchema map[string]any
	// Handler runs when the tool is called. A returned error becomes an
	// isError result carrying the error text.
	Handler func(arguments map[string]any) (*sdk.CallToolResult, error)
}

// DefaultServerConfig returns a basic server configuration for testing
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Name:    "test-toolhost",
		Version: "1.0.0",
	}
}

// WithTool adds a tool to the server configuration
func (c *ServerConfig) WithTool(tool ToolConfig) *ServerConfig {
	c.Tools = append(c.Tools, tool)
	return c
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// SimpleEchoTool creates a tool that echoes its "message" argument as text.
func SimpleEchoTool(name string) ToolConfig {
	return ToolConfig{
		Name:        name,
		Description: "Echoes back the input",
		InputSchema: objectSchema(map[string]any{
			"message": map[string]any{"type": "string"},
		}, "message"),
		Handler: func(arguments map[string]any) (*sdk.CallToolResult, error) {
			message := "no message"
			if msg, ok := arguments["message"].(string); ok {
				message = msg
			}
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: "Echo: " + message}},
			}, nil
		},
	}
}

// SearchTool creates a search tool that answers every call with rows as
// structured content, the way the production tool host reports query results.
func SearchTool(name string, rows []map[string]any) ToolConfig {
	return ToolConfig{
		Name:        name,
		Description: "Runs a reporting query",
		InputSchema: objectSchema(map[string]any{
			"customer_id": map[string]any{"type": "string"},
			"resource":    map[string]any{"type": "string"},
			"fields":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"conditions":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"orderings":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"limit":       map[string]any{"type": "integer"},
		}, "resource", "fields"),
		Handler: func(arguments map[string]any) (*sdk.CallToolResult, error) {
			return &sdk.CallToolResult{
				Content:           []sdk.Content{&sdk.TextContent{Text: "query returned rows"}},
				StructuredContent: map[string]any{"result": rows},
			}, nil
		},
	}
}

// FailingTool creates a tool whose every call ends in an isError result.
func FailingTool(name, message string) ToolConfig {
	return ToolConfig{
		Name:        name,
		Description: "Always fails",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(map[string]any) (*sdk.CallToolResult, error) {
			return nil, errors.New(message)
		},
	}
}
