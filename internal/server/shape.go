package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/itchyny/gojq"
)

// shapeFilter replaces every leaf with its jq type name and keeps only the
// first element of each array, so a result can be logged without its rows.
const shapeFilter = `
def shape:
  . as $in |
  if type == "object" then
    reduce keys[] as $k ({}; . + {($k): ($in[$k] | shape)})
  elif type == "array" then
    if length == 0 then [] else [.[0] | shape] end
  else
    type
  end;
shape
`

var shapeCode = sync.OnceValues(func() (*gojq.Code, error) {
	query, err := gojq.Parse(shapeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shape filter: %w", err)
	}
	return gojq.Compile(query)
})

// resultShape renders the type skeleton of v as compact JSON.
func resultShape(v any) (string, error) {
	code, err := shapeCode()
	if err != nil {
		return "", err
	}

	// gojq only accepts the plain types encoding/json produces.
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return "", fmt.Errorf("failed to unmarshal result: %w", err)
	}

	out, ok := code.Run(plain).Next()
	if !ok {
		return "", fmt.Errorf("shape filter returned no results")
	}
	if err, ok := out.(error); ok {
		return "", fmt.Errorf("shape filter error: %w", err)
	}

	shape, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shape: %w", err)
	}
	return string(shape), nil
}
