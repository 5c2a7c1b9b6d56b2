package toolhost

import (
	"encoding/json"
	"strings"

	"github.com/venturelab/adsgw/internal/jsonsafe"
	"github.com/venturelab/adsgw/internal/logger"
)

var logResponse = logger.New("toolhost:response")

// parseBody turns a buffered response body into a JSON document. Bodies that
// look like an event stream are read line by line and the last data line that
// parses wins; anything else must be a single JSON document.
func parseBody(body []byte, statusCode int) (any, error) {
	text := string(body)
	if isEventStream(text) {
		logResponse.Printf("Classified body as event stream: status=%d, size=%d", statusCode, len(body))
		return parseEventStream(text, statusCode)
	}

	logResponse.Printf("Classified body as plain JSON: status=%d, size=%d", statusCode, len(body))
	doc, err := jsonsafe.FromJSON(body)
	if err != nil {
		return nil, newParseError(text, statusCode, "body is not valid JSON")
	}
	return doc, nil
}

func isEventStream(text string) bool {
	return strings.Contains(text, "event:") || strings.HasPrefix(text, "data:")
}

func parseEventStream(text string, statusCode int) (any, error) {
	var doc any
	found := false
	for i, line := range strings.Split(text, "\n") {
		data, ok := strings.CutPrefix(strings.TrimSuffix(line, "\r"), "data:")
		if !ok {
			continue
		}
		parsed, err := jsonsafe.FromJSON([]byte(strings.TrimSpace(data)))
		if err != nil {
			logResponse.Printf("Skipping unparsable data line %d: %v", i+1, err)
			continue
		}
		doc, found = parsed, true
	}
	if !found {
		return nil, newParseError(text, statusCode, "no data line holds valid JSON")
	}
	return doc, nil
}

// extractResult checks a parsed document for protocol and tool errors and
// returns the payload: result.structuredContent.result, else result.content,
// else result itself.
func extractResult(doc any) (any, error) {
	if errObj, ok := jsonsafe.Lookup(doc, "error"); ok && truthy(errObj) {
		return nil, &ProtocolError{Code: errorCode(errObj), Message: errorMessage(errObj)}
	}

	result, _ := jsonsafe.Lookup(doc, "result")
	if isError, ok := jsonsafe.Lookup(result, "isError"); ok && isError == true {
		return nil, &ApplicationError{Message: firstText(result)}
	}

	if structured, ok := jsonsafe.Lookup(result, "structuredContent"); ok {
		if payload, ok := jsonsafe.Lookup(structured, "result"); ok {
			return payload, nil
		}
	}
	if content, ok := jsonsafe.Lookup(result, "content"); ok {
		return content, nil
	}
	return result, nil
}

// truthy reports whether an error member signals a failure. false, 0 and
// the empty string are treated like an absent member.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	return true
}

// errorMessage returns the message of a JSON-RPC error object, or the error
// object itself as JSON text when it has no message.
func errorMessage(errObj any) string {
	if msg, ok := jsonsafe.Lookup(errObj, "message"); ok {
		if s, ok := msg.(string); ok && s != "" {
			return s
		}
	}
	if s, ok := errObj.(string); ok {
		return s
	}
	data, err := json.Marshal(errObj)
	if err != nil {
		return "tool host returned an error"
	}
	return string(data)
}

func errorCode(errObj any) int {
	code, ok := jsonsafe.Lookup(errObj, "code")
	if !ok {
		return 0
	}
	n, ok := code.(json.Number)
	if !ok {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(v)
}

// firstText returns the text of the first "text" content item of a tool result.
func firstText(result any) string {
	content, _ := jsonsafe.Lookup(result, "content")
	items, _ := content.([]any)
	for _, item := range items {
		if kind, _ := jsonsafe.Lookup(item, "type"); kind != "text" {
			continue
		}
		if text, ok := jsonsafe.Lookup(item, "text"); ok {
			if s, ok := text.(string); ok && s != "" {
				return s
			}
		}
		break
	}
	return genericToolError
}
