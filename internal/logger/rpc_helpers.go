package logger

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/venturelab/adsgw/internal/logger/sanitize"
)

// truncateAndSanitize redacts secrets, then cuts the result to maxLength
// bytes without splitting a UTF-8 sequence.
func truncateAndSanitize(payload string, maxLength int) string {
	sanitized := sanitize.SanitizeString(payload)
	if len(sanitized) <= maxLength {
		return sanitized
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(sanitized[cut]) {
		cut--
	}
	return sanitized[:cut] + "..."
}

// toolNameFromPayload returns params.name of a tools/call request.
func toolNameFromPayload(payload []byte) string {
	var req struct {
		Params struct {
			Name string `json:"name"`
		} `json:"params"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return ""
	}
	return req.Params.Name
}
