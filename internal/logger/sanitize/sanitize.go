// Package sanitize redacts credentials from log lines and logged payloads.
package sanitize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// SecretPatterns match values that look like credentials.
var SecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(token|key|secret|password|auth)[=:]\s*[^\s]{8,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),                    // Bearer tokens
	regexp.MustCompile(`(?i)authorization:\s*[a-zA-Z0-9\-._~+/]+=*`),            // Auth headers
	regexp.MustCompile(`(?i)x-api-key:\s*[a-zA-Z0-9\-._~+/]+=*`),                // Gateway API key header
	regexp.MustCompile(`[a-f0-9]{32,}`),                                         // Long hex strings
	regexp.MustCompile(`(?i)(apikey|api_key|access_key)[=:]\s*[^\s]{8,}`),       // API keys
	regexp.MustCompile(`(?i)(client_secret|client_id)[=:]\s*[^\s]{8,}`),         // OAuth client credentials
	regexp.MustCompile(`[a-zA-Z0-9_-]{20,}\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), // JWT
	regexp.MustCompile(`ya29\.[a-zA-Z0-9_\-]{20,}`),                             // Google OAuth access tokens
	regexp.MustCompile(`1//0[a-zA-Z0-9_\-]{20,}`),                               // Google OAuth refresh tokens
	regexp.MustCompile(`GOCSPX-[a-zA-Z0-9_\-]{20,}`),                            // Google OAuth client secrets
	regexp.MustCompile(`(?i)"(token|password|passwd|pwd|apikey|api_key|api-key|x-api-key|secret|client_secret|api_secret|authorization|auth|key|private_key|credentials|credential|access_token|refresh_token|bearer_token|developer_token)"\s*:\s*"[^"]{1,}"`),
}

var separator = regexp.MustCompile(`[=:]\s*`)

// SanitizeString replaces likely secrets in message with [REDACTED]. For
// key=value and key: value matches the key is kept.
func SanitizeString(message string) string {
	result := message
	for _, pattern := range SecretPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.ContainsAny(match, "=:") {
				if parts := separator.Split(match, 2); len(parts) == 2 {
					return parts[0] + "=[REDACTED]"
				}
			}
			return "[REDACTED]"
		})
	}
	return result
}

// SanitizeJSON redacts secrets in a JSON payload and compacts it to one line.
// Input that is not JSON (before or after redaction) is wrapped as
// {"_error": ..., "_raw": ...}.
func SanitizeJSON(payload []byte) json.RawMessage {
	sanitized := SanitizeString(string(payload))

	var tmp any
	if err := json.Unmarshal([]byte(sanitized), &tmp); err != nil {
		wrapped, _ := json.Marshal(map[string]string{
			"_error": "invalid JSON",
			"_raw":   sanitized,
		})
		return wrapped
	}
	compact, _ := json.Marshal(tmp)
	return compact
}

// TruncateSecret keeps the first four characters of a secret for
// correlation in logs. Values of four characters or less are hidden entirely.
func TruncateSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "..."
	}
	return string(runes[:4]) + "..."
}

// TruncateSecretMap applies TruncateSecret to every value, typically a set of
// headers or environment variables about to be logged.
func TruncateSecretMap(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = TruncateSecret(v)
	}
	return out
}
