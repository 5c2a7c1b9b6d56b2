package toolhost

import (
	"fmt"
	"unicode/utf8"
)

// excerptLimit caps how much of an unparsable body is carried in a ParseError.
const excerptLimit = 500

// NetworkError wraps a failure of the HTTP exchange itself (dial, TLS, timeout,
// reading the body). The underlying error message is reported unchanged.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not JSON under either framing.
type ParseError struct {
	StatusCode int
	Reason     string
	Excerpt    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse tool host response (HTTP %d, %s): %s", e.StatusCode, e.Reason, e.Excerpt)
}

func newParseError(body string, statusCode int, reason string) *ParseError {
	return &ParseError{
		StatusCode: statusCode,
		Reason:     reason,
		Excerpt:    excerpt(body),
	}
}

// ProtocolError carries a JSON-RPC error object returned by the tool host.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// ApplicationError is returned when the tool ran but flagged its result with isError.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// excerpt returns at most excerptLimit characters of s.
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLimit {
		return s
	}
	return string([]rune(s)[:excerptLimit])
}
