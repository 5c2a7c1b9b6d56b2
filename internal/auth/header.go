// Package auth extracts and checks the API key callers present to the
// gateway.
//
// A key may arrive in an x-api-key header or in the Authorization header,
// either bare or with a Bearer scheme:
//
//	key, err := auth.KeyFromRequest(r.Header)
//	if err != nil {
//		// 401
//	}
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// HeaderAPIKey is the dedicated API key header.
const HeaderAPIKey = "X-Api-Key"

var (
	// ErrMissingAuthHeader is returned when no key header is present
	ErrMissingAuthHeader = errors.New("missing API key")
	// ErrInvalidAuthHeader is returned when the Authorization header format is invalid
	ErrInvalidAuthHeader = errors.New("invalid Authorization header format")
	// ErrInvalidAPIKey is returned when the presented key does not match
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// ParseAuthHeader extracts the API key from an Authorization header value.
// Both "<key>" and "Bearer <key>" are accepted; the scheme is matched
// case-insensitively. A Bearer scheme with no token is invalid.
func ParseAuthHeader(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(token)
		if !found || token == "" {
			return "", ErrInvalidAuthHeader
		}
		return token, nil
	}
	return authHeader, nil
}

// KeyFromRequest returns the presented key. x-api-key wins over
// Authorization when both are set.
func KeyFromRequest(h http.Header) (string, error) {
	if key := strings.TrimSpace(h.Get(HeaderAPIKey)); key != "" {
		return key, nil
	}
	return ParseAuthHeader(h.Get("Authorization"))
}

// ValidateAPIKey checks if the provided API key matches the expected key.
// An empty expected key disables authentication.
func ValidateAPIKey(provided, expected string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// Check combines KeyFromRequest and ValidateAPIKey.
func Check(h http.Header, expected string) error {
	if expected == "" {
		return nil
	}
	key, err := KeyFromRequest(h)
	if err != nil {
		return err
	}
	if !ValidateAPIKey(key, expected) {
		return ErrInvalidAPIKey
	}
	return nil
}
