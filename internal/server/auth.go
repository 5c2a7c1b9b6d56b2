package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/venturelab/adsgw/internal/auth"
	"github.com/venturelab/adsgw/internal/logger"
)

// authMiddleware rejects requests that do not present apiKey in x-api-key or
// Authorization. An empty apiKey disables the check.
func authMiddleware(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	if apiKey == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Check(r.Header, apiKey); err != nil {
			detail := "invalid_api_key"
			if errors.Is(err, auth.ErrMissingAuthHeader) {
				detail = "missing_api_key"
			}
			logger.LogError("auth", "Authentication failed: %v, remote=%s, path=%s", err, r.RemoteAddr, r.URL.Path)
			logRuntimeError("authentication_failed", detail, r)
			writeError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
			return
		}

		logger.LogDebug("auth", "Authentication successful, remote=%s, path=%s", r.RemoteAddr, r.URL.Path)
		next(w, r)
	}
}

// logRuntimeError writes an operator-facing error line to the standard log.
func logRuntimeError(errorType, detail string, r *http.Request) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	requestID := requestIDFrom(r.Context())
	if requestID == "" {
		requestID = "unknown"
	}

	log.Printf("[ERROR] timestamp=%s request_id=%s error_type=%s detail=%q path=%s method=%s",
		timestamp, requestID, errorType, detail, r.URL.Path, r.Method)
}
