package server

import (
	"bytes"
	"net/http"
)

// previewLimit caps how much of a response body is kept for logging.
const previewLimit = 512

// responseWriter records the status code, the number of bytes written and
// the start of the body.
type responseWriter struct {
	http.ResponseWriter
	preview     bytes.Buffer
	statusCode  int
	written     int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	if room := previewLimit - w.preview.Len(); room > 0 {
		w.preview.Write(b[:min(room, len(b))])
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Preview returns up to previewLimit bytes of the body.
func (w *responseWriter) Preview() []byte {
	return w.preview.Bytes()
}

// StatusCode returns the captured HTTP status code
func (w *responseWriter) StatusCode() int {
	return w.statusCode
}

// Written returns the number of body bytes sent.
func (w *responseWriter) Written() int {
	return w.written
}
