package logger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/venturelab/adsgw/internal/logger/sanitize"
)

// JSONLLogger appends one JSON object per RPC message to a file.
type JSONLLogger struct {
	logFile  *os.File
	mu       sync.Mutex
	logDir   string
	fileName string
	encoder  *json.Encoder
}

var (
	globalJSONLLogger *JSONLLogger
	globalJSONLMu     sync.RWMutex
)

// JSONLRPCMessage is a single line of the RPC message log.
type JSONLRPCMessage struct {
	Timestamp string         `json:"timestamp"`
	Direction string         `json:"direction"` // IN or OUT
	Type      string         `json:"type"`      // REQUEST or RESPONSE
	ServerID  string         `json:"server_id"`
	Method    string         `json:"method,omitempty"`
	Error     string         `json:"error,omitempty"`
	Payload   map[string]any `json:"payload"`
}

// secretFieldNames are key fragments whose string values are always redacted.
var secretFieldNames = []string{
	"password", "passwd", "pwd",
	"token", "bearer",
	"apikey", "api_key", "api-key",
	"secret",
	"authorization", "auth",
	"key",
	"credential",
}

// InitJSONLLogger installs the global JSONL logger. Unlike the file logger
// there is no fallback; the caller decides whether a failure matters.
func InitJSONLLogger(logDir, fileName string) error {
	file, err := initLogFile(logDir, fileName, os.O_APPEND)
	if err != nil {
		return err
	}

	initGlobalJSONLLogger(&JSONLLogger{
		logFile:  file,
		logDir:   logDir,
		fileName: fileName,
		encoder:  json.NewEncoder(file),
	})
	return nil
}

// Close flushes and closes the JSONL file.
func (jl *JSONLLogger) Close() error {
	jl.mu.Lock()
	defer jl.mu.Unlock()

	err := closeLogFile(jl.logFile, &jl.mu, "JSONL")
	jl.logFile = nil
	return err
}

// LogMessage writes entry as one line and syncs the file.
func (jl *JSONLLogger) LogMessage(entry *JSONLRPCMessage) error {
	jl.mu.Lock()
	defer jl.mu.Unlock()

	if jl.logFile == nil {
		return errors.New("JSONL logger not initialized")
	}
	if err := jl.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := jl.logFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return nil
}

// CloseJSONLLogger closes the global JSONL logger. Closing twice is fine.
func CloseJSONLLogger() error {
	return closeGlobalJSONLLogger()
}

// LogRPCMessageJSONL records a message in the global JSONL log, if any.
// Failures are ignored.
func LogRPCMessageJSONL(direction RPCMessageDirection, messageType RPCMessageType, serverID, method string, payload []byte, err error) {
	globalJSONLMu.RLock()
	defer globalJSONLMu.RUnlock()

	if globalJSONLLogger == nil {
		return
	}

	entry := &JSONLRPCMessage{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Direction: string(direction),
		Type:      string(messageType),
		ServerID:  serverID,
		Method:    method,
		Payload:   sanitizePayload(payload),
	}
	if err != nil {
		entry.Error = sanitize.SanitizeString(err.Error())
	}
	_ = globalJSONLLogger.LogMessage(entry)
}

// sanitizePayload decodes a JSON object payload and redacts its secrets.
// Event-stream bodies are reduced to their last data line first. Anything
// that still is not a JSON object is kept, redacted, under "_raw".
func sanitizePayload(payload []byte) map[string]any {
	var data map[string]any
	if err := json.Unmarshal(lastDataLine(payload), &data); err != nil || data == nil {
		return map[string]any{
			"_error": "failed to parse JSON",
			"_raw":   sanitize.SanitizeString(string(payload)),
		}
	}
	sanitizeMap(data)
	return data
}

// lastDataLine returns the JSON carried by the last "data:" line of an
// event-stream body, or payload unchanged when it has none.
func lastDataLine(payload []byte) []byte {
	text := string(payload)
	if !strings.Contains(text, "data:") {
		return payload
	}
	var last string
	for _, line := range strings.Split(text, "\n") {
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:"); ok {
			last = strings.TrimSpace(data)
		}
	}
	if last == "" {
		return payload
	}
	return []byte(last)
}

func isSecretField(key string) bool {
	key = strings.ToLower(key)
	for _, name := range secretFieldNames {
		if strings.Contains(key, name) {
			return true
		}
	}
	return false
}

func sanitizeMap(m map[string]any) {
	for key, value := range m {
		if s, ok := value.(string); ok && s != "" && isSecretField(key) {
			m[key] = "[REDACTED]"
			continue
		}
		m[key] = sanitizeValue(value)
	}
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case string:
		return sanitize.SanitizeString(v)
	case map[string]any:
		sanitizeMap(v)
	case []any:
		for i := range v {
			v[i] = sanitizeValue(v[i])
		}
	}
	return value
}
