package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// closeLogFile syncs and closes file. A failed sync is only reported; the
// file is closed regardless and the close error is returned. The caller holds mu.
func closeLogFile(file *os.File, mu *sync.Mutex, loggerName string) error {
	if file == nil {
		return nil
	}
	if err := file.Sync(); err != nil {
		log.Printf("WARNING: Failed to sync %s log file before close: %v", loggerName, err)
	}
	return file.Close()
}

// initLogFile creates logDir if needed and opens fileName in it for writing
// with the extra flags (os.O_APPEND or os.O_TRUNC). It never falls back;
// callers decide what to do on error.
func initLogFile(logDir, fileName string, flags int) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fileName)
	file, err := os.OpenFile(logPath, flags|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}
