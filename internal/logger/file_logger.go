package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel is the severity written in brackets on every file log line.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelDebug LogLevel = "DEBUG"
)

// FileLogger writes "[ts] [LEVEL] [category] message" lines to a file, or to
// stdout when the file cannot be opened.
type FileLogger struct {
	logFile     *os.File
	logger      *log.Logger
	mu          sync.Mutex
	logDir      string
	fileName    string
	useFallback bool
}

var (
	globalFileLogger *FileLogger
	globalLoggerMu   sync.RWMutex
)

// InitFileLogger installs the global file logger. A directory or file that
// cannot be created is not an error: logging falls back to stdout.
func InitFileLogger(logDir, fileName string) error {
	fl := &FileLogger{logDir: logDir, fileName: fileName}

	file, err := initLogFile(logDir, fileName, os.O_APPEND)
	if err != nil {
		log.Printf("WARNING: Failed to initialize log file: %v", err)
		log.Printf("WARNING: Falling back to stdout for logging")
		fl.useFallback = true
		fl.logger = log.New(os.Stdout, "", 0)
		initGlobalFileLogger(fl)
		return nil
	}

	fl.logFile = file
	fl.logger = log.New(file, "", 0)
	log.Printf("Logging to file: %s", filepath.Join(logDir, fileName))

	initGlobalFileLogger(fl)
	return nil
}

// Close flushes and closes the log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	return closeLogFile(fl.logFile, &fl.mu, "file")
}

// Log writes one line and syncs it so other processes can tail the file.
func (fl *FileLogger) Log(level LogLevel, category, format string, args ...any) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	timestamp := time.Now().UTC().Format(time.RFC3339)
	fl.logger.Printf("[%s] [%s] [%s] %s", timestamp, level, category, fmt.Sprintf(format, args...))

	if fl.logFile != nil {
		if err := fl.logFile.Sync(); err != nil {
			log.Printf("WARNING: Failed to sync log file: %v", err)
		}
	}
}

// GetWriter returns the file being written, or stdout in fallback mode.
func (fl *FileLogger) GetWriter() io.Writer {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.logFile != nil {
		return fl.logFile
	}
	return os.Stdout
}

func logGlobal(level LogLevel, category, format string, args ...any) {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()

	if globalFileLogger != nil {
		globalFileLogger.Log(level, category, format, args...)
	}
}

// LogInfo logs to the global file logger at INFO.
func LogInfo(category, format string, args ...any) {
	logGlobal(LogLevelInfo, category, format, args...)
}

// LogWarn logs to the global file logger at WARN.
func LogWarn(category, format string, args ...any) {
	logGlobal(LogLevelWarn, category, format, args...)
}

// LogError logs to the global file logger at ERROR.
func LogError(category, format string, args ...any) {
	logGlobal(LogLevelError, category, format, args...)
}

// LogDebug logs to the global file logger at DEBUG.
func LogDebug(category, format string, args ...any) {
	logGlobal(LogLevelDebug, category, format, args...)
}

// CloseGlobalLogger closes the global file logger.
func CloseGlobalLogger() error {
	return closeGlobalFileLogger()
}
