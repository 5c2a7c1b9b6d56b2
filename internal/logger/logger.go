// Package logger provides namespaced debug logging plus the file, JSONL and
// RPC loggers used by the gateway.
//
// Debug loggers are created per namespace and stay silent unless the DEBUG
// environment variable selects them:
//
//	DEBUG=*                      everything
//	DEBUG=toolhost:*             one subsystem
//	DEBUG=*,-jsonsafe:normalize  everything but one namespace
//
// Enabled loggers write to stderr (colorized when stderr is a terminal and
// DEBUG_COLORS is not "0") and mirror each line into the file logger.
package logger

import (
	"fmt"
	"hash/fnv"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Logger is a namespaced debug logger.
type Logger struct {
	namespace string
	enabled   bool
	color     string

	mu   sync.Mutex
	last time.Time
}

var (
	debugColors = os.Getenv("DEBUG_COLORS") != "0"
	isTTY       = term.IsTerminal(int(os.Stderr.Fd()))
)

const colorReset = "\033[0m"

var colorPalette = []string{
	"\033[38;5;33m",
	"\033[38;5;39m",
	"\033[38;5;40m",
	"\033[38;5;41m",
	"\033[38;5;135m",
	"\033[38;5;166m",
	"\033[38;5;172m",
	"\033[38;5;178m",
	"\033[38;5;203m",
	"\033[38;5;207m",
}

// New returns a logger for namespace, enabled according to the current DEBUG
// environment variable.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   computeEnabled(namespace),
		color:     selectColor(namespace),
		last:      time.Now(),
	}
}

// Enabled reports whether the logger writes anything.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Printf formats like fmt.Printf. It also satisfies the Printf-style logger
// interfaces of third-party HTTP clients.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.output(fmt.Sprintf(format, args...))
}

// Print formats like fmt.Print.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.output(fmt.Sprint(args...))
}

func (l *Logger) output(message string) {
	l.mu.Lock()
	now := time.Now()
	diff := now.Sub(l.last)
	l.last = now
	l.mu.Unlock()

	message = strings.TrimRight(message, "\n")
	if l.color != "" {
		fmt.Fprintf(os.Stderr, "%s%s%s %s %s+%s%s\n", l.color, l.namespace, colorReset, message, l.color, formatDiff(diff), colorReset)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, message, formatDiff(diff))
	}

	LogDebug(l.namespace, "%s", message)
}

func formatDiff(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.1fm", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}

// selectColor picks a stable palette color for namespace, or none when colors
// are off.
func selectColor(namespace string) string {
	if !debugColors || !isTTY {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(namespace))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}

// computeEnabled evaluates the DEBUG pattern list for namespace. Patterns are
// comma separated; a leading "-" excludes and exclusions always win.
func computeEnabled(namespace string) bool {
	debugEnv := strings.TrimSpace(os.Getenv("DEBUG"))
	if debugEnv == "" {
		return false
	}

	enabled := false
	for _, pattern := range strings.Split(debugEnv, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if excluded, ok := strings.CutPrefix(pattern, "-"); ok {
			if matchPattern(namespace, excluded) {
				return false
			}
			continue
		}
		if matchPattern(namespace, pattern) {
			enabled = true
		}
	}
	return enabled
}

// matchPattern reports whether namespace matches a DEBUG pattern, where "*"
// matches any run of characters including ":".
func matchPattern(namespace, pattern string) bool {
	if pattern == "*" || pattern == namespace {
		return true
	}
	matched, err := path.Match(pattern, namespace)
	return err == nil && matched
}
