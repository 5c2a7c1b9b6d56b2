package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStderr returns what f writes to os.Stderr.
func captureStderr(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestNew_DebugPatterns(t *testing.T) {
	tests := []struct {
		debugEnv  string
		namespace string
		enabled   bool
	}{
		{"", "toolhost:client", false},
		{"*", "toolhost:client", true},
		{"toolhost:client", "toolhost:client", true},
		{"toolhost:client", "server:routes", false},
		{"toolhost:*", "toolhost:client", true},
		{"toolhost:*", "toolhost:sub:client", true},
		{"toolhost:*", "server:routes", false},
		{"toolhost:*,server:*", "server:routes", true},
		{"toolhost:*,-toolhost:response", "toolhost:response", false},
		{"toolhost:*,-toolhost:response", "toolhost:client", true},
		{"*,-jsonsafe:*", "jsonsafe:normalize", false},
		{"*,-jsonsafe:*", "config:config", true},
		{"*:client", "toolhost:client", true},
		{"*:client", "toolhost:response", false},
		{"cmd:*:flags", "cmd:root:flags", true},
		{"cmd:*:flags", "cmd:root:other", false},
		{"toolhost:* , server:*", "server:routes", true},
		{"-server:*,server:*", "server:routes", false},
	}

	for _, tt := range tests {
		t.Run(tt.debugEnv+"|"+tt.namespace, func(t *testing.T) {
			t.Setenv("DEBUG", tt.debugEnv)
			assert.Equal(t, tt.enabled, New(tt.namespace).Enabled())
		})
	}
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, matchPattern("a:b", "*"))
	assert.True(t, matchPattern("a:b", "a:b"))
	assert.True(t, matchPattern("a:b:c", "a:*:c"))
	assert.False(t, matchPattern("a:b", "a:c"))
	assert.False(t, matchPattern("a:b", "[")) // malformed pattern never matches
}

func TestLogger_Printf(t *testing.T) {
	t.Setenv("DEBUG", "*")
	log := New("test:printf")

	out := captureStderr(t, func() {
		log.Printf("hello %s", "world")
	})

	assert.Contains(t, out, "test:printf")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "+")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLogger_Disabled(t *testing.T) {
	t.Setenv("DEBUG", "")
	log := New("test:quiet")

	out := captureStderr(t, func() {
		log.Printf("hello %s", "world")
		log.Print("again")
	})

	assert.Empty(t, out)
}

func TestLogger_Print(t *testing.T) {
	t.Setenv("DEBUG", "*")
	log := New("test:print")

	out := captureStderr(t, func() {
		log.Print("hello", " ", "world")
	})

	assert.Contains(t, out, "test:print hello world +")
}

func TestLogger_TimeDiff(t *testing.T) {
	t.Setenv("DEBUG", "*")
	log := New("test:timediff")

	_ = captureStderr(t, func() { log.Printf("first") })
	time.Sleep(10 * time.Millisecond)
	out := captureStderr(t, func() { log.Printf("second") })

	assert.Regexp(t, `\+\d+ms`, out)
}

func TestFormatDiff(t *testing.T) {
	assert.Equal(t, "250µs", formatDiff(250*time.Microsecond))
	assert.Equal(t, "12ms", formatDiff(12*time.Millisecond))
	assert.Equal(t, "1.5s", formatDiff(1500*time.Millisecond))
	assert.Equal(t, "2.0m", formatDiff(2*time.Minute))
}

func TestSelectColor(t *testing.T) {
	origColors, origTTY := debugColors, isTTY
	defer func() { debugColors, isTTY = origColors, origTTY }()

	debugColors, isTTY = true, true
	color := selectColor("toolhost:client")
	assert.Equal(t, color, selectColor("toolhost:client"), "color is stable per namespace")
	assert.Contains(t, colorPalette, color)

	debugColors, isTTY = false, true
	assert.Empty(t, selectColor("toolhost:client"))

	debugColors, isTTY = true, false
	assert.Empty(t, selectColor("toolhost:client"))
}

func TestDebugLoggerMirrorsToFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, InitFileLogger(logDir, "debug.log"))
	defer CloseGlobalLogger()

	t.Setenv("DEBUG", "*")
	log := New("test:debug")
	quiet := New("test:debug")
	quiet.enabled = false

	_ = captureStderr(t, func() {
		log.Printf("Test message %d", 42)
		quiet.Printf("never written")
	})
	require.NoError(t, CloseGlobalLogger())

	content, err := os.ReadFile(filepath.Join(logDir, "debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG] [test:debug] Test message 42")
	assert.NotContains(t, string(content), "never written")
	assert.NotContains(t, string(content), "\033[")
}
