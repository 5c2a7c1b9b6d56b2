package logger_test

import (
	"fmt"

	"github.com/venturelab/adsgw/internal/logger"
)

func ExampleNew() {
	// Run with DEBUG=toolhost:* to enable.
	log := logger.New("toolhost:example")

	if log.Enabled() {
		fmt.Println("Logger is enabled")
	} else {
		fmt.Println("Logger is disabled (set DEBUG=toolhost:* to enable)")
	}

	// Output: Logger is disabled (set DEBUG=toolhost:* to enable)
}

func ExampleLogger_Printf() {
	log := logger.New("toolhost:example")

	log.Printf("Invoking tool: name=%s, id=%d", "search", 42)
	// With DEBUG=* this writes to stderr:
	// toolhost:example Invoking tool: name=search, id=42 +3ms
}
