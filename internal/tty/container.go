// Package tty reports facts about the environment the gateway runs in.
package tty

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/venturelab/adsgw/internal/logger"
)

var logContainer = logger.New("tty:container")

var cgroupMarkers = []string{"docker", "containerd", "kubepods", "lxc", "libpod"}

// IsRunningInContainer detects if the current process is running inside a container
func IsRunningInContainer() bool {
	return detectContainer("/", os.Getenv)
}

// detectContainer checks, under root, the markers container runtimes leave
// behind. RUNNING_IN_CONTAINER=true forces a positive answer.
func detectContainer(root string, getenv func(string) string) bool {
	if getenv("RUNNING_IN_CONTAINER") == "true" {
		logContainer.Print("Container detected via RUNNING_IN_CONTAINER env var")
		return true
	}

	for _, marker := range []string{".dockerenv", "run/.containerenv"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			logContainer.Printf("Container detected via %s", marker)
			return true
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "proc/1/cgroup"))
	if err == nil {
		content := string(data)
		for _, marker := range cgroupMarkers {
			if strings.Contains(content, marker) {
				logContainer.Printf("Container detected via /proc/1/cgroup marker %q", marker)
				return true
			}
		}
	}

	logContainer.Print("No container environment detected")
	return false
}
