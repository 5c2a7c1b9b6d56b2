package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/venturelab/adsgw/internal/cmd"
)

func main() {
	cmd.SetVersion(buildVersionString())
	cmd.Execute()
}

const shortHashLength = 7

// buildVersionString joins the release version with the commit and build
// time. Values missing from ldflags are taken from the embedded VCS info.
func buildVersionString() string {
	parts := []string{"dev"}
	if Version != "" {
		parts[0] = Version
	}

	commit := GitCommit
	if commit == "" {
		commit = vcsSetting("vcs.revision")
		if len(commit) > shortHashLength {
			commit = commit[:shortHashLength]
		}
	}
	if commit != "" {
		parts = append(parts, fmt.Sprintf("commit: %s", commit))
	}

	built := BuildDate
	if built == "" {
		built = vcsSetting("vcs.time")
	}
	if built != "" {
		parts = append(parts, fmt.Sprintf("built: %s", built))
	}

	return strings.Join(parts, ", ")
}

func vcsSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
