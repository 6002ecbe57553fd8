// Package misc keeps build time information about the program.
package misc

import "runtime/debug"

// set with -ldflags "-X richcopy/misc.version=... -X richcopy/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
)

const appName = "richcopy"

// GetAppName returns program name used for logs, reports and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns either hash injected at build time or vcs revision
// recorded by the go tool.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

