package common

import (
	"regexp"
	"strings"
)

// single letter schemes are drive letters
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]+:`)

// IsRemote reports whether target is not a local file reference: network
// address, protocol relative URL or any URI with a scheme (data:, mailto:).
func IsRemote(target string) bool {
	target = strings.TrimSpace(target)
	return strings.HasPrefix(target, "//") || schemePattern.MatchString(target)
}
