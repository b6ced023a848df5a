package intercept

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// URLMatcher decides which responses belong to the hidden API call being
// intercepted.
type URLMatcher func(url string) bool

// MatchSubstring matches any response URL containing sub.
func MatchSubstring(sub string) URLMatcher {
	return func(url string) bool {
		return strings.Contains(url, sub)
	}
}

// MatchGlob matches response URLs against a glob pattern, for example
// "*://api.example.com/v1/search*".
func MatchGlob(pattern string) (URLMatcher, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile url pattern %q: %w", pattern, err)
	}
	return g.Match, nil
}
