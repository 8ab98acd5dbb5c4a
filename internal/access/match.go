package access

import (
	"regexp"
	"strings"
)

// Matches reports whether requiredRight satisfies grantedPattern. Patterns
// are plain right strings that may contain `*` wildcards; each wildcard
// expands to any run of characters, including none, and the pattern must
// cover the entire required string. Both inputs are trimmed first; an empty
// required right or empty pattern never matches.
func Matches(requiredRight, grantedPattern string) bool {
	required := strings.TrimSpace(requiredRight)
	pattern := strings.TrimSpace(grantedPattern)
	if required == "" || pattern == "" {
		return false
	}
	if required == pattern {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(required)
}

// compilePattern turns a wildcard pattern into a full-string-anchored
// regular expression. Literal segments are quoted so dots and other regexp
// metacharacters in right strings stay literal.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	segments := strings.Split(pattern, "*")
	quoted := make([]string, len(segments))
	for i, segment := range segments {
		quoted[i] = regexp.QuoteMeta(segment)
	}
	return regexp.Compile("^" + strings.Join(quoted, ".*") + "$")
}
