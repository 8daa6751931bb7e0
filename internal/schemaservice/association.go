package schemaservice

import (
	"regexp"
	"strings"
)

// association binds a file glob to the schema URIs that apply to matching
// resources.
type association struct {
	re   *regexp.Regexp
	uris []string
}

func newAssociation(pattern string, uris []string) *association {
	re, err := regexp.Compile(globToRegexp(pattern) + "$")
	if err != nil {
		re = nil
	}
	return &association{re: re, uris: uris}
}

// matches reports whether resource ends with the pattern. An invalid pattern
// matches nothing.
func (a *association) matches(resource string) bool {
	return a.re != nil && a.re.MatchString(resource)
}

// globToRegexp escapes regexp syntax and turns '*' into ".*".
func globToRegexp(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch {
		case r == '*':
			b.WriteString(".*")
		case strings.ContainsRune(`-\{}+?|^$.,[]()#`, r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchGlob reports whether resource ends with the file glob pattern, with the
// same rules as configured associations.
func MatchGlob(pattern, resource string) bool {
	return newAssociation(pattern, nil).matches(resource)
}
