package engine

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/reoring/yamlls/i18n"
)

type stringFormat struct {
	pattern *regexp.Regexp
	message string // i18n key
}

var formats = map[string]stringFormat{
	"color-hex": {
		pattern: regexp.MustCompile(`^#([0-9A-Fa-f]{3,4}|([0-9A-Fa-f]{2}){3,4})$`),
		message: i18n.ColorHexFormat,
	},
	"date-time": {
		pattern: regexp.MustCompile(`(?i)^(\d{4})-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])T([01][0-9]|2[0-3]):([0-5][0-9]):([0-5][0-9]|60)(\.[0-9]+)?(Z|(\+|-)([01][0-9]|2[0-3]):([0-5][0-9]))$`),
		message: i18n.DateTimeFormat,
	},
	"date": {
		pattern: regexp.MustCompile(`(?i)^(\d{4})-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`),
		message: i18n.DateFormat,
	},
	"time": {
		pattern: regexp.MustCompile(`(?i)^([01][0-9]|2[0-3]):([0-5][0-9]):([0-5][0-9]|60)(\.[0-9]+)?(Z|(\+|-)([01][0-9]|2[0-3]):([0-5][0-9]))$`),
		message: i18n.TimeFormat,
	},
	"email": {
		pattern: regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`),
		message: i18n.EmailFormat,
	},
}

// uriProblem returns the i18n message explaining why value is not a URI, or
// "" when it is acceptable. requireScheme distinguishes "uri" from
// "uri-reference".
func uriProblem(value string, requireScheme bool) string {
	if value == "" {
		return i18n.T(i18n.URIEmpty)
	}
	u, err := url.Parse(value)
	if err != nil {
		return err.Error()
	}
	if requireScheme && u.Scheme == "" {
		return i18n.T(i18n.URISchemeMissing)
	}
	return ""
}

var regexCache sync.Map // pattern -> *regexp.Regexp, nil when it does not compile

// CompilePattern compiles an ECMAScript pattern. ok is false for patterns the
// RE2 engine cannot express; such patterns are cached too.
func CompilePattern(pattern string) (re *regexp.Regexp, ok bool) {
	if v, hit := regexCache.Load(pattern); hit {
		re, _ = v.(*regexp.Regexp)
		return re, re != nil
	}
	re, err := regexp.Compile(translateECMA(pattern))
	if err != nil {
		re = nil
	}
	regexCache.Store(pattern, re)
	return re, re != nil
}

// translateECMA rewrites the ECMAScript escapes RE2 spells differently.
// Anything else RE2 rejects, such as lookarounds, is left for Compile to fail.
func translateECMA(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			n := p[i+1]
			switch {
			case n == 'u' && i+2 < len(p) && p[i+2] == '{':
				end := strings.IndexByte(p[i:], '}')
				if end < 0 {
					b.WriteString(p[i:])
					return b.String()
				}
				b.WriteString(`\x{` + p[i+3:i+end] + `}`)
				i += end
			case n == 'u' && i+5 < len(p) && isHex(p[i+2:i+6]):
				b.WriteString(`\x{` + p[i+2:i+6] + `}`)
				i += 5
			case n == '/':
				b.WriteByte('/')
				i++
			case n == '0' && (i+2 >= len(p) || p[i+2] < '0' || p[i+2] > '9'):
				b.WriteString(`\x00`)
				i++
			default:
				b.WriteByte(c)
				b.WriteByte(n)
				i++
			}
		case c == '[' && !inClass:
			if strings.HasPrefix(p[i:], "[^]") {
				b.WriteString(`[\s\S]`)
				i += 2
				continue
			}
			inClass = true
			b.WriteByte(c)
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
