package engine

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

func (v *validator) number(n *ast.Number, s *jsonschema.Schema, sc scope, res *Result) {
	val := n.Value
	if s.MultipleOf != nil && math.Mod(val, *s.MultipleOf) != 0 {
		res.add(sc.problem(locate(n), i18n.T(i18n.MultipleOf, FormatNumber(*s.MultipleOf))))
	}
	if lim := exclusiveLimit(s.Minimum, s.ExclusiveMinimum); lim != nil && val <= *lim {
		res.add(sc.problem(locate(n), i18n.T(i18n.ExclusiveMinimum, FormatNumber(*lim))))
	}
	if lim := exclusiveLimit(s.Maximum, s.ExclusiveMaximum); lim != nil && val >= *lim {
		res.add(sc.problem(locate(n), i18n.T(i18n.ExclusiveMaximum, FormatNumber(*lim))))
	}
	if lim := inclusiveLimit(s.Minimum, s.ExclusiveMinimum); lim != nil && val < *lim {
		res.add(sc.problem(locate(n), i18n.T(i18n.Minimum, FormatNumber(*lim))))
	}
	if lim := inclusiveLimit(s.Maximum, s.ExclusiveMaximum); lim != nil && val > *lim {
		res.add(sc.problem(locate(n), i18n.T(i18n.Maximum, FormatNumber(*lim))))
	}
}

// exclusiveLimit returns the exclusive bound: a numeric exclusive keyword is
// the bound itself, a boolean true turns limit into an exclusive bound.
func exclusiveLimit(limit *float64, ex *jsonschema.Bound) *float64 {
	switch {
	case ex == nil:
		return nil
	case ex.Number != nil:
		return ex.Number
	case ex.Flag:
		return limit
	}
	return nil
}

// inclusiveLimit returns limit unless a boolean true exclusive keyword made it
// exclusive.
func inclusiveLimit(limit *float64, ex *jsonschema.Bound) *float64 {
	if ex != nil && ex.Number == nil && ex.Flag {
		return nil
	}
	return limit
}

func (v *validator) str(n *ast.String, s *jsonschema.Schema, sc scope, res *Result) {
	length := utf8.RuneCountInString(n.Value)
	if s.MinLength != nil && length < *s.MinLength {
		res.add(sc.problem(locate(n), i18n.T(i18n.MinLength, strconv.Itoa(*s.MinLength))))
	}
	if s.MaxLength != nil && length > *s.MaxLength {
		res.add(sc.problem(locate(n), i18n.T(i18n.MaxLength, strconv.Itoa(*s.MaxLength))))
	}
	if s.Pattern != nil {
		if re, ok := CompilePattern(*s.Pattern); ok && !re.MatchString(n.Value) {
			msg := firstNonEmpty(s.PatternErrorMessage, s.ErrorMessage)
			if msg == "" {
				msg = i18n.T(i18n.Pattern, *s.Pattern)
			}
			res.add(sc.problem(locate(n), msg))
		}
	}
	switch s.Format {
	case "uri", "uri-reference":
		if reason := uriProblem(n.Value, s.Format == "uri"); reason != "" {
			msg := firstNonEmpty(s.PatternErrorMessage, s.ErrorMessage)
			if msg == "" {
				msg = i18n.T(i18n.URIFormat, reason)
			}
			res.add(sc.problem(locate(n), msg))
		}
	case "color-hex", "date-time", "date", "time", "email":
		f := formats[s.Format]
		if n.Value == "" || !f.pattern.MatchString(n.Value) {
			msg := firstNonEmpty(s.PatternErrorMessage, s.ErrorMessage)
			if msg == "" {
				msg = i18n.T(f.message)
			}
			res.add(sc.problem(locate(n), msg))
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
