package engine

import (
	"slices"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/i18n"
)

// ErrorCode is the numeric diagnostic code published with a problem.
type ErrorCode int

const (
	Undefined                ErrorCode = 0
	EnumValueMismatch        ErrorCode = 1
	Deprecated               ErrorCode = 2
	DuplicateKey             ErrorCode = 0x208
	SchemaResolveError       ErrorCode = 0x300
	SchemaUnsupportedFeature ErrorCode = 0x301
)

// ProblemType tags problems that tied alternatives may coalesce into a single
// diagnostic.
type ProblemType string

const (
	MissingRequiredProp ProblemType = "missingRequiredPropWarning"
	TypeMismatch        ProblemType = "typeMismatchWarning"
	ConstMismatch       ProblemType = "constWarning"
)

func (p ProblemType) message(args []string) string {
	var key string
	switch p {
	case MissingRequiredProp:
		key = i18n.MissingRequiredProp
	case TypeMismatch:
		key = i18n.TypeMismatch
	case ConstMismatch:
		key = i18n.Const
	default:
		return ""
	}
	return i18n.T(key, strings.Join(args, " | "))
}

// SchemaSourcePrefix starts the source of every problem attributed to a
// schema. DefaultSource is used when the schema has neither title nor URL.
const (
	SchemaSourcePrefix = "yaml-schema: "
	DefaultSource      = "YAML"
)

// Location is a byte range in the document text.
type Location struct {
	Offset int
	Length int
}

// Problem is one validation finding.
type Problem struct {
	Location    Location
	Severity    protocol.DiagnosticSeverity
	Message     string
	Code        ErrorCode
	Source      string
	SchemaURIs  []string
	ProblemType ProblemType
	ProblemArgs []string
}

// Result accumulates problems and the match counters used to rank
// alternatives. Problems are pointers because tie merging rewrites them in
// place.
type Result struct {
	Problems               []*Problem
	PropertiesMatches      int
	PropertiesValueMatches int
	PrimaryValueMatches    int
	EnumValueMatch         bool
	// EnumValues is nil until an enum or const has been checked. Kubernetes
	// results start with an empty, non-nil list.
	EnumValues []any
}

// NewResult returns an empty result.
func NewResult(isKubernetes bool) *Result {
	r := &Result{}
	if isKubernetes {
		r.EnumValues = []any{}
	}
	return r
}

// HasProblems reports whether any problem was recorded.
func (r *Result) HasProblems() bool { return len(r.Problems) > 0 }

func (r *Result) add(p *Problem) { r.Problems = append(r.Problems, p) }

// Merge appends the problems of other.
func (r *Result) Merge(other *Result) {
	r.Problems = append(r.Problems, other.Problems...)
}

// MergePropertyMatch merges the result of validating one property or item.
func (r *Result) MergePropertyMatch(sub *Result) {
	r.Merge(sub)
	r.PropertiesMatches++
	if sub.EnumValueMatch || !sub.HasProblems() && sub.PropertiesMatches > 0 {
		r.PropertiesValueMatches++
	}
	if sub.EnumValueMatch && sub.EnumValues != nil {
		r.PrimaryValueMatches++
	}
}

// MergeEnumValues unions the valid values of two failed enum checks and
// rewrites the enum mismatch messages to list all of them.
func (r *Result) MergeEnumValues(other *Result) {
	if r.EnumValueMatch || other.EnumValueMatch || r.EnumValues == nil || other.EnumValues == nil {
		return
	}
	r.EnumValues = append(slices.Clip(r.EnumValues), other.EnumValues...)
	var unique []any
	for _, v := range r.EnumValues {
		if !slices.ContainsFunc(unique, func(u any) bool { return Equal(u, v) }) {
			unique = append(unique, v)
		}
	}
	msg := i18n.T(i18n.Enum, joinJSON(unique))
	for _, p := range r.Problems {
		if p.Code == EnumValueMismatch {
			p.Message = msg
		}
	}
}

// MergeWarningGeneric coalesces problems of the given types that other
// reports at the same offset: the arguments are unioned into one message and
// the sources are joined.
func (r *Result) MergeWarningGeneric(other *Result, types ...ProblemType) {
	if len(r.Problems) == 0 {
		return
	}
	for _, pt := range types {
		for _, best := range r.Problems {
			if best.ProblemType != pt {
				continue
			}
			idx := slices.IndexFunc(other.Problems, func(p *Problem) bool {
				return p.ProblemType == pt && p.Location.Offset == best.Location.Offset &&
					(pt != MissingRequiredProp || slices.Equal(p.ProblemArgs, best.ProblemArgs))
			})
			if idx < 0 {
				continue
			}
			merging := other.Problems[idx]
			if len(merging.ProblemArgs) > 0 {
				for _, a := range merging.ProblemArgs {
					if !slices.Contains(best.ProblemArgs, a) {
						best.ProblemArgs = append(best.ProblemArgs, a)
					}
				}
				best.Message = best.ProblemType.message(best.ProblemArgs)
			}
			mergeSources(merging, best)
		}
	}
}

func mergeSources(from, into *Problem) {
	src := strings.Replace(from.Source, SchemaSourcePrefix, "", 1)
	if !strings.Contains(into.Source, src) {
		into.Source += " | " + src
	}
	if len(from.SchemaURIs) > 0 && !slices.Contains(into.SchemaURIs, from.SchemaURIs[0]) {
		into.SchemaURIs = append(slices.Clip(into.SchemaURIs), from.SchemaURIs...)
	}
}

// CompareGeneric ranks r against other: positive when r is the better match.
// Clean results win, then enum matches, then property value matches, primary
// value matches and property matches.
func (r *Result) CompareGeneric(other *Result) int {
	if hp := r.HasProblems(); hp != other.HasProblems() {
		if hp {
			return -1
		}
		return 1
	}
	if r.EnumValueMatch != other.EnumValueMatch {
		if other.EnumValueMatch {
			return -1
		}
		return 1
	}
	if r.PropertiesValueMatches != other.PropertiesValueMatches {
		return r.PropertiesValueMatches - other.PropertiesValueMatches
	}
	if r.PrimaryValueMatches != other.PrimaryValueMatches {
		return r.PrimaryValueMatches - other.PrimaryValueMatches
	}
	return r.PropertiesMatches - other.PropertiesMatches
}

// CompareKubernetes ranks r against other with property matches first, which
// separates the large discriminated unions of Kubernetes schemas.
func (r *Result) CompareKubernetes(other *Result) int {
	if r.PropertiesMatches != other.PropertiesMatches {
		return r.PropertiesMatches - other.PropertiesMatches
	}
	if r.EnumValueMatch != other.EnumValueMatch {
		if other.EnumValueMatch {
			return -1
		}
		return 1
	}
	if r.PrimaryValueMatches != other.PrimaryValueMatches {
		return r.PrimaryValueMatches - other.PrimaryValueMatches
	}
	if r.PropertiesValueMatches != other.PropertiesValueMatches {
		return r.PropertiesValueMatches - other.PropertiesValueMatches
	}
	if hp := r.HasProblems(); hp != other.HasProblems() {
		if hp {
			return -1
		}
		return 1
	}
	return 0
}
