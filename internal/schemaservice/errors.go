package schemaservice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/yamlls/i18n"
)

// ResolveErrors lists the non-fatal problems found while loading a schema and
// resolving its references.
type ResolveErrors []string

// Error summarizes the first few problems.
func (e ResolveErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	const maxShown = 3
	lim := min(len(e), maxShown)
	b := &strings.Builder{}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e[i])
	}
	if len(e) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(e))
	}
	return b.String()
}

// AsResolveErrors extracts ResolveErrors from an error using errors.As.
func AsResolveErrors(err error) (ResolveErrors, bool) {
	if err == nil {
		return nil, false
	}
	var re ResolveErrors
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// PathError reports a schema content path that cannot be walked.
type PathError struct {
	Path    string // the full path given by the caller
	Segment string // the segment that failed
	Key     string // i18n message key
}

func (e *PathError) Error() string {
	return i18n.T(e.Key, e.Segment)
}
