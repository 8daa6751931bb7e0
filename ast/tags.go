package ast

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// CustomTags is the set of accepted local tags. Entries use the settings form
// "!Ref" or "!Ref scalar|sequence|mapping"; the kind defaults to scalar.
type CustomTags map[string]yaml.Kind

// ParseCustomTags parses tag settings. Malformed entries are skipped.
func ParseCustomTags(entries []string) CustomTags {
	tags := CustomTags{}
	for _, e := range entries {
		fields := strings.Fields(e)
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "!") {
			continue
		}
		kind := yaml.ScalarNode
		if len(fields) > 1 {
			switch strings.ToLower(fields[1]) {
			case "sequence":
				kind = yaml.SequenceNode
			case "mapping":
				kind = yaml.MappingNode
			case "scalar":
			default:
				continue
			}
		}
		tags[fields[0]] = kind
	}
	return tags
}

// Accepts reports whether tag is allowed on a node of kind.
func (t CustomTags) Accepts(tag string, kind yaml.Kind) bool {
	k, ok := t[tag]
	return ok && k == kind
}

// isLocalTag reports whether a tag needs to be declared: a primary "!" tag
// other than the non-specific "!".
func isLocalTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!") && tag != "!"
}
