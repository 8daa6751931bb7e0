package completion

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/yamlls/internal/engine"
	"github.com/reoring/yamlls/jsonschema"
)

var (
	escapedQuotes = regexp.MustCompile(`[\\]+"`)
	allDigits     = regexp.MustCompile(`^\d+$`)
	placeholder   = regexp.MustCompile(`\$\{\d+:([^}]+)\}|\$\d+`)
	snippetEscape = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`)
)

// quoteString quotes s when YAML would read it as something other than the
// same string.
func quoteString(s string) string {
	if s == "true" || s == "false" || s == "null" || allDigits.MatchString(s) {
		return `"` + s + `"`
	}
	if strings.Contains(s, `"`) {
		s = escapedQuotes.ReplaceAllString(s, `"`)
	}
	if strings.HasPrefix(s, "@") || strings.Contains(s, ":") {
		s = `"` + s + `"`
	}
	return s
}

// escapeSnippet escapes the characters that are special in snippet text.
func escapeSnippet(s string) string { return snippetEscape.Replace(s) }

// literal renders a scalar the way it reads in YAML. Containers are rendered
// as JSON.
func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return engine.FormatNumber(t)
	case int:
		return strconv.Itoa(t)
	}
	return engine.Stringify(v)
}

func isContainer(v any) bool {
	switch v.(type) {
	case []any, map[string]any, *jsonschema.OrderedMap[any]:
		return true
	}
	return false
}

// entries returns the keys of an object value in order: insertion order for
// ordered maps, sorted order for Go maps.
func entries(v any) ([]string, func(string) any, bool) {
	switch t := v.(type) {
	case *jsonschema.OrderedMap[any]:
		return t.Keys(), func(k string) any { x, _ := t.Get(k); return x }, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) any { return t[k] }, true
	}
	return nil, nil, false
}

// firstType returns the first name of the type keyword, or the type implied by
// properties or items.
func firstType(s *jsonschema.Schema) string {
	if len(s.Type) > 0 {
		return s.Type[0]
	}
	return ""
}

func impliedType(s *jsonschema.Schema) string {
	if t := firstType(s); t != "" {
		return t
	}
	switch {
	case s.Properties != nil:
		return "object"
	case s.Items != nil || s.ItemsList != nil:
		return "array"
	}
	return ""
}

// valueText is the insert text of a value proposal.
func (r *request) valueText(v any, typ string) string {
	if isContainer(v) {
		n := 1
		return r.template(v, r.indent, &n)
	}
	s := literal(v)
	if typ == "string" {
		if _, ok := v.(string); ok || v == nil {
			s = quoteString(s)
		}
	}
	return escapeSnippet(s)
}

// template renders an object or array value as a block with one tab stop per
// key and leaf.
func (r *request) template(v any, indent string, n *int) string {
	if arr, ok := v.([]any); ok {
		var b strings.Builder
		b.WriteString("\n")
		for _, item := range arr {
			b.WriteString(indent + "- ${" + strconv.Itoa(*n) + ":" + literal(item) + "}\n")
			*n++
		}
		return b.String()
	}
	keys, get, ok := entries(v)
	if !ok {
		return escapeSnippet(literal(v))
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, k := range keys {
		b.WriteString(indent + "${" + strconv.Itoa(*n) + ":" + k + "}:")
		*n++
		if el := get(k); isContainer(el) {
			b.WriteString(r.template(el, indent+r.indent, n))
		} else {
			b.WriteString(" ${" + strconv.Itoa(*n) + ":" + escapeSnippet(literal(el)) + "}\n")
			*n++
		}
	}
	return b.String()
}

// guessedValue renders v as the first tab stop of a key proposal.
func (r *request) guessedValue(v any, typ string) string {
	switch t := v.(type) {
	case nil:
		return "${1:null}"
	case string:
		s := engine.Stringify(t)
		s = escapeSnippet(s[1 : len(s)-1])
		if typ == "string" {
			s = quoteString(s)
		}
		return "${1:" + s + "}"
	case float64, bool, int:
		return "${1:" + literal(t) + "}"
	}
	return r.valueText(v, typ)
}

// objectSkeleton lists the required keys of s, then the keys with a default,
// one per line at indent. insertIndex numbers the tab stops.
func (r *request) objectSkeleton(s *jsonschema.Schema, indent string, insertIndex int) (string, int) {
	if s.Properties == nil {
		return indent + "$" + strconv.Itoa(insertIndex) + "\n", insertIndex + 1
	}
	required := map[string]bool{}
	for _, k := range s.Required {
		required[k] = true
	}
	var b strings.Builder
	for key, ps := range s.Properties.All() {
		ps = ps.Effective()
		typ := impliedType(ps)
		switch {
		case required[key]:
			switch typ {
			case "boolean", "string", "number", "integer":
				b.WriteString(indent + key + ": $" + strconv.Itoa(insertIndex) + "\n")
				insertIndex++
			case "array":
				text, next := r.arraySkeleton(ps.Items, insertIndex)
				insertIndex++
				if lines := strings.Split(text, "\n"); len(lines) > 1 {
					for i := 1; i < len(lines); i++ {
						lines[i] = indent + r.indent + "  " + strings.TrimLeft(lines[i], " \t")
					}
					text = strings.Join(lines, "\n")
				}
				insertIndex = next
				b.WriteString(indent + key + ":\n" + indent + r.indent + "- " + text + "\n")
			case "object":
				text, next := r.objectSkeleton(ps, indent+r.indent, insertIndex)
				insertIndex = next
				b.WriteString(indent + key + ":\n" + text + "\n")
			}
		case ps.HasDefault:
			switch typ {
			case "boolean", "number", "integer":
				b.WriteString(indent + key + ": ${" + strconv.Itoa(insertIndex) + ":" + literal(ps.Default) + "}\n")
				insertIndex++
			case "string":
				b.WriteString(indent + key + ": ${" + strconv.Itoa(insertIndex) + ":" + quoteString(literal(ps.Default)) + "}\n")
				insertIndex++
			}
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		text = indent + "$" + strconv.Itoa(insertIndex) + "\n"
		insertIndex++
	}
	return strings.TrimRight(text, " \t\r\n"), insertIndex
}

// arraySkeleton renders the first item of an array whose items are s.
func (r *request) arraySkeleton(s *jsonschema.Schema, insertIndex int) (string, int) {
	if s == nil {
		return "$" + strconv.Itoa(insertIndex), insertIndex + 1
	}
	s = s.Effective()
	switch s.SingleType() {
	case "boolean":
		return "${" + strconv.Itoa(insertIndex) + ":false}", insertIndex + 1
	case "number", "integer":
		return "${" + strconv.Itoa(insertIndex) + ":0}", insertIndex + 1
	case "string":
		return "${" + strconv.Itoa(insertIndex) + `:""}`, insertIndex + 1
	case "object":
		text, next := r.objectSkeleton(s, r.indent+"  ", insertIndex)
		return strings.TrimLeft(text, " \t\r\n"), next
	}
	return "", insertIndex
}

// propertyText is the insert text of a key proposal. ident is the indentation
// of nested lines.
func (r *request) propertyText(key string, ps *jsonschema.Schema, ident string) string {
	keyText := r.valueText(key, "string")
	head := keyText + ":"
	if ps == nil {
		return head + " $1"
	}
	typ := impliedType(ps)
	value := ""
	proposals := 0
	if len(ps.DefaultSnippets) > 0 {
		if len(ps.DefaultSnippets) == 1 && ps.DefaultSnippets[0].HasBody {
			value = r.snippetText(ps.DefaultSnippets[0].Body, layout{newLineFirst: true}, 1)
			if !strings.HasPrefix(value, " ") && !strings.HasPrefix(value, "\n") {
				value = " " + value
			}
		}
		proposals += len(ps.DefaultSnippets)
	}
	if ps.Enum != nil {
		if value == "" && len(ps.Enum) == 1 {
			value = " " + r.guessedValue(ps.Enum[0], typ)
		}
		proposals += len(ps.Enum)
	}
	if ps.HasDefault {
		if value == "" {
			value = " " + r.guessedValue(ps.Default, typ)
		}
		proposals++
	}
	if len(ps.Examples) > 0 {
		if value == "" {
			value = " " + r.guessedValue(ps.Examples[0], typ)
		}
		proposals += len(ps.Examples)
	}
	switch {
	case ps.Properties != nil:
		text, _ := r.objectSkeleton(ps, ident, 1)
		return head + "\n" + text
	case ps.Items != nil || ps.ItemsList != nil:
		text, _ := r.arraySkeleton(ps.Items, 1)
		return head + "\n" + r.indent + "- " + text
	}
	if proposals == 0 {
		switch typ {
		case "boolean", "string":
			value = " $1"
		case "object":
			value = "\n" + ident
		case "array":
			value = "\n" + ident + "- "
		case "number", "integer":
			value = " ${1:0}"
		case "null":
			value = " ${1:null}"
		default:
			return keyText
		}
	}
	if value == "" || proposals > 1 {
		value = " $1"
	}
	return head + value
}

// layout controls how snippet bodies are laid out.
type layout struct {
	newLineFirst      bool
	indentFirstObject bool
	indentWithTab     bool
}

// snippetText renders a defaultSnippets body as YAML.
func (r *request) snippetText(body any, l layout, depth int) string {
	return stringifySnippet(body, "", l, depth, 0)
}

func snippetLiteral(v any) string {
	if s, ok := v.(string); ok {
		if strings.HasPrefix(s, "^") {
			return s[1:]
		}
		if s == "true" || s == "false" {
			return `"` + s + `"`
		}
	}
	return literal(v)
}

func stringifySnippet(v any, indent string, l layout, depth, arrays int) string {
	if !isContainer(v) {
		return snippetLiteral(v)
	}
	next := ""
	if depth == 0 && l.indentWithTab || depth > 0 {
		next = indent + "  "
	}
	if arr, ok := v.([]any); ok {
		arrays++
		var b strings.Builder
		for _, item := range arr {
			if !isContainer(item) {
				b.WriteString("\n" + next + "- " + snippetLiteral(item))
				continue
			}
			if _, isArr := item.([]any); !isArr {
				item = dashKeys(item, arrays)
			}
			depth++
			b.WriteString(stringifySnippet(item, indent, l, depth, arrays))
		}
		return b.String()
	}
	keys, get, _ := entries(v)
	if len(keys) == 0 {
		return ""
	}
	var b strings.Builder
	if depth == 0 && l.newLineFirst || depth > 0 {
		b.WriteString("\n")
	}
	for i, k := range keys {
		if depth == 0 && i == 0 && !l.indentFirstObject {
			b.WriteString(indent + k + ": " + stringifySnippet(get(k), next, l, depth, 0))
		} else {
			b.WriteString(next + k + ": " + stringifySnippet(get(k), next, l, depth+1, 0))
		}
		if i < len(keys)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// dashKeys marks the first key of an array element with one "- " per
// enclosing array and indents the others to match.
func dashKeys(v any, arrays int) any {
	keys, get, _ := entries(v)
	out := jsonschema.NewOrderedMap[any]()
	for i, k := range keys {
		if i == 0 {
			out.Set(strings.Repeat("- ", arrays)+k, get(k))
		} else {
			out.Set(strings.Repeat("  ", arrays)+k, get(k))
		}
	}
	return out
}

// snippetLabel derives a label from a snippet body: its JSON form with the
// placeholders replaced by their defaults.
func snippetLabel(body any) string {
	return placeholder.ReplaceAllString(engine.Stringify(body), "$1")
}
