package completion

import (
	"regexp"
	"strconv"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/jsonschema"
)

func kindFor(typ string) protocol.CompletionItemKind {
	switch typ {
	case "object":
		return protocol.CompletionItemKindModule
	case "property":
		return protocol.CompletionItemKindProperty
	}
	return protocol.CompletionItemKindValue
}

// documentation prefers markdown over plain text; nil when both are empty.
func documentation(markdown, plain string) any {
	if markdown != "" {
		return protocol.MarkupContent{Kind: protocol.Markdown, Value: markdown}
	}
	if plain != "" {
		return plain
	}
	return nil
}

// propertyCompletions proposes the keys the matching schemas of obj declare.
func (r *request) propertyCompletions(obj *ast.Object) {
	existing := r.rangeText(r.overwrite)
	noColon := !strings.Contains(r.lineText(int(r.overwrite.Start.Line)), ":")
	_, underArray := obj.Parent().(*ast.Array)

	for _, m := range r.matchingSchemas() {
		s := m.Schema
		if m.Node == obj && !m.Inverted {
			r.snippets(s, layout{}, 0)
			if s.Properties != nil && (s.MaxProperties == nil || len(obj.Properties) <= *s.MaxProperties) {
				for key, ps := range s.Properties.All() {
					if ps.Bool != nil || ps.DeprecationMessage != "" || ps.DoNotSuggest {
						continue
					}
					compensation := ""
					if underArray && len(obj.Properties) <= 1 {
						end := min(obj.Offset(), len(r.text))
						if dash := strings.LastIndexByte(r.text[:end], '-'); dash >= 0 {
							compensation = " " + r.text[dash+1:end]
						}
					}
					insert := key
					if !strings.HasPrefix(key, existing) || noColon {
						insert = r.propertyText(key, ps, compensation+r.indent)
					}
					doc := documentation(ps.MarkdownDescription, ps.Description)
					if doc == nil {
						doc = ""
					}
					r.add(protocol.CompletionItem{
						Kind:             protocol.CompletionItemKindProperty,
						Label:            key,
						InsertText:       insert,
						InsertTextFormat: protocol.InsertTextFormatSnippet,
						Documentation:    doc,
					})
				}
			}
			// A scalar array item typed without ':' parses as an object with
			// one key; offer the item values as well.
			if underArray && s.SingleType() != "object" {
				r.schemaValues(s, map[string]bool{})
			}
		}
		if parent := obj.Parent(); parent != nil && m.Node == parent && len(s.DefaultSnippets) > 0 {
			if len(obj.Properties) == 1 {
				r.snippets(s, layout{indentWithTab: true}, 1)
			} else {
				r.snippets(s, layout{indentFirstObject: true}, 1)
			}
		}
	}
}

// valueCompletions proposes values for the property or array item at node.
func (r *request) valueCompletions(node ast.Node, offset int) {
	switch node.(type) {
	case *ast.String, *ast.Number, *ast.Boolean:
		node = node.Parent()
	case *ast.Null:
		if p, ok := node.Parent().(*ast.Property); ok {
			node = p
		}
	}
	if node == nil {
		r.schemaValues(r.schema, map[string]bool{})
		return
	}
	key, hasKey := "", false
	if p, ok := node.(*ast.Property); ok && offset > p.ColonOffset {
		if offset == p.ColonOffset+1 {
			return
		}
		if p.Value != nil && offset > r.valueEnd(p.Value) {
			return
		}
		key, hasKey = p.Key.Value, true
		node = p.Parent()
	}
	arr, isArray := node.(*ast.Array)
	if node == nil || !hasKey && !isArray {
		return
	}
	types := map[string]bool{}
	for _, m := range r.matchingSchemas() {
		s := m.Schema
		if m.Node != node || m.Inverted || s == nil {
			continue
		}
		if s.Items != nil || s.ItemsList != nil {
			r.snippets(s, layout{}, 0)
			switch items := s.Items.Effective(); {
			case s.ItemsList != nil:
				if isArray {
					if i := itemAt(arr, r.parsed, offset); i < len(s.ItemsList) {
						r.schemaValues(s.ItemsList[i], types)
					}
				}
			case items.SingleType() == "object":
				text, _ := r.objectSkeleton(items, "  ", 1)
				r.add(protocol.CompletionItem{
					Kind:             kindFor("object"),
					Label:            "- (array item)",
					Documentation:    arrayItemDoc(s),
					InsertText:       "- " + strings.TrimLeft(text, " \t\r\n"),
					InsertTextFormat: protocol.InsertTextFormatSnippet,
				})
				r.schemaValues(items, types)
			case len(items.AnyOf) > 0:
				n := 0
				for _, alt := range items.AnyOf {
					if alt.Bool != nil {
						continue
					}
					n++
					text, _ := r.objectSkeleton(alt, r.indent, 1)
					insert := "- " + strings.TrimLeft(text, " \t\r\n")
					r.add(protocol.CompletionItem{
						Kind:             kindFor(firstType(alt)),
						Label:            "- (array item) " + strconv.Itoa(n),
						Documentation:    withSnippetPreview(arrayItemDoc(s), insert),
						InsertText:       insert,
						InsertTextFormat: protocol.InsertTextFormatSnippet,
					})
				}
				r.schemaValues(items, types)
			default:
				r.schemaValues(items, types)
			}
		}
		if hasKey && s.Properties != nil {
			if ps, ok := s.Properties.Get(key); ok {
				r.schemaValues(ps, types)
			}
		}
	}
	if types["boolean"] {
		r.literalValue("true")
		r.literalValue("false")
	}
	if types["null"] {
		r.literalValue("null")
	}
}

func (r *request) literalValue(v string) {
	r.add(protocol.CompletionItem{
		Kind:             protocol.CompletionItemKindValue,
		Label:            v,
		InsertText:       v,
		InsertTextFormat: protocol.InsertTextFormatSnippet,
		Documentation:    "",
	})
}

func arrayItemDoc(s *jsonschema.Schema) string {
	doc := "Create an item of an array"
	if s.Description != "" {
		doc += "(" + s.Description + ")"
	}
	return doc
}

var (
	defaultedStop = regexp.MustCompile(`\$\{[0-9]+[:|](.*)\}`)
	bareStop      = regexp.MustCompile(`\$([0-9]+)`)
)

// withSnippetPreview appends insert, with its tab stops removed, as a code
// block.
func withSnippetPreview(doc, insert string) protocol.MarkupContent {
	insert = defaultedStop.ReplaceAllString(insert, "$1")
	insert = bareStop.ReplaceAllString(insert, "")
	return protocol.MarkupContent{Kind: protocol.Markdown, Value: doc + "\n ```\n" + insert + "\n```"}
}

// valueEnd is the end of a property value. An empty value extends over the
// blanks that follow it so a cursor after "key: " still completes the value.
func (r *request) valueEnd(v ast.Node) int {
	end := ast.End(v)
	if _, ok := v.(*ast.Null); ok && v.Length() == 0 {
		for end < len(r.parsed) && (r.parsed[end] == ' ' || r.parsed[end] == '\t') {
			end++
		}
	}
	return end
}

// itemAt returns the index of the array item at offset. An offset after an
// item that is followed by a new item indicator belongs to the next item.
func itemAt(arr *ast.Array, text string, offset int) int {
	for i := len(arr.Items) - 1; i >= 0; i-- {
		it := arr.Items[i]
		if offset > ast.End(it) {
			gap := text[min(ast.End(it), len(text)):min(offset, len(text))]
			if strings.ContainsAny(gap, ",-") {
				return i + 1
			}
			return i
		}
		if offset >= it.Offset() {
			return i
		}
	}
	return 0
}

// schemaValues proposes the enum, const, default, example and snippet values
// of s and its combinators, and records the types of s in types.
func (r *request) schemaValues(s *jsonschema.Schema, types map[string]bool) {
	if s == nil || s.Bool != nil || r.visiting[s] {
		return
	}
	r.visiting[s] = true
	defer delete(r.visiting, s)
	r.enumValues(s)
	r.defaultValues(s, 0)
	if s.Enum == nil && !s.HasConst {
		for _, t := range s.Type {
			types[t] = true
		}
	}
	for _, list := range [][]*jsonschema.Schema{s.AllOf, s.AnyOf, s.OneOf} {
		for _, sub := range list {
			r.schemaValues(sub, types)
		}
	}
}

func (r *request) enumValues(s *jsonschema.Schema) {
	typ := firstType(s)
	if s.HasConst {
		r.add(protocol.CompletionItem{
			Kind:             kindFor(typ),
			Label:            valueLabel(s.Const),
			InsertText:       r.valueText(s.Const, stringType(s.Const, typ)),
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Documentation:    documentation(s.MarkdownDescription, s.Description),
		})
	}
	for i, v := range s.Enum {
		doc := documentation(s.MarkdownDescription, s.Description)
		switch {
		case i < len(s.MarkdownEnumDescriptions):
			doc = documentation(s.MarkdownEnumDescriptions[i], "")
		case i < len(s.EnumDescriptions):
			doc = documentation("", s.EnumDescriptions[i])
		}
		r.add(protocol.CompletionItem{
			Kind:             kindFor(typ),
			Label:            valueLabel(v),
			InsertText:       r.valueText(v, stringType(v, typ)),
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Documentation:    doc,
		})
	}
}

// stringType makes string enum values re-quote even when the schema has no
// type.
func stringType(v any, typ string) string {
	if _, ok := v.(string); ok {
		return "string"
	}
	return typ
}

func valueLabel(v any) string {
	return literal(v)
}

// maxArrayDepth bounds the search for defaults through nested items.
const maxArrayDepth = 8

func (r *request) defaultValues(s *jsonschema.Schema, arrayDepth int) {
	proposed := false
	typ := firstType(s)
	wrap := func(v any) (any, string) {
		t := typ
		for i := arrayDepth; i > 0; i-- {
			v, t = []any{v}, "array"
		}
		return v, t
	}
	if s.HasDefault {
		v, t := wrap(s.Default)
		label := "Default value"
		if !isContainer(v) && v != nil {
			label = escapedQuotes.ReplaceAllString(literal(v), `"`)
		}
		r.add(protocol.CompletionItem{
			Kind:             kindFor(t),
			Label:            label,
			InsertText:       r.valueText(v, t),
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Detail:           "Default value",
		})
		proposed = true
	}
	for _, ex := range s.Examples {
		v, t := wrap(ex)
		r.add(protocol.CompletionItem{
			Kind:             kindFor(t),
			Label:            valueLabel(v),
			InsertText:       r.valueText(v, t),
			InsertTextFormat: protocol.InsertTextFormatSnippet,
		})
		proposed = true
	}
	r.snippets(s, layout{newLineFirst: true, indentFirstObject: true, indentWithTab: true}, 0)
	if !proposed && s.Items != nil && s.ItemsList == nil && arrayDepth < maxArrayDepth {
		if items := s.Items.Effective(); items.Bool == nil && items != s {
			r.defaultValues(items, arrayDepth+1)
		}
	}
}

// snippets proposes the defaultSnippets of s.
func (r *request) snippets(s *jsonschema.Schema, l layout, arrayDepth int) {
	for _, sn := range s.DefaultSnippets {
		typ := firstType(s)
		label := sn.Label
		var insert, filter string
		switch {
		case sn.HasBody:
			body := sn.Body
			if arrayDepth == 0 && typ == "array" {
				if keys, get, ok := entries(body); ok {
					fixed := jsonschema.NewOrderedMap[any]()
					for i, k := range keys {
						if i == 0 && !strings.HasPrefix(k, "-") {
							fixed.Set("- "+k, get(k))
						} else {
							fixed.Set("  "+k, get(k))
						}
					}
					body = fixed
				}
			}
			insert = r.snippetText(body, l, 0)
			if label == "" {
				label = snippetLabel(body)
			}
		case sn.BodyText != "":
			prefix, suffix, indent := "", "", ""
			for i := arrayDepth; i > 0; i-- {
				prefix += indent + "[\n"
				suffix += "\n" + indent + "]"
				indent += r.indent
				typ = "array"
			}
			insert = prefix + indent + strings.ReplaceAll(sn.BodyText, "\n", "\n"+indent) + suffix
			if label == "" {
				label = insert
			}
			filter = strings.ReplaceAll(insert, "\n", "")
		}
		r.add(protocol.CompletionItem{
			Kind:             kindFor(typ),
			Label:            label,
			Documentation:    documentation(sn.MarkdownDescription, sn.Description),
			InsertText:       insert,
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			FilterText:       filter,
		})
	}
}

// rangeText returns the document text covered by rg.
func (r *request) rangeText(rg protocol.Range) string {
	start, end := r.lines.Offset(rg.Start), r.lines.Offset(rg.End)
	if end < start {
		return ""
	}
	return r.text[start:end]
}

func (r *request) lineText(line int) string {
	return r.text[r.lines.LineStart(line):r.lines.LineEnd(line)]
}
