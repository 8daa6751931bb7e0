// Package completion proposes keys, values and array items for a position in
// a YAML document, driven by the schema that applies to the document.
package completion

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/engine"
	"github.com/reoring/yamlls/internal/schemaservice"
	"github.com/reoring/yamlls/jsonschema"
)

// SchemaSource finds the schema of one document of a resource.
type SchemaSource interface {
	GetSchemaForResource(ctx context.Context, resource string, doc *ast.Document) (*schemaservice.ResolvedSchema, error)
}

// Settings configures a Completer.
type Settings struct {
	Completion bool
	CustomTags []string
	// Indentation is the unit used in generated snippets. Empty means guess
	// it from the document.
	Indentation string
}

// Completer computes completion lists. It is safe for concurrent use.
type Completer struct {
	schemas SchemaSource

	mu       sync.RWMutex
	settings Settings
}

// New returns a Completer with completion enabled.
func New(schemas SchemaSource) *Completer {
	return &Completer{schemas: schemas, settings: Settings{Completion: true}}
}

// Configure replaces the settings.
func (c *Completer) Configure(s Settings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}

const maxLabelLength = 60

// DoComplete returns the proposals for pos in text. Schema errors and
// documents without a schema produce an empty list, not an error.
func (c *Completer) DoComplete(ctx context.Context, uri, text string, pos protocol.Position, isKubernetes bool) (*protocol.CompletionList, error) {
	c.mu.RLock()
	settings := c.settings
	c.mu.RUnlock()

	list := &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	if !settings.Completion {
		return list, nil
	}
	lines := ast.NewLineIndex(text)
	offset := lines.Offset(pos)
	if offset < len(text) && text[offset] == ':' {
		return list, nil
	}

	file := ast.Parse(repair(text, lines, int(pos.Line)), ast.Options{CustomTags: settings.CustomTags})
	doc := file.DocumentAt(offset)
	if doc == nil {
		return list, nil
	}

	r := &request{
		text:         text,
		parsed:       file.Text,
		lines:        lines,
		indent:       settings.Indentation,
		doc:          doc,
		isKubernetes: isKubernetes,
		list:         list,
		proposed:     map[string]int{},
		visiting:     map[*jsonschema.Schema]bool{},
	}
	if r.indent == "" {
		r.indent = guessIndentation(text, 2)
	}
	node := r.nodeAt(offset)
	r.overwrite = r.overwriteRange(node, offset)

	for _, tag := range customTagLabels(settings.CustomTags) {
		r.add(protocol.CompletionItem{
			Kind:             protocol.CompletionItemKindValue,
			Label:            tag,
			InsertText:       tag + " ",
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			Documentation:    "",
		})
	}

	rs, err := c.schemas.GetSchemaForResource(ctx, uri, doc)
	if err != nil {
		return nil, err
	}
	if rs == nil || rs.Schema == nil || len(rs.Errors) > 0 {
		return list, nil
	}
	r.schema = rs.Schema

	var current *ast.Property
	switch n := node.(type) {
	case *ast.String:
		if p, ok := n.Parent().(*ast.Property); ok && p.Key == n {
			current = p
			node = p.Parent()
		}
	case *ast.Null:
		if p, ok := n.Parent().(*ast.Property); ok && p.Value == n {
			current = p
			node = p
		}
	}

	if obj, ok := node.(*ast.Object); ok {
		for _, p := range obj.Properties {
			if p != current {
				r.proposed[p.Key.Value] = -1
			}
		}
		r.propertyCompletions(obj)
	}
	r.valueCompletions(node, offset)
	return list, nil
}

// request holds the state of one DoComplete call.
type request struct {
	text   string // the document as given
	parsed string // the repaired text the tree was built from
	lines  *ast.LineIndex
	indent string

	doc          *ast.Document
	schema       *jsonschema.Schema
	isKubernetes bool
	matches      []engine.MatchingSchema
	matched      bool
	visiting     map[*jsonschema.Schema]bool

	overwrite protocol.Range
	list      *protocol.CompletionList
	// proposed maps labels to their index in list.Items; -1 marks keys that
	// are already present in the document.
	proposed map[string]int
}

// nodeAt finds the node at offset. When offset is past the end of the tree on
// the same line, the lookup backs off over trailing blanks.
func (r *request) nodeAt(offset int) ast.Node {
	root := r.doc.Root
	if root == nil {
		return nil
	}
	for at := offset; ; at-- {
		if n := ast.NodeAtEndInclusive(root, at); n != nil {
			return n
		}
		if at == 0 || at > len(r.parsed) || r.parsed[at-1] != ' ' && r.parsed[at-1] != '\t' {
			return nil
		}
	}
}

func (r *request) overwriteRange(node ast.Node, offset int) protocol.Range {
	switch node.(type) {
	case *ast.Null:
		start := r.lines.Position(node.Offset())
		end := r.lines.Position(ast.End(node))
		start.Character++
		end.Character++
		return protocol.Range{Start: start, End: end}
	case *ast.String, *ast.Number, *ast.Boolean:
		return protocol.Range{Start: r.lines.Position(node.Offset()), End: r.lines.Position(ast.End(node))}
	}
	start := offset - len(currentWord(r.text, offset))
	if start > 0 && r.text[start-1] == '"' {
		start--
	}
	return protocol.Range{Start: r.lines.Position(start), End: r.lines.Position(offset)}
}

// matchingSchemas validates the document once and caches every match.
func (r *request) matchingSchemas() []engine.MatchingSchema {
	if !r.matched {
		c := engine.NewSchemaCollector(-1, nil)
		engine.Validate(r.doc.Root, r.schema, r.schema, engine.NewResult(r.isKubernetes), c, engine.Options{IsKubernetes: r.isKubernetes})
		r.matches, r.matched = c.Schemas(), true
	}
	return r.matches
}

// add appends item unless its label was already proposed, in which case only
// missing documentation is filled in.
func (r *request) add(item protocol.CompletionItem) {
	label := strings.ReplaceAll(item.Label, "\n", "↵")
	if i, ok := r.proposed[label]; ok {
		if i >= 0 && isEmptyDoc(r.list.Items[i].Documentation) {
			r.list.Items[i].Documentation = item.Documentation
		}
		return
	}
	if utf8.RuneCountInString(label) > maxLabelLength {
		short := strings.TrimSpace(string([]rune(label)[:maxLabelLength-3])) + "..."
		if _, used := r.proposed[short]; !used {
			label = short
		}
	}
	if r.overwrite.Start.Line == r.overwrite.End.Line {
		item.TextEdit = &protocol.TextEdit{Range: r.overwrite, NewText: item.InsertText}
	}
	item.Label = label
	r.proposed[label] = len(r.list.Items)
	r.list.Items = append(r.list.Items, item)
}

func isEmptyDoc(doc any) bool {
	switch d := doc.(type) {
	case nil:
		return true
	case string:
		return d == ""
	case protocol.MarkupContent:
		return d.Value == ""
	}
	return false
}

// currentWord returns the text between the last separator before offset and
// offset.
func currentWord(text string, offset int) string {
	i := offset - 1
	for i >= 0 && !strings.ContainsRune(" \t\n\r\v\":{[,]}", rune(text[i])) {
		i--
	}
	return text[i+1 : offset]
}

// customTagLabels returns the tag name of every valid custom tag setting.
func customTagLabels(tags []string) []string {
	var out []string
	for _, t := range tags {
		if len(ast.ParseCustomTags([]string{t})) == 0 {
			continue
		}
		out = append(out, strings.Fields(t)[0])
	}
	return out
}
