// Package hover renders the schema documentation of the node under the cursor.
package hover

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/engine"
	"github.com/reoring/yamlls/internal/schemaservice"
)

// SchemaSource finds the schema of one document of a resource.
type SchemaSource interface {
	GetSchemaForResource(ctx context.Context, resource string, doc *ast.Document) (*schemaservice.ResolvedSchema, error)
}

// Hoverer answers hover requests. It is safe for concurrent use.
type Hoverer struct {
	schemas SchemaSource

	mu      sync.RWMutex
	enabled bool
}

// New returns an enabled Hoverer.
func New(schemas SchemaSource) *Hoverer {
	return &Hoverer{schemas: schemas, enabled: true}
}

// Configure turns hover on or off.
func (h *Hoverer) Configure(enabled bool) {
	h.mu.Lock()
	h.enabled = enabled
	h.mu.Unlock()
}

// DoHover returns the hover for pos in file, or nil when there is nothing to
// show.
func (h *Hoverer) DoHover(ctx context.Context, uri string, file *ast.File, pos protocol.Position, isKubernetes bool) (*protocol.Hover, error) {
	h.mu.RLock()
	enabled := h.enabled
	h.mu.RUnlock()
	if !enabled || file == nil {
		return nil, nil
	}
	offset := file.Lines.Offset(pos)
	doc := file.DocumentAt(offset)
	if doc == nil || doc.Root == nil {
		return nil, nil
	}
	node := ast.NodeAt(doc.Root, offset, false)
	if node == nil {
		return nil, nil
	}
	switch node.(type) {
	case *ast.Object, *ast.Array:
		// Only the boundary of a block hovers, not its whole body.
		if offset > node.Offset()+1 && offset < ast.End(node)-1 {
			return nil, nil
		}
	}
	hoverRange := file.Lines.Range(node.Offset(), node.Length())
	if k, ok := node.(*ast.String); ok {
		if p, ok := k.Parent().(*ast.Property); ok && p.Key == k {
			if p.Value == nil {
				return nil, nil
			}
			node = p.Value
		}
	}

	rs, err := h.schemas.GetSchemaForResource(ctx, uri, doc)
	if err != nil {
		return nil, err
	}
	if rs == nil || rs.Schema == nil || len(rs.Errors) > 0 {
		return nil, nil
	}

	c := engine.NewSchemaCollector(node.Offset(), nil)
	engine.Validate(doc.Root, rs.Schema, rs.Schema, engine.NewResult(isKubernetes), c, engine.Options{IsKubernetes: isKubernetes})

	var title, description, enumDescription, enumValue string
	for _, m := range c.Schemas() {
		s := m.Schema
		if m.Node != node || m.Inverted || s == nil {
			continue
		}
		if title == "" {
			title = s.Title
		}
		if description == "" {
			description = s.MarkdownDescription
			if description == "" {
				description = toMarkdown(s.Description)
			}
		}
		if s.Enum == nil {
			continue
		}
		idx := enumIndex(s.Enum, ast.Value(node))
		switch {
		case s.MarkdownEnumDescriptions != nil:
			enumDescription = at(s.MarkdownEnumDescriptions, idx)
		case s.EnumDescriptions != nil:
			enumDescription = toMarkdown(at(s.EnumDescriptions, idx))
		default:
			enumDescription = ""
		}
		if enumDescription != "" {
			if v, ok := s.Enum[idx].(string); ok {
				enumValue = v
			} else {
				enumValue = engine.Stringify(s.Enum[idx])
			}
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString("#### " + toMarkdown(title))
	}
	if description != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(description)
	}
	if enumDescription != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("`" + toCodeBlock(enumValue) + "`: " + enumDescription)
	}
	if b.Len() > 0 && rs.Schema.URL != "" {
		b.WriteString("\n\nSource: [" + schemaName(rs.Schema.URL, rs.Schema.Title) + "](" + rs.Schema.URL + ")")
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: b.String()},
		Range:    &hoverRange,
	}, nil
}

// enumIndex returns the index of the scalar v in enum, or -1.
func enumIndex(enum []any, v any) int {
	switch v.(type) {
	case []any, map[string]any:
		return -1
	}
	for i, e := range enum {
		if engine.Equal(e, v) {
			return i
		}
	}
	return -1
}

func at(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}

// schemaName is the file name of the schema URL, else the title.
func schemaName(rawURL, title string) string {
	if rawURL != "" {
		if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
			return path.Base(u.Path)
		}
		return path.Base(rawURL)
	}
	if title != "" {
		return title
	}
	return "JSON Schema"
}

var (
	singleNewline = regexp.MustCompile(`([^\n\r])(\r?\n)([^\n\r])`)
	markdownToken = regexp.MustCompile("[\\\\`*_{}\\[\\]()#+\\-.!]")
)

// toMarkdown turns plain text into markdown: single line breaks become
// paragraphs and markdown tokens are escaped.
func toMarkdown(plain string) string {
	if plain == "" {
		return ""
	}
	s := singleNewline.ReplaceAllString(plain, "$1\n\n$3")
	return markdownToken.ReplaceAllString(s, `\$0`)
}

func toCodeBlock(s string) string {
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return s
}
