// Package symbols lists the keys and array items of a YAML file as document
// symbols.
package symbols

import (
	"strconv"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/engine"
)

// Options limits the result. MaxResults <= 0 means no limit.
type Options struct {
	MaxResults int
	// OnLimitExceeded is called once when symbols were dropped.
	OnLimitExceeded func(uri string)
}

type limiter struct {
	left     int
	exceeded bool
}

func newLimiter(max int) *limiter {
	if max <= 0 {
		max = int(^uint(0) >> 1)
	}
	return &limiter{left: max}
}

func (l *limiter) take() bool {
	if l.left <= 0 {
		l.exceeded = true
		return false
	}
	l.left--
	return true
}

func (l *limiter) report(uri string, opts Options) {
	if l.exceeded && opts.OnLimitExceeded != nil {
		opts.OnLimitExceeded(uri)
	}
}

// Flat returns one SymbolInformation per key with a value, breadth first.
// ContainerName is the dotted key path of the parent. It returns nil for a file
// without documents.
func Flat(uri string, file *ast.File, opts Options) []protocol.SymbolInformation {
	if file == nil || len(file.Documents) == 0 {
		return nil
	}
	lim := newLimiter(opts.MaxResults)
	out := []protocol.SymbolInformation{}
	type visit struct {
		node      ast.Node
		container string
	}
	for _, doc := range file.Documents {
		if doc.Root == nil {
			continue
		}
		queue := []visit{{node: doc.Root}}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			switch n := v.node.(type) {
			case *ast.Array:
				for _, it := range n.Items {
					queue = append(queue, visit{node: it, container: v.container})
				}
			case *ast.Object:
				for _, p := range n.Properties {
					if p.Value == nil {
						continue
					}
					if !lim.take() {
						continue
					}
					out = append(out, protocol.SymbolInformation{
						Name: keyLabel(p),
						Kind: kind(p.Value),
						Location: protocol.Location{
							URI:   protocol.DocumentURI(uri),
							Range: file.Lines.Range(p.Offset(), p.Length()),
						},
						ContainerName: v.container,
					})
					child := p.Key.Value
					if v.container != "" {
						child = v.container + "." + child
					}
					queue = append(queue, visit{node: p.Value, container: child})
				}
			}
		}
	}
	lim.report(uri, opts)
	return out
}

// Hierarchical returns the symbol tree of every document. Array items are
// named by their index.
func Hierarchical(uri string, file *ast.File, opts Options) []protocol.DocumentSymbol {
	if file == nil || len(file.Documents) == 0 {
		return nil
	}
	lim := newLimiter(opts.MaxResults)
	out := []protocol.DocumentSymbol{}
	for _, doc := range file.Documents {
		if doc.Root != nil {
			out = append(out, children(file.Lines, doc.Root, lim)...)
		}
	}
	lim.report(uri, opts)
	return out
}

func children(lines *ast.LineIndex, node ast.Node, lim *limiter) []protocol.DocumentSymbol {
	var out []protocol.DocumentSymbol
	switch n := node.(type) {
	case *ast.Array:
		for i, it := range n.Items {
			if it == nil || !lim.take() {
				continue
			}
			r := lines.Range(it.Offset(), it.Length())
			out = append(out, protocol.DocumentSymbol{
				Name:           strconv.Itoa(i),
				Kind:           kind(it),
				Range:          r,
				SelectionRange: r,
				Children:       children(lines, it, lim),
			})
		}
	case *ast.Object:
		for _, p := range n.Properties {
			if p.Value == nil || !lim.take() {
				continue
			}
			out = append(out, protocol.DocumentSymbol{
				Name:           keyLabel(p),
				Detail:         detail(p.Value),
				Kind:           kind(p.Value),
				Range:          lines.Range(p.Offset(), p.Length()),
				SelectionRange: lines.Range(p.Key.Offset(), p.Key.Length()),
				Children:       children(lines, p.Value, lim),
			})
		}
	}
	return out
}

// keyLabel is the display name of a key. Complex keys are already flattened to
// their source text by the tree builder.
func keyLabel(p *ast.Property) string {
	name := strings.ReplaceAll(p.Key.Value, "\n", "↵")
	if strings.TrimSpace(name) != "" {
		return name
	}
	return `"` + name + `"`
}

func kind(n ast.Node) protocol.SymbolKind {
	switch n.(type) {
	case *ast.Object:
		return protocol.SymbolKindModule
	case *ast.String:
		return protocol.SymbolKindString
	case *ast.Number:
		return protocol.SymbolKindNumber
	case *ast.Array:
		return protocol.SymbolKindArray
	case *ast.Boolean:
		return protocol.SymbolKindBoolean
	}
	return protocol.SymbolKindVariable
}

func detail(n ast.Node) string {
	switch t := n.(type) {
	case *ast.String:
		return t.Value
	case *ast.Number:
		return engine.FormatNumber(t.Value)
	case *ast.Boolean:
		return strconv.FormatBool(t.Value)
	case *ast.Null:
		return "null"
	}
	return ""
}
