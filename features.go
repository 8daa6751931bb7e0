package yamlls

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/internal/symbols"
)

// DoComplete returns the completion proposals at pos. Missing or broken
// schemas yield an empty list.
func (ls *LanguageService) DoComplete(ctx context.Context, doc TextDocument, pos protocol.Position, isKubernetes bool) (*protocol.CompletionList, error) {
	return ls.completer.DoComplete(ctx, doc.URI, doc.Text, pos, isKubernetes)
}

// DoHover returns the schema documentation of the node at pos, or nil.
func (ls *LanguageService) DoHover(ctx context.Context, doc TextDocument, pos protocol.Position, isKubernetes bool) (*protocol.Hover, error) {
	return ls.hoverer.DoHover(ctx, doc.URI, ls.file(doc, false), pos, isKubernetes)
}

// FindDocumentSymbols lists every key of doc as a flat symbol.
func (ls *LanguageService) FindDocumentSymbols(doc TextDocument, opts SymbolOptions) []protocol.SymbolInformation {
	return symbols.Flat(doc.URI, ls.file(doc, false), opts)
}

// FindHierarchicalDocumentSymbols lists the keys and items of doc as a tree.
func (ls *LanguageService) FindHierarchicalDocumentSymbols(doc TextDocument, opts SymbolOptions) []protocol.DocumentSymbol {
	return symbols.Hierarchical(doc.URI, ls.file(doc, false), opts)
}
