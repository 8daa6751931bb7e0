package symbols_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/symbols"
)

const text = "name: yaml\nobj:\n  a: 1\nlist:\n  - x\n  - b: true\n"

func rng(sl, sc, el, ec uint32) protocol.Range {
	return protocol.Range{Start: protocol.Position{Line: sl, Character: sc}, End: protocol.Position{Line: el, Character: ec}}
}

type flat struct {
	Name      string
	Kind      protocol.SymbolKind
	Container string
	Range     protocol.Range
}

func TestFlat(t *testing.T) {
	file := ast.Parse(text, ast.Options{})
	var got []flat
	for _, s := range symbols.Flat("file:///a.yaml", file, symbols.Options{}) {
		if s.Location.URI != "file:///a.yaml" {
			t.Fatalf("uri = %q", s.Location.URI)
		}
		got = append(got, flat{s.Name, s.Kind, s.ContainerName, s.Location.Range})
	}
	want := []flat{
		{"name", protocol.SymbolKindString, "", rng(0, 0, 0, 10)},
		{"obj", protocol.SymbolKindModule, "", rng(1, 0, 2, 6)},
		{"list", protocol.SymbolKindArray, "", rng(3, 0, 5, 11)},
		{"a", protocol.SymbolKindNumber, "obj", rng(2, 2, 2, 6)},
		{"b", protocol.SymbolKindBoolean, "list", rng(5, 4, 5, 11)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("symbols (-want +got):\n%s", diff)
	}
}

type tree struct {
	Name     string
	Detail   string
	Kind     protocol.SymbolKind
	Children []tree
}

func shape(in []protocol.DocumentSymbol) []tree {
	var out []tree
	for _, s := range in {
		out = append(out, tree{s.Name, s.Detail, s.Kind, shape(s.Children)})
	}
	return out
}

func TestHierarchical(t *testing.T) {
	file := ast.Parse(text+"---\nempty:\n", ast.Options{})
	got := symbols.Hierarchical("file:///a.yaml", file, symbols.Options{})
	want := []tree{
		{Name: "name", Detail: "yaml", Kind: protocol.SymbolKindString},
		{Name: "obj", Kind: protocol.SymbolKindModule, Children: []tree{
			{Name: "a", Detail: "1", Kind: protocol.SymbolKindNumber},
		}},
		{Name: "list", Kind: protocol.SymbolKindArray, Children: []tree{
			{Name: "0", Kind: protocol.SymbolKindString},
			{Name: "1", Kind: protocol.SymbolKindModule, Children: []tree{
				{Name: "b", Detail: "true", Kind: protocol.SymbolKindBoolean},
			}},
		}},
		{Name: "empty", Detail: "null", Kind: protocol.SymbolKindVariable},
	}
	if diff := cmp.Diff(want, shape(got)); diff != "" {
		t.Fatalf("symbols (-want +got):\n%s", diff)
	}
	b := got[2].Children[1].Children[0]
	if b.SelectionRange != rng(5, 4, 5, 5) || b.Range != rng(5, 4, 5, 11) {
		t.Fatalf("ranges of b: %+v %+v", b.Range, b.SelectionRange)
	}
	if item := got[2].Children[0]; item.Range != rng(4, 4, 4, 5) || item.SelectionRange != item.Range {
		t.Fatalf("range of item 0: %+v", item.Range)
	}
}

func TestLimit(t *testing.T) {
	file := ast.Parse(text, ast.Options{})
	var exceeded []string
	opts := symbols.Options{MaxResults: 2, OnLimitExceeded: func(uri string) { exceeded = append(exceeded, uri) }}

	if got := symbols.Flat("file:///a.yaml", file, opts); len(got) != 2 || got[1].Name != "obj" {
		t.Fatalf("flat: %+v", got)
	}
	if got := symbols.Hierarchical("file:///a.yaml", file, opts); len(got) != 2 {
		t.Fatalf("hierarchical: %+v", got)
	}
	if diff := cmp.Diff([]string{"file:///a.yaml", "file:///a.yaml"}, exceeded); diff != "" {
		t.Fatalf("limit callbacks (-want +got):\n%s", diff)
	}
}

func TestEmptyFile(t *testing.T) {
	if got := symbols.Flat("file:///a.yaml", nil, symbols.Options{}); got != nil {
		t.Fatalf("nil file: %+v", got)
	}
}
