package completion

import (
	"strings"
	"testing"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
)

func TestRepair(t *testing.T) {
	cases := []struct {
		text string
		line int
		want string
	}{
		{"", 0, "{}\n"},
		{"  \n", 1, "{  \n}\n"},
		{"na", 0, "na:\r\n"},
		{"name: x", 0, "name: x"},
		{"a:\n  -", 1, "a:\n  - holder:\r\n"},
		{"a:\n  - ", 1, "a:\n  - holder:\r\n"},
		{"a:\n  \nb: 1", 1, "a:\n  holder:\r\nb: 1"},
		{"a: 1\n", 1, "a: 1\nholder:\r\n"},
		{"[a, b", 0, "[a, b"},
	}
	for _, tc := range cases {
		got := repair(tc.text, ast.NewLineIndex(tc.text), tc.line)
		if got != tc.want {
			t.Fatalf("repair(%q, %d) = %q, want %q", tc.text, tc.line, got, tc.want)
		}
	}
}

func TestGuessIndentation(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"a: 1", "  "},
		{"a:\n    b:\n        c: 1\nd:\n    e: 2", "    "},
		{"a:\n\tb: 1\n\tc: 2", "\t"},
		{"- top:\n    prop1: x\n- ", "    "},
	}
	for _, tc := range cases {
		if got := guessIndentation(tc.text, 2); got != tc.want {
			t.Fatalf("guessIndentation(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestQuoteString(t *testing.T) {
	cases := map[string]string{
		"plain":  "plain",
		"true":   `"true"`,
		"null":   `"null"`,
		"42":     `"42"`,
		"@type":  `"@type"`,
		"a: b":   `"a: b"`,
		`\\"x\"`: `"x"`,
	}
	for in, want := range cases {
		if got := quoteString(in); got != want {
			t.Fatalf("quoteString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddShortensLongLabels(t *testing.T) {
	r := &request{
		list:     &protocol.CompletionList{},
		proposed: map[string]int{},
	}
	long := strings.Repeat("x", 70)
	r.add(protocol.CompletionItem{Label: long, InsertText: long})
	r.add(protocol.CompletionItem{Label: "one\ntwo", InsertText: "one\ntwo"})
	r.add(protocol.CompletionItem{Label: "one\ntwo", Documentation: "again"})

	if len(r.list.Items) != 2 {
		t.Fatalf("items: %+v", r.list.Items)
	}
	if got, want := r.list.Items[0].Label, strings.Repeat("x", 57)+"..."; got != want {
		t.Fatalf("label = %q, want %q", got, want)
	}
	if r.list.Items[0].InsertText != long {
		t.Fatalf("insert text must keep the full value")
	}
	if got := r.list.Items[1].Label; got != "one↵two" {
		t.Fatalf("label = %q", got)
	}
}
