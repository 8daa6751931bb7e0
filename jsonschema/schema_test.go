package jsonschema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseJSON_KeepsPropertyOrder(t *testing.T) {
	s, err := ParseJSON([]byte(`{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"number"},"mid":true}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, s.Properties.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	mid, _ := s.Properties.Get("mid")
	if v, ok := mid.IsBool(); !ok || !v {
		t.Fatalf("mid should be boolean true schema: %+v", mid)
	}
	if s.SingleType() != "object" || s.TypeList {
		t.Fatalf("type: %v list=%v", s.Type, s.TypeList)
	}
}

func TestParseJSON_Keywords(t *testing.T) {
	src := `{
		"$id": "http://example.com/foo.schema.json",
		"type": ["string", "null"],
		"enum": ["a", 1, null, {"b": [true]}],
		"const": 3,
		"default": {"x": 1},
		"minLength": 2,
		"pattern": "^a",
		"exclusiveMinimum": true,
		"exclusiveMaximum": 10,
		"items": [{"type":"string"}, false],
		"dependencies": {"a": ["b", "c"], "d": {"required": ["e"]}},
		"x-custom": {"k": "v"}
	}`
	s, err := ParseJSON([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !s.TypeList || len(s.Type) != 2 {
		t.Fatalf("type list: %v", s.Type)
	}
	wantEnum := []any{"a", 1.0, nil, map[string]any{"b": []any{true}}}
	if diff := cmp.Diff(wantEnum, s.Enum); diff != "" {
		t.Fatalf("enum (-want +got):\n%s", diff)
	}
	if !s.HasConst || s.Const != 3.0 {
		t.Fatalf("const: %#v", s.Const)
	}
	if s.MinLength == nil || *s.MinLength != 2 {
		t.Fatalf("minLength: %v", s.MinLength)
	}
	if s.Pattern == nil || *s.Pattern != "^a" {
		t.Fatalf("pattern: %v", s.Pattern)
	}
	if s.ExclusiveMinimum == nil || !s.ExclusiveMinimum.Flag || s.ExclusiveMinimum.Number != nil {
		t.Fatalf("exclusiveMinimum: %+v", s.ExclusiveMinimum)
	}
	if s.ExclusiveMaximum == nil || s.ExclusiveMaximum.Number == nil || *s.ExclusiveMaximum.Number != 10 {
		t.Fatalf("exclusiveMaximum: %+v", s.ExclusiveMaximum)
	}
	if len(s.ItemsList) != 2 || s.Items != nil {
		t.Fatalf("items tuple: %+v", s.ItemsList)
	}
	a, _ := s.Dependencies.Get("a")
	if diff := cmp.Diff([]string{"b", "c"}, a.Properties); diff != "" {
		t.Fatalf("dependency a: %s", diff)
	}
	d, _ := s.Dependencies.Get("d")
	if d.Schema == nil || len(d.Schema.Required) != 1 {
		t.Fatalf("dependency d: %+v", d)
	}
	ext, ok := s.Extensions.Get("x-custom")
	if !ok {
		t.Fatalf("extension missing")
	}
	if diff := cmp.Diff(map[string]any{"k": "v"}, ext); diff != "" {
		t.Fatalf("extension: %s", diff)
	}
	if got := s.TypeName(); got != "foo" {
		t.Fatalf("TypeName=%q", got)
	}
}

func TestParse_FallsBackToYAML(t *testing.T) {
	src := "type: object\nproperties:\n  b: {type: integer, minimum: 0x10}\n  a:\n    enum: [yes, 'no', null]\n"
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, s.Properties.Keys()); diff != "" {
		t.Fatalf("keys: %s", diff)
	}
	b, _ := s.Properties.Get("b")
	if b.Minimum == nil || *b.Minimum != 16 {
		t.Fatalf("minimum: %v", b.Minimum)
	}
	a, _ := s.Properties.Get("a")
	if diff := cmp.Diff([]any{"yes", "no", nil}, a.Enum); diff != "" {
		t.Fatalf("enum: %s", diff)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	cases := []string{
		`{"type": "object"`,
		`[1, 2]`,
		`{"a": 1} {"b": 2}`,
		`{"properties": {"a": 1}}`,
	}
	for _, src := range cases {
		if _, err := ParseJSON([]byte(src)); err == nil {
			t.Fatalf("expected error for %s", src)
		}
	}
}

func TestMarshalJSON_RoundTripOrder(t *testing.T) {
	src := `{"title":"T","type":"object","properties":{"b":{"type":"string","default":"x"},"a":{"enum":[1,2]}},"required":["b"],"x-ext":1}`
	s, err := ParseJSON([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"T","type":"object","properties":{"b":{"type":"string","default":"x"},"a":{"enum":[1,2]}},"required":["b"],"x-ext":1}`
	if string(out) != want {
		t.Fatalf("got  %s\nwant %s", out, want)
	}
}

func TestMarshalJSON_Cycle(t *testing.T) {
	s := &Schema{Properties: NewOrderedMap[*Schema]()}
	s.Properties.Set("self", s)
	if _, err := s.MarshalJSON(); err != ErrCyclic {
		t.Fatalf("want ErrCyclic, got %v", err)
	}
	if _, err := s.Clone(); err != ErrCyclic {
		t.Fatalf("clone: want ErrCyclic, got %v", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s, _ := ParseJSON([]byte(`{"properties":{"a":{"type":"string"}}}`))
	s.URL = "file:///a.json"
	c, err := s.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	ca, _ := c.Properties.Get("a")
	ca.Type = []string{"number"}
	sa, _ := s.Properties.Get("a")
	if sa.SingleType() != "string" {
		t.Fatalf("clone shares nodes with the original")
	}
	if c.URL != s.URL {
		t.Fatalf("url not kept: %q", c.URL)
	}
}

func TestLookup(t *testing.T) {
	s, err := ParseJSON([]byte(`{
		"definitions": {"a/b": {"title": "slash"}, "t~x": {"title": "tilde"}},
		"properties": {"list": {"items": [{"title": "first"}]}},
		"anyOf": [{"title": "any0"}],
		"x-nested": {"inner": {"title": "ext"}}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cases := map[string]string{
		"/definitions/a~1b":        "slash",
		"#/definitions/t~0x":       "tilde",
		"/properties/list/items/0": "first",
		"/anyOf/0":                 "any0",
		"/x-nested/inner":          "ext",
	}
	for p, want := range cases {
		got, ok := s.Lookup(p)
		if !ok {
			t.Fatalf("%s: not found", p)
		}
		if got.Title != want {
			t.Fatalf("%s: title=%q want %q", p, got.Title, want)
		}
	}
	if _, ok := s.Lookup("/definitions/missing"); ok {
		t.Fatalf("missing definition resolved")
	}
	if root, ok := s.Lookup(""); !ok || root != s {
		t.Fatalf("empty pointer should return the schema itself")
	}
}

func TestFromValue_SortsGoMaps(t *testing.T) {
	s, err := FromValue(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"c": map[string]any{"type": "string"},
			"a": map[string]any{"type": "integer", "maximum": 5},
		},
	})
	if err != nil {
		t.Fatalf("from value: %v", err)
	}
	if got := strings.Join(s.Properties.Keys(), ","); got != "a,c" {
		t.Fatalf("keys=%s", got)
	}
	a, _ := s.Properties.Get("a")
	if a.Maximum == nil || *a.Maximum != 5 {
		t.Fatalf("int not normalized: %v", a.Maximum)
	}
}

func TestRefTypeTitle(t *testing.T) {
	cases := map[string]string{
		"#/definitions/Foo":                     "Foo",
		"https://x.dev/schemas/bar.schema.json": "bar",
		"plain":                                 "plain",
		"trailing/":                             "trailing/",
	}
	for in, want := range cases {
		if got := RefTypeTitle(in); got != want {
			t.Fatalf("RefTypeTitle(%q)=%q want %q", in, got, want)
		}
	}
}

func TestOrderedMap_Delete(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)
	m.Delete("b")
	m.Set("a", 4)
	if diff := cmp.Diff([]string{"a", "c"}, m.Keys()); diff != "" {
		t.Fatalf("keys: %s", diff)
	}
	if v, _ := m.Get("a"); v != 4 {
		t.Fatalf("a=%d", v)
	}
	var nilMap *OrderedMap[int]
	if nilMap.Len() != 0 || nilMap.Has("x") {
		t.Fatalf("nil map should be empty")
	}
}
