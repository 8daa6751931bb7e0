package engine_test

import (
	"testing"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/engine"
	"github.com/reoring/yamlls/jsonschema"
)

func mustSchema(t *testing.T, src string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.ParseJSON([]byte(src))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func root(t *testing.T, yaml string) ast.Node {
	t.Helper()
	f := ast.Parse(yaml, ast.Options{})
	if len(f.Documents) == 0 || f.Documents[0].Root == nil {
		t.Fatalf("yaml did not parse: %q", yaml)
	}
	return f.Documents[0].Root
}

func validate(t *testing.T, schema, yaml string, opts engine.Options) *engine.Result {
	t.Helper()
	res := engine.NewResult(opts.IsKubernetes)
	engine.Validate(root(t, yaml), mustSchema(t, schema), nil, res, engine.NoOp, opts)
	return res
}

func messages(res *engine.Result) []string {
	out := make([]string, len(res.Problems))
	for i, p := range res.Problems {
		out[i] = p.Message
	}
	return out
}

func TestValidate_Messages(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		yaml   string
		want   []string
	}{
		{"type", `{"properties":{"age":{"type":"number"}}}`, "age: foo", []string{`Incorrect type. Expected "number".`}},
		{"type list", `{"properties":{"a":{"type":["number","boolean"]}}}`, "a: x", []string{"Incorrect type. Expected one of number, boolean."}},
		{"integer", `{"properties":{"a":{"type":"integer"}}}`, "a: 1.5", []string{`Incorrect type. Expected "integer".`}},
		{"integer ok", `{"properties":{"a":{"type":"integer"}}}`, "a: 2", nil},
		{"object type name", `{"properties":{"a":{"type":"object","title":"Spec"}}}`, "a: 1", []string{`Incorrect type. Expected "Spec".`}},
		{"error message", `{"properties":{"a":{"type":"string","errorMessage":"no"}}}`, "a: 1", []string{"no"}},
		{"required", `{"required":["name"]}`, "a: 1", []string{`Missing property "name".`}},
		{"enum", `{"properties":{"v":{"enum":["a",1,null]}}}`, "v: b", []string{`Value is not accepted. Valid values: "a", 1, null.`}},
		{"const", `{"properties":{"k":{"const":"x"}}}`, "k: y", []string{`Value must be "x".`}},
		{"not", `{"properties":{"v":{"not":{"type":"string"}}}}`, "v: x", []string{"Matches a schema that is not allowed."}},
		{"false property", `{"properties":{"v":false}}`, "v: x", []string{"Property v is not allowed."}},
		{"additional false", `{"properties":{"a":{}},"additionalProperties":false}`, "a: 1\nb: 2", []string{"Property b is not allowed."}},
		{"additional schema", `{"additionalProperties":{"type":"number"}}`, "a: x", []string{`Incorrect type. Expected "number".`}},
		{"pattern properties", `{"patternProperties":{"^x-":{"type":"number"}},"additionalProperties":false}`, "x-a: s\ny: 1", []string{`Incorrect type. Expected "number".`, "Property y is not allowed."}},
		{"max properties", `{"maxProperties":1}`, "a: 1\nb: 2", []string{"Object has more properties than limit of 1."}},
		{"min properties", `{"minProperties":3}`, "a: 1", []string{"Object has fewer properties than the required number of 3"}},
		{"dependencies list", `{"dependencies":{"a":["b"]}}`, "a: 1", []string{"Object is missing property b required by property a."}},
		{"dependencies schema", `{"dependencies":{"a":{"required":["c"]}}}`, "a: 1", []string{`Missing property "c".`}},
		{"property names", `{"propertyNames":{"maxLength":2}}`, "abc: 1", []string{"String is longer than the maximum length of 2."}},
		{"multipleOf", `{"properties":{"n":{"multipleOf":3}}}`, "n: 7", []string{"Value is not divisible by 3."}},
		{"exclusive numeric", `{"properties":{"n":{"exclusiveMaximum":10}}}`, "n: 10", []string{"Value is above the exclusive maximum of 10."}},
		{"exclusive boolean", `{"properties":{"n":{"minimum":5,"exclusiveMinimum":true}}}`, "n: 5", []string{"Value is below the exclusive minimum of 5."}},
		{"minimum", `{"properties":{"n":{"minimum":1.5}}}`, "n: 1", []string{"Value is below the minimum of 1.5."}},
		{"maximum", `{"properties":{"n":{"maximum":2}}}`, "n: 3", []string{"Value is above the maximum of 2."}},
		{"min length", `{"properties":{"s":{"minLength":4}}}`, "s: héé", []string{"String is shorter than the minimum length of 4."}},
		{"pattern", `{"properties":{"s":{"pattern":"^a"}}}`, "s: b", []string{`String does not match the pattern of "^a".`}},
		{"pattern message", `{"properties":{"s":{"pattern":"^a","patternErrorMessage":"starts with a"}}}`, "s: b", []string{"starts with a"}},
		{"invalid pattern", `{"properties":{"s":{"pattern":"(?<=a)b"}}}`, "s: b", nil},
		{"uri", `{"properties":{"u":{"format":"uri"}}}`, "u: foo/bar", []string{"String is not a URI: URI with a scheme is expected."}},
		{"uri reference", `{"properties":{"u":{"format":"uri-reference"}}}`, "u: foo/bar", nil},
		{"empty uri", `{"properties":{"u":{"format":"uri"}}}`, `u: ""`, []string{"String is not a URI: URI expected."}},
		{"date", `{"properties":{"d":{"format":"date"}}}`, "d: 2020-13-01", []string{"String is not a RFC3339 date."}},
		{"date-time", `{"properties":{"d":{"format":"date-time"}}}`, `d: "2020-01-01t10:00:00z"`, nil},
		{"color", `{"properties":{"c":{"format":"color-hex"}}}`, `c: "#12"`, []string{"Invalid color format. Use #RGB, #RGBA, #RRGGBB or #RRGGBBAA."}},
		{"email", `{"properties":{"e":{"format":"email"}}}`, "e: a@b.io", nil},
		{"unknown format", `{"properties":{"e":{"format":"hostname"}}}`, "e: '#'", nil},
		{"items", `{"properties":{"l":{"items":{"type":"number"}}}}`, "l: [1, x]", []string{`Incorrect type. Expected "number".`}},
		{"tuple extra", `{"properties":{"l":{"items":[{}],"additionalItems":false}}}`, "l: [1, 2]", []string{"Array has too many items according to schema. Expected 1 or fewer."}},
		{"tuple additional schema", `{"properties":{"l":{"items":[{}],"additionalItems":{"type":"string"}}}}`, "l: [1, 2]", []string{`Incorrect type. Expected "string".`}},
		{"contains", `{"properties":{"l":{"contains":{"const":3}}}}`, "l: [1, 2]", []string{"Array does not contain required item."}},
		{"min items", `{"properties":{"l":{"minItems":2}}}`, "l: [1]", []string{"Array has too few items. Expected 2 or more."}},
		{"max items", `{"properties":{"l":{"maxItems":1}}}`, "l: [1, 2]", []string{"Array has too many items. Expected 1 or fewer."}},
		{"unique items", `{"properties":{"l":{"uniqueItems":true}}}`, "l: [{a: 1}, {a: 1}]", []string{"Array has duplicate items."}},
		{"if then", `{"if":{"properties":{"kind":{"const":"a"}}},"then":{"required":["x"]},"else":{"required":["y"]}}`, "kind: a", []string{`Missing property "x".`}},
		{"if else", `{"if":{"properties":{"kind":{"const":"a"}}},"then":{"required":["x"]},"else":{"required":["y"]}}`, "kind: b", []string{`Missing property "y".`}},
		{"allOf", `{"allOf":[{"required":["a"]},{"required":["b"]}]}`, "c: 1", []string{`Missing property "a".`, `Missing property "b".`}},
		{"boolean root false", `false`, "a: 1", []string{"Matches a schema that is not allowed."}},
		{"nil root ok", `true`, "a: 1", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := messages(validate(t, tc.schema, tc.yaml, engine.Options{}))
			if len(got) != len(tc.want) {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("problem %d: want %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestValidate_Locations(t *testing.T) {
	res := validate(t, `{"properties":{"age":{"type":"number"}}}`, "age: foo", engine.Options{})
	p := res.Problems[0]
	if p.Location != (engine.Location{Offset: 5, Length: 3}) || p.Severity != protocol.DiagnosticSeverityError || p.Source != "YAML" {
		t.Fatalf("type problem: %+v", p)
	}

	res = validate(t, `{"required":["name"]}`, "a: 1", engine.Options{})
	if got := res.Problems[0].Location; got != (engine.Location{Offset: 0, Length: 1}) {
		t.Fatalf("root required location: %+v", got)
	}

	res = validate(t, `{"properties":{"spec":{"required":["x"]}}}`, "spec:\n  a: 1\n", engine.Options{})
	if got := res.Problems[0].Location; got != (engine.Location{Offset: 0, Length: 4}) {
		t.Fatalf("nested required should point at the key: %+v", got)
	}

	res = validate(t, `{"properties":{"a":{}},"additionalProperties":false}`, "a: 1\nb: 2", engine.Options{})
	if got := res.Problems[0].Location; got != (engine.Location{Offset: 5, Length: 1}) {
		t.Fatalf("extra property location: %+v", got)
	}

	res = validate(t, `{"properties":{"v":{"oneOf":[{"type":"string"},{"minLength":1}]}}}`, "v: x", engine.Options{})
	if len(res.Problems) != 1 || res.Problems[0].Message != "Matches multiple schemas when only one must validate." {
		t.Fatalf("oneOf: %q", messages(res))
	}
	if got := res.Problems[0].Location; got != (engine.Location{Offset: 3, Length: 1}) {
		t.Fatalf("oneOf location: %+v", got)
	}
}

func TestValidate_Deprecation(t *testing.T) {
	res := validate(t, `{"properties":{"old":{"deprecationMessage":"use new"}}}`, "old: 1", engine.Options{})
	if len(res.Problems) != 1 {
		t.Fatalf("problems: %q", messages(res))
	}
	p := res.Problems[0]
	if p.Message != "use new" || p.Severity != protocol.DiagnosticSeverityWarning || p.Code != engine.Deprecated {
		t.Fatalf("deprecation: %+v", p)
	}
	if p.Location != (engine.Location{Offset: 0, Length: 6}) {
		t.Fatalf("deprecation must cover the property: %+v", p.Location)
	}
}

func TestValidate_MergeKey(t *testing.T) {
	yaml := "base: &b\n  name: x\nitem:\n  <<: *b\n"
	res := validate(t, `{"properties":{"item":{"required":["name"]}}}`, yaml, engine.Options{})
	if res.HasProblems() {
		t.Fatalf("merged keys should satisfy required: %q", messages(res))
	}
	res = validate(t, `{"properties":{"item":{"required":["other"]}}}`, yaml, engine.Options{})
	if len(res.Problems) != 1 || res.Problems[0].Location != (engine.Location{Offset: 19, Length: 4}) {
		t.Fatalf("missing key should point at item: %+v", res.Problems)
	}
	res = validate(t, `{"properties":{"item":{"properties":{"name":{"type":"number"}}}}}`, yaml, engine.Options{})
	if len(res.Problems) != 1 {
		t.Fatalf("merged values are validated: %q", messages(res))
	}
}

func TestValidate_DisableAdditionalProperties(t *testing.T) {
	schema := `{"type":"object","properties":{"a":{}}}`
	if res := validate(t, schema, "a: 1\nb: 2", engine.Options{}); res.HasProblems() {
		t.Fatalf("extra keys allowed by default: %q", messages(res))
	}
	res := validate(t, schema, "a: 1\nb: 2", engine.Options{DisableAdditionalProperties: true})
	if len(res.Problems) != 1 || res.Problems[0].Message != "Property b is not allowed." {
		t.Fatalf("disabled additional properties: %q", messages(res))
	}
}

func TestValidate_AlternativesMergeEnumValues(t *testing.T) {
	res := validate(t, `{"properties":{"v":{"anyOf":[{"enum":["a","b"]},{"enum":["c"]}]}}}`, "v: d", engine.Options{})
	if len(res.Problems) != 1 {
		t.Fatalf("problems: %q", messages(res))
	}
	if got, want := res.Problems[0].Message, `Value is not accepted. Valid values: "a", "b", "c".`; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	if res.Problems[0].Code != engine.EnumValueMismatch {
		t.Fatalf("code: %d", res.Problems[0].Code)
	}
}

func TestValidate_AlternativesMergeWarnings(t *testing.T) {
	schema := `{"properties":{"v":{"anyOf":[{"type":"number","title":"A"},{"type":"boolean","title":"B"}]}}}`
	res := validate(t, schema, "v: x", engine.Options{})
	if len(res.Problems) != 1 {
		t.Fatalf("problems: %q", messages(res))
	}
	p := res.Problems[0]
	if p.Message != `Incorrect type. Expected "number | boolean".` {
		t.Fatalf("message: %q", p.Message)
	}
	if p.Source != "yaml-schema: A | B" {
		t.Fatalf("source: %q", p.Source)
	}
	if len(p.ProblemArgs) != 2 || p.ProblemType != engine.TypeMismatch {
		t.Fatalf("args: %+v", p)
	}
}

func TestValidate_AlternativesPickBestMatch(t *testing.T) {
	schema := `{"anyOf":[
		{"properties":{"kind":{"const":"a"},"x":{"type":"number"}},"required":["kind"]},
		{"properties":{"kind":{"const":"b"},"y":{"type":"string"}},"required":["kind"]}
	]}`
	res := validate(t, schema, "kind: b\ny: 1", engine.Options{})
	if len(res.Problems) != 1 || res.Problems[0].Message != `Incorrect type. Expected "string".` {
		t.Fatalf("best branch should be the one matching kind: %q", messages(res))
	}
	res = validate(t, schema, "kind: b\ny: 1", engine.Options{IsKubernetes: true})
	if len(res.Problems) != 1 || res.Problems[0].Message != `Incorrect type. Expected "string".` {
		t.Fatalf("kubernetes ranking: %q", messages(res))
	}
}

func TestValidate_SourceFromOriginal(t *testing.T) {
	original := &jsonschema.Schema{URL: "file:///schemas/app.json"}
	res := engine.NewResult(false)
	engine.Validate(root(t, "a: x"), mustSchema(t, `{"properties":{"a":{"type":"number"}}}`), original, res, engine.NoOp, engine.Options{})
	p := res.Problems[0]
	if p.Source != "yaml-schema: file:///schemas/app.json" {
		t.Fatalf("source: %q", p.Source)
	}
	if len(p.SchemaURIs) != 1 || p.SchemaURIs[0] != original.URL {
		t.Fatalf("schema uris: %v", p.SchemaURIs)
	}
}

func TestValidate_NilNode(t *testing.T) {
	res := engine.NewResult(false)
	engine.Validate(nil, mustSchema(t, `{"required":["a"]}`), nil, res, engine.NoOp, engine.Options{})
	if res.HasProblems() {
		t.Fatalf("nil node must not produce problems")
	}
}

func TestCollector(t *testing.T) {
	doc := root(t, "a:\n  b: 1\nc: 2\n")
	schema := mustSchema(t, `{"properties":{"a":{"properties":{"b":{"type":"number"}}},"c":{"not":{"type":"string"}}}}`)

	all := engine.NewSchemaCollector(-1, nil)
	engine.Validate(doc, schema, nil, engine.NewResult(false), all, engine.Options{})
	if len(all.Schemas()) != 5 {
		t.Fatalf("want 5 matches, got %d", len(all.Schemas()))
	}
	inverted := 0
	for _, m := range all.Schemas() {
		if m.Inverted {
			inverted++
		}
	}
	if inverted != 1 {
		t.Fatalf("want 1 inverted match, got %d", inverted)
	}

	focused := engine.NewSchemaCollector(8, nil)
	engine.Validate(doc, schema, nil, engine.NewResult(false), focused, engine.Options{})
	for _, m := range focused.Schemas() {
		if m.Node.Offset() > 8 || ast.End(m.Node) < 8 {
			t.Fatalf("node %d..%d does not cover the focus", m.Node.Offset(), ast.End(m.Node))
		}
	}
	if len(focused.Schemas()) != 3 {
		t.Fatalf("want matches for root, a and b, got %d", len(focused.Schemas()))
	}
}
