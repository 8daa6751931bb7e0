package schemaservice_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/schemaservice"
	"github.com/reoring/yamlls/jsonschema"
)

type memLoader struct {
	mu    sync.Mutex
	files map[string]string
	calls []string
}

func (m *memLoader) Load(_ context.Context, uri string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, uri)
	c, ok := m.files[uri]
	if !ok {
		return "", fmt.Errorf("not found: %s", uri)
	}
	return c, nil
}

func (m *memLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newService(files map[string]string) (*schemaservice.Service, *memLoader) {
	l := &memLoader{files: files}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return schemaservice.New(schemaservice.Options{Loader: l, Logger: log}), l
}

func document(t *testing.T, text string, index int) *ast.Document {
	t.Helper()
	f := ast.Parse(text, ast.Options{})
	if index >= len(f.Documents) {
		t.Fatalf("document %d of %d", index, len(f.Documents))
	}
	return f.Documents[index]
}

func mustSchema(t *testing.T, src string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

func TestModeline_InlineURL(t *testing.T) {
	for _, u := range []string{"http://json-schema.org/draft-07/schema#", "https://json-schema.org/draft-07/schema#"} {
		svc, l := newService(map[string]string{u: ""})
		text := "# yaml-language-server: $schema=" + u + " anothermodeline=value\n\n---\n- "
		rs, err := svc.GetSchemaForResource(context.Background(), "", document(t, text, 0))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{u}, l.calls); diff != "" {
			t.Fatalf("requests (-want +got):\n%s", diff)
		}
		want := "Unable to load schema from '" + u + "': No content."
		if rs == nil || len(rs.Errors) != 1 || rs.Errors[0] != want {
			t.Fatalf("errors: %+v", rs)
		}
	}
}

func TestModeline_FragmentURL(t *testing.T) {
	const content = `{"definitions": {"schemaArray": {
		"type": "array",
		"minItems": 1,
		"items": { "$ref": "#" }
	}}, "properties": {}}`
	const base = "https://json-schema.org/draft-07/schema"
	svc, l := newService(map[string]string{base: content, base + "#/definitions/schemaArray": content})
	doc := document(t, "# yaml-language-server: $schema="+base+"#/definitions/schemaArray", 0)
	rs, err := svc.GetSchemaForResource(context.Background(), "", doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.calls) != 2 {
		t.Fatalf("requests: %v", l.calls)
	}
	if !rs.Schema.HasType("array") {
		t.Fatalf("type: %v", rs.Schema.Type)
	}
	if len(rs.Errors) != 0 {
		t.Fatalf("errors: %v", rs.Errors)
	}
}

func TestModeline_FirstSchemaWins(t *testing.T) {
	doc := document(t, "# yaml-language-server: $schema=a.json $schema=b.json\nx: 1\n", 0)
	got, ok := schemaservice.SchemaFromModeline(doc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !ok || got != "a.json" {
		t.Fatalf("modeline: %q %v", got, ok)
	}
	if _, ok := schemaservice.SchemaFromModeline(document(t, "#yaml-language-server: $schema=a.json\n", 0), nil); ok {
		t.Fatalf("modeline needs a space after '#'")
	}
}

func TestModeline_RelativePath(t *testing.T) {
	svc, l := newService(map[string]string{"file:///work/schemas/app.json": `{"title": "App"}`})
	doc := document(t, "# yaml-language-server: $schema=schemas/app.json\nname: x\n", 0)
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///work/app.yaml", doc)
	if err != nil {
		t.Fatal(err)
	}
	if rs == nil || rs.Schema.Title != "App" {
		t.Fatalf("schema not loaded, requests: %v", l.calls)
	}
}

func TestPriority_HighestWins(t *testing.T) {
	svc, _ := newService(map[string]string{
		"file:///store.json":    `{"title": "store"}`,
		"file:///settings.json": `{"title": "settings"}`,
	})
	svc.Configure([]schemaservice.SchemaConfig{
		{URI: "file:///store.json", FileMatch: []string{"*.yaml"}, Priority: schemaservice.SchemaStore},
		{URI: "file:///settings.json", FileMatch: []string{"*.yaml"}, Priority: schemaservice.Settings},
	})
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///a.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Schema.Title != "settings" {
		t.Fatalf("title: %q", rs.Schema.Title)
	}
	if rs, _ := svc.GetSchemaForResource(context.Background(), "file:///a.json", nil); rs != nil {
		t.Fatalf("unmatched resource got a schema")
	}
}

func TestPriority_ModelineBeatsSettings(t *testing.T) {
	svc, _ := newService(map[string]string{
		"file:///settings.json": `{"title": "settings"}`,
		"file:///inline.json":   `{"title": "inline"}`,
	})
	svc.Configure([]schemaservice.SchemaConfig{
		{URI: "file:///settings.json", FileMatch: []string{"*.yaml"}, Priority: schemaservice.Settings},
	})
	doc := document(t, "# yaml-language-server: $schema=file:///inline.json\n", 0)
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///a.yaml", doc)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Schema.Title != "inline" {
		t.Fatalf("title: %q", rs.Schema.Title)
	}
}

func TestPriority_TiesCombine(t *testing.T) {
	svc, _ := newService(map[string]string{
		"file:///a.json": `{"title": "a"}`,
		"file:///b.json": `{"title": "b"}`,
	})
	svc.Configure([]schemaservice.SchemaConfig{
		{URI: "file:///a.json", FileMatch: []string{"*.yaml"}, Priority: schemaservice.Settings},
		{URI: "file:///b.json", FileMatch: []string{"*.yaml"}, Priority: schemaservice.Settings},
	})
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///x y.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := rs.Schema.URL; got != schemaservice.CombinedSchemaPrefix+"file%3A%2F%2F%2Fx%20y.yaml" {
		t.Fatalf("combined url: %s", got)
	}
	var titles []string
	for _, s := range rs.Schema.AllOf {
		titles = append(titles, s.Title)
	}
	if diff := cmp.Diff([]string{"a", "b"}, titles); diff != "" {
		t.Fatalf("allOf (-want +got):\n%s", diff)
	}
}

func TestConfigure_Replaces(t *testing.T) {
	svc, _ := newService(map[string]string{"file:///a.json": `{"title": "a"}`})
	cfg := []schemaservice.SchemaConfig{{URI: "file:///a.json", FileMatch: []string{"*.yaml"}, Priority: schemaservice.Settings}}
	svc.Configure(cfg)
	svc.Configure(cfg)
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///x.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Schema.Title != "a" || len(rs.Schema.AllOf) != 0 {
		t.Fatalf("configure appended associations: %+v", rs.Schema)
	}
}

func TestSaveSchema_ResourceID(t *testing.T) {
	svc, l := newService(nil)
	svc.SaveSchema("file:///a.yaml", mustSchema(t, `{"title": "saved"}`))
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///a.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Schema.Title != "saved" || len(l.calls) != 0 {
		t.Fatalf("saved schema: %+v, requests %v", rs.Schema, l.calls)
	}
	svc.SaveSchema("file:///a.yaml", mustSchema(t, `{"title": "again"}`))
	if rs, _ := svc.GetResolvedSchema(context.Background(), "file:///a.yaml"); rs.Schema.Title != "again" {
		t.Fatalf("save must override, got %q", rs.Schema.Title)
	}
	svc.DeleteSchemas([]string{"file:///a.yaml"})
	if rs, _ := svc.GetResolvedSchema(context.Background(), "file:///a.yaml"); rs != nil {
		t.Fatalf("deleted schema still resolves")
	}
}

func TestSchemaSequence(t *testing.T) {
	svc, _ := newService(nil)
	svc.SaveSchema("file:///multi.yaml", mustSchema(t, `{"schemaSequence": [{"title": "first"}, {"title": "second"}]}`))
	doc := document(t, "a: 1\n---\nb: 2\n", 1)
	rs, err := svc.GetSchemaForResource(context.Background(), "file:///multi.yaml", doc)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Schema.Title != "second" {
		t.Fatalf("title: %q", rs.Schema.Title)
	}
}

func TestCustomProvider(t *testing.T) {
	svc, _ := newService(map[string]string{
		"file:///a.json":     `{"title": "a"}`,
		"file:///b.json":     `{"title": "b"}`,
		"file:///assoc.json": `{"title": "assoc"}`,
	})
	svc.Configure([]schemaservice.SchemaConfig{{URI: "file:///assoc.json", FileMatch: []string{"*.yaml"}}})
	ctx := context.Background()

	cases := []struct {
		name     string
		provider schemaservice.CustomSchemaProvider
		check    func(*jsonschema.Schema) bool
	}{
		{
			name: "single",
			provider: func(context.Context, string) ([]string, error) {
				return []string{"file:///a.json"}, nil
			},
			check: func(s *jsonschema.Schema) bool { return s.Title == "a" && s.URL == "file:///a.json" },
		},
		{
			name: "several",
			provider: func(context.Context, string) ([]string, error) {
				return []string{"file:///a.json", "file:///b.json"}, nil
			},
			check: func(s *jsonschema.Schema) bool {
				return len(s.AnyOf) == 2 && s.AnyOf[0].Title == "a" && s.AnyOf[1].Title == "b"
			},
		},
		{
			name:     "empty",
			provider: func(context.Context, string) ([]string, error) { return nil, nil },
			check:    func(s *jsonschema.Schema) bool { return s.Title == "assoc" },
		},
		{
			name:     "error",
			provider: func(context.Context, string) ([]string, error) { return nil, errors.New("boom") },
			check:    func(s *jsonschema.Schema) bool { return s.Title == "assoc" },
		},
	}
	for _, tc := range cases {
		svc.RegisterCustomSchemaProvider(tc.provider)
		rs, err := svc.GetSchemaForResource(ctx, "file:///x.yaml", nil)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rs == nil || !tc.check(rs.Schema) {
			t.Fatalf("%s: unexpected schema %+v", tc.name, rs)
		}
	}
}

func TestResolve_References(t *testing.T) {
	svc, _ := newService(map[string]string{
		"file:///schemas/root.json": `{
			"properties": {
				"name": {"$ref": "defs.json#/definitions/name"},
				"age": {"$ref": "#/definitions/age"},
				"bad": {"$ref": "#/definitions/missing"}
			},
			"definitions": {"age": {"type": "integer", "description": "local"}}
		}`,
		"file:///schemas/defs.json": `{"definitions": {"name": {"type": "string", "title": "Name"}}}`,
	})
	rs, err := svc.GetResolvedSchema(context.Background(), "file:///schemas/root.json")
	if err != nil {
		t.Fatal(err)
	}
	if rs != nil {
		t.Fatalf("unregistered id must not resolve")
	}
	svc.RegisterExternalSchema("file:///schemas/root.json", nil, nil)
	rs, err = svc.GetResolvedSchema(context.Background(), "file:///schemas/root.json")
	if err != nil {
		t.Fatal(err)
	}

	name, _ := rs.Schema.Properties.Get("name")
	if name.Title != "Name" || !name.HasType("string") || name.URL != "file:///schemas/defs.json" {
		t.Fatalf("external ref: %+v", name)
	}
	if name.Ref != "" || name.ResolvedRef != "defs.json#/definitions/name" {
		t.Fatalf("ref bookkeeping: %q %q", name.Ref, name.ResolvedRef)
	}
	age, _ := rs.Schema.Properties.Get("age")
	if age.Description != "local" || !age.HasType("integer") {
		t.Fatalf("local ref: %+v", age)
	}
	want := []string{"$ref '/definitions/missing' in 'file:///schemas/root.json' can not be resolved."}
	if diff := cmp.Diff(want, rs.Errors); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
	re, ok := schemaservice.AsResolveErrors(fmt.Errorf("wrapped: %w", rs.Err()))
	if !ok || len(re) != 1 {
		t.Fatalf("AsResolveErrors: %v %v", re, ok)
	}
}

func TestResolve_RecursiveRef(t *testing.T) {
	svc, _ := newService(nil)
	svc.SaveSchema("file:///tree.json", mustSchema(t, `{
		"definitions": {"node": {"type": "object", "properties": {"children": {"type": "array", "items": {"$ref": "#/definitions/node"}}}}},
		"$ref": "#/definitions/node"
	}`))
	rs, err := svc.GetResolvedSchema(context.Background(), "file:///tree.json")
	if err != nil {
		t.Fatal(err)
	}
	children, ok := rs.Schema.Properties.Get("children")
	if !ok || children.Items == nil || !children.Items.HasType("object") {
		t.Fatalf("recursive ref not resolved: %+v", rs.Schema)
	}
	if len(rs.Errors) != 0 {
		t.Fatalf("errors: %v", rs.Errors)
	}
}

func TestResolve_ProblemLoadingRef(t *testing.T) {
	svc, _ := newService(nil)
	svc.SaveSchema("file:///root.json", mustSchema(t, `{"properties": {"a": {"$ref": "file:///missing.json#/x"}}}`))
	rs, err := svc.GetResolvedSchema(context.Background(), "file:///root.json")
	if err != nil {
		t.Fatal(err)
	}
	want := "Problems loading reference 'file:///missing.json#/x': Unable to load schema from '/missing.json': not found: file:///missing.json."
	if len(rs.Errors) == 0 || rs.Errors[0] != want {
		t.Fatalf("errors: %q", rs.Errors)
	}
}

func TestLoad_Formats(t *testing.T) {
	svc, _ := newService(map[string]string{
		"http://x/yaml.json": "title: From YAML\ntype: object\n",
		"http://x/bad.json":  "{: [",
	})
	svc.RegisterExternalSchema("http://x/yaml.json", nil, nil)
	svc.RegisterExternalSchema("http://x/bad.json", nil, nil)
	ctx := context.Background()

	rs, _ := svc.GetResolvedSchema(ctx, "http://x/yaml.json")
	if rs.Schema.Title != "From YAML" || len(rs.Errors) != 0 {
		t.Fatalf("yaml schema: %+v", rs)
	}
	rs, _ = svc.GetResolvedSchema(ctx, "http://x/bad.json")
	if len(rs.Errors) != 1 || !strings.HasPrefix(rs.Errors[0], "Unable to parse content from 'http://x/bad.json': ") {
		t.Fatalf("bad schema: %q", rs.Errors)
	}
}

func TestResetSchema(t *testing.T) {
	svc, l := newService(map[string]string{
		"file:///root.json": `{"properties": {"a": {"$ref": "file:///dep.json"}}}`,
		"file:///dep.json":  `{"title": "v1"}`,
	})
	svc.RegisterExternalSchema("file:///root.json", nil, nil)
	ctx := context.Background()
	if _, err := svc.GetResolvedSchema(ctx, "file:///root.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetResolvedSchema(ctx, "file:///root.json"); err != nil {
		t.Fatal(err)
	}
	if l.count() != 2 {
		t.Fatalf("requests before reset: %v", l.calls)
	}

	l.mu.Lock()
	l.files["file:///dep.json"] = `{"title": "v2"}`
	l.mu.Unlock()
	if !svc.ResetSchema("file:///dep.json") {
		t.Fatalf("reset reported no change")
	}
	rs, _ := svc.GetResolvedSchema(ctx, "file:///root.json")
	a, _ := rs.Schema.Properties.Get("a")
	if a.Title != "v2" || l.count() != 4 {
		t.Fatalf("after reset: title %q, requests %v", a.Title, l.calls)
	}
	if svc.ResetSchema("file:///unknown.json") {
		t.Fatalf("unknown uri reported a change")
	}
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	svc, l := newService(map[string]string{"file:///s.json": `{"title": "s"}`})
	svc.RegisterExternalSchema("file:///s.json", nil, nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rs, err := svc.GetResolvedSchema(context.Background(), "file:///s.json"); err != nil || rs.Schema.Title != "s" {
				t.Errorf("resolve: %v %+v", err, rs)
			}
		}()
	}
	wg.Wait()
	if l.count() != 1 {
		t.Fatalf("requests: %v", l.calls)
	}
}

func TestCancelledLoadIsNotCached(t *testing.T) {
	svc, l := newService(map[string]string{"file:///s.json": `{"title": "s"}`})
	svc.RegisterExternalSchema("file:///s.json", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.GetResolvedSchema(ctx, "file:///s.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err: %v", err)
	}
	rs, err := svc.GetResolvedSchema(context.Background(), "file:///s.json")
	if err != nil || rs.Schema.Title != "s" || l.count() != 2 {
		t.Fatalf("reload after cancel: %v %+v %v", err, rs, l.calls)
	}
}

func TestNormalizeID(t *testing.T) {
	cases := map[string]string{
		"HTTP://Example.COM/Path/S.json": "http://example.com/Path/S.json",
		"http://json-schema.org/schema#": "http://json-schema.org/schema#",
		"relative/path.json":             "relative/path.json",
		"file:///Work/A.json":            "file:///Work/A.json",
	}
	for in, want := range cases {
		if got := schemaservice.NormalizeID(in); got != want {
			t.Fatalf("NormalizeID(%q)=%q, want %q", in, got, want)
		}
	}
}
