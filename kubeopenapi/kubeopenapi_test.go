package kubeopenapi_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/yamlls/jsonschema"
	"github.com/reoring/yamlls/kubeopenapi"
)

const widgetCRD = `apiVersion: v1
kind: ConfigMap
metadata:
  name: unrelated
---
apiVersion: apiextensions.k8s.io/v1
kind: CustomResourceDefinition
metadata:
  name: widgets.demo.example.com
spec:
  group: demo.example.com
  names:
    kind: Widget
    plural: widgets
  scope: Namespaced
  versions:
    - name: v1alpha1
      served: false
      storage: false
      schema:
        openAPIV3Schema:
          type: object
    - name: v1
      served: true
      storage: true
      schema:
        openAPIV3Schema:
          type: object
          required: [spec]
          properties:
            apiVersion:
              type: string
              description: APIVersion defines the versioned schema of this representation of an object.
            kind:
              type: string
            spec:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                note:
                  type: string
                  nullable: true
                replicas:
                  x-kubernetes-int-or-string: true
                template:
                  type: object
                  x-kubernetes-embedded-resource: true
                  x-kubernetes-preserve-unknown-fields: true
                tags:
                  type: array
                  x-kubernetes-list-type: set
                  items:
                    type: string
                ports:
                  type: array
                  x-kubernetes-list-type: map
                  x-kubernetes-list-map-keys: [containerPort, protocol]
                  items:
                    type: object
                    properties:
                      containerPort:
                        type: integer
                      protocol:
                        type: string
                        default: TCP
`

func prop(t *testing.T, s *jsonschema.Schema, path ...string) *jsonschema.Schema {
	t.Helper()
	for _, k := range path {
		if s.Properties == nil {
			t.Fatalf("no properties above %q", k)
		}
		next, ok := s.Properties.Get(k)
		if !ok {
			t.Fatalf("missing property %q", k)
		}
		s = next
	}
	return s
}

func TestImportYAMLForCRDKind(t *testing.T) {
	s, diag, err := kubeopenapi.ImportYAMLForCRDKind([]byte(widgetCRD), "Widget", kubeopenapi.Options{Strict: true})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if s.Title != "Widget" {
		t.Fatalf("title = %q", s.Title)
	}
	if diff := cmp.Diff([]string{"spec", "apiVersion", "kind"}, s.Required); diff != "" {
		t.Fatalf("required (-want +got):\n%s", diff)
	}
	apiVersion := prop(t, s, "apiVersion")
	if diff := cmp.Diff([]any{"demo.example.com/v1"}, apiVersion.Enum); diff != "" {
		t.Fatalf("apiVersion enum (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(apiVersion.Description, "APIVersion defines") {
		t.Fatalf("apiVersion description lost: %q", apiVersion.Description)
	}
	if diff := cmp.Diff([]any{"Widget"}, prop(t, s, "kind").Enum); diff != "" {
		t.Fatalf("kind enum (-want +got):\n%s", diff)
	}
	if m := prop(t, s, "metadata"); m.SingleType() != "object" {
		t.Fatalf("metadata type = %v", m.Type)
	}

	spec := prop(t, s, "spec")
	if spec.AdditionalProperties == nil || spec.AdditionalProperties.Bool == nil || *spec.AdditionalProperties.Bool {
		t.Fatalf("strict import must close spec")
	}
	if diff := cmp.Diff([]string{"string", "null"}, prop(t, spec, "note").Type); diff != "" {
		t.Fatalf("nullable type (-want +got):\n%s", diff)
	}
	replicas := prop(t, spec, "replicas")
	if len(replicas.Type) != 0 || len(replicas.AnyOf) != 2 || replicas.AnyOf[0].SingleType() != "integer" || replicas.AnyOf[1].SingleType() != "string" {
		t.Fatalf("int-or-string: type %v anyOf %d", replicas.Type, len(replicas.AnyOf))
	}
	template := prop(t, spec, "template")
	if diff := cmp.Diff([]string{"apiVersion", "kind", "metadata"}, template.Required); diff != "" {
		t.Fatalf("embedded resource required (-want +got):\n%s", diff)
	}
	if template.AdditionalProperties == nil || template.AdditionalProperties.Bool == nil || !*template.AdditionalProperties.Bool {
		t.Fatalf("preserved unknown fields must stay open")
	}
	if !prop(t, spec, "tags").UniqueItems {
		t.Fatalf("set list must have unique items")
	}
	if diff := cmp.Diff([]string{"containerPort"}, prop(t, spec, "ports").Items.Required); diff != "" {
		t.Fatalf("map list keys (-want +got):\n%s", diff)
	}
	if !diag.HasWarnings() || !strings.Contains(diag.Warnings()[0], "/properties/spec/properties/ports") {
		t.Fatalf("warnings: %v", diag.Warnings())
	}
}

func TestImportYAMLForCRDName_Version(t *testing.T) {
	s, _, err := kubeopenapi.ImportYAMLForCRDName([]byte(widgetCRD), "widgets.demo.example.com", kubeopenapi.Options{Version: "v1alpha1"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if diff := cmp.Diff([]any{"demo.example.com/v1alpha1"}, prop(t, s, "apiVersion").Enum); diff != "" {
		t.Fatalf("apiVersion enum (-want +got):\n%s", diff)
	}
	if _, ok := s.Properties.Get("spec"); ok {
		t.Fatalf("v1alpha1 has no spec property")
	}
}

func TestImportYAML_NotFound(t *testing.T) {
	if _, _, err := kubeopenapi.ImportYAMLForCRDKind([]byte(widgetCRD), "Gadget", kubeopenapi.Options{}); err == nil {
		t.Fatalf("expected an error for a missing kind")
	}
	var de *kubeopenapi.DuplicateKeyError
	_, _, err := kubeopenapi.ImportYAMLForCRDKind([]byte("kind: A\nkind: B\n"), "A", kubeopenapi.Options{})
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
}

func TestReadBundle(t *testing.T) {
	crds, err := kubeopenapi.ReadBundle([]byte(widgetCRD))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(crds) != 1 {
		t.Fatalf("crds: %d", len(crds))
	}
	c := crds[0]
	if c.Name != "widgets.demo.example.com" || c.Group != "demo.example.com" || c.Kind != "Widget" {
		t.Fatalf("crd: %+v", c)
	}
	if diff := cmp.Diff([]string{"v1alpha1", "v1"}, c.Versions); diff != "" {
		t.Fatalf("versions (-want +got):\n%s", diff)
	}
}

func TestImport_BareSchema(t *testing.T) {
	s, _, err := kubeopenapi.Import([]byte(`{"type":"object","properties":{"a":{"$ref":"#/definitions/missing"}}}`), kubeopenapi.Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if s.Properties == nil || len(s.Required) != 0 {
		t.Fatalf("bare schema must not get an identity: %+v", s.Required)
	}
	_, diag, _ := kubeopenapi.Import(map[string]any{"properties": map[string]any{"a": map[string]any{"$ref": "#/definitions/missing"}}}, kubeopenapi.Options{})
	if !diag.HasWarnings() {
		t.Fatalf("expected a warning for the dangling $ref")
	}
	if _, _, err := kubeopenapi.Import(nil, kubeopenapi.Options{}); err == nil {
		t.Fatalf("expected an error for nil input")
	}
}

func TestAlias(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"kubernetes", kubeopenapi.SchemaURL},
		{"  Kubernetes ", kubeopenapi.SchemaURL},
		{"https://example.com/s.json", "https://example.com/s.json"},
	}
	for _, tc := range cases {
		if got := kubeopenapi.ResolveAlias(tc.in); got != tc.want {
			t.Fatalf("ResolveAlias(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if !kubeopenapi.IsKubernetesSchema(kubeopenapi.SchemaURL) || kubeopenapi.IsKubernetesSchema("https://example.com/s.json") {
		t.Fatalf("IsKubernetesSchema")
	}
}
