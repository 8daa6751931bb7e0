// Package kubeopenapi holds the Kubernetes specifics of the language service:
// the built-in Kubernetes schema, the "kubernetes" schema alias and the import
// of CustomResourceDefinition schemas as JSON Schema.
package kubeopenapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/reoring/yamlls/jsonschema"
)

// SchemaURL is the schema used for files associated with the Kubernetes
// alias.
const SchemaURL = "https://raw.githubusercontent.com/yannh/kubernetes-json-schema/master/v1.20.5-standalone-strict/all.json"

// Alias is the schema URI setting that stands for SchemaURL.
const Alias = "kubernetes"

// ResolveAlias maps the Kubernetes alias to SchemaURL and returns any other
// URI unchanged.
func ResolveAlias(uri string) string {
	if IsAlias(uri) {
		return SchemaURL
	}
	return uri
}

// IsAlias reports whether uri is the Kubernetes alias, ignoring case and
// surrounding blanks.
func IsAlias(uri string) bool {
	return strings.ToLower(strings.TrimSpace(uri)) == Alias
}

// IsKubernetesSchema reports whether uri selects Kubernetes mode.
func IsKubernetesSchema(uri string) bool {
	return IsAlias(uri) || strings.TrimSpace(uri) == SchemaURL
}

// Import converts the schema of a CRD into a JSON Schema. crd is raw JSON, a
// decoded map, or a bare openAPIV3Schema.
func Import(crd any, opts Options) (*jsonschema.Schema, Diag, error) {
	d := &simpleDiag{}
	if crd == nil {
		return nil, d, errors.New("kubeopenapi: nil schema")
	}
	var root map[string]any
	switch t := crd.(type) {
	case []byte:
		if err := json.Unmarshal(t, &root); err != nil {
			return nil, d, fmt.Errorf("kubeopenapi: invalid JSON: %w", err)
		}
	case map[string]any:
		root = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, d, fmt.Errorf("kubeopenapi: cannot marshal input: %w", err)
		}
		if err := json.Unmarshal(b, &root); err != nil {
			return nil, d, fmt.Errorf("kubeopenapi: invalid marshaled JSON: %w", err)
		}
	}

	id := crdIdentity(root, opts.Version)
	schema := root
	if oas, ok := root["openAPIV3Schema"].(map[string]any); ok {
		schema = oas
	} else if oas := unwrapCRDSchema(root, opts.Version); oas != nil {
		schema = oas
	} else if root["kind"] == "CustomResourceDefinition" {
		return nil, d, errors.New("kubeopenapi: CRD has no openAPIV3Schema")
	}

	out := convert(schema, "", opts, d)
	if id.kind != "" && !opts.SkipIdentity {
		applyIdentity(out, id)
		if out["title"] == nil {
			out["title"] = id.kind
		}
	}
	checkRefs(out, out, d)

	b, err := json.Marshal(out)
	if err != nil {
		return nil, d, fmt.Errorf("kubeopenapi: encode schema: %w", err)
	}
	s, err := jsonschema.ParseJSON(b)
	if err != nil {
		return nil, d, fmt.Errorf("kubeopenapi: %w", err)
	}
	return s, d, nil
}

// identity is the group, version and kind a CRD defines.
type identity struct {
	group   string
	version string
	kind    string
}

func (id identity) apiVersion() string {
	if id.group == "" {
		return id.version
	}
	return id.group + "/" + id.version
}

func crdIdentity(root map[string]any, version string) identity {
	spec, _ := root["spec"].(map[string]any)
	if spec == nil {
		return identity{}
	}
	var id identity
	id.group, _ = spec["group"].(string)
	if names, ok := spec["names"].(map[string]any); ok {
		id.kind, _ = names["kind"].(string)
	}
	if v, ok := selectVersion(spec, version); ok {
		id.version, _ = v["name"].(string)
	} else {
		id.version, _ = spec["version"].(string)
	}
	return id
}

// selectVersion returns the named entry of spec.versions, else the first
// served one, else the first one.
func selectVersion(spec map[string]any, name string) (map[string]any, bool) {
	vers, _ := spec["versions"].([]any)
	var first, served map[string]any
	for _, v := range vers {
		vm, _ := v.(map[string]any)
		if vm == nil {
			continue
		}
		if name != "" {
			if n, _ := vm["name"].(string); n == name {
				return vm, true
			}
			continue
		}
		if first == nil {
			first = vm
		}
		isServed := true
		if sv, ok := vm["served"].(bool); ok {
			isServed = sv
		}
		if isServed && served == nil {
			served = vm
		}
	}
	switch {
	case served != nil:
		return served, true
	case first != nil:
		return first, true
	}
	return nil, false
}

// unwrapCRDSchema extracts openAPIV3Schema from spec.versions[].schema, then
// from the legacy spec.validation.
func unwrapCRDSchema(root map[string]any, version string) map[string]any {
	spec, ok := root["spec"].(map[string]any)
	if !ok {
		return nil
	}
	if v, ok := selectVersion(spec, version); ok {
		if sch, ok := v["schema"].(map[string]any); ok {
			if oas, ok := sch["openAPIV3Schema"].(map[string]any); ok {
				return oas
			}
		}
	}
	if val, ok := spec["validation"].(map[string]any); ok {
		if oas, ok := val["openAPIV3Schema"].(map[string]any); ok {
			return oas
		}
	}
	return nil
}

// applyIdentity pins apiVersion and kind to the values the CRD serves and
// makes them required.
func applyIdentity(schema map[string]any, id identity) {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
		schema["properties"] = props
	}
	pin := func(key, value string) {
		if value == "" {
			return
		}
		p, _ := props[key].(map[string]any)
		if p == nil {
			p = map[string]any{"type": "string"}
			props[key] = p
		}
		p["enum"] = []any{value}
	}
	pin("apiVersion", id.apiVersion())
	pin("kind", id.kind)
	if _, ok := props["metadata"]; !ok {
		props["metadata"] = map[string]any{"type": "object"}
	}

	required, _ := schema["required"].([]any)
	have := map[string]bool{}
	for _, r := range required {
		if s, ok := r.(string); ok {
			have[s] = true
		}
	}
	for _, k := range []string{"apiVersion", "kind"} {
		if !have[k] {
			required = append(required, k)
		}
	}
	schema["required"] = required
}
