package kubeopenapi

import (
	"strconv"
	"strings"
)

// schema-valued keywords, by shape.
var (
	schemaMapKeys  = []string{"properties", "patternProperties", "definitions", "$defs"}
	schemaListKeys = []string{"allOf", "anyOf", "oneOf"}
	schemaKeys     = []string{"not", "additionalItems", "contains", "propertyNames"}
)

// convert rewrites the structural-schema extensions of a Kubernetes OpenAPI v3
// schema into plain JSON Schema. The input is not modified.
func convert(s map[string]any, path string, opts Options, d *simpleDiag) map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range schemaMapKeys {
		if m, ok := s[k].(map[string]any); ok {
			cm := make(map[string]any, len(m))
			for name, raw := range m {
				if ps, ok := raw.(map[string]any); ok {
					cm[name] = convert(ps, path+"/"+k+"/"+name, opts, d)
				} else {
					cm[name] = raw
				}
			}
			out[k] = cm
		}
	}
	for _, k := range schemaListKeys {
		if list, ok := s[k].([]any); ok {
			out[k] = convertList(list, path+"/"+k, opts, d)
		}
	}
	for _, k := range schemaKeys {
		if m, ok := s[k].(map[string]any); ok {
			out[k] = convert(m, path+"/"+k, opts, d)
		}
	}
	switch it := s["items"].(type) {
	case map[string]any:
		out["items"] = convert(it, path+"/items", opts, d)
	case []any:
		out["items"] = convertList(it, path+"/items", opts, d)
	}
	if ap, ok := s["additionalProperties"].(map[string]any); ok {
		out["additionalProperties"] = convert(ap, path+"/additionalProperties", opts, d)
	}

	if flag(s, "x-kubernetes-int-or-string") || s["format"] == "int-or-string" {
		intOrString(out, path, d)
	}
	if flag(s, "nullable") {
		nullable(out)
	}
	preserve := flag(s, "x-kubernetes-preserve-unknown-fields")
	if preserve {
		if _, set := s["additionalProperties"]; !set {
			out["additionalProperties"] = true
		}
	}
	if flag(s, "x-kubernetes-embedded-resource") {
		embeddedResource(out)
	}
	switch s["x-kubernetes-list-type"] {
	case "set":
		out["uniqueItems"] = true
	case "map":
		listMap(out, path, d)
	}
	if opts.Strict && !preserve && out["properties"] != nil {
		if _, set := out["additionalProperties"]; !set {
			out["additionalProperties"] = false
		}
	}
	return out
}

func convertList(list []any, path string, opts Options, d *simpleDiag) []any {
	out := make([]any, len(list))
	for i, raw := range list {
		if m, ok := raw.(map[string]any); ok {
			out[i] = convert(m, path+"/"+strconv.Itoa(i), opts, d)
		} else {
			out[i] = raw
		}
	}
	return out
}

func flag(s map[string]any, key string) bool {
	b, _ := s[key].(bool)
	return b
}

// intOrString replaces the type with an integer or string alternative.
func intOrString(s map[string]any, path string, d *simpleDiag) {
	delete(s, "type")
	if s["format"] == "int-or-string" {
		delete(s, "format")
	}
	alt := []any{map[string]any{"type": "integer"}, map[string]any{"type": "string"}}
	if existing, ok := s["anyOf"].([]any); ok {
		// Both constraints must hold.
		s["allOf"] = append(asList(s["allOf"]), map[string]any{"anyOf": existing})
		d.warnf("%s: int-or-string combined with anyOf", at(path))
	}
	s["anyOf"] = alt
}

// nullable adds null to the type and the enum.
func nullable(s map[string]any) {
	switch t := s["type"].(type) {
	case string:
		s["type"] = []any{t, "null"}
	case []any:
		if !contains(t, "null") {
			s["type"] = append(t, "null")
		}
	}
	if enum, ok := s["enum"].([]any); ok && !contains(enum, nil) {
		s["enum"] = append(enum, nil)
	}
	if alts, ok := s["anyOf"].([]any); ok {
		s["anyOf"] = append(alts, map[string]any{"type": "null"})
	}
}

// embeddedResource declares the fields every embedded object carries.
func embeddedResource(s map[string]any) {
	props, _ := s["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	for k, typ := range map[string]string{"apiVersion": "string", "kind": "string", "metadata": "object"} {
		if _, ok := props[k]; !ok {
			props[k] = map[string]any{"type": typ}
		}
	}
	s["properties"] = props
	s["required"] = addRequired(asList(s["required"]), "apiVersion", "kind", "metadata")
}

// listMap requires the map keys on every item. Uniqueness by key has no JSON
// Schema equivalent.
func listMap(s map[string]any, path string, d *simpleDiag) {
	keys := asList(s["x-kubernetes-list-map-keys"])
	items, _ := s["items"].(map[string]any)
	if len(keys) == 0 || items == nil {
		d.warnf("%s: x-kubernetes-list-type=map without map keys or items", at(path))
		return
	}
	props, _ := items["properties"].(map[string]any)
	var names []string
	for _, k := range keys {
		name, ok := k.(string)
		if !ok {
			continue
		}
		if p, ok := props[name].(map[string]any); ok && p["default"] != nil {
			continue
		}
		names = append(names, name)
	}
	items["required"] = addRequired(asList(items["required"]), names...)
	d.warnf("%s: uniqueness of map keys %v is not checked", at(path), keys)
}

func addRequired(required []any, names ...string) []any {
	for _, n := range names {
		if !contains(required, n) {
			required = append(required, n)
		}
	}
	return required
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func contains(list []any, v any) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func at(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// checkRefs warns about references that do not point into the imported
// document.
func checkRefs(node any, root map[string]any, d *simpleDiag) {
	switch t := node.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			if !strings.HasPrefix(ref, "#") {
				d.warnf("$ref %q is not local and is resolved when the schema is used", ref)
			} else if lookup(root, ref[1:]) == nil {
				d.warnf("$ref %q does not resolve", ref)
			}
		}
		for _, v := range t {
			checkRefs(v, root, d)
		}
	case []any:
		for _, v := range t {
			checkRefs(v, root, d)
		}
	}
}

// lookup follows a JSON pointer through decoded JSON values.
func lookup(root any, pointer string) any {
	if pointer == "" {
		return root
	}
	cur := root
	for _, seg := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		switch t := cur.(type) {
		case map[string]any:
			cur = t[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil
			}
			cur = t[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}
