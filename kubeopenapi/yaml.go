package kubeopenapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/reoring/yamlls/jsonschema"
)

// CRD is one CustomResourceDefinition read from a YAML bundle.
type CRD struct {
	Name     string // metadata.name
	Group    string
	Kind     string
	Versions []string
	// Object is the whole definition as decoded JSON values.
	Object map[string]any
}

// ReadBundle returns every CustomResourceDefinition of a multi-document YAML
// stream in source order. Duplicate keys fail with *DuplicateKeyError.
func ReadBundle(data []byte) ([]CRD, error) {
	r := NewStrictYAMLReader(bytes.NewReader(data))
	var out []CRD
	for {
		v, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		m, _ := v.(map[string]any)
		if m == nil {
			continue
		}
		if k, _ := m["kind"].(string); k != "CustomResourceDefinition" {
			continue
		}
		out = append(out, crdOf(m))
	}
}

func crdOf(m map[string]any) CRD {
	c := CRD{Object: m}
	if meta, ok := m["metadata"].(map[string]any); ok {
		c.Name, _ = meta["name"].(string)
	}
	spec, _ := m["spec"].(map[string]any)
	if spec == nil {
		return c
	}
	c.Group, _ = spec["group"].(string)
	if names, ok := spec["names"].(map[string]any); ok {
		c.Kind, _ = names["kind"].(string)
	}
	for _, v := range asList(spec["versions"]) {
		if vm, ok := v.(map[string]any); ok {
			if n, ok := vm["name"].(string); ok {
				c.Versions = append(c.Versions, n)
			}
		}
	}
	if len(c.Versions) == 0 {
		if v, ok := spec["version"].(string); ok {
			c.Versions = []string{v}
		}
	}
	return c
}

// ImportYAMLForCRDKind imports the first CustomResourceDefinition of a YAML
// bundle whose spec.names.kind is kind.
func ImportYAMLForCRDKind(data []byte, kind string, opts Options) (*jsonschema.Schema, Diag, error) {
	return importWhere(data, opts, func(c CRD) bool { return c.Kind == kind }, "kind "+kind)
}

// ImportYAMLForCRDName imports the CustomResourceDefinition of a YAML bundle
// whose metadata.name is name.
func ImportYAMLForCRDName(data []byte, name string, opts Options) (*jsonschema.Schema, Diag, error) {
	return importWhere(data, opts, func(c CRD) bool { return c.Name == name }, "name "+name)
}

func importWhere(data []byte, opts Options, match func(CRD) bool, what string) (*jsonschema.Schema, Diag, error) {
	crds, err := ReadBundle(data)
	if err != nil {
		return nil, &simpleDiag{}, err
	}
	for _, c := range crds {
		if match(c) {
			return Import(c.Object, opts)
		}
	}
	return nil, &simpleDiag{}, fmt.Errorf("kubeopenapi: no CRD with %s in YAML bundle", what)
}
