package schemaservice

import (
	"context"
	"errors"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	json "github.com/goccy/go-json"

	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

// SchemaAdditions sets Key to Content in the object found at Path of the
// schema registered as Schema.
type SchemaAdditions struct {
	Schema  string
	Path    string
	Key     string
	Content any
}

// SchemaDeletions removes Key from the object found at Path of the schema
// registered as Schema.
type SchemaDeletions struct {
	Schema string
	Path   string
	Key    string
}

// AddContent applies a and saves the result under a.Schema. Unknown schemas
// are ignored.
func (s *Service) AddContent(ctx context.Context, a SchemaAdditions) error {
	value, err := json.Marshal(a.Content)
	if err != nil {
		return err
	}
	return s.modify(ctx, a.Schema, a.Path, a.Key, func(target any, pointer string) []operation {
		op := "add"
		if arr, ok := target.([]any); ok {
			if i, err := strconv.Atoi(a.Key); err != nil || i < 0 || i >= len(arr) {
				pointer = pointer[:strings.LastIndexByte(pointer, '/')] + "/-"
			} else {
				op = "replace"
			}
		}
		return []operation{{Op: op, Path: pointer, Value: value}}
	})
}

// DeleteContent applies d and saves the result under d.Schema. Unknown
// schemas are ignored and a missing key is not an error.
func (s *Service) DeleteContent(ctx context.Context, d SchemaDeletions) error {
	return s.modify(ctx, d.Schema, d.Path, d.Key, func(target any, pointer string) []operation {
		switch t := target.(type) {
		case map[string]any:
			if _, ok := t[d.Key]; !ok {
				return nil
			}
		case []any:
			if i, err := strconv.Atoi(d.Key); err != nil || i < 0 || i >= len(t) {
				return nil
			}
		default:
			return nil
		}
		return []operation{{Op: "remove", Path: pointer}}
	})
}

type operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// modify patches the resolved form of id, or its unresolved form when the
// resolved graph is cyclic, and saves the result.
func (s *Service) modify(ctx context.Context, id, path, key string, ops func(target any, pointer string) []operation) error {
	rs, err := s.GetResolvedSchema(ctx, id)
	if err != nil || rs == nil {
		return err
	}
	base := rs.Schema
	doc, err := base.MarshalJSON()
	if errors.Is(err, jsonschema.ErrCyclic) {
		base = s.handleFor(id).unresolved(ctx).Schema
		doc, err = base.MarshalJSON()
	}
	if err != nil {
		return err
	}

	var tree any
	if err := json.Unmarshal(doc, &tree); err != nil {
		return err
	}
	target, pointer, err := walk(tree, path)
	if err != nil {
		return err
	}
	list := ops(target, pointer+"/"+jsonschema.EscapePointer(key))
	patched := base
	if len(list) > 0 {
		raw, err := json.Marshal(list)
		if err != nil {
			return err
		}
		patch, err := jsonpatch.DecodePatch(raw)
		if err != nil {
			return err
		}
		if patched, err = jsonschema.ApplyPatch(base, patch); err != nil {
			return err
		}
	}
	s.SaveSchema(id, patched)
	return nil
}

// walk follows the '/'-separated path through tree. Empty segments are
// skipped. It returns the value found and its JSON pointer.
func walk(tree any, path string) (any, string, error) {
	cur := tree
	var pointer strings.Builder
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		switch t := cur.(type) {
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil, "", &PathError{Path: path, Segment: seg, Key: i18n.PathExpectsNumber}
			}
			if i < 0 || i >= len(t) {
				return nil, "", &PathError{Path: path, Segment: seg, Key: i18n.PathMissing}
			}
			cur = t[i]
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, "", &PathError{Path: path, Segment: seg, Key: i18n.PathMissing}
			}
			cur = next
		default:
			return nil, "", &PathError{Path: path, Segment: seg, Key: i18n.PathExpectsString}
		}
		pointer.WriteByte('/')
		pointer.WriteString(jsonschema.EscapePointer(seg))
	}
	if _, ok := cur.(map[string]any); !ok {
		if _, ok := cur.([]any); !ok {
			return nil, "", &PathError{Path: path, Segment: path, Key: i18n.PathExpectsString}
		}
	}
	return cur, pointer.String(), nil
}
