package jsonschema

import (
	jsonpatch "github.com/evanphx/json-patch"
)

// ApplyPatch applies an RFC 6902 patch to the JSON form of s and decodes the
// result. Keys keep their original order; keys added by the patch follow the
// existing ones.
func ApplyPatch(s *Schema, patch jsonpatch.Patch) (*Schema, error) {
	doc, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out, err := patch.Apply(doc)
	if err != nil {
		return nil, err
	}
	before, err := decodeJSON(doc)
	if err != nil {
		return nil, err
	}
	after, err := decodeJSON(out)
	if err != nil {
		return nil, err
	}
	return fromValue(keepOrder(after, before))
}

func keepOrder(after, before any) any {
	switch a := after.(type) {
	case *object:
		b, ok := before.(*object)
		if !ok {
			return a
		}
		keys := make([]string, 0, len(a.keys))
		for _, k := range b.keys {
			if a.has(k) {
				keys = append(keys, k)
			}
		}
		for _, k := range a.keys {
			if !b.has(k) {
				keys = append(keys, k)
			}
		}
		a.keys = keys
		for k, v := range a.vals {
			a.vals[k] = keepOrder(v, b.vals[k])
		}
		return a
	case []any:
		b, _ := before.([]any)
		for i := range a {
			if i < len(b) {
				a[i] = keepOrder(a[i], b[i])
			}
		}
		return a
	}
	return after
}
