package jsonschema

import (
	"strconv"
	"strings"
)

// SplitPointer splits a JSON pointer ("/definitions/a~1b") into unescaped
// segments. A leading "#" is accepted.
func SplitPointer(p string) []string {
	p = strings.TrimPrefix(p, "#")
	if p == "" || p == "/" {
		return nil
	}
	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = UnescapePointer(part)
	}
	return parts
}

// UnescapePointer decodes ~1 and ~0 in a pointer segment.
func UnescapePointer(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

// EscapePointer encodes a key for use as a pointer segment.
func EscapePointer(seg string) string {
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~", "~0"), "/", "~1")
}

// Lookup follows a JSON pointer through the schema keywords. Pointers are
// interpreted against schema structure: "/properties/name", "/items/0",
// "/definitions/x". Pointers into unknown keywords are resolved through the
// extension values when they hold a schema.
func (s *Schema) Lookup(pointer string) (*Schema, bool) {
	segs := SplitPointer(pointer)
	cur := s
	for i := 0; i < len(segs); i++ {
		if cur == nil {
			return nil, false
		}
		cur = cur.Effective()
		seg := segs[i]
		next := func() (string, bool) {
			if i+1 >= len(segs) {
				return "", false
			}
			i++
			return segs[i], true
		}
		switch seg {
		case "properties", "patternProperties", "definitions", "$defs":
			key, ok := next()
			if !ok {
				return nil, false
			}
			var m *OrderedMap[*Schema]
			switch seg {
			case "properties":
				m = cur.Properties
			case "patternProperties":
				m = cur.PatternProperties
			case "definitions":
				m = cur.Definitions
			default:
				m = cur.Defs
			}
			c, found := m.Get(key)
			if !found {
				return nil, false
			}
			cur = c
		case "dependencies":
			key, ok := next()
			if !ok {
				return nil, false
			}
			d, found := cur.Dependencies.Get(key)
			if !found || d.Schema == nil {
				return nil, false
			}
			cur = d.Schema
		case "items":
			if cur.ItemsList != nil {
				key, ok := next()
				if !ok {
					return nil, false
				}
				c, found := index(cur.ItemsList, key)
				if !found {
					return nil, false
				}
				cur = c
			} else {
				cur = cur.Items
			}
		case "allOf", "anyOf", "oneOf", "schemaSequence":
			key, ok := next()
			if !ok {
				return nil, false
			}
			var list []*Schema
			switch seg {
			case "allOf":
				list = cur.AllOf
			case "anyOf":
				list = cur.AnyOf
			case "oneOf":
				list = cur.OneOf
			default:
				list = cur.SchemaSequence
			}
			c, found := index(list, key)
			if !found {
				return nil, false
			}
			cur = c
		case "additionalProperties":
			cur = cur.AdditionalProperties
		case "additionalItems":
			cur = cur.AdditionalItems
		case "contains":
			cur = cur.Contains
		case "propertyNames":
			cur = cur.PropertyNames
		case "not":
			cur = cur.Not
		case "if":
			cur = cur.If
		case "then":
			cur = cur.Then
		case "else":
			cur = cur.Else
		default:
			v, found := cur.Extensions.Get(seg)
			if !found {
				return nil, false
			}
			for i+1 < len(segs) {
				i++
				v, found = walkValue(v, segs[i])
				if !found {
					return nil, false
				}
			}
			out, err := FromValue(v)
			if err != nil {
				return nil, false
			}
			return out, true
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

func index(list []*Schema, key string) (*Schema, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 || n >= len(list) {
		return nil, false
	}
	return list[n], true
}

func walkValue(v any, seg string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		c, ok := t[seg]
		return c, ok
	case []any:
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 || n >= len(t) {
			return nil, false
		}
		return t[n], true
	}
	return nil, false
}
