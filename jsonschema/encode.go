package jsonschema

import (
	"bytes"
	"errors"

	json "github.com/goccy/go-json"
)

// ErrCyclic is returned when serializing a schema graph that contains a cycle.
var ErrCyclic = errors.New("jsonschema: cyclic schema graph")

// MarshalJSON writes s with keywords in a stable order followed by extensions.
func (s *Schema) MarshalJSON() ([]byte, error) {
	v := toValue(s, map[*Schema]bool{})
	if v == errCycleMarker {
		return nil, ErrCyclic
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of an acyclic schema. The URL of the root is kept.
func (s *Schema) Clone() (*Schema, error) {
	if s == nil {
		return nil, nil
	}
	v := toValue(s, map[*Schema]bool{})
	if v == errCycleMarker {
		return nil, ErrCyclic
	}
	out, err := fromValue(v)
	if err != nil {
		return nil, err
	}
	out.URL = s.URL
	return out, nil
}

type cycleMarker struct{}

var errCycleMarker any = &cycleMarker{}

func toValue(s *Schema, visiting map[*Schema]bool) any {
	if s == nil {
		return nil
	}
	if s.Bool != nil {
		return *s.Bool
	}
	if visiting[s] {
		return errCycleMarker
	}
	visiting[s] = true
	defer delete(visiting, s)

	o := &object{vals: map[string]any{}}
	cyclic := false
	sub := func(k string, c *Schema) {
		if c == nil {
			return
		}
		v := toValue(c, visiting)
		if v == errCycleMarker {
			cyclic = true
		}
		o.set(k, v)
	}
	list := func(k string, cs []*Schema) {
		if cs == nil {
			return
		}
		arr := make([]any, len(cs))
		for i, c := range cs {
			arr[i] = toValue(c, visiting)
			if arr[i] == errCycleMarker {
				cyclic = true
			}
		}
		o.set(k, arr)
	}
	smap := func(k string, m *OrderedMap[*Schema]) {
		if m == nil {
			return
		}
		mo := &object{vals: map[string]any{}}
		for name, c := range m.All() {
			v := toValue(c, visiting)
			if v == errCycleMarker {
				cyclic = true
			}
			mo.set(name, v)
		}
		o.set(k, mo)
	}
	str := func(k, v string) {
		if v != "" {
			o.set(k, v)
		}
	}
	num := func(k string, f *float64) {
		if f != nil {
			o.set(k, *f)
		}
	}
	integer := func(k string, n *int) {
		if n != nil {
			o.set(k, float64(*n))
		}
	}
	strs := func(k string, ss []string) {
		if ss == nil {
			return
		}
		arr := make([]any, len(ss))
		for i := range ss {
			arr[i] = ss[i]
		}
		o.set(k, arr)
	}
	bound := func(k string, b *Bound) {
		if b == nil {
			return
		}
		if b.Number != nil {
			o.set(k, *b.Number)
		} else {
			o.set(k, b.Flag)
		}
	}

	str("$schema", s.Dialect)
	str("$id", s.ID)
	str("id", s.LegacyID)
	str("$ref", s.Ref)
	str("_$ref", s.ResolvedRef)
	str("$comment", s.Comment)
	str("title", s.Title)
	str("description", s.Description)
	str("markdownDescription", s.MarkdownDescription)
	str("deprecationMessage", s.DeprecationMessage)
	str("errorMessage", s.ErrorMessage)
	str("patternErrorMessage", s.PatternErrorMessage)
	if s.DoNotSuggest {
		o.set("doNotSuggest", true)
	}
	switch {
	case s.TypeList:
		strs("type", s.Type)
	case len(s.Type) == 1:
		o.set("type", s.Type[0])
	}
	if s.HasDefault {
		o.set("default", s.Default)
	}
	if s.Examples != nil {
		o.set("examples", s.Examples)
	}
	if s.DefaultSnippets != nil {
		arr := make([]any, len(s.DefaultSnippets))
		for i, sn := range s.DefaultSnippets {
			so := &object{vals: map[string]any{}}
			if sn.Label != "" {
				so.set("label", sn.Label)
			}
			if sn.Description != "" {
				so.set("description", sn.Description)
			}
			if sn.MarkdownDescription != "" {
				so.set("markdownDescription", sn.MarkdownDescription)
			}
			if sn.HasBody {
				so.set("body", sn.Body)
			}
			if sn.BodyText != "" {
				so.set("bodyText", sn.BodyText)
			}
			arr[i] = so
		}
		o.set("defaultSnippets", arr)
	}
	if s.Enum != nil {
		o.set("enum", s.Enum)
	}
	strs("enumDescriptions", s.EnumDescriptions)
	strs("markdownEnumDescriptions", s.MarkdownEnumDescriptions)
	if s.HasConst {
		o.set("const", s.Const)
	}

	smap("properties", s.Properties)
	smap("patternProperties", s.PatternProperties)
	sub("additionalProperties", s.AdditionalProperties)
	strs("required", s.Required)
	integer("minProperties", s.MinProperties)
	integer("maxProperties", s.MaxProperties)
	if s.Dependencies != nil {
		do := &object{vals: map[string]any{}}
		for name, d := range s.Dependencies.All() {
			if d.Schema != nil {
				v := toValue(d.Schema, visiting)
				if v == errCycleMarker {
					cyclic = true
				}
				do.set(name, v)
				continue
			}
			arr := make([]any, len(d.Properties))
			for i := range d.Properties {
				arr[i] = d.Properties[i]
			}
			do.set(name, arr)
		}
		o.set("dependencies", do)
	}
	sub("propertyNames", s.PropertyNames)

	if s.ItemsList != nil {
		list("items", s.ItemsList)
	} else {
		sub("items", s.Items)
	}
	sub("additionalItems", s.AdditionalItems)
	sub("contains", s.Contains)
	integer("minItems", s.MinItems)
	integer("maxItems", s.MaxItems)
	if s.UniqueItems {
		o.set("uniqueItems", true)
	}

	integer("minLength", s.MinLength)
	integer("maxLength", s.MaxLength)
	if s.Pattern != nil {
		o.set("pattern", *s.Pattern)
	}
	str("format", s.Format)

	num("multipleOf", s.MultipleOf)
	num("minimum", s.Minimum)
	num("maximum", s.Maximum)
	bound("exclusiveMinimum", s.ExclusiveMinimum)
	bound("exclusiveMaximum", s.ExclusiveMaximum)

	list("allOf", s.AllOf)
	list("anyOf", s.AnyOf)
	list("oneOf", s.OneOf)
	sub("not", s.Not)
	sub("if", s.If)
	sub("then", s.Then)
	sub("else", s.Else)

	smap("definitions", s.Definitions)
	smap("$defs", s.Defs)
	list("schemaSequence", s.SchemaSequence)

	for k, v := range s.Extensions.All() {
		if !o.has(k) {
			o.set(k, v)
		}
	}
	if cyclic {
		return errCycleMarker
	}
	return o
}

func (o *object) has(k string) bool {
	_, ok := o.vals[k]
	return ok
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *object:
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.MarshalNoEscape(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeJSON(buf, t.vals[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case *OrderedMap[any]:
		obj := &object{vals: make(map[string]any, t.Len())}
		for k, vv := range t.All() {
			obj.set(k, vv)
		}
		return writeJSON(buf, obj)
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	b, err := json.MarshalNoEscape(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
