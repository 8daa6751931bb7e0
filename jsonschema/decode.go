package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// object is an insertion-ordered JSON object produced by the decoders below.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) set(k string, v any) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

// Parse decodes a schema written in JSON, falling back to YAML when the
// content is not valid JSON.
func Parse(data []byte) (*Schema, error) {
	s, err := ParseJSON(data)
	if err == nil {
		return s, nil
	}
	ys, yerr := ParseYAML(data)
	if yerr != nil {
		return nil, fmt.Errorf("jsonschema: not JSON (%v) nor YAML: %w", err, yerr)
	}
	return ys, nil
}

// ParseJSON decodes a JSON schema document while keeping keyword order.
func ParseJSON(data []byte) (*Schema, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return fromValue(v)
}

// ParseYAML decodes a schema document authored in YAML (first document only).
func ParseYAML(data []byte) (*Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, errors.New("jsonschema: empty YAML document")
	}
	v, err := yamlValue(root.Content[0], 0)
	if err != nil {
		return nil, err
	}
	return fromValue(v)
}

// FromValue converts a generic Go value (map[string]any, []any, bool, numbers,
// strings) into a Schema. Keys of Go maps have no order; they are sorted.
func FromValue(v any) (*Schema, error) {
	return fromValue(normalize(v))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	v, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*s = *v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler so schemas can be inlined in YAML
// settings files.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	v, err := yamlValue(node, 0)
	if err != nil {
		return err
	}
	out, err := fromValue(v)
	if err != nil {
		return err
	}
	*s = *out
	return nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("jsonschema: unexpected %v after top-level value", tok)
	}
	return v, nil
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &object{vals: map[string]any{}}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("jsonschema: expected object key, got %v", kt)
				}
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("jsonschema: unexpected delimiter %v", t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("jsonschema: bad number %q: %w", string(t), err)
		}
		return f, nil
	case string, bool, float64, nil:
		return t, nil
	}
	return nil, fmt.Errorf("jsonschema: unexpected token %T", tok)
}

const maxAliasDepth = 256

func yamlValue(n *yaml.Node, depth int) (any, error) {
	if depth > maxAliasDepth {
		return nil, errors.New("jsonschema: YAML alias nesting too deep")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0], depth)
	case yaml.AliasNode:
		return yamlValue(n.Alias, depth+1)
	case yaml.MappingNode:
		obj := &object{vals: make(map[string]any, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1], depth)
			if err != nil {
				return nil, err
			}
			obj.set(n.Content[i].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c, depth)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return n.Value, nil
			}
			return b, nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return n.Value, nil
			}
			return f, nil
		default:
			return n.Value, nil
		}
	}
	return nil, nil
}

// normalize turns arbitrary Go values into the decoder's value space.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float64, *object:
		return t
	case *OrderedMap[any]:
		obj := &object{vals: make(map[string]any, t.Len())}
		for k, vv := range t.All() {
			obj.set(k, normalize(vv))
		}
		return obj
	case *Schema:
		return toValue(t, map[*Schema]bool{})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &object{vals: make(map[string]any, len(t))}
		for _, k := range keys {
			obj.set(k, normalize(t[k]))
		}
		return obj
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			if ks, ok := k.(string); ok {
				m[ks] = vv
			}
		}
		return normalize(m)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalize(t[i])
		}
		return arr
	case []string:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = t[i]
		}
		return arr
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = normalize(rv.Index(i).Interface())
		}
		return arr
	}
	return v
}

// plain converts ordered objects into map[string]any for use as instance values
// (default, enum, const, examples).
func plain(v any) any {
	switch t := v.(type) {
	case *object:
		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			m[k] = plain(t.vals[k])
		}
		return m
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = plain(t[i])
		}
		return arr
	}
	return v
}

// ordered is like plain but keeps key order by producing *OrderedMap[any]. Snippet
// bodies use it since their keys are inserted as written.
func ordered(v any) any {
	switch t := v.(type) {
	case *object:
		m := NewOrderedMap[any]()
		for _, k := range t.keys {
			m.Set(k, ordered(t.vals[k]))
		}
		return m
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = ordered(t[i])
		}
		return arr
	}
	return v
}

func fromValue(v any) (*Schema, error) {
	switch t := v.(type) {
	case bool:
		return Boolean(t), nil
	case *object:
		return fromObject(t)
	}
	return nil, fmt.Errorf("jsonschema: schema must be an object or a boolean, got %T", v)
}

func fromObject(o *object) (*Schema, error) {
	s := &Schema{}
	for _, k := range o.keys {
		v := o.vals[k]
		if err := s.setKeyword(k, v); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
	}
	return s, nil
}

// setKeyword assigns one keyword. Keywords whose value has the wrong JSON type
// are ignored, the same as a validator that never sees them.
func (s *Schema) setKeyword(k string, v any) error {
	var err error
	switch k {
	case "$id":
		s.ID, _ = v.(string)
	case "id":
		s.LegacyID, _ = v.(string)
	case "$schema":
		s.Dialect, _ = v.(string)
	case "$ref":
		s.Ref, _ = v.(string)
	case "_$ref":
		s.ResolvedRef, _ = v.(string)
	case "$comment":
		s.Comment, _ = v.(string)
	case "type":
		switch t := v.(type) {
		case string:
			s.Type = []string{t}
		case []any:
			s.Type, s.TypeList = toStrings(t), true
		}
	case "title":
		s.Title, _ = v.(string)
	case "description":
		s.Description, _ = v.(string)
	case "markdownDescription":
		s.MarkdownDescription, _ = v.(string)
	case "deprecationMessage":
		s.DeprecationMessage, _ = v.(string)
	case "errorMessage":
		s.ErrorMessage, _ = v.(string)
	case "patternErrorMessage":
		s.PatternErrorMessage, _ = v.(string)
	case "doNotSuggest":
		s.DoNotSuggest, _ = v.(bool)
	case "default":
		s.Default, s.HasDefault = plain(v), true
	case "examples":
		if arr, ok := v.([]any); ok {
			s.Examples = plain(arr).([]any)
		}
	case "defaultSnippets":
		if arr, ok := v.([]any); ok {
			s.DefaultSnippets = toSnippets(arr)
		}
	case "enum":
		if arr, ok := v.([]any); ok {
			s.Enum = plain(arr).([]any)
		}
	case "enumDescriptions":
		if arr, ok := v.([]any); ok {
			s.EnumDescriptions = toStrings(arr)
		}
	case "markdownEnumDescriptions":
		if arr, ok := v.([]any); ok {
			s.MarkdownEnumDescriptions = toStrings(arr)
		}
	case "const":
		s.Const, s.HasConst = plain(v), true
	case "properties":
		s.Properties, err = schemaMap(v)
	case "patternProperties":
		s.PatternProperties, err = schemaMap(v)
	case "definitions":
		s.Definitions, err = schemaMap(v)
	case "$defs":
		s.Defs, err = schemaMap(v)
	case "additionalProperties":
		s.AdditionalProperties, err = optionalSchema(v)
	case "required":
		if arr, ok := v.([]any); ok {
			s.Required = toStrings(arr)
		}
	case "minProperties":
		s.MinProperties = toInt(v)
	case "maxProperties":
		s.MaxProperties = toInt(v)
	case "dependencies":
		s.Dependencies, err = dependencies(v)
	case "propertyNames":
		s.PropertyNames, err = optionalSchema(v)
	case "items":
		if arr, ok := v.([]any); ok {
			s.ItemsList, err = schemaList(arr)
			if s.ItemsList == nil {
				s.ItemsList = []*Schema{}
			}
		} else {
			s.Items, err = optionalSchema(v)
		}
	case "additionalItems":
		s.AdditionalItems, err = optionalSchema(v)
	case "contains":
		s.Contains, err = optionalSchema(v)
	case "minItems":
		s.MinItems = toInt(v)
	case "maxItems":
		s.MaxItems = toInt(v)
	case "uniqueItems":
		s.UniqueItems, _ = v.(bool)
	case "minLength":
		s.MinLength = toInt(v)
	case "maxLength":
		s.MaxLength = toInt(v)
	case "pattern":
		if p, ok := v.(string); ok {
			s.Pattern = &p
		}
	case "format":
		s.Format, _ = v.(string)
	case "multipleOf":
		s.MultipleOf = toFloat(v)
	case "minimum":
		s.Minimum = toFloat(v)
	case "maximum":
		s.Maximum = toFloat(v)
	case "exclusiveMinimum":
		s.ExclusiveMinimum = toBound(v)
	case "exclusiveMaximum":
		s.ExclusiveMaximum = toBound(v)
	case "allOf":
		s.AllOf, err = optionalSchemaList(v)
	case "anyOf":
		s.AnyOf, err = optionalSchemaList(v)
	case "oneOf":
		s.OneOf, err = optionalSchemaList(v)
	case "not":
		s.Not, err = optionalSchema(v)
	case "if":
		s.If, err = optionalSchema(v)
	case "then":
		s.Then, err = optionalSchema(v)
	case "else":
		s.Else, err = optionalSchema(v)
	case "schemaSequence":
		s.SchemaSequence, err = optionalSchemaList(v)
	default:
		if s.Extensions == nil {
			s.Extensions = NewOrderedMap[any]()
		}
		s.Extensions.Set(k, plain(v))
	}
	return err
}

func optionalSchema(v any) (*Schema, error) {
	switch v.(type) {
	case bool, *object:
		return fromValue(v)
	}
	return nil, nil
}

func optionalSchemaList(v any) ([]*Schema, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	list, err := schemaList(arr)
	if list == nil && err == nil {
		list = []*Schema{}
	}
	return list, err
}

func schemaList(arr []any) ([]*Schema, error) {
	var out []*Schema
	for i, item := range arr {
		s, err := fromValue(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func schemaMap(v any) (*OrderedMap[*Schema], error) {
	o, ok := v.(*object)
	if !ok {
		return nil, nil
	}
	m := NewOrderedMap[*Schema]()
	for _, k := range o.keys {
		s, err := fromValue(o.vals[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		m.Set(k, s)
	}
	return m, nil
}

func dependencies(v any) (*OrderedMap[Dependency], error) {
	o, ok := v.(*object)
	if !ok {
		return nil, nil
	}
	m := NewOrderedMap[Dependency]()
	for _, k := range o.keys {
		switch t := o.vals[k].(type) {
		case []any:
			m.Set(k, Dependency{Properties: toStrings(t)})
		default:
			s, err := optionalSchema(t)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if s != nil {
				m.Set(k, Dependency{Schema: s})
			}
		}
	}
	return m, nil
}

func toSnippets(arr []any) []Snippet {
	out := make([]Snippet, 0, len(arr))
	for _, item := range arr {
		o, ok := item.(*object)
		if !ok {
			continue
		}
		var sn Snippet
		sn.Label, _ = o.vals["label"].(string)
		sn.Description, _ = o.vals["description"].(string)
		sn.MarkdownDescription, _ = o.vals["markdownDescription"].(string)
		sn.BodyText, _ = o.vals["bodyText"].(string)
		if body, ok := o.vals["body"]; ok {
			sn.Body, sn.HasBody = ordered(body), true
		}
		out = append(out, sn)
	}
	return out
}

func toStrings(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toFloat(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func toInt(v any) *int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}

func toBound(v any) *Bound {
	switch t := v.(type) {
	case bool:
		return &Bound{Flag: t}
	case float64:
		return &Bound{Number: &t}
	}
	return nil
}
