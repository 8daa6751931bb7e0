package jsonschema

import "strings"

// Schema is a JSON Schema node (draft-07 with the editor extensions understood by
// the language service). A Schema with Bool set is a boolean schema.
//
// Values reachable from a resolved schema may be shared between several parents
// and the graph may contain cycles. Callers treat resolved schemas as read-only.
type Schema struct {
	Bool *bool

	ID          string // $id
	LegacyID    string // id (draft-4)
	Dialect     string // $schema
	Ref         string // $ref
	ResolvedRef string // _$ref, the original reference kept after resolution
	Comment     string // $comment

	// Type holds the "type" keyword. TypeList records whether it was written
	// as an array, which changes the mismatch message.
	Type     []string
	TypeList bool

	Title                    string
	Description              string
	MarkdownDescription      string
	DeprecationMessage       string
	ErrorMessage             string
	PatternErrorMessage      string
	DoNotSuggest             bool
	Default                  any
	HasDefault               bool
	Examples                 []any
	DefaultSnippets          []Snippet
	Enum                     []any
	EnumDescriptions         []string
	MarkdownEnumDescriptions []string
	Const                    any
	HasConst                 bool

	Properties           *OrderedMap[*Schema]
	PatternProperties    *OrderedMap[*Schema]
	AdditionalProperties *Schema
	Required             []string
	MinProperties        *int
	MaxProperties        *int
	Dependencies         *OrderedMap[Dependency]
	PropertyNames        *Schema

	Items           *Schema
	ItemsList       []*Schema
	AdditionalItems *Schema
	Contains        *Schema
	MinItems        *int
	MaxItems        *int
	UniqueItems     bool

	MinLength *int
	MaxLength *int
	Pattern   *string
	Format    string

	MultipleOf       *float64
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *Bound
	ExclusiveMaximum *Bound

	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema
	Not   *Schema
	If    *Schema
	Then  *Schema
	Else  *Schema

	Definitions    *OrderedMap[*Schema]
	Defs           *OrderedMap[*Schema]
	SchemaSequence []*Schema

	// Extensions keeps keywords this package does not model, in source order.
	Extensions *OrderedMap[any]

	// URL identifies the schema document this node was loaded from. It is set
	// by schema resolution and never serialized.
	URL string
}

// Dependency is one entry of "dependencies": either a property list or a schema.
type Dependency struct {
	Properties []string
	Schema     *Schema
}

// Bound is the boolean (draft-4) or numeric (draft-6) form of
// exclusiveMinimum and exclusiveMaximum.
type Bound struct {
	Flag   bool
	Number *float64
}

// Snippet is a "defaultSnippets" entry. Objects inside Body are *OrderedMap[any]
// so the body keeps the key order of the source.
type Snippet struct {
	Label               string
	Description         string
	MarkdownDescription string
	Body                any
	HasBody             bool
	BodyText            string
}

var (
	trueSchema  = &Schema{}
	falseSchema = &Schema{Not: &Schema{}}
)

// Boolean returns a boolean schema.
func Boolean(b bool) *Schema { return &Schema{Bool: &b} }

// Effective maps boolean schemas to their object equivalents: true is the empty
// schema and false is {not: {}}. Other schemas are returned unchanged. The
// returned boolean equivalents are shared and must not be modified.
func (s *Schema) Effective() *Schema {
	if s == nil || s.Bool == nil {
		return s
	}
	if *s.Bool {
		return trueSchema
	}
	return falseSchema
}

// IsBool reports whether s is a boolean schema and its value.
func (s *Schema) IsBool() (value, ok bool) {
	if s == nil || s.Bool == nil {
		return false, false
	}
	return *s.Bool, true
}

// HasType reports whether "type" names t.
func (s *Schema) HasType(t string) bool {
	for _, name := range s.Type {
		if name == t {
			return true
		}
	}
	return false
}

// SingleType returns the type name when "type" is a plain string.
func (s *Schema) SingleType() string {
	if s.TypeList || len(s.Type) != 1 {
		return ""
	}
	return s.Type[0]
}

// Identity returns $id, falling back to the draft-4 id.
func (s *Schema) Identity() string {
	if s.ID != "" {
		return s.ID
	}
	return s.LegacyID
}

// TypeName returns a display name for type mismatch messages on object schemas.
func (s *Schema) TypeName() string {
	if s.ID != "" {
		return RefTypeTitle(s.ID)
	}
	if s.Ref != "" {
		return RefTypeTitle(s.Ref)
	}
	if s.ResolvedRef != "" {
		return RefTypeTitle(s.ResolvedRef)
	}
	if s.TypeList {
		return strings.Join(s.Type, " | ")
	}
	if s.Title != "" {
		return s.Title
	}
	if len(s.Type) > 0 {
		return s.Type[0]
	}
	return ""
}

// RefTypeTitle derives a short name from a reference such as
// "#/definitions/Foo" or "https://x/foo.schema.json".
func RefTypeTitle(ref string) string {
	name := ref
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".schema.json")
	if name == "" {
		return ref
	}
	return name
}
