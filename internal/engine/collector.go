package engine

import (
	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/jsonschema"
)

// MatchingSchema records that Node was validated against Schema. Inverted is
// set for matches found under "not". URL and Title are the values inherited
// from the enclosing schemas at the time of the match.
type MatchingSchema struct {
	Node     ast.Node
	Schema   *jsonschema.Schema
	Inverted bool
	URL      string
	Title    string
}

// Collector receives the schema matches found during validation.
type Collector interface {
	// Include reports whether node should be visited at all.
	Include(node ast.Node) bool
	Add(m MatchingSchema)
	Merge(other Collector)
	Schemas() []MatchingSchema
	// NewSub returns an isolated collector for speculative evaluation.
	NewSub() Collector
}

// SchemaCollector keeps matches for nodes around a focus offset. A negative
// focus keeps every node. Exclude is never visited.
type SchemaCollector struct {
	focus   int
	exclude ast.Node
	schemas []MatchingSchema
}

// NewSchemaCollector returns a collector for focus; pass -1 to collect all.
func NewSchemaCollector(focus int, exclude ast.Node) *SchemaCollector {
	return &SchemaCollector{focus: focus, exclude: exclude}
}

func (c *SchemaCollector) Include(node ast.Node) bool {
	if c.exclude != nil && node == c.exclude {
		return false
	}
	return c.focus < 0 || c.focus >= node.Offset() && c.focus <= ast.End(node)
}

func (c *SchemaCollector) Add(m MatchingSchema) { c.schemas = append(c.schemas, m) }

func (c *SchemaCollector) Merge(other Collector) {
	c.schemas = append(c.schemas, other.Schemas()...)
}

func (c *SchemaCollector) Schemas() []MatchingSchema { return c.schemas }

func (c *SchemaCollector) NewSub() Collector {
	return &SchemaCollector{focus: -1, exclude: c.exclude}
}

// NoOp visits every node and records nothing.
var NoOp Collector = noOp{}

type noOp struct{}

func (noOp) Include(ast.Node) bool     { return true }
func (noOp) Add(MatchingSchema)        {}
func (noOp) Merge(Collector)           {}
func (noOp) Schemas() []MatchingSchema { return nil }
func (n noOp) NewSub() Collector       { return n }
