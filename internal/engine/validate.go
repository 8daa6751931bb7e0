// Package engine matches YAML document trees against JSON schemas. It produces
// problems for diagnostics and, through a Collector, the schemas that apply at
// a given offset for completion and hover.
package engine

import (
	"strings"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

// Options tunes a validation run.
type Options struct {
	// IsKubernetes switches alternative ranking to CompareKubernetes.
	IsKubernetes bool
	// DisableAdditionalProperties treats a missing additionalProperties as
	// false on schemas of type "object".
	DisableAdditionalProperties bool
}

// scope carries the URL and title inherited from enclosing schemas.
type scope struct {
	url    string
	title  string
	pinned bool // url was forced by the parent and must not be replaced
}

func (sc scope) enter(s *jsonschema.Schema) scope {
	if !sc.pinned && s.URL != "" {
		sc.url = s.URL
	}
	if s.Title != "" {
		sc.title = s.Title
	}
	sc.pinned = false
	return sc
}

func (sc scope) pin() scope {
	sc.pinned = true
	return sc
}

func (sc scope) source() string {
	label := sc.title
	if label == "" {
		label = sc.url
	}
	if label == "" {
		return DefaultSource
	}
	return SchemaSourcePrefix + label
}

func (sc scope) uris() []string {
	if sc.url == "" {
		return []string{}
	}
	return []string{sc.url}
}

func (sc scope) problem(loc Location, msg string) *Problem {
	return &Problem{
		Location:   loc,
		Severity:   protocol.DiagnosticSeverityError,
		Message:    msg,
		Source:     sc.source(),
		SchemaURIs: sc.uris(),
	}
}

func locate(n ast.Node) Location { return Location{Offset: n.Offset(), Length: n.Length()} }

// Validate checks node against schema, appending problems to result and
// matches to collector. original supplies the URL and title inherited by
// schema; it may be nil. A nil node is a no-op.
func Validate(node ast.Node, schema, original *jsonschema.Schema, result *Result, collector Collector, opts Options) {
	var sc scope
	if original != nil {
		sc = sc.enter(original)
	}
	v := &validator{opts: opts}
	v.validate(node, schema, sc, result, collector)
}

type validator struct {
	opts Options
}

func (v *validator) newResult() *Result { return NewResult(v.opts.IsKubernetes) }

func (v *validator) validate(node ast.Node, s *jsonschema.Schema, parent scope, res *Result, c Collector) {
	if node == nil || s == nil || !c.Include(node) {
		return
	}
	s = s.Effective()
	sc := parent.enter(s)
	switch n := node.(type) {
	case *ast.Object:
		v.object(n, s, sc, res, c)
	case *ast.Array:
		v.array(n, s, sc, res, c)
	case *ast.String:
		v.str(n, s, sc, res)
	case *ast.Number:
		v.number(n, s, sc, res)
	case *ast.Property:
		v.validate(n.Value, s, sc, res, c)
		return
	}
	v.common(node, s, sc, res, c)
	c.Add(MatchingSchema{Node: node, Schema: s, URL: sc.url, Title: sc.title})
}

func matchesType(node ast.Node, t string) bool {
	if node.Kind().String() == t {
		return true
	}
	n, ok := node.(*ast.Number)
	return ok && t == "integer" && n.IsInteger
}

// common runs the checks that apply to every node kind.
func (v *validator) common(node ast.Node, s *jsonschema.Schema, sc scope, res *Result, c Collector) {
	switch {
	case s.TypeList:
		ok := false
		for _, t := range s.Type {
			if matchesType(node, t) {
				ok = true
				break
			}
		}
		if !ok {
			msg := s.ErrorMessage
			if msg == "" {
				msg = i18n.T(i18n.TypeArrayMismatch, strings.Join(s.Type, ", "))
			}
			res.add(sc.problem(locate(node), msg))
		}
	case len(s.Type) == 1:
		if t := s.Type[0]; !matchesType(node, t) {
			name := t
			if t == "object" {
				name = s.TypeName()
			}
			msg := s.ErrorMessage
			if msg == "" {
				msg = TypeMismatch.message([]string{name})
			}
			p := sc.problem(locate(node), msg)
			p.ProblemType, p.ProblemArgs = TypeMismatch, []string{name}
			res.add(p)
		}
	}

	for _, sub := range s.AllOf {
		v.validate(node, sub, sc, res, c)
	}

	if s.Not != nil {
		sub := v.newResult()
		subc := c.NewSub()
		v.validate(node, s.Not, sc, sub, subc)
		if !sub.HasProblems() {
			res.add(sc.problem(locate(node), i18n.T(i18n.NotSchema)))
		}
		for _, m := range subc.Schemas() {
			m.Inverted = !m.Inverted
			c.Add(m)
		}
	}

	if s.AnyOf != nil {
		v.alternatives(node, s.AnyOf, false, sc, res, c)
	}
	if s.OneOf != nil {
		v.alternatives(node, s.OneOf, true, sc, res, c)
	}

	if s.If != nil {
		v.condition(node, s, sc, res, c)
	}

	if s.Enum != nil {
		val := ast.Value(node)
		match := false
		for _, e := range s.Enum {
			if Equal(val, e) {
				match = true
				break
			}
		}
		res.EnumValues = s.Enum
		res.EnumValueMatch = match
		if !match {
			msg := s.ErrorMessage
			if msg == "" {
				msg = i18n.T(i18n.Enum, joinJSON(s.Enum))
			}
			p := sc.problem(locate(node), msg)
			p.Code = EnumValueMismatch
			res.add(p)
		}
	}

	if s.HasConst {
		if !Equal(ast.Value(node), s.Const) {
			arg := Stringify(s.Const)
			msg := s.ErrorMessage
			if msg == "" {
				msg = ConstMismatch.message([]string{arg})
			}
			p := sc.problem(locate(node), msg)
			p.Code = EnumValueMismatch
			p.ProblemType, p.ProblemArgs = ConstMismatch, []string{arg}
			res.add(p)
			res.EnumValueMatch = false
		} else {
			res.EnumValueMatch = true
		}
		res.EnumValues = []any{s.Const}
	}

	if s.DeprecationMessage != "" && node.Parent() != nil {
		p := sc.problem(locate(node.Parent()), s.DeprecationMessage)
		p.Severity = protocol.DiagnosticSeverityWarning
		p.Code = Deprecated
		res.add(p)
	}
}

func (v *validator) condition(node ast.Node, s *jsonschema.Schema, sc scope, res *Result, c Collector) {
	sub := v.newResult()
	subc := c.NewSub()
	v.validate(node, s.If, sc, sub, subc)
	c.Merge(subc)
	branch := s.Else
	if !sub.HasProblems() {
		branch = s.Then
	}
	if branch == nil {
		return
	}
	br := v.newResult()
	brc := c.NewSub()
	v.validate(node, branch, sc, br, brc)
	res.Merge(br)
	res.PropertiesMatches += br.PropertiesMatches
	res.PropertiesValueMatches += br.PropertiesValueMatches
	c.Merge(brc)
}
