package engine

import (
	"slices"
	"strconv"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

// mergeKey is the YAML merge key. Its value's properties count as properties
// of the enclosing mapping.
const mergeKey = "<<"

// flatten returns the key to value mapping of n with merge keys expanded, and
// the keys in visiting order. Later pops win for duplicate keys.
func flatten(n *ast.Object) (map[string]ast.Node, []string) {
	seen := map[string]ast.Node{}
	var keys []string
	stack := slices.Clone(n.Properties)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		key := p.Key.Value
		if key == mergeKey && p.Value != nil {
			switch val := p.Value.(type) {
			case *ast.Object:
				stack = append(stack, val.Properties...)
			case *ast.Array:
				for _, it := range val.Items {
					if obj, ok := it.(*ast.Object); ok {
						stack = append(stack, obj.Properties...)
					}
				}
			}
			continue
		}
		seen[key] = p.Value
		keys = append(keys, key)
	}
	return seen, keys
}

// keyLocation returns the key of the property holding value.
func keyLocation(value ast.Node) (Location, bool) {
	switch p := value.Parent().(type) {
	case *ast.Property:
		return locate(p.Key), true
	case *ast.Object:
		if len(p.Properties) > 0 {
			return locate(p.Properties[0].Key), true
		}
	}
	return Location{}, false
}

func (v *validator) object(n *ast.Object, s *jsonschema.Schema, sc scope, res *Result, c Collector) {
	seen, unprocessed := flatten(n)

	for _, name := range s.Required {
		if seen[name] != nil {
			continue
		}
		loc := Location{Offset: n.Offset(), Length: 1}
		if p, ok := n.Parent().(*ast.Property); ok {
			loc = locate(p.Key)
		}
		p := sc.problem(loc, MissingRequiredProp.message([]string{name}))
		p.ProblemType, p.ProblemArgs = MissingRequiredProp, []string{name}
		res.add(p)
	}

	processed := func(name string) {
		unprocessed = slices.DeleteFunc(unprocessed, func(k string) bool { return k == name })
	}
	disallowed := func(child ast.Node, name string) {
		loc, ok := keyLocation(child)
		if !ok {
			return
		}
		msg := s.ErrorMessage
		if msg == "" {
			msg = i18n.T(i18n.DisallowedExtraProp, name)
		}
		res.add(sc.problem(loc, msg))
	}
	property := func(child ast.Node, name string, ps *jsonschema.Schema, childScope scope) {
		if b, ok := ps.IsBool(); ok {
			if b {
				res.PropertiesMatches++
				res.PropertiesValueMatches++
			} else {
				disallowed(child, name)
			}
			return
		}
		sub := v.newResult()
		v.validate(child, ps, childScope, sub, c)
		res.MergePropertyMatch(sub)
		res.MergeEnumValues(sub)
	}

	for name, ps := range s.Properties.All() {
		processed(name)
		if child := seen[name]; child != nil {
			property(child, name, ps, sc.pin())
		}
	}

	for pattern, ps := range s.PatternProperties.All() {
		re, ok := CompilePattern(pattern)
		if !ok {
			continue
		}
		for _, name := range slices.Clone(unprocessed) {
			if !re.MatchString(name) {
				continue
			}
			processed(name)
			if child := seen[name]; child != nil {
				property(child, name, ps, sc)
			}
		}
	}

	if ap := s.AdditionalProperties; ap != nil && ap.Bool == nil {
		for _, name := range unprocessed {
			if child := seen[name]; child != nil {
				property(child, name, ap, sc)
			}
		}
	} else if b, ok := ap.IsBool(); ok && !b || ap == nil && v.opts.DisableAdditionalProperties && s.SingleType() == "object" {
		for _, name := range unprocessed {
			if child := seen[name]; child != nil {
				disallowed(child, name)
			}
		}
	}

	if s.MaxProperties != nil && len(n.Properties) > *s.MaxProperties {
		res.add(sc.problem(locate(n), i18n.T(i18n.MaxProp, strconv.Itoa(*s.MaxProperties))))
	}
	if s.MinProperties != nil && len(n.Properties) < *s.MinProperties {
		res.add(sc.problem(locate(n), i18n.T(i18n.MinProp, strconv.Itoa(*s.MinProperties))))
	}

	for key, dep := range s.Dependencies.All() {
		if seen[key] == nil {
			continue
		}
		if dep.Schema == nil {
			for _, req := range dep.Properties {
				if seen[req] == nil {
					res.add(sc.problem(locate(n), i18n.T(i18n.RequiredDependent, req, key)))
				} else {
					res.PropertiesValueMatches++
				}
			}
			continue
		}
		sub := v.newResult()
		v.validate(n, dep.Schema, sc, sub, c)
		res.MergePropertyMatch(sub)
		res.MergeEnumValues(sub)
	}

	if s.PropertyNames != nil {
		for _, p := range n.Properties {
			v.validate(p.Key, s.PropertyNames, sc, res, NoOp)
		}
	}
}
