package engine

import (
	"strconv"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

func (v *validator) array(n *ast.Array, s *jsonschema.Schema, sc scope, res *Result, c Collector) {
	if s.ItemsList != nil {
		tuple := s.ItemsList
		for i, sub := range tuple {
			if i < len(n.Items) {
				v.item(n.Items[i], sub, sc, res, c)
			} else if len(n.Items) >= len(tuple) {
				res.PropertiesValueMatches++
			}
		}
		if len(n.Items) > len(tuple) {
			if extra := s.AdditionalItems; extra != nil && extra.Bool == nil {
				for _, it := range n.Items[len(tuple):] {
					v.item(it, extra, sc, res, c)
				}
			} else if b, ok := extra.IsBool(); ok && !b {
				res.add(sc.problem(locate(n), i18n.T(i18n.AdditionalItems, strconv.Itoa(len(tuple)))))
			}
		}
	} else if s.Items != nil {
		for _, it := range n.Items {
			v.item(it, s.Items, sc, res, c)
		}
	}

	if s.Contains != nil {
		found := false
		for _, it := range n.Items {
			sub := v.newResult()
			v.validate(it, s.Contains, sc, sub, NoOp)
			if !sub.HasProblems() {
				found = true
				break
			}
		}
		if !found {
			msg := s.ErrorMessage
			if msg == "" {
				msg = i18n.T(i18n.RequiredItemMissing)
			}
			res.add(sc.problem(locate(n), msg))
		}
	}

	if s.MinItems != nil && len(n.Items) < *s.MinItems {
		res.add(sc.problem(locate(n), i18n.T(i18n.MinItems, strconv.Itoa(*s.MinItems))))
	}
	if s.MaxItems != nil && len(n.Items) > *s.MaxItems {
		res.add(sc.problem(locate(n), i18n.T(i18n.MaxItems, strconv.Itoa(*s.MaxItems))))
	}
	if s.UniqueItems && hasDuplicates(n.Items) {
		res.add(sc.problem(locate(n), i18n.T(i18n.UniqueItems)))
	}
}

// item validates one element with a fresh result and folds it into res.
func (v *validator) item(it ast.Node, s *jsonschema.Schema, sc scope, res *Result, c Collector) {
	sub := v.newResult()
	v.validate(it, s, sc, sub, c)
	res.MergePropertyMatch(sub)
	res.MergeEnumValues(sub)
}

func hasDuplicates(items []ast.Node) bool {
	vals := make([]any, len(items))
	for i, it := range items {
		vals[i] = ast.Value(it)
	}
	for i := range vals {
		for j := i + 1; j < len(vals); j++ {
			if Equal(vals[i], vals[j]) {
				return true
			}
		}
	}
	return false
}
