package engine

import (
	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

type candidate struct {
	result    *Result
	collector Collector
}

// alternatives evaluates anyOf (oneMatch false) or oneOf (oneMatch true). Each
// branch runs with its own result and collector; the best ranked branch is
// merged into res and c. It returns the number of clean branches.
func (v *validator) alternatives(node ast.Node, alts []*jsonschema.Schema, oneMatch bool, sc scope, res *Result, c Collector) int {
	matches := 0
	var best *candidate
	for _, alt := range alts {
		sub := v.newResult()
		subc := c.NewSub()
		v.validate(node, alt, sc, sub, subc)
		if !sub.HasProblems() {
			matches++
		}
		next := &candidate{result: sub, collector: subc}
		switch {
		case best == nil:
			best = next
		case v.opts.IsKubernetes:
			best = v.rankKubernetes(best, next)
		default:
			best = v.rankGeneric(best, next, oneMatch)
		}
	}
	if matches > 1 && oneMatch {
		res.add(sc.problem(Location{Offset: node.Offset(), Length: 1}, i18n.T(i18n.OneOf)))
	}
	if best != nil {
		res.Merge(best.result)
		res.PropertiesMatches += best.result.PropertiesMatches
		res.PropertiesValueMatches += best.result.PropertiesValueMatches
		c.Merge(best.collector)
	}
	return matches
}

func (v *validator) rankKubernetes(best, next *candidate) *candidate {
	switch cmp := next.result.CompareKubernetes(best.result); {
	case cmp > 0:
		return next
	case cmp == 0:
		best.collector.Merge(next.collector)
		best.result.MergeEnumValues(next.result)
	}
	return best
}

func (v *validator) rankGeneric(best, next *candidate, oneMatch bool) *candidate {
	if !oneMatch && !next.result.HasProblems() && !best.result.HasProblems() {
		// Both clean: keep the properties of both for completion.
		best.collector.Merge(next.collector)
		best.result.PropertiesMatches += next.result.PropertiesMatches
		best.result.PropertiesValueMatches += next.result.PropertiesValueMatches
		return best
	}
	switch cmp := next.result.CompareGeneric(best.result); {
	case cmp > 0:
		return next
	case cmp == 0:
		best.collector.Merge(next.collector)
		best.result.MergeEnumValues(next.result)
		best.result.MergeWarningGeneric(next.result, MissingRequiredProp, TypeMismatch, ConstMismatch)
	}
	return best
}
