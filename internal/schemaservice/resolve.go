package schemaservice

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

var absoluteURIRe = regexp.MustCompile(`^\w+://`)

// resolver inlines the $refs of one schema. External documents are cloned
// once per resolution so the cached unresolved forms stay untouched.
type resolver struct {
	ctx  context.Context
	svc  *Service
	errs []string
	deps map[string]bool
	docs map[string]*jsonschema.Schema
	bad  map[string][]string
}

type link struct {
	node      *jsonschema.Schema
	uri, frag string
}

// resolveContent returns a resolved copy of u. Every loaded document is
// recorded in deps.
func (s *Service) resolveContent(ctx context.Context, u *UnresolvedSchema, schemaURL string, deps map[string]bool) *ResolvedSchema {
	root := u.Schema
	if root == nil {
		root = &jsonschema.Schema{}
	}
	if c, err := root.Clone(); err == nil {
		root = c
	}
	root.URL = schemaURL
	r := &resolver{
		ctx:  ctx,
		svc:  s,
		errs: append([]string(nil), u.Errors...),
		deps: deps,
		docs: map[string]*jsonschema.Schema{NormalizeID(schemaURL): root},
		bad:  map[string][]string{},
	}
	r.resolveRefs(root, root, schemaURL)
	root.URL = schemaURL
	return &ResolvedSchema{Schema: root, Errors: r.errs}
}

func (r *resolver) resolveRefs(node, parent *jsonschema.Schema, parentURL string) {
	if node == nil || node.Bool != nil {
		return
	}
	var links []link
	if base, frag := splitRef(parentURL); strings.Contains(parentURL, "#") && base != "" && frag != "" {
		links = append(links, link{node, base, frag})
	}

	toWalk := []*jsonschema.Schema{node}
	seen := map[*jsonschema.Schema]bool{}
	for len(toWalk) > 0 {
		next := toWalk[len(toWalk)-1]
		toWalk = toWalk[:len(toWalk)-1]
		if seen[next] {
			continue
		}
		seen[next] = true
		if l, external := r.handleRef(next, parent, parentURL); external {
			links = append(links, l)
			continue
		}
		toWalk = append(toWalk, children(next)...)
	}

	for _, l := range links {
		r.resolveExternal(l.node, l.uri, l.frag, parentURL)
	}
}

// handleRef moves $ref to _$ref and merges local targets until none is left.
// An external target is returned for the caller to load.
func (r *resolver) handleRef(next, parent *jsonschema.Schema, parentURL string) (link, bool) {
	var seenRefs map[string]bool
	for next.Ref != "" {
		ref := next.Ref
		base, frag := splitRef(ref)
		next.ResolvedRef = ref
		next.Ref = ""
		if base != "" {
			return link{next, base, frag}, true
		}
		if seenRefs == nil {
			seenRefs = map[string]bool{}
		}
		if !seenRefs[ref] {
			r.merge(next, parent, parentURL, frag)
			seenRefs[ref] = true
		}
	}
	return link{}, false
}

func (r *resolver) merge(target, root *jsonschema.Schema, sourceURI, path string) {
	section, ok := root.Lookup(path)
	if !ok || section == nil {
		r.errs = append(r.errs, i18n.T(i18n.InvalidRef, path, sourceURI))
		return
	}
	if section.Bool != nil && !*section.Bool {
		r.errs = append(r.errs, i18n.T(i18n.InvalidRef, path, sourceURI))
		return
	}
	target.Inherit(section)
}

func (r *resolver) resolveExternal(node *jsonschema.Schema, uri, frag, parentURL string) {
	if !absoluteURIRe.MatchString(uri) {
		uri = resolveRelative(uri, parentURL)
	}
	uri = NormalizeID(uri)
	doc, errs := r.document(uri)
	r.deps[uri] = true
	if len(errs) > 0 {
		loc := uri
		if frag != "" {
			loc += "#" + frag
		}
		r.errs = append(r.errs, i18n.T(i18n.ProblemLoadingRef, loc, errs[0]))
	}
	r.merge(node, doc, uri, frag)
	node.URL = uri
	r.resolveRefs(node, doc, uri)
}

// document returns this resolution's private copy of the document at uri.
func (r *resolver) document(uri string) (*jsonschema.Schema, []string) {
	if doc, ok := r.docs[uri]; ok {
		return doc, r.bad[uri]
	}
	u := r.svc.handleFor(uri).unresolved(r.ctx)
	doc := u.Schema
	if doc == nil {
		doc = &jsonschema.Schema{}
	}
	if c, err := doc.Clone(); err == nil {
		doc = c
	}
	doc.URL = uri
	r.docs[uri], r.bad[uri] = doc, u.Errors
	return doc, u.Errors
}

// splitRef splits at the first '#', dropping anything after a second one.
func splitRef(ref string) (base, frag string) {
	parts := strings.SplitN(ref, "#", 3)
	base = parts[0]
	if len(parts) > 1 {
		frag = parts[1]
	}
	return base, frag
}

// resolveRelative resolves rel against the directory of base.
func resolveRelative(rel, base string) string {
	dir := base[:strings.LastIndexByte(base, '/')+1]
	b, err := url.Parse(dir)
	if err != nil {
		return rel
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return rel
	}
	return b.ResolveReference(ref).String()
}

// children lists the subschemas the resolver descends into. Boolean schemas
// carry no references and are skipped.
func children(s *jsonschema.Schema) []*jsonschema.Schema {
	var out []*jsonschema.Schema
	add := func(list ...*jsonschema.Schema) {
		for _, c := range list {
			if c != nil && c.Bool == nil {
				out = append(out, c)
			}
		}
	}
	add(s.Items, s.AdditionalItems, s.AdditionalProperties, s.Not, s.Contains, s.PropertyNames, s.If, s.Then, s.Else)
	for _, m := range []*jsonschema.OrderedMap[*jsonschema.Schema]{s.Definitions, s.Defs, s.Properties, s.PatternProperties} {
		if m == nil {
			continue
		}
		for _, c := range m.All() {
			add(c)
		}
	}
	if s.Dependencies != nil {
		for _, d := range s.Dependencies.All() {
			add(d.Schema)
		}
	}
	add(s.AnyOf...)
	add(s.AllOf...)
	add(s.OneOf...)
	add(s.ItemsList...)
	add(s.SchemaSequence...)
	return out
}

// NormalizeID canonicalizes a schema id: the scheme and host are lower-cased
// and the rest is kept verbatim. Strings without a scheme are returned as is.
func NormalizeID(id string) string {
	u, err := url.Parse(id)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return id
	}
	scheme := strings.ToLower(id[:len(u.Scheme)])
	rest := id[len(u.Scheme):]
	if !strings.HasPrefix(rest, "://") {
		return scheme + rest
	}
	authority := rest[3:]
	end := strings.IndexAny(authority, "/?#")
	if end < 0 {
		end = len(authority)
	}
	return scheme + "://" + strings.ToLower(authority[:end]) + authority[end:]
}
