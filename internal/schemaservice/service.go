// Package schemaservice finds the JSON Schema that applies to a YAML
// resource and resolves its references.
//
// Schemas come from, in order: a custom provider, the document modeline,
// file pattern associations registered through Configure, and schemas saved
// under the resource's own URI. Candidates are ranked by Priority and the
// ones tied at the top are combined with allOf.
package schemaservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/jsonschema"
)

// CombinedSchemaPrefix starts the id of the synthetic allOf schema built for
// a resource matched by several schemas of equal priority.
const CombinedSchemaPrefix = "schemaservice://combinedSchema/"

// CustomSchemaProvider returns the schema URIs for a resource. An empty
// result or an error falls back to the built-in lookup.
type CustomSchemaProvider func(ctx context.Context, resource string) ([]string, error)

// SchemaConfig is one configured schema.
type SchemaConfig struct {
	URI       string
	FileMatch []string
	Schema    *jsonschema.Schema // inline content; nil means load URI
	Priority  Priority
}

// Options configures a Service.
type Options struct {
	Loader Loader       // DefaultLoader when nil
	Logger *slog.Logger // slog.Default() when nil
}

// Service holds registered schemas and their cached resolutions. It is safe
// for concurrent use.
type Service struct {
	loader   Loader
	log      *slog.Logger
	inflight singleflight.Group

	mu           sync.RWMutex
	byID         map[string]*handle
	associations []*association
	registered   map[string]bool
	priorities   priorities
	provider     CustomSchemaProvider
}

// New returns an empty Service.
func New(opts Options) *Service {
	s := &Service{
		loader:     opts.Loader,
		log:        opts.Logger,
		byID:       map[string]*handle{},
		registered: map[string]bool{},
		priorities: priorities{},
	}
	if s.loader == nil {
		s.loader = DefaultLoader{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Configure replaces every registered schema, association and priority with
// schemas.
func (s *Service) Configure(schemas []SchemaConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.priorities = priorities{}
	for _, c := range schemas {
		s.priorities.add(c.URI, c.Priority)
		s.registerLocked(c.URI, c.FileMatch, c.Schema)
	}
}

// ClearExternalSchemas drops all schemas, associations and cached handles.
func (s *Service) ClearExternalSchemas() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Service) clearLocked() {
	s.byID = map[string]*handle{}
	s.associations = nil
	s.registered = map[string]bool{}
}

// RegisterExternalSchema registers uri for resources matching fileMatch. When
// content is nil the schema is loaded on first use.
func (s *Service) RegisterExternalSchema(uri string, fileMatch []string, content *jsonschema.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(uri, fileMatch, content)
}

func (s *Service) registerLocked(uri string, fileMatch []string, content *jsonschema.Schema) {
	id := NormalizeID(uri)
	s.registered[id] = true
	for _, pattern := range fileMatch {
		s.associations = append(s.associations, newAssociation(pattern, []string{uri}))
	}
	if content != nil {
		s.byID[id] = newHandle(s, id, content)
	} else if _, ok := s.byID[id]; !ok {
		s.byID[id] = newHandle(s, id, nil)
	}
}

// AddSchemaPriority adds prio to the priorities of uri.
func (s *Service) AddSchemaPriority(uri string, prio Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priorities.add(uri, prio)
}

// RegisteredSchemaIDs lists the ids registered through Configure or
// RegisterExternalSchema.
func (s *Service) RegisteredSchemaIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.registered))
	for id := range s.registered {
		ids = append(ids, id)
	}
	return ids
}

// RegisterCustomSchemaProvider installs p; nil removes the provider.
func (s *Service) RegisterCustomSchemaProvider(p CustomSchemaProvider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
}

// SaveSchema stores content under id, replacing any previous schema, with
// priority Settings.
func (s *Service) SaveSchema(id string, content *jsonschema.Schema) {
	if content == nil {
		content = &jsonschema.Schema{}
	}
	id = NormalizeID(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = newHandle(s, id, content)
	s.priorities[id] = map[Priority]struct{}{Settings: {}}
}

// DeleteSchema removes id and its priorities.
func (s *Service) DeleteSchema(id string) {
	id = NormalizeID(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	delete(s.priorities, id)
}

// DeleteSchemas removes every id in ids.
func (s *Service) DeleteSchemas(ids []string) {
	for _, id := range ids {
		s.DeleteSchema(id)
	}
}

// ResetSchema drops the cached forms of uri and of every schema that loaded
// it, directly or transitively. It reports whether anything was dropped.
func (s *Service) ResetSchema(uri string) bool {
	uri = NormalizeID(uri)
	s.mu.RLock()
	all := make([]*handle, 0, len(s.byID))
	for _, h := range s.byID {
		all = append(all, h)
	}
	s.mu.RUnlock()

	changed := false
	toWalk := []string{uri}
	for len(toWalk) > 0 {
		curr := toWalk[len(toWalk)-1]
		toWalk = toWalk[:len(toWalk)-1]
		for i, h := range all {
			if h == nil || (h.url != curr && !h.dependsOn(curr)) {
				continue
			}
			if h.url != curr {
				toWalk = append(toWalk, h.url)
			}
			h.reset()
			all[i] = nil
			changed = true
		}
	}
	return changed
}

// GetResolvedSchema returns the resolved schema registered under id, or nil.
func (s *Service) GetResolvedSchema(ctx context.Context, id string) (*ResolvedSchema, error) {
	s.mu.RLock()
	h := s.byID[NormalizeID(id)]
	s.mu.RUnlock()
	if h == nil {
		return nil, nil
	}
	rs := h.resolved(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// handleFor returns the handle of id, creating it when missing.
func (s *Service) handleFor(id string) *handle {
	id = NormalizeID(id)
	s.mu.RLock()
	h := s.byID[id]
	s.mu.RUnlock()
	if h != nil {
		return h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h = s.byID[id]; h == nil {
		h = newHandle(s, id, nil)
		s.byID[id] = h
	}
	return h
}

// GetSchemaForResource returns the schema for the document doc of resource,
// or nil when no schema applies. When the schema has a schemaSequence, the
// entry for the document's index is returned.
func (s *Service) GetSchemaForResource(ctx context.Context, resource string, doc *ast.Document) (*ResolvedSchema, error) {
	s.mu.RLock()
	provider := s.provider
	s.mu.RUnlock()
	if provider != nil {
		rs, ok, err := s.fromProvider(ctx, provider, resource, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			return rs, nil
		}
	}
	return s.builtin(ctx, resource, doc)
}

func (s *Service) fromProvider(ctx context.Context, p CustomSchemaProvider, resource string, doc *ast.Document) (*ResolvedSchema, bool, error) {
	uris, err := p(ctx, resource)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		s.log.Warn("custom schema provider failed", "resource", resource, "err", err)
		return nil, false, nil
	}
	var nonEmpty []string
	for _, u := range uris {
		if strings.TrimSpace(u) != "" {
			nonEmpty = append(nonEmpty, u)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return nil, false, nil
	case 1:
		rs := s.resolveCustom(ctx, nonEmpty[0], doc)
		return rs, true, ctx.Err()
	}
	schemas := make([]*jsonschema.Schema, len(nonEmpty))
	var g errgroup.Group
	for i, u := range nonEmpty {
		g.Go(func() error {
			schemas[i] = s.resolveCustom(ctx, u, doc).Schema
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return &ResolvedSchema{Schema: &jsonschema.Schema{AnyOf: schemas}}, true, nil
}

func (s *Service) resolveCustom(ctx context.Context, uri string, doc *ast.Document) *ResolvedSchema {
	rs := s.resolveContent(ctx, s.loadSchema(ctx, uri), uri, map[string]bool{})
	rs.Schema.URL = uri
	return sequenceEntry(rs, doc)
}

func (s *Service) builtin(ctx context.Context, resource string, doc *ast.Document) (*ResolvedSchema, error) {
	var ids []string
	seen := map[string]bool{}
	if m, ok := SchemaFromModeline(doc, s.log); ok {
		m = modelineURI(m, resource)
		s.AddSchemaPriority(m, Modeline)
		ids = append(ids, m)
		seen[m] = true
	}

	s.mu.RLock()
	for _, a := range s.associations {
		if !a.matches(resource) {
			continue
		}
		for _, id := range a.uris {
			if !seen[id] {
				ids = append(ids, id)
				seen[id] = true
			}
		}
	}
	if id := NormalizeID(resource); s.byID[id] != nil {
		ids = append(ids, id)
	}
	top := s.priorities.highest(ids)
	s.mu.RUnlock()

	if len(top) == 0 {
		return nil, nil
	}
	h := s.combined(ctx, resource, top)
	rs := h.resolved(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sequenceEntry(rs, doc), nil
}

// combined returns the handle for ids: the schema itself for one id, else a
// fresh allOf of all of them. The members are loaded concurrently first.
func (s *Service) combined(ctx context.Context, resource string, ids []string) *handle {
	if len(ids) == 1 {
		return s.handleFor(ids[0])
	}
	var g errgroup.Group
	for _, id := range ids {
		h := s.handleFor(id)
		g.Go(func() error {
			h.unresolved(ctx)
			return nil
		})
	}
	_ = g.Wait()

	all := make([]*jsonschema.Schema, len(ids))
	for i, id := range ids {
		all[i] = &jsonschema.Schema{Ref: id}
	}
	id := CombinedSchemaPrefix + encodeURIComponent(resource)
	h := newHandle(s, id, &jsonschema.Schema{AllOf: all})
	s.mu.Lock()
	s.byID[id] = h
	s.mu.Unlock()
	return h
}

func sequenceEntry(rs *ResolvedSchema, doc *ast.Document) *ResolvedSchema {
	if rs == nil || rs.Schema == nil || doc == nil {
		return rs
	}
	seq := rs.Schema.SchemaSequence
	if i := doc.Index; i >= 0 && i < len(seq) && seq[i] != nil {
		return &ResolvedSchema{Schema: seq[i]}
	}
	return rs
}

func encodeURIComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || strings.IndexByte("-_.!~*'()", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}
