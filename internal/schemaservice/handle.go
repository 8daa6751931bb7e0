package schemaservice

import (
	"context"
	"sync"

	"github.com/reoring/yamlls/jsonschema"
)

// UnresolvedSchema is a schema document as loaded, before $ref resolution.
type UnresolvedSchema struct {
	Schema *jsonschema.Schema
	Errors []string
}

// ResolvedSchema is a schema with every reachable $ref merged in. Errors are
// non-fatal: Schema is always usable.
type ResolvedSchema struct {
	Schema *jsonschema.Schema
	Errors []string
}

// Err returns the resolution errors as ResolveErrors, or nil.
func (r *ResolvedSchema) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return ResolveErrors(r.Errors)
}

// handle memoizes the loaded and resolved forms of one schema id.
type handle struct {
	svc     *Service
	url     string
	content *jsonschema.Schema // preset content; nil means load from url

	mu sync.Mutex
	st *handleState
}

// handleState is swapped out wholesale on reset so work still running on the
// old state cannot repopulate the cache.
type handleState struct {
	loadMu     sync.Mutex
	unresolved *UnresolvedSchema

	resolveMu sync.Mutex
	resolved  *ResolvedSchema

	depsMu sync.Mutex
	deps   map[string]bool
}

func newHandle(svc *Service, url string, content *jsonschema.Schema) *handle {
	return &handle{svc: svc, url: url, content: content, st: &handleState{}}
}

func (h *handle) state() *handleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st
}

func (h *handle) reset() {
	h.mu.Lock()
	h.st = &handleState{}
	h.mu.Unlock()
}

// dependsOn reports whether the last resolution of h loaded uri.
func (h *handle) dependsOn(uri string) bool {
	st := h.state()
	st.depsMu.Lock()
	defer st.depsMu.Unlock()
	return st.deps[uri]
}

// Results computed under a cancelled context are returned but not kept.
func (h *handle) unresolved(ctx context.Context) *UnresolvedSchema {
	st := h.state()
	st.loadMu.Lock()
	defer st.loadMu.Unlock()
	if st.unresolved != nil {
		return st.unresolved
	}
	var u *UnresolvedSchema
	if h.content != nil {
		u = &UnresolvedSchema{Schema: h.content}
	} else {
		u = h.svc.loadSchema(ctx, h.url)
	}
	if ctx.Err() == nil {
		st.unresolved = u
	}
	return u
}

// resolved may read the unresolved form of any handle, this one included,
// but never takes another handle's resolve lock.
func (h *handle) resolved(ctx context.Context) *ResolvedSchema {
	st := h.state()
	st.resolveMu.Lock()
	defer st.resolveMu.Unlock()
	if st.resolved != nil {
		h.svc.log.Debug("schema cache hit", "uri", h.url)
		return st.resolved
	}
	deps := map[string]bool{}
	rs := h.svc.resolveContent(ctx, h.unresolved(ctx), h.url, deps)
	if ctx.Err() == nil {
		st.resolved = rs
		st.depsMu.Lock()
		st.deps = deps
		st.depsMu.Unlock()
	}
	return rs
}
