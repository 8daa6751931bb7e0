package yamlls

import (
	"context"
	"log/slog"
	"sync"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/internal/completion"
	"github.com/reoring/yamlls/internal/hover"
	"github.com/reoring/yamlls/internal/schemaservice"
	"github.com/reoring/yamlls/jsonschema"
	"github.com/reoring/yamlls/kubeopenapi"
)

// Options configures a LanguageService.
type Options struct {
	// Logger receives debug and warning records; slog.Default() when nil.
	Logger *slog.Logger
	// Loader reads schema content. The default reads files and fetches
	// http(s) URLs.
	Loader SchemaRequestService
}

// LanguageService answers validation, completion, hover and symbol requests
// for YAML documents. It is safe for concurrent use; each instance owns its
// document and schema caches.
type LanguageService struct {
	log       *slog.Logger
	schemas   *schemaservice.Service
	docs      *ast.Cache
	completer *completion.Completer
	hoverer   *hover.Hoverer

	mu       sync.RWMutex
	settings Settings
	k8sGlobs []string
}

// New returns a LanguageService with every feature enabled and no schema
// configured.
func New(opts Options) *LanguageService {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	schemas := schemaservice.New(schemaservice.Options{Loader: opts.Loader, Logger: log})
	return &LanguageService{
		log:       log,
		schemas:   schemas,
		docs:      ast.NewCache(),
		completer: completion.New(schemas),
		hoverer:   hover.New(schemas),
	}
}

// Configure replaces the settings, the registered schemas and their file
// associations. Schemas configured with the "kubernetes" URI are registered
// as the Kubernetes schema and their globs select Kubernetes mode.
func (ls *LanguageService) Configure(s Settings) {
	var globs []string
	configs := make([]schemaservice.SchemaConfig, 0, len(s.Schemas)+1)
	for _, sc := range s.Schemas {
		uri := sc.URI
		if kubeopenapi.IsAlias(uri) {
			uri = kubeopenapi.ResolveAlias(uri)
			globs = append(globs, sc.FileMatch...)
		}
		configs = append(configs, schemaservice.SchemaConfig{
			URI:       uri,
			FileMatch: sc.FileMatch,
			Schema:    sc.Schema,
			Priority:  sc.Priority,
		})
	}
	if len(s.KubernetesFileMatch) > 0 {
		globs = append(globs, s.KubernetesFileMatch...)
		configs = append(configs, schemaservice.SchemaConfig{
			URI:       kubeopenapi.SchemaURL,
			FileMatch: s.KubernetesFileMatch,
			Priority:  schemaservice.Settings,
		})
	}
	ls.schemas.Configure(configs)

	ls.completer.Configure(completion.Settings{
		Completion:  enabled(s.Completion),
		CustomTags:  s.CustomTags,
		Indentation: s.Indentation,
	})
	ls.hoverer.Configure(enabled(s.Hover))

	ls.mu.Lock()
	ls.settings = s
	ls.k8sGlobs = globs
	ls.mu.Unlock()
	ls.log.Debug("configured", "schemas", len(configs), "kubernetesGlobs", len(globs))
}

// IsKubernetes reports whether uri matches a Kubernetes file pattern of the
// current settings.
func (ls *LanguageService) IsKubernetes(uri string) bool {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	for _, g := range ls.k8sGlobs {
		if schemaservice.MatchGlob(g, uri) {
			return true
		}
	}
	return false
}

func (ls *LanguageService) current() Settings {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.settings
}

// file returns the parsed form of doc. Validation wraps blank documents in
// an object root; hover and symbols do not.
func (ls *LanguageService) file(doc TextDocument, addRoot bool) *ast.File {
	return ls.docs.Get(doc.URI, doc.Version, doc.Text, ast.Options{
		CustomTags:    ls.current().CustomTags,
		AddRootObject: addRoot,
	})
}

// CloseDocument drops the cached parse of uri.
func (ls *LanguageService) CloseDocument(uri string) { ls.docs.Delete(uri) }

// RegisterCustomSchemaProvider installs p, consulted before the configured
// associations. nil removes it.
func (ls *LanguageService) RegisterCustomSchemaProvider(p CustomSchemaProvider) {
	ls.schemas.RegisterCustomSchemaProvider(p)
}

// AddSchema stores schema under id with Settings priority, replacing any
// schema already stored there.
func (ls *LanguageService) AddSchema(id string, schema *jsonschema.Schema) {
	ls.schemas.SaveSchema(id, schema)
}

// DeleteSchema removes the schema stored under id.
func (ls *LanguageService) DeleteSchema(id string) { ls.schemas.DeleteSchema(id) }

// DeleteSchemas removes every schema in ids.
func (ls *LanguageService) DeleteSchemas(ids []string) { ls.schemas.DeleteSchemas(ids) }

// ModifySchemaContent sets a key inside a stored schema.
func (ls *LanguageService) ModifySchemaContent(ctx context.Context, a SchemaAdditions) error {
	return ls.schemas.AddContent(ctx, a)
}

// DeleteSchemaContent removes a key from a stored schema.
func (ls *LanguageService) DeleteSchemaContent(ctx context.Context, d SchemaDeletions) error {
	return ls.schemas.DeleteContent(ctx, d)
}

// ResetSchema drops the cached resolution of uri and of the schemas that
// depend on it. It reports whether anything was dropped.
func (ls *LanguageService) ResetSchema(uri string) bool { return ls.schemas.ResetSchema(uri) }

// ResolvedSchema returns the resolved schema of the first document of doc,
// or nil when none applies.
func (ls *LanguageService) ResolvedSchema(ctx context.Context, doc TextDocument) (*jsonschema.Schema, []string, error) {
	f := ls.file(doc, true)
	var d *ast.Document
	if len(f.Documents) > 0 {
		d = f.Documents[0]
	}
	rs, err := ls.schemas.GetSchemaForResource(ctx, doc.URI, d)
	if err != nil || rs == nil {
		return nil, nil, err
	}
	return rs.Schema, rs.Errors, nil
}
