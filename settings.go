package yamlls

import (
	"github.com/reoring/yamlls/internal/schemaservice"
	"github.com/reoring/yamlls/internal/symbols"
	"github.com/reoring/yamlls/jsonschema"
)

// Priority orders schemas that match the same file. Higher wins.
type Priority = schemaservice.Priority

const (
	SchemaStore       = schemaservice.SchemaStore
	SchemaAssociation = schemaservice.SchemaAssociation
	SettingsPriority  = schemaservice.Settings
	Modeline          = schemaservice.Modeline
)

// SchemaSettings associates a schema with file globs.
type SchemaSettings struct {
	// URI identifies the schema. "kubernetes" selects the built-in Kubernetes
	// schema and Kubernetes mode.
	URI       string
	FileMatch []string
	// Schema is inline content; nil means the schema is loaded from URI.
	Schema   *jsonschema.Schema
	Priority Priority
}

// Settings configures a LanguageService. Configure replaces all previous
// settings.
type Settings struct {
	// Validate, Hover and Completion enable their feature; nil means enabled.
	Validate   *bool
	Hover      *bool
	Completion *bool

	Schemas []SchemaSettings
	// CustomTags lists accepted local tags as "!Tag" or "!Tag kind" with kind
	// scalar, sequence or mapping.
	CustomTags []string
	// Indentation is the unit used in completion snippets. Empty means it is
	// guessed from each document.
	Indentation string
	// DisableAdditionalProperties treats object schemas without
	// additionalProperties as closed.
	DisableAdditionalProperties bool
	// KubernetesFileMatch lists globs of files validated against the
	// Kubernetes schema in Kubernetes mode.
	KubernetesFileMatch []string
}

func enabled(b *bool) bool { return b == nil || *b }

// Bool returns a pointer to b, for the feature switches of Settings.
func Bool(b bool) *bool { return &b }

// TextDocument is one version of a YAML file.
type TextDocument struct {
	URI     string
	Version int32
	Text    string
}

type (
	// SchemaAdditions sets a key in a registered schema.
	SchemaAdditions = schemaservice.SchemaAdditions
	// SchemaDeletions removes a key from a registered schema.
	SchemaDeletions = schemaservice.SchemaDeletions
	// CustomSchemaProvider picks schema URIs for a resource before the
	// built-in resolution.
	CustomSchemaProvider = schemaservice.CustomSchemaProvider
	// SchemaRequestService loads the raw content of a schema URI.
	SchemaRequestService = schemaservice.Loader
	// SymbolOptions limits document symbol results.
	SymbolOptions = symbols.Options
)
