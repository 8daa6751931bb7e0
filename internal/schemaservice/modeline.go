package schemaservice

import (
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"go.lsp.dev/uri"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
)

var (
	modelineRe       = regexp.MustCompile(`^#\s+yaml-language-server\s*:`)
	modelineSchemaRe = regexp.MustCompile(`\$schema=\S+`)
)

// SchemaFromModeline returns the $schema attribute of the first
// "# yaml-language-server:" comment in doc. When the modeline names several
// schemas the first one is used and a warning is logged.
func SchemaFromModeline(doc *ast.Document, log *slog.Logger) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.Comments {
		if !modelineRe.MatchString(c.Text) {
			continue
		}
		found := modelineSchemaRe.FindAllString(c.Text, -1)
		if len(found) == 0 {
			return "", false
		}
		if len(found) > 1 && log != nil {
			log.Warn(i18n.T(i18n.SchemaModelineTwice))
		}
		return strings.TrimPrefix(found[0], "$schema="), true
	}
	return "", false
}

// modelineURI turns a modeline schema into a URI. Paths are made absolute
// against the directory of resource and converted to file URIs.
func modelineURI(schema, resource string) string {
	if strings.HasPrefix(schema, "file:") || strings.HasPrefix(schema, "http") {
		return schema
	}
	p := schema
	if !filepath.IsAbs(p) {
		dir := ""
		if fs, ok := fsPath(resource); ok {
			dir = filepath.Dir(fs)
		}
		p = filepath.Join(dir, p)
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return string(uri.File(p))
}

// fsPath returns the file system path of a file URI.
func fsPath(s string) (string, bool) {
	if !strings.HasPrefix(s, "file://") {
		return "", false
	}
	if _, err := url.ParseRequestURI(s); err != nil {
		return "", false
	}
	return uri.URI(s).Filename(), true
}

// displayName is the form of a schema URI used in messages: a path for file
// URIs and the URI itself otherwise.
func displayName(s string) string {
	if p, ok := fsPath(s); ok {
		return p
	}
	return s
}
