package yamlls

import (
	"context"
	"strconv"

	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls/ast"
	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/internal/engine"
)

// DoValidation returns the diagnostics of every document in doc: parser
// errors, then parser warnings, then schema problems. isKubernetes selects
// the Kubernetes ranking of alternatives.
func (ls *LanguageService) DoValidation(ctx context.Context, doc TextDocument, isKubernetes bool) ([]protocol.Diagnostic, error) {
	settings := ls.current()
	if !enabled(settings.Validate) {
		return []protocol.Diagnostic{}, nil
	}
	file := ls.file(doc, true)

	var all []*protocol.Diagnostic
	for _, d := range file.Documents {
		for _, p := range d.Errors {
			all = append(all, parserDiagnostic(file.Lines, p, protocol.DiagnosticSeverityError))
		}
		for _, p := range d.Warnings {
			all = append(all, parserDiagnostic(file.Lines, p, protocol.DiagnosticSeverityWarning))
		}
		diags, err := ls.schemaDiagnostics(ctx, doc.URI, file.Lines, d, isKubernetes, settings.DisableAdditionalProperties)
		if err != nil {
			return nil, err
		}
		all = append(all, diags...)
	}
	return postProcess(all, isKubernetes), nil
}

func parserDiagnostic(lines *ast.LineIndex, p ast.Problem, sev protocol.DiagnosticSeverity) *protocol.Diagnostic {
	code := engine.Undefined
	if p.Code == ast.DuplicateKey {
		code = engine.DuplicateKey
	}
	return &protocol.Diagnostic{
		Range:    lines.Range(p.Offset, p.Length),
		Severity: sev,
		Code:     int(code),
		Source:   engine.DefaultSource,
		Message:  p.Message,
	}
}

func (ls *LanguageService) schemaDiagnostics(ctx context.Context, uri string, lines *ast.LineIndex, d *ast.Document, isKubernetes, closed bool) ([]*protocol.Diagnostic, error) {
	rs, err := ls.schemas.GetSchemaForResource(ctx, uri, d)
	if err != nil {
		return nil, err
	}
	if rs == nil || rs.Schema == nil || d.Root == nil {
		return nil, nil
	}
	if len(rs.Errors) > 0 {
		return []*protocol.Diagnostic{resolveDiagnostic(lines, d.Root, rs.Errors[0])}, nil
	}

	res := engine.NewResult(isKubernetes)
	engine.Validate(d.Root, rs.Schema, rs.Schema, res, engine.NoOp, engine.Options{
		IsKubernetes:                isKubernetes,
		DisableAdditionalProperties: closed,
	})
	out := make([]*protocol.Diagnostic, 0, len(res.Problems))
	for _, p := range res.Problems {
		out = append(out, &protocol.Diagnostic{
			Range:    lines.Range(p.Location.Offset, p.Location.Length),
			Severity: p.Severity,
			Code:     int(p.Code),
			Source:   p.Source,
			Message:  p.Message,
			Data:     map[string]any{"schemaUri": p.SchemaURIs},
		})
	}
	return out, nil
}

// resolveDiagnostic reports a schema that failed to resolve, on the value of
// a leading $schema property when there is one, else on the first character
// of the document root.
func resolveDiagnostic(lines *ast.LineIndex, root ast.Node, msg string) *protocol.Diagnostic {
	rng := lines.Range(root.Offset(), 1)
	if obj, ok := root.(*ast.Object); ok && len(obj.Properties) > 0 {
		p := obj.Properties[0]
		if p.Key != nil && p.Key.Value == "$schema" {
			var n ast.Node = p
			if p.Value != nil {
				n = p.Value
			}
			rng = lines.Range(n.Offset(), n.Length())
		}
	}
	return &protocol.Diagnostic{
		Range:    rng,
		Severity: protocol.DiagnosticSeverityWarning,
		Code:     int(engine.SchemaResolveError),
		Source:   engine.DefaultSource,
		Message:  msg,
	}
}

// postProcess drops the "matches multiple" problem in Kubernetes mode, widens
// a diagnostic over the next one when they repeat a message on the same line,
// and drops repeats of an exact line, column and message.
func postProcess(all []*protocol.Diagnostic, isKubernetes bool) []protocol.Diagnostic {
	matchesMultiple := i18n.T(i18n.OneOf)
	seen := map[string]bool{}
	out := []protocol.Diagnostic{}
	var kept []*protocol.Diagnostic
	var prev *protocol.Diagnostic
	for _, d := range all {
		if isKubernetes && d.Message == matchesMultiple {
			continue
		}
		if d.Source == "" {
			d.Source = engine.DefaultSource
		}
		if prev != nil && prev.Message == d.Message && prev.Range.End.Line == d.Range.Start.Line &&
			absDiff(prev.Range.End.Character, d.Range.End.Character) >= 1 {
			prev.Range.End = d.Range.End
			continue
		}
		prev = d
		sig := strconv.Itoa(int(d.Range.Start.Line)) + " " + strconv.Itoa(int(d.Range.Start.Character)) + " " + d.Message
		if !seen[sig] {
			seen[sig] = true
			kept = append(kept, d)
		}
	}
	for _, d := range kept {
		out = append(out, *d)
	}
	return out
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
