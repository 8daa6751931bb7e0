package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
	"go.lsp.dev/protocol"

	"github.com/reoring/yamlls"
	"github.com/reoring/yamlls/jsonschema"
	"github.com/reoring/yamlls/kubeopenapi"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	infoColor    = color.New(color.FgCyan).SprintFunc()
	pathColor    = color.New(color.Bold).SprintFunc()
	dimColor     = color.New(color.Faint).SprintFunc()
)

func validate(cfg *ValidateConfig, cc *cli.Context, args []string) error {
	ls, _, err := cfg.service(cc.Out)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	errs := 0
	for _, arg := range args {
		doc, err := readDocument(arg, cc.In)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", arg, err)
		}
		diags, err := ls.DoValidation(context.Background(), doc, cfg.isKubernetes(ls, doc.URI))
		if err != nil {
			return fmt.Errorf("error validating %s: %w", arg, err)
		}
		for _, d := range diags {
			if d.Severity == protocol.DiagnosticSeverityError {
				errs++
			}
			writeDiagnostic(cc.Out, arg, d)
		}
	}
	if errs > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func writeDiagnostic(w io.Writer, file string, d protocol.Diagnostic) {
	var sev string
	switch d.Severity {
	case protocol.DiagnosticSeverityError:
		sev = errorColor("error")
	case protocol.DiagnosticSeverityWarning:
		sev = warningColor("warning")
	default:
		sev = infoColor("info")
	}
	fmt.Fprintf(w, "%s:%d:%d: %s: %s %s\n",
		pathColor(file), d.Range.Start.Line+1, d.Range.Start.Character+1,
		sev, d.Message, dimColor("["+d.Source+"]"))
}

// parsePosition reads a 1-based "line:col".
func parsePosition(s string) (protocol.Position, error) {
	l, c, ok := strings.Cut(s, ":")
	if !ok {
		return protocol.Position{}, fmt.Errorf("%w: position %q is not line:col", cli.ErrUsage, s)
	}
	line, err := strconv.Atoi(l)
	if err != nil || line < 1 {
		return protocol.Position{}, fmt.Errorf("%w: bad line in %q", cli.ErrUsage, s)
	}
	col, err := strconv.Atoi(c)
	if err != nil || col < 1 {
		return protocol.Position{}, fmt.Errorf("%w: bad column in %q", cli.ErrUsage, s)
	}
	return protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)}, nil
}

func positionArgs(cc *cli.Context, args []string, name string) (yamlls.TextDocument, protocol.Position, error) {
	if len(args) != 2 {
		return yamlls.TextDocument{}, protocol.Position{}, fmt.Errorf("%w: %s requires a file and a line:col position", cli.ErrUsage, name)
	}
	pos, err := parsePosition(args[1])
	if err != nil {
		return yamlls.TextDocument{}, pos, err
	}
	doc, err := readDocument(args[0], cc.In)
	if err != nil {
		return doc, pos, fmt.Errorf("error reading %s: %w", args[0], err)
	}
	return doc, pos, nil
}

func complete(cfg *CompleteConfig, cc *cli.Context, args []string) error {
	doc, pos, err := positionArgs(cc, args, "complete")
	if err != nil {
		return err
	}
	ls, _, err := cfg.service(cc.Out)
	if err != nil {
		return err
	}
	list, err := ls.DoComplete(context.Background(), doc, pos, cfg.isKubernetes(ls, doc.URI))
	if err != nil {
		return err
	}
	for _, it := range list.Items {
		insert := it.InsertText
		if it.TextEdit != nil {
			insert = it.TextEdit.NewText
		}
		fmt.Fprintf(cc.Out, "%s\t%s\t%s\n", pathColor(it.Label), infoColor(fmt.Sprint(it.Kind)), dimColor(strconv.Quote(insert)))
	}
	return nil
}

func hover(cfg *HoverConfig, cc *cli.Context, args []string) error {
	doc, pos, err := positionArgs(cc, args, "hover")
	if err != nil {
		return err
	}
	ls, _, err := cfg.service(cc.Out)
	if err != nil {
		return err
	}
	h, err := ls.DoHover(context.Background(), doc, pos, cfg.isKubernetes(ls, doc.URI))
	if err != nil {
		return err
	}
	if h == nil {
		return nil
	}
	_, err = fmt.Fprintln(cc.Out, h.Contents.Value)
	return err
}

func symbols(cfg *SymbolsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Symbols.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: symbols requires one file", cli.ErrUsage)
	}
	doc, err := readDocument(args[0], cc.In)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", args[0], err)
	}
	ls, _, err := cfg.service(cc.Out)
	if err != nil {
		return err
	}
	opts := yamlls.SymbolOptions{
		MaxResults: cfg.Max,
		OnLimitExceeded: func(uri string) {
			fmt.Fprintf(cc.Out, "%s\n", warningColor(fmt.Sprintf("# symbols of %s truncated to %d", uri, cfg.Max)))
		},
	}
	if cfg.Tree {
		writeTree(cc.Out, ls.FindHierarchicalDocumentSymbols(doc, opts), 0)
		return nil
	}
	for _, s := range ls.FindDocumentSymbols(doc, opts) {
		name := s.Name
		if s.ContainerName != "" {
			name = s.ContainerName + "." + name
		}
		fmt.Fprintf(cc.Out, "%d:%d\t%s\t%s\n", s.Location.Range.Start.Line+1, s.Location.Range.Start.Character+1, pathColor(name), infoColor(fmt.Sprint(s.Kind)))
	}
	return nil
}

func writeTree(w io.Writer, syms []protocol.DocumentSymbol, depth int) {
	for _, s := range syms {
		fmt.Fprintf(w, "%s%s %s", strings.Repeat("  ", depth), pathColor(s.Name), infoColor(fmt.Sprint(s.Kind)))
		if s.Detail != "" {
			fmt.Fprintf(w, " %s", dimColor(s.Detail))
		}
		fmt.Fprintln(w)
		writeTree(w, s.Children, depth+1)
	}
}

func schemaShow(cfg *SchemaShowConfig, cc *cli.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: schema show requires one file", cli.ErrUsage)
	}
	doc, err := readDocument(args[0], cc.In)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", args[0], err)
	}
	ls, _, err := cfg.service(cc.Out)
	if err != nil {
		return err
	}
	s, errs, err := ls.ResolvedSchema(context.Background(), doc)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("no schema applies to %s", args[0])
	}
	for _, e := range errs {
		fmt.Fprintln(cc.Out, warningColor("# "+e))
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error encoding schema: %w", err)
	}
	_, err = fmt.Fprintln(cc.Out, string(b))
	return err
}

func schemaImport(cfg *SchemaImportConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Import.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: schema import requires one CRD file", cli.ErrUsage)
	}
	if (cfg.Kind == "") == (cfg.Name == "") {
		return fmt.Errorf("%w: exactly one of -kind and -name is required", cli.ErrUsage)
	}
	cfg.setColor(cc.Out)
	doc, err := readDocument(args[0], cc.In)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", args[0], err)
	}
	opts := kubeopenapi.Options{Version: cfg.Version, Strict: cfg.Strict}
	data := []byte(doc.Text)
	var (
		s    *jsonschema.Schema
		diag kubeopenapi.Diag
	)
	if cfg.Kind != "" {
		s, diag, err = kubeopenapi.ImportYAMLForCRDKind(data, cfg.Kind, opts)
	} else {
		s, diag, err = kubeopenapi.ImportYAMLForCRDName(data, cfg.Name, opts)
	}
	if err != nil {
		return fmt.Errorf("error importing %s: %w", args[0], err)
	}
	if diag != nil {
		for _, w := range diag.Warnings() {
			cfg.logger().Warn(w, "file", args[0])
		}
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error encoding schema: %w", err)
	}
	_, err = fmt.Fprintln(cc.Out, string(b))
	return err
}
