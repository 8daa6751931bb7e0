// Package yamlls provides YAML language intelligence driven by JSON Schema:
//
// - Validation diagnostics for every document of a YAML file
// - Completion of keys, values, array items and schema snippets
// - Hover documentation and document symbols
// - Schema resolution from settings, file globs, modelines and custom providers
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - One LanguageService owns its caches; nothing is shared between instances.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	ls := yamlls.New(yamlls.Options{})
//	ls.Configure(yamlls.Settings{Schemas: []yamlls.SchemaSettings{
//		{URI: "https://example.com/app.json", FileMatch: []string{"*.app.yaml"}},
//	}})
//	diags, err := ls.DoValidation(ctx, yamlls.TextDocument{URI: uri, Text: text}, false)
//	list, err := ls.DoComplete(ctx, doc, pos, false)
package yamlls
