package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
)

const description = `yamlls checks and explores YAML files with JSON Schema.

Schemas are associated with files through a settings file:

  schemas:
    - uri: https://json.schemastore.org/github-workflow.json
      fileMatch: [".github/workflows/*.yml"]
    - uri: kubernetes
      fileMatch: ["deploy/*.yaml"]
  customTags: ["!Ref scalar"]

or through a modeline comment in the document:

  # yaml-language-server: $schema=./schema.json`

type MainConfig struct {
	Settings   string `cli:"name=settings aliases=s desc='YAML settings file'"`
	SchemaURI  string `cli:"name=schema desc='schema URI or path applied to every file'"`
	Kubernetes bool   `cli:"name=k8s aliases=kubernetes desc='treat files as Kubernetes resources'"`
	Debug      bool   `cli:"name=debug desc='log schema loading to stderr'"`
	Color      bool   `cli:"name=color desc='force colored output'"`
	NoColor    bool   `cli:"name=no-color desc='disable colored output'"`

	Main *cli.Command
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "yamlls").
		WithSynopsis("yamlls [opts] command [opts]").
		WithDescription(description).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return yamllsMain(cfg, cc, args)
		}).
		WithSubs(
			ValidateCommand(cfg),
			CompleteCommand(cfg),
			HoverCommand(cfg),
			SymbolsCommand(cfg),
			SchemaCommand(cfg))
}

func yamllsMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Color && cfg.NoColor {
		return fmt.Errorf("%w: -color and -no-color are exclusive", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

type ValidateConfig struct {
	*MainConfig
	Validate *cli.Command
}

func ValidateCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ValidateConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Validate, "validate").
		WithAliases("v", "check").
		WithSynopsis("validate [files]").
		WithDescription("report diagnostics for YAML files; stdin when no file is given").
		WithRun(func(cc *cli.Context, args []string) error {
			return validate(cfg, cc, args)
		})
}

type CompleteConfig struct {
	*MainConfig
	Complete *cli.Command
}

func CompleteCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CompleteConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Complete, "complete").
		WithAliases("c").
		WithSynopsis("complete <file> <line:col>").
		WithDescription("list completion proposals at a 1-based position").
		WithRun(func(cc *cli.Context, args []string) error {
			return complete(cfg, cc, args)
		})
}

type HoverConfig struct {
	*MainConfig
	Hover *cli.Command
}

func HoverCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &HoverConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Hover, "hover").
		WithAliases("h").
		WithSynopsis("hover <file> <line:col>").
		WithDescription("print the schema documentation at a 1-based position").
		WithRun(func(cc *cli.Context, args []string) error {
			return hover(cfg, cc, args)
		})
}

type SymbolsConfig struct {
	*MainConfig
	Tree bool `cli:"name=tree aliases=t desc='print symbols as a tree'"`
	Max  int  `cli:"name=max desc='maximum number of symbols'"`

	Symbols *cli.Command
}

func SymbolsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SymbolsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Symbols, "symbols").
		WithSynopsis("symbols [-tree] [-max n] <file>").
		WithDescription("list the keys of a YAML file").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return symbols(cfg, cc, args)
		})
}

type SchemaConfig struct {
	*MainConfig
	Schema *cli.Command
}

func SchemaCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Schema, "schema").
		WithSynopsis("schema <subcommand>").
		WithDescription("schema commands").
		WithSubs(
			SchemaShowCommand(cfg.MainConfig),
			SchemaImportCommand(cfg.MainConfig))
}

type SchemaShowConfig struct {
	*MainConfig
	Show *cli.Command
}

func SchemaShowCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaShowConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Show, "show").
		WithSynopsis("show <file>").
		WithDescription("print the resolved schema that applies to a file").
		WithRun(func(cc *cli.Context, args []string) error {
			return schemaShow(cfg, cc, args)
		})
}

type SchemaImportConfig struct {
	*MainConfig
	Kind    string `cli:"name=kind desc='CRD kind to import'"`
	Name    string `cli:"name=name desc='CRD metadata.name to import'"`
	Version string `cli:"name=version desc='CRD version (default: first served)'"`
	Strict  bool   `cli:"name=strict desc='close objects without additionalProperties'"`

	Import *cli.Command
}

func SchemaImportCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaImportConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Import, "import").
		WithSynopsis("import (-kind K | -name N) [-version v] [-strict] <crd.yaml>").
		WithDescription("convert a CustomResourceDefinition schema to JSON Schema").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return schemaImport(cfg, cc, args)
		})
}
