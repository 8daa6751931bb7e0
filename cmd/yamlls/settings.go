package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.lsp.dev/uri"
	"gopkg.in/yaml.v3"

	"github.com/reoring/yamlls"
	"github.com/reoring/yamlls/jsonschema"
)

// settingsFile is the on-disk form of yamlls.Settings.
type settingsFile struct {
	Validate                    *bool          `yaml:"validate"`
	Hover                       *bool          `yaml:"hover"`
	Completion                  *bool          `yaml:"completion"`
	Schemas                     []schemaEntry  `yaml:"schemas"`
	CustomTags                  []string       `yaml:"customTags"`
	Indentation                 string         `yaml:"indentation"`
	DisableAdditionalProperties bool           `yaml:"disableAdditionalProperties"`
	Kubernetes                  []string       `yaml:"kubernetes"`
	Extra                       map[string]any `yaml:",inline"`
}

type schemaEntry struct {
	URI       string    `yaml:"uri"`
	FileMatch []string  `yaml:"fileMatch"`
	Priority  int       `yaml:"priority"`
	Schema    yaml.Node `yaml:"schema"`
}

func readSettings(path string) (settingsFile, error) {
	var sf settingsFile
	b, err := os.ReadFile(path)
	if err != nil {
		return sf, err
	}
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return sf, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return sf, nil
}

// settings builds the service settings from the settings file and the
// -schema flag. Relative schema paths are resolved against the directory of
// the settings file.
func (cfg *MainConfig) settings() (yamlls.Settings, error) {
	var s yamlls.Settings
	if cfg.Settings != "" {
		sf, err := readSettings(cfg.Settings)
		if err != nil {
			return s, err
		}
		for k := range sf.Extra {
			slog.Warn("unknown setting", "key", k, "file", cfg.Settings)
		}
		base := filepath.Dir(cfg.Settings)
		s.Validate, s.Hover, s.Completion = sf.Validate, sf.Hover, sf.Completion
		s.CustomTags = sf.CustomTags
		s.Indentation = sf.Indentation
		s.DisableAdditionalProperties = sf.DisableAdditionalProperties
		s.KubernetesFileMatch = sf.Kubernetes
		for _, e := range sf.Schemas {
			ss := yamlls.SchemaSettings{
				URI:       schemaURI(e.URI, base),
				FileMatch: e.FileMatch,
				Priority:  yamlls.Priority(e.Priority),
			}
			if e.Schema.Kind != 0 {
				inline, err := inlineSchema(&e.Schema)
				if err != nil {
					return s, fmt.Errorf("inline schema %s: %w", e.URI, err)
				}
				ss.Schema = inline
			}
			s.Schemas = append(s.Schemas, ss)
		}
	}
	if cfg.SchemaURI != "" {
		s.Schemas = append(s.Schemas, yamlls.SchemaSettings{
			URI:       schemaURI(cfg.SchemaURI, "."),
			FileMatch: []string{"*"},
			Priority:  yamlls.SettingsPriority,
		})
	}
	return s, nil
}

func inlineSchema(n *yaml.Node) (*jsonschema.Schema, error) {
	b, err := yaml.Marshal(n)
	if err != nil {
		return nil, err
	}
	return jsonschema.ParseYAML(b)
}

// schemaURI leaves URLs and the kubernetes alias untouched and turns paths
// into file URIs.
func schemaURI(s, base string) string {
	if strings.Contains(s, "://") || !strings.ContainsAny(s, "/\\.") {
		return s
	}
	if !filepath.IsAbs(s) {
		s = filepath.Join(base, s)
	}
	if abs, err := filepath.Abs(s); err == nil {
		s = abs
	}
	return string(uri.File(s))
}

// documentURI is the resource URI used to match a file against schema
// associations.
func documentURI(path string) string {
	if path == "-" {
		return "untitled:stdin.yaml"
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return string(uri.File(path))
}

func readDocument(path string, in io.Reader) (yamlls.TextDocument, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(in)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return yamlls.TextDocument{}, err
	}
	return yamlls.TextDocument{URI: documentURI(path), Version: 1, Text: string(b)}, nil
}

func (cfg *MainConfig) logger() *slog.Logger {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// service returns a configured language service. It also sets the default
// logger, used while reading settings, and the color mode of the output.
func (cfg *MainConfig) service(w io.Writer) (*yamlls.LanguageService, yamlls.Settings, error) {
	log := cfg.logger()
	slog.SetDefault(log)
	cfg.setColor(w)
	s, err := cfg.settings()
	if err != nil {
		return nil, s, err
	}
	ls := yamlls.New(yamlls.Options{Logger: log})
	ls.Configure(s)
	return ls, s, nil
}

func (cfg *MainConfig) setColor(w io.Writer) {
	switch {
	case cfg.Color:
		color.NoColor = false
	case cfg.NoColor:
		color.NoColor = true
	default:
		f, ok := w.(*os.File)
		color.NoColor = !ok || !isatty.IsTerminal(f.Fd())
	}
}

func (cfg *MainConfig) isKubernetes(ls *yamlls.LanguageService, docURI string) bool {
	return cfg.Kubernetes || ls.IsKubernetes(docURI)
}
