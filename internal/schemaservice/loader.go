package schemaservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/yamlls/i18n"
	"github.com/reoring/yamlls/jsonschema"
)

// Loader fetches the raw content of a schema URI. Implementations must be
// safe for concurrent use.
type Loader interface {
	Load(ctx context.Context, uri string) (string, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, uri string) (string, error)

func (f LoaderFunc) Load(ctx context.Context, uri string) (string, error) { return f(ctx, uri) }

// DefaultLoader reads file URIs and plain paths from disk and fetches
// http(s) URIs with Client (http.DefaultClient when nil).
type DefaultLoader struct {
	Client *http.Client
}

func (l DefaultLoader) Load(ctx context.Context, uri string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return l.fetch(ctx, uri)
	}
	p, ok := fsPath(uri)
	if !ok {
		p = filepath.FromSlash(uri)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (l DefaultLoader) fetch(ctx context.Context, uri string) (string, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("request failed with status %s", resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const maxDuplicateReports = 10

type loaded struct {
	content string
	err     error
}

// loadSchema fetches and decodes uri. Failures never return an error: they
// become the Errors of an empty schema. Concurrent loads of one URI share a
// single fetch.
func (s *Service) loadSchema(ctx context.Context, uri string) *UnresolvedSchema {
	v, _, _ := s.inflight.Do(uri, func() (any, error) {
		s.log.Debug("loading schema", "uri", uri)
		content, err := s.loader.Load(ctx, uri)
		return loaded{content, err}, nil
	})
	res := v.(loaded)
	name := displayName(uri)
	if res.err != nil {
		msg := res.err.Error()
		if _, after, ok := strings.Cut(msg, "Error: "); ok {
			msg = after
		}
		msg = strings.TrimSuffix(msg, ".")
		return &UnresolvedSchema{Schema: &jsonschema.Schema{}, Errors: []string{i18n.T(i18n.UnableToLoad, name, msg)}}
	}
	if res.content == "" {
		return &UnresolvedSchema{Schema: &jsonschema.Schema{}, Errors: []string{i18n.T(i18n.NoContent, name)}}
	}
	schema, err := jsonschema.ParseJSON([]byte(res.content))
	if err == nil {
		if dups, _ := jsonschema.DuplicateKeys([]byte(res.content), maxDuplicateReports); len(dups) > 0 {
			s.log.Warn("schema has duplicate keys; the last one wins", "uri", uri, "keys", dups)
		}
	} else {
		var yerr error
		if schema, yerr = jsonschema.ParseYAML([]byte(res.content)); yerr != nil {
			return &UnresolvedSchema{Schema: &jsonschema.Schema{}, Errors: []string{i18n.T(i18n.InvalidFormat, name, yerr.Error())}}
		}
	}
	return &UnresolvedSchema{Schema: schema}
}
