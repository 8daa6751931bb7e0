package kubeopenapi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStrictYAMLReader_DuplicateKey_Root(t *testing.T) {
	y := []byte("kind: A\nkind: B\n")
	r := NewStrictYAMLReader(bytes.NewReader(y))
	_, err := r.Next()
	var de *DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %T %v", err, err)
	}
	if de.Key != "kind" || de.FirstLine != 1 || de.Line != 2 || de.Col != 1 {
		t.Fatalf("unexpected error %+v", de)
	}
}

func TestStrictYAMLReader_DuplicateKey_Nested(t *testing.T) {
	y := []byte("metadata:\n  name: a\n  name: b\n")
	r := NewStrictYAMLReader(bytes.NewReader(y))
	_, err := r.Next()
	var de *DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %T %v", err, err)
	}
	if de.Key != "name" || de.Line != 3 || de.Col != 3 {
		t.Fatalf("unexpected error %+v", de)
	}
}

func TestStrictYAMLReader_Values(t *testing.T) {
	y := []byte("a: 1\nb: 1.5\nc: true\nd: ~\ne: &x [x, 0x10]\nf: *x\ng: '12'\n---\nkind: B\n")
	docs, err := NewStrictYAMLReader(bytes.NewReader(y)).ReadAll()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []any{
		map[string]any{
			"a": int64(1), "b": 1.5, "c": true, "d": nil,
			"e": []any{"x", int64(16)}, "f": []any{"x", int64(16)}, "g": "12",
		},
		map[string]any{"kind": "B"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents (-want +got):\n%s", diff)
	}
}
