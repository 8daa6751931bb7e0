package kubeopenapi

import "fmt"

// Options controls how a CRD schema is imported.
type Options struct {
	// Version selects spec.versions[].name. Empty picks the first served
	// version, then the first version with a schema.
	Version string
	// Strict closes objects that declare properties and do not preserve
	// unknown fields, the way the API server prunes them.
	Strict bool
	// SkipIdentity leaves apiVersion and kind unconstrained.
	SkipIdentity bool
}

// Diag carries non-fatal warnings produced during import.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
