package vocab

import (
	"fmt"

	"github.com/c360/semvocab/errors"
)

// RDF serialization formats accepted by DerivedSource.
const (
	FormatTurtle = "turtle"
)

// DerivedSource points at a remote RDF serialization from which a context is
// synthesized (namespace prefix to IRI bindings declared in that document).
type DerivedSource struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// ContextSource describes where a vocabulary's JSON-LD @context comes from.
// Exactly one of Inline, URL, or DerivesFrom must be set; Validate enforces
// this before any network activity.
type ContextSource struct {
	// Inline is a literal context mapping, already materialized.
	Inline map[string]any `json:"inline,omitempty"`

	// URL locates a remote JSON-LD document to fetch over HTTP.
	URL string `json:"url,omitempty"`

	// DerivesFrom locates a remote RDF document to synthesize a context from.
	DerivesFrom *DerivedSource `json:"derives_from,omitempty"`
}

// Validate checks the single-source invariant: exactly one of inline, url,
// derivesFrom set. Fails at construction time, before any fetch.
func (cs ContextSource) Validate() error {
	set := 0
	if cs.Inline != nil {
		set++
	}
	if cs.URL != "" {
		set++
	}
	if cs.DerivesFrom != nil {
		set++
	}

	if set == 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: no source mode set", errors.ErrInvalidSource),
			"vocab", "ContextSource.Validate", "source check")
	}
	if set > 1 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %d source modes set, want exactly one", errors.ErrInvalidSource, set),
			"vocab", "ContextSource.Validate", "source check")
	}

	if cs.DerivesFrom != nil {
		if cs.DerivesFrom.URL == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: derived source missing url", errors.ErrInvalidSource),
				"vocab", "ContextSource.Validate", "source check")
		}
		if cs.DerivesFrom.Format != FormatTurtle {
			return errors.WrapInvalid(
				fmt.Errorf("%w: unsupported derived format %q", errors.ErrInvalidSource, cs.DerivesFrom.Format),
				"vocab", "ContextSource.Validate", "source check")
		}
	}

	return nil
}

// kind returns the source mode name for logging.
func (cs ContextSource) kind() string {
	switch {
	case cs.Inline != nil:
		return "inline"
	case cs.URL != "":
		return "url"
	case cs.DerivesFrom != nil:
		return "derived"
	default:
		return "unset"
	}
}
