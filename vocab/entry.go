package vocab

import (
	"encoding/json"
	"fmt"

	"github.com/c360/semvocab/errors"
)

// URI roles recognized in VocabEntry.URIs.
const (
	RolePrimary    = "primary"
	RoleAlternates = "alternates"
)

// URIList accepts either a single URI string or an array of URI strings in
// JSON, so entry authors can write "primary": "https://schema.org/" without
// wrapping it in a list.
type URIList []string

// UnmarshalJSON implements json.Unmarshaler.
func (u *URIList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*u = URIList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("%w: uri value must be string or string array", errors.ErrInvalidData)
	}
	*u = URIList(many)
	return nil
}

// Versions records the current and supported versions of a vocabulary.
// The current version participates in context memoization keys.
type Versions struct {
	Current   string   `json:"current"`
	Supported []string `json:"supported,omitempty"`
}

// StrategyHint is a vocabulary's declared preference for coexisting with one
// specific other vocabulary. Hints take precedence over bundled rules and
// the protected-term heuristic; hint direction need not be symmetric.
type StrategyHint struct {
	Strategy Strategy       `json:"strategy"`
	Details  map[string]any `json:"details,omitempty"`
}

// VocabEntry is one registered vocabulary. Entries are created at registry
// initialization and never mutated afterwards; content hashes live in the
// registry's hash store rather than on the entry.
type VocabEntry struct {
	// Prefix is the unique short name (e.g. "schema"). Primary key,
	// immutable once inserted.
	Prefix string `json:"prefix"`

	// URIs maps role names (primary, alternates) to URIs identifying this
	// vocabulary. Every value is normalized into the registry's alias index.
	URIs map[string]URIList `json:"uris,omitempty"`

	// Context describes where the vocabulary's @context comes from.
	Context ContextSource `json:"context"`

	// Versions tracks the current and supported versions.
	Versions Versions `json:"versions"`

	// Features and Tags are informational labels; the core never branches
	// on them.
	Features []string `json:"features,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// StrategyDefaults maps another vocabulary's prefix to a hinted
	// collision-resolution strategy.
	StrategyDefaults map[string]StrategyHint `json:"strategy_defaults,omitempty"`
}

// Validate checks the entry's structural invariants: non-empty prefix, a
// valid single-mode context source, and well-formed strategy hints.
func (e *VocabEntry) Validate() error {
	if e.Prefix == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: entry prefix must not be empty", errors.ErrInvalidConfig),
			"vocab", "VocabEntry.Validate", "prefix check")
	}

	if err := e.Context.Validate(); err != nil {
		return errors.Wrap(err, "vocab", "VocabEntry.Validate", "context source check")
	}

	for other, hint := range e.StrategyDefaults {
		if other == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: strategy hint with empty target prefix", errors.ErrInvalidConfig),
				"vocab", "VocabEntry.Validate", "hint check")
		}
		if !hint.Strategy.Valid() {
			return errors.WrapInvalid(
				fmt.Errorf("%w: hint for %q names unknown strategy %q", errors.ErrInvalidConfig, other, hint.Strategy),
				"vocab", "VocabEntry.Validate", "hint check")
		}
	}

	return nil
}

// AllURIs returns every URI across all roles, primary role first.
func (e *VocabEntry) AllURIs() []string {
	if len(e.URIs) == 0 {
		return nil
	}

	uris := make([]string, 0, 4)
	uris = append(uris, e.URIs[RolePrimary]...)
	for role, values := range e.URIs {
		if role == RolePrimary {
			continue
		}
		uris = append(uris, values...)
	}
	return uris
}

// HintFor returns the entry's declared strategy hint for another prefix.
func (e *VocabEntry) HintFor(other string) (StrategyHint, bool) {
	hint, ok := e.StrategyDefaults[other]
	return hint, ok
}
