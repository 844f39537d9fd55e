package vocab

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360/semvocab/errors"
)

// Bundle is the optional data file of additional vocabulary entries loaded
// at registry construction. Absence of the file is a soft condition, never
// fatal; a present but malformed file is a configuration error.
type Bundle struct {
	Vocabularies []*VocabEntry `json:"vocabularies"`
}

// decodeBundle parses a bundle document and validates every entry before
// any of them is registered.
func decodeBundle(r io.Reader) (*Bundle, error) {
	var bundle Bundle

	dec := json.NewDecoder(r)
	if err := dec.Decode(&bundle); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidData, err),
			"vocab", "decodeBundle", "parse bundle")
	}

	for i, entry := range bundle.Vocabularies {
		if entry == nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: bundle entry %d is null", errors.ErrInvalidData, i),
				"vocab", "decodeBundle", "validate bundle")
		}
		if err := entry.Validate(); err != nil {
			return nil, errors.Wrap(err, "vocab", "decodeBundle", fmt.Sprintf("validate bundle entry %q", entry.Prefix))
		}
	}

	return &bundle, nil
}
