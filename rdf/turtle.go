// Package rdf provides the optional RDF parsing capability used by the
// vocabulary registry for derived context sources. Only the namespace
// declarations of a Turtle document are needed to synthesize a JSON-LD
// context, so the parser extracts prefix directives rather than decoding
// full triples.
package rdf

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/c360/semvocab/errors"
)

// Turtle prefix declaration forms:
//
//	@prefix ex: <http://example.org/> .
//	PREFIX ex: <http://example.org/>     (SPARQL-style, Turtle 1.1)
//
// The empty prefix (`@prefix : <...>`) is valid and maps to "".
var prefixDirective = regexp.MustCompile(`(?i)^@?prefix\s+([A-Za-z0-9._-]*):\s*<([^>]*)>\s*\.?$`)

// DirectiveParser extracts namespace bindings from Turtle documents.
// It satisfies the registry's TurtleParser capability.
type DirectiveParser struct{}

// NewDirectiveParser creates a Turtle namespace-directive parser.
func NewDirectiveParser() *DirectiveParser {
	return &DirectiveParser{}
}

// Namespaces returns the prefix to IRI bindings declared in a Turtle
// document. Bindings repeated with different IRIs follow Turtle semantics:
// the latest declaration wins.
func (p *DirectiveParser) Namespaces(data []byte) (map[string]string, error) {
	bindings := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := prefixDirective.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		bindings[m[1]] = m[2]
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidData, err),
			"rdf", "Namespaces", "scan turtle document")
	}

	return bindings, nil
}
