package vocab

// Built-in vocabulary entries. These ship inline contexts so the registry is
// usable with zero network access: a generic schema.org vocabulary and the
// Bioschemas life-science extension that nominates schema.org as its
// preferred base.
func builtinEntries() []*VocabEntry {
	return []*VocabEntry{
		{
			Prefix: "schema",
			URIs: map[string]URIList{
				RolePrimary:    {"https://schema.org/"},
				RoleAlternates: {"http://schema.org", "https://schema.org/docs/jsonldcontext.jsonld"},
			},
			Context: ContextSource{
				Inline: map[string]any{
					"@vocab":      "https://schema.org/",
					"schema":      "https://schema.org/",
					"name":        "https://schema.org/name",
					"description": "https://schema.org/description",
					"identifier":  "https://schema.org/identifier",
					"url":         map[string]any{"@id": "https://schema.org/url", "@type": "@id"},
					"sameAs":      map[string]any{"@id": "https://schema.org/sameAs", "@type": "@id"},
				},
			},
			Versions: Versions{Current: "29.2", Supported: []string{"29.2", "28.1"}},
			Features: []string{"inline-context"},
			Tags:     []string{"general", "base"},
		},
		{
			Prefix: "bioschemas",
			URIs: map[string]URIList{
				RolePrimary:    {"https://bioschemas.org/"},
				RoleAlternates: {"http://bioschemas.org"},
			},
			Context: ContextSource{
				Inline: map[string]any{
					"@vocab":            "https://bioschemas.org/",
					"bioschemas":        "https://bioschemas.org/",
					"Gene":              "https://bioschemas.org/Gene",
					"Protein":           "https://bioschemas.org/Protein",
					"Taxon":             "https://bioschemas.org/Taxon",
					"ChemicalSubstance": "https://bioschemas.org/ChemicalSubstance",
					"isEncodedByBioChemEntity": map[string]any{
						"@id":   "https://bioschemas.org/isEncodedByBioChemEntity",
						"@type": "@id",
					},
				},
			},
			Versions: Versions{Current: "1.0", Supported: []string{"1.0"}},
			Features: []string{"inline-context"},
			Tags:     []string{"life-sciences", "schema-profile"},
			// Bioschemas profiles schema.org types, so it declares up front
			// how it wants to coexist with its base vocabulary.
			StrategyDefaults: map[string]StrategyHint{
				"schema": {
					Strategy: StrategyNestedContexts,
					Details:  map[string]any{DetailOuter: "schema", DetailInner: "bioschemas"},
				},
			},
		},
	}
}
