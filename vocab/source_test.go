package vocab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semvocab/errors"
)

func TestContextSourceValidate(t *testing.T) {
	inline := map[string]any{"name": "https://schema.org/name"}
	derived := &DerivedSource{URL: "https://example.org/vocab.ttl", Format: FormatTurtle}

	tests := []struct {
		name    string
		source  ContextSource
		wantErr bool
	}{
		{"inline only", ContextSource{Inline: inline}, false},
		{"url only", ContextSource{URL: "https://example.org/ctx.jsonld"}, false},
		{"derived only", ContextSource{DerivesFrom: derived}, false},
		{"nothing set", ContextSource{}, true},
		{"inline and url", ContextSource{Inline: inline, URL: "https://example.org/ctx.jsonld"}, true},
		{"url and derived", ContextSource{URL: "https://example.org/ctx.jsonld", DerivesFrom: derived}, true},
		{"all three", ContextSource{Inline: inline, URL: "x", DerivesFrom: derived}, true},
		{"derived missing url", ContextSource{DerivesFrom: &DerivedSource{Format: FormatTurtle}}, true},
		{"derived unknown format", ContextSource{DerivesFrom: &DerivedSource{URL: "x", Format: "rdfxml"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidSource(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestURIListUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected URIList
		wantErr  bool
	}{
		{"single string", `"https://schema.org/"`, URIList{"https://schema.org/"}, false},
		{"string array", `["https://a.org", "https://b.org"]`, URIList{"https://a.org", "https://b.org"}, false},
		{"empty array", `[]`, URIList{}, false},
		{"number rejected", `42`, nil, true},
		{"object rejected", `{"uri": "x"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list URIList
			err := json.Unmarshal([]byte(tt.input), &list)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, list)
		})
	}
}

func TestEntryAllURIs(t *testing.T) {
	entry := &VocabEntry{
		Prefix: "x",
		URIs: map[string]URIList{
			RolePrimary:    {"https://x.org/"},
			RoleAlternates: {"http://x.org", "https://x.example/ns"},
		},
	}

	uris := entry.AllURIs()
	assert.Len(t, uris, 3)
	assert.Equal(t, "https://x.org/", uris[0], "primary role listed first")
	assert.Contains(t, uris, "http://x.org")
	assert.Contains(t, uris, "https://x.example/ns")

	assert.Nil(t, (&VocabEntry{Prefix: "empty"}).AllURIs())
}

func TestStrategyValid(t *testing.T) {
	valid := []Strategy{
		StrategyPropertyScoped,
		StrategyGraphPartition,
		StrategyNestedContexts,
		StrategyContextVersioning,
		StrategySeparateGraphs,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), s.String())
	}

	assert.False(t, Strategy("").Valid())
	assert.False(t, Strategy("merge").Valid())
}
