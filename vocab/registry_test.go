package vocab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semvocab/errors"
	"github.com/c360/semvocab/rdf"
)

// stubFetcher serves canned responses per URL and counts calls.
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     atomic.Int64
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
	}
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.responses[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("%w: no response for %s", errors.ErrRetrieval, url)
}

func inlineEntry(prefix string, ctx map[string]any) *VocabEntry {
	return &VocabEntry{
		Prefix:   prefix,
		Context:  ContextSource{Inline: ctx},
		Versions: Versions{Current: "1.0"},
	}
}

func TestRegistryBuiltins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	schema, err := r.Get("schema")
	require.NoError(t, err)
	assert.Equal(t, "schema", schema.Prefix)

	bio, err := r.Get("bioschemas")
	require.NoError(t, err)
	assert.Equal(t, "bioschemas", bio.Prefix)

	hint, ok := bio.HintFor("schema")
	require.True(t, ok, "bioschemas nominates schema as preferred base")
	assert.Equal(t, StrategyNestedContexts, hint.Strategy)

	assert.Equal(t, []string{"bioschemas", "schema"}, r.Prefixes())
}

func TestRegistryGetNotFound(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Get("wikidata")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "wikidata")
}

func TestRegistryAliasResolution(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	canonical, err := r.Resolve("schema")
	require.NoError(t, err)

	// Trailing slash, different scheme, different case: all the same entry.
	for _, identifier := range []string{
		"https://schema.org/",
		"https://schema.org",
		"http://schema.org/",
		"HTTPS://Schema.Org/",
	} {
		entry, err := r.Resolve(identifier)
		require.NoError(t, err, identifier)
		assert.Same(t, canonical, entry, identifier)
	}

	_, err = r.Resolve("https://unknown.example/ns")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistryAliasCollisionLastWriteWins(t *testing.T) {
	first := inlineEntry("first", map[string]any{})
	first.URIs = map[string]URIList{RolePrimary: {"https://contested.example/ns"}}
	second := inlineEntry("second", map[string]any{})
	second.URIs = map[string]URIList{RolePrimary: {"https://contested.example/ns/"}}

	r, err := NewRegistry(WithEntries(first, second))
	require.NoError(t, err)

	entry, err := r.Resolve("https://contested.example/ns")
	require.NoError(t, err)
	assert.Equal(t, "second", entry.Prefix)
}

func TestContextPayloadInline(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	payload, err := r.ContextPayload(context.Background(), "schema")
	require.NoError(t, err)
	assert.Equal(t, "https://schema.org/name", payload["name"])

	hash, ok := r.ContextHash("schema")
	require.True(t, ok, "hash recorded on first load")
	assert.Len(t, hash, 64)
}

func TestContextPayloadIdempotentHashing(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	first, err := r.ContextPayload(context.Background(), "schema")
	require.NoError(t, err)
	hash1, ok := r.ContextHash("schema")
	require.True(t, ok)

	second, err := r.ContextPayload(context.Background(), "schema")
	require.NoError(t, err)
	hash2, ok := r.ContextHash("schema")
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, hash1, hash2, "no re-hash drift")
}

func TestContextPayloadNotFound(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.ContextPayload(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestContextPayloadFromURL(t *testing.T) {
	const url = "https://example.org/context.jsonld"

	fetcher := newStubFetcher()
	fetcher.responses[url] = []byte(`{"@context": {"gene": "https://example.org/gene"}}`)

	entry := &VocabEntry{
		Prefix:   "ex",
		Context:  ContextSource{URL: url},
		Versions: Versions{Current: "2.0"},
	}

	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(entry))
	require.NoError(t, err)

	payload, err := r.ContextPayload(context.Background(), "ex")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/gene", payload["gene"])
	assert.Equal(t, int64(1), fetcher.calls.Load())

	// Memoized: no second fetch.
	_, err = r.ContextPayload(context.Background(), "ex")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestContextPayloadUnwrapsContextKey(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.responses["https://a.example/ctx"] = []byte(`{"@context": {"x": "https://a.example/x"}}`)
	fetcher.responses["https://b.example/ctx"] = []byte(`{"y": "https://b.example/y"}`)

	a := &VocabEntry{Prefix: "a", Context: ContextSource{URL: "https://a.example/ctx"}, Versions: Versions{Current: "1"}}
	b := &VocabEntry{Prefix: "b", Context: ContextSource{URL: "https://b.example/ctx"}, Versions: Versions{Current: "1"}}

	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(a, b))
	require.NoError(t, err)

	payloadA, err := r.ContextPayload(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": "https://a.example/x"}, payloadA)

	payloadB, err := r.ContextPayload(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"y": "https://b.example/y"}, payloadB)
}

func TestRawFetchSharedAcrossPrefixes(t *testing.T) {
	const url = "https://shared.example/context.jsonld"

	fetcher := newStubFetcher()
	fetcher.responses[url] = []byte(`{"@context": {"term": "https://shared.example/term"}}`)

	a := &VocabEntry{Prefix: "alpha", Context: ContextSource{URL: url}, Versions: Versions{Current: "1"}}
	b := &VocabEntry{Prefix: "beta", Context: ContextSource{URL: url}, Versions: Versions{Current: "1"}}

	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(a, b))
	require.NoError(t, err)

	_, err = r.ContextPayload(context.Background(), "alpha")
	require.NoError(t, err)
	_, err = r.ContextPayload(context.Background(), "beta")
	require.NoError(t, err)

	assert.Equal(t, int64(1), fetcher.calls.Load(),
		"prefixes sharing one URL cost one round trip")
}

func TestContextPayloadFetchFailure(t *testing.T) {
	const url = "https://down.example/ctx"

	fetcher := newStubFetcher()
	fetcher.errs[url] = fmt.Errorf("%w: connection refused", errors.ErrRetrieval)

	entry := &VocabEntry{Prefix: "down", Context: ContextSource{URL: url}, Versions: Versions{Current: "1"}}
	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(entry))
	require.NoError(t, err)

	_, err = r.ContextPayload(context.Background(), "down")
	require.Error(t, err)
	assert.True(t, errors.IsRetrieval(err))

	_, ok := r.ContextHash("down")
	assert.False(t, ok, "no hash recorded on failure")

	// Failures are not cached; the next call attempts a fresh fetch.
	_, err = r.ContextPayload(context.Background(), "down")
	require.Error(t, err)
	assert.Equal(t, int64(2), fetcher.calls.Load())
}

func TestContextPayloadInvalidJSON(t *testing.T) {
	const url = "https://bad.example/ctx"

	fetcher := newStubFetcher()
	fetcher.responses[url] = []byte(`{not json`)

	entry := &VocabEntry{Prefix: "bad", Context: ContextSource{URL: url}, Versions: Versions{Current: "1"}}
	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(entry))
	require.NoError(t, err)

	_, err = r.ContextPayload(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestDerivedContextFromTurtle(t *testing.T) {
	const url = "https://onto.example/vocab.ttl"

	fetcher := newStubFetcher()
	fetcher.responses[url] = []byte(`@prefix up: <http://purl.uniprot.org/core/> .
@prefix : <http://onto.example/default#> .
up:Protein a up:Concept .`)

	entry := &VocabEntry{
		Prefix:   "up",
		Context:  ContextSource{DerivesFrom: &DerivedSource{URL: url, Format: FormatTurtle}},
		Versions: Versions{Current: "1"},
	}

	r, err := NewRegistry(
		WithFetcher(fetcher),
		WithTurtleParser(rdf.NewDirectiveParser()),
		WithEntries(entry),
	)
	require.NoError(t, err)

	payload, err := r.ContextPayload(context.Background(), "up")
	require.NoError(t, err)
	assert.Equal(t, "http://purl.uniprot.org/core/", payload["up"])
	assert.Equal(t, "http://onto.example/default#", payload["@vocab"],
		"empty turtle prefix becomes @vocab")

	_, ok := r.ContextHash("up")
	assert.True(t, ok)
}

func TestDerivedContextMissingCapability(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.responses["https://onto.example/vocab.ttl"] = []byte(`@prefix x: <http://x/> .`)

	entry := &VocabEntry{
		Prefix:   "up",
		Context:  ContextSource{DerivesFrom: &DerivedSource{URL: "https://onto.example/vocab.ttl", Format: FormatTurtle}},
		Versions: Versions{Current: "1"},
	}

	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(entry))
	require.NoError(t, err)

	_, err = r.ContextPayload(context.Background(), "up")
	require.Error(t, err)
	assert.True(t, errors.IsCapabilityUnavailable(err),
		"missing parser is a capability error, not a retrieval error")
	assert.False(t, errors.IsRetrieval(err))
}

func TestRegistryBundleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocabularies.json")

	bundle := `{
  "vocabularies": [
    {
      "prefix": "wikidata",
      "uris": {"primary": "https://www.wikidata.org/", "alternates": ["http://www.wikidata.org"]},
      "context": {"inline": {"wd": "http://www.wikidata.org/entity/"}},
      "versions": {"current": "1.0"},
      "tags": ["linked-data"]
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(bundle), 0o600))

	r, err := NewRegistry(WithBundleFile(path))
	require.NoError(t, err)

	entry, err := r.Get("wikidata")
	require.NoError(t, err)
	assert.Equal(t, "wikidata", entry.Prefix)

	resolved, err := r.Resolve("http://www.wikidata.org/")
	require.NoError(t, err)
	assert.Same(t, entry, resolved)
}

func TestRegistryBundleAbsentIsSoft(t *testing.T) {
	r, err := NewRegistry(WithBundleFile(filepath.Join(t.TempDir(), "nope.json")))
	require.NoError(t, err)

	_, err = r.Get("schema")
	assert.NoError(t, err, "built-ins usable without the bundle")
}

func TestRegistryBundleMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vocabularies": [{}]}`), 0o600))

	_, err := NewRegistry(WithBundleFile(path))
	require.Error(t, err, "present but invalid bundle fails construction")
}

func TestRegistryRejectsInvalidEntry(t *testing.T) {
	entry := &VocabEntry{
		Prefix: "broken",
		Context: ContextSource{
			Inline: map[string]any{},
			URL:    "https://example.org/ctx",
		},
	}

	_, err := NewRegistry(WithEntries(entry))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidSource(err))
}

func TestResetCaches(t *testing.T) {
	const url = "https://example.org/ctx"

	fetcher := newStubFetcher()
	fetcher.responses[url] = []byte(`{"@context": {"t": "https://example.org/t"}}`)

	entry := &VocabEntry{Prefix: "ex", Context: ContextSource{URL: url}, Versions: Versions{Current: "1"}}
	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(entry))
	require.NoError(t, err)

	_, err = r.ContextPayload(context.Background(), "ex")
	require.NoError(t, err)
	_, ok := r.ContextHash("ex")
	require.True(t, ok)

	r.ResetCaches()

	_, ok = r.ContextHash("ex")
	assert.False(t, ok)

	_, err = r.ContextPayload(context.Background(), "ex")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetcher.calls.Load(), "reset forces a refetch")
}

func TestContextPayloadConcurrentSingleFetch(t *testing.T) {
	const url = "https://example.org/ctx"

	fetcher := newStubFetcher()
	fetcher.responses[url] = []byte(`{"@context": {"t": "https://example.org/t"}}`)

	entry := &VocabEntry{Prefix: "ex", Context: ContextSource{URL: url}, Versions: Versions{Current: "1"}}
	r, err := NewRegistry(WithFetcher(fetcher), WithEntries(entry))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ContextPayload(context.Background(), "ex")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), fetcher.calls.Load(),
		"concurrent first loads collapse into one fetch")
}
