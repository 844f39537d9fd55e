package vocab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/c360/semvocab/errors"
	"github.com/c360/semvocab/fetch"
	"github.com/c360/semvocab/pkg/cache"
)

// Fetcher is the byte-fetch capability the registry requires from its
// environment. It must enforce a timeout and error on non-success status or
// transport failure; any HTTP client can back it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TurtleParser is the optional RDF capability used for derived context
// sources. It returns the namespace prefix to IRI bindings declared in a
// Turtle document. When absent, derived sources fail with a capability
// error rather than degrading silently.
type TurtleParser interface {
	Namespaces(data []byte) (map[string]string, error)
}

// Default cache bounds. Both caches are write-once-per-key for the process
// lifetime; bounds exist to keep memory predictable, not for expiry. There
// is no invalidation: a remote document changed after first fetch keeps
// serving its cached payload and hash until the process restarts.
const (
	DefaultContextCacheSize = 128
	DefaultFetchCacheSize   = 64
)

// Registry owns the set of known vocabularies: prefix to entry mapping, an
// alias index over every normalized URI variant, and lazily loaded, hashed,
// cached context payloads.
type Registry struct {
	log    *slog.Logger
	fetch  Fetcher
	turtle TurtleParser

	entries map[string]*VocabEntry
	order   []string // insertion order, drives alias last-write-wins
	aliases map[string]string

	contexts cache.Cache[map[string]any]
	raw      cache.Cache[[]byte]

	hashMu sync.RWMutex
	hashes map[string]string

	flight singleflight.Group
}

// RegistryOption configures registry construction.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	log              *slog.Logger
	fetcher          Fetcher
	turtle           TurtleParser
	bundlePath       string
	extraEntries     []*VocabEntry
	contextCacheSize int
	fetchCacheSize   int
	metricsReg       prometheus.Registerer
}

// WithLogger sets the logger for registry diagnostics.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(cfg *registryConfig) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithFetcher injects the byte-fetch capability. Defaults to an HTTP
// fetcher with a 10 second timeout.
func WithFetcher(f Fetcher) RegistryOption {
	return func(cfg *registryConfig) {
		if f != nil {
			cfg.fetcher = f
		}
	}
}

// WithTurtleParser injects the optional RDF capability for derived context
// sources. Without it, derived sources fail with a capability error.
func WithTurtleParser(p TurtleParser) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.turtle = p
	}
}

// WithBundleFile names an optional JSON bundle of additional vocabulary
// entries. A missing file is skipped silently; a malformed one fails
// construction.
func WithBundleFile(path string) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.bundlePath = path
	}
}

// WithEntries registers additional entries after built-ins and the bundle.
func WithEntries(entries ...*VocabEntry) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.extraEntries = append(cfg.extraEntries, entries...)
	}
}

// WithContextCacheSize bounds the per-(prefix, version) payload cache.
func WithContextCacheSize(n int) RegistryOption {
	return func(cfg *registryConfig) {
		if n > 0 {
			cfg.contextCacheSize = n
		}
	}
}

// WithFetchCacheSize bounds the per-URL raw byte cache.
func WithFetchCacheSize(n int) RegistryOption {
	return func(cfg *registryConfig) {
		if n > 0 {
			cfg.fetchCacheSize = n
		}
	}
}

// WithMetrics exposes cache statistics as Prometheus metrics.
func WithMetrics(reg prometheus.Registerer) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.metricsReg = reg
	}
}

// NewRegistry builds a registry from built-in vocabularies, the optional
// bundle, and any extra entries, then indexes every URI alias.
func NewRegistry(options ...RegistryOption) (*Registry, error) {
	cfg := &registryConfig{
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		fetcher:          fetch.NewHTTP(),
		contextCacheSize: DefaultContextCacheSize,
		fetchCacheSize:   DefaultFetchCacheSize,
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var ctxOpts []cache.Option[map[string]any]
	var rawOpts []cache.Option[[]byte]
	if cfg.metricsReg != nil {
		ctxOpts = append(ctxOpts, cache.WithMetrics[map[string]any](cfg.metricsReg, "contexts"))
		rawOpts = append(rawOpts, cache.WithMetrics[[]byte](cfg.metricsReg, "fetch"))
	}

	contexts, err := cache.NewLRU(cfg.contextCacheSize, ctxOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "registry", "NewRegistry", "context cache")
	}
	raw, err := cache.NewLRU(cfg.fetchCacheSize, rawOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "registry", "NewRegistry", "fetch cache")
	}

	r := &Registry{
		log:      cfg.log,
		fetch:    cfg.fetcher,
		turtle:   cfg.turtle,
		entries:  make(map[string]*VocabEntry),
		aliases:  make(map[string]string),
		contexts: contexts,
		raw:      raw,
		hashes:   make(map[string]string),
	}

	for _, entry := range builtinEntries() {
		if err := r.register(entry); err != nil {
			return nil, errors.Wrap(err, "registry", "NewRegistry", "register builtin")
		}
	}

	if cfg.bundlePath != "" {
		if err := r.loadBundle(cfg.bundlePath); err != nil {
			return nil, errors.Wrap(err, "registry", "NewRegistry", "load bundle")
		}
	}

	for _, entry := range cfg.extraEntries {
		if err := r.register(entry); err != nil {
			return nil, errors.Wrap(err, "registry", "NewRegistry", "register entry")
		}
	}

	r.buildAliasIndex()

	r.log.Debug("registry initialized",
		"vocabularies", len(r.entries),
		"aliases", len(r.aliases))

	return r, nil
}

// register validates and inserts one entry. Re-registering a prefix replaces
// the previous entry, letting a bundle override a built-in.
func (r *Registry) register(entry *VocabEntry) error {
	if entry == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nil entry", errors.ErrInvalidConfig),
			"registry", "register", "entry check")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	if _, exists := r.entries[entry.Prefix]; exists {
		r.log.Debug("vocabulary replaced", "prefix", entry.Prefix)
	} else {
		r.order = append(r.order, entry.Prefix)
	}
	r.entries[entry.Prefix] = entry
	return nil
}

// loadBundle reads the optional bundle file. Absence is soft: the registry
// proceeds with built-ins only.
func (r *Registry) loadBundle(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.Debug("vocabulary bundle absent, using built-ins only", "path", path)
			return nil
		}
		return errors.WrapTransient(err, "registry", "loadBundle", "open bundle")
	}
	defer func() {
		_ = f.Close()
	}()

	bundle, err := decodeBundle(f)
	if err != nil {
		return err
	}

	for _, entry := range bundle.Vocabularies {
		if err := r.register(entry); err != nil {
			return err
		}
	}

	r.log.Debug("vocabulary bundle loaded", "path", path, "entries", len(bundle.Vocabularies))
	return nil
}

// buildAliasIndex maps every normalized URI across all entries to its
// prefix. Two vocabularies claiming the same normalized URI resolve
// last-write-wins in insertion order; the collision is logged, not guarded.
func (r *Registry) buildAliasIndex() {
	for _, prefix := range r.order {
		entry := r.entries[prefix]
		for _, uri := range entry.AllURIs() {
			normalized := NormalizeURI(uri)
			if normalized == "" {
				continue
			}
			if prior, exists := r.aliases[normalized]; exists && prior != prefix {
				r.log.Warn("alias collision, last registration wins",
					"uri", normalized, "previous", prior, "current", prefix)
			}
			r.aliases[normalized] = prefix
		}
	}
}

// Get returns the entry for a prefix via direct lookup. This is the
// primitive the collision resolver depends on.
func (r *Registry) Get(prefix string) (*VocabEntry, error) {
	entry, exists := r.entries[prefix]
	if !exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: prefix %q", errors.ErrNotFound, prefix),
			"registry", "Get", "lookup")
	}
	return entry, nil
}

// Resolve accepts a prefix directly, or any URI that normalizes to a known
// alias, and returns the matching entry.
func (r *Registry) Resolve(identifier string) (*VocabEntry, error) {
	if entry, exists := r.entries[identifier]; exists {
		return entry, nil
	}

	if prefix, exists := r.aliases[NormalizeURI(identifier)]; exists {
		return r.entries[prefix], nil
	}

	return nil, errors.WrapInvalid(
		fmt.Errorf("%w: identifier %q", errors.ErrNotFound, identifier),
		"registry", "Resolve", "lookup")
}

// Prefixes returns all registered prefixes, sorted.
func (r *Registry) Prefixes() []string {
	prefixes := make([]string, 0, len(r.entries))
	for prefix := range r.entries {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// ContextPayload returns the vocabulary's @context mapping, lazily loaded
// and memoized per (prefix, current version) for the process lifetime.
// Concurrent first loads of the same key collapse into one fetch. The
// caller must treat the returned map as read-only.
func (r *Registry) ContextPayload(ctx context.Context, prefix string) (map[string]any, error) {
	entry, err := r.Get(prefix)
	if err != nil {
		return nil, err
	}

	key := memoKey(entry)
	if payload, ok := r.contexts.Get(key); ok {
		return payload, nil
	}

	v, err, _ := r.flight.Do("context:"+key, func() (any, error) {
		if payload, ok := r.contexts.Get(key); ok {
			return payload, nil
		}

		payload, err := r.loadContext(ctx, entry)
		if err != nil {
			return nil, err
		}

		hash, err := canonicalHash(payload)
		if err != nil {
			return nil, errors.WrapInvalid(err, "registry", "ContextPayload", "hash payload")
		}
		r.storeHash(key, hash)

		if _, err := r.contexts.Set(key, payload); err != nil {
			return nil, err
		}

		r.log.Debug("context loaded",
			"prefix", entry.Prefix,
			"version", entry.Versions.Current,
			"source", entry.Context.kind(),
			"terms", len(payload),
			"sha256", hash)

		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[string]any), nil
}

// ContextHash returns the content hash recorded on first payload load.
// The second return is false until ContextPayload has succeeded once for
// the prefix's current version.
func (r *Registry) ContextHash(prefix string) (string, bool) {
	entry, err := r.Get(prefix)
	if err != nil {
		return "", false
	}

	r.hashMu.RLock()
	defer r.hashMu.RUnlock()
	hash, ok := r.hashes[memoKey(entry)]
	return hash, ok
}

// ResetCaches clears the payload, raw-byte, and hash caches. Intended for
// test isolation; production processes rely on write-once semantics instead.
func (r *Registry) ResetCaches() {
	_ = r.contexts.Clear()
	_ = r.raw.Clear()

	r.hashMu.Lock()
	r.hashes = make(map[string]string)
	r.hashMu.Unlock()
}

// loadContext materializes the entry's context from its single source mode.
func (r *Registry) loadContext(ctx context.Context, entry *VocabEntry) (map[string]any, error) {
	if err := entry.Context.Validate(); err != nil {
		return nil, err
	}

	switch {
	case entry.Context.Inline != nil:
		return entry.Context.Inline, nil

	case entry.Context.URL != "":
		return r.loadRemoteContext(ctx, entry.Context.URL)

	default:
		return r.deriveContext(ctx, entry.Context.DerivesFrom)
	}
}

// loadRemoteContext fetches and parses a remote JSON-LD context document.
// Documents wrapping their terms in a top-level @context key are unwrapped.
func (r *Registry) loadRemoteContext(ctx context.Context, url string) (map[string]any, error) {
	body, err := r.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidData, err),
			"registry", "loadRemoteContext", "parse json-ld")
	}

	if inner, ok := doc["@context"].(map[string]any); ok {
		return inner, nil
	}
	return doc, nil
}

// deriveContext synthesizes a context from the namespace declarations of a
// remote RDF document. The empty Turtle prefix becomes @vocab.
func (r *Registry) deriveContext(ctx context.Context, src *DerivedSource) (map[string]any, error) {
	if r.turtle == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: no turtle parser configured for derived source", errors.ErrCapabilityUnavailable),
			"registry", "deriveContext", "capability check")
	}

	body, err := r.fetchRaw(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	bindings, err := r.turtle.Namespaces(body)
	if err != nil {
		return nil, errors.Wrap(err, "registry", "deriveContext", "parse turtle")
	}

	payload := make(map[string]any, len(bindings))
	for prefix, iri := range bindings {
		if prefix == "" {
			payload["@vocab"] = iri
			continue
		}
		payload[prefix] = iri
	}
	return payload, nil
}

// fetchRaw retrieves raw bytes for a URL through the per-URL cache, so
// different prefixes sharing one remote document cost a single round trip.
// Failures propagate as retrieval errors and are never cached.
func (r *Registry) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	if body, ok := r.raw.Get(url); ok {
		return body, nil
	}

	v, err, _ := r.flight.Do("fetch:"+url, func() (any, error) {
		if body, ok := r.raw.Get(url); ok {
			return body, nil
		}

		body, err := r.fetch.Fetch(ctx, url)
		if err != nil {
			if !errors.IsRetrieval(err) {
				err = errors.WrapTransient(
					fmt.Errorf("%w: %w", errors.ErrRetrieval, err),
					"registry", "fetchRaw", "fetch")
			}
			return nil, err
		}

		if _, err := r.raw.Set(url, body); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// storeHash records the content hash for a memo key exactly once.
func (r *Registry) storeHash(key, hash string) {
	r.hashMu.Lock()
	defer r.hashMu.Unlock()
	if _, exists := r.hashes[key]; !exists {
		r.hashes[key] = hash
	}
}

// memoKey scopes context memoization to the entry's current version.
func memoKey(entry *VocabEntry) string {
	return entry.Prefix + "@" + entry.Versions.Current
}

// canonicalHash computes the sha256 of the payload's canonical JSON form
// (RFC 8785: sorted keys, no insignificant whitespace).
func canonicalHash(payload map[string]any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
