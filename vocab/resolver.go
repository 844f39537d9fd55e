package vocab

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semvocab/errors"
	"github.com/c360/semvocab/pkg/cache"
)

// ReasonProtectedOverlap explains a refusal to merge two vocabularies whose
// protected-term sets intersect.
const ReasonProtectedOverlap = "overlapping protected terms"

// DefaultOverlapCacheSize bounds the protected-term overlap memo.
const DefaultOverlapCacheSize = 256

// bundledRule is one entry of the built-in vocabulary-pair table. The table
// is order-insensitive: a rule for (a, b) also answers (b, a).
type bundledRule struct {
	strategy Strategy
	details  map[string]any
}

// pairOverlap is the memoized result of the protected-term analysis for one
// unordered prefix pair. Pure function of registry content, safe to cache
// for the process lifetime.
type pairOverlap struct {
	protected  map[string][]string // prefix -> sorted protected term names
	intersects bool
}

// Resolver decides, for any pair of vocabulary prefixes, which merge
// strategy to use when combining their contexts in one document. Decisions
// are purely metadata-driven; no document content is inspected.
type Resolver struct {
	registry *Registry
	log      *slog.Logger
	rules    map[string]bundledRule
	overlap  cache.Cache[pairOverlap]
}

// ResolverOption configures resolver construction.
type ResolverOption func(*resolverConfig) error

type resolverConfig struct {
	log              *slog.Logger
	rules            map[string]bundledRule
	overlapCacheSize int
	metricsReg       prometheus.Registerer
}

// WithResolverLogger sets the logger for decision diagnostics.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(cfg *resolverConfig) error {
		if log != nil {
			cfg.log = log
		}
		return nil
	}
}

// WithRule adds a bundled rule for an unordered vocabulary pair, replacing
// any default rule for that pair.
func WithRule(a, b string, strategy Strategy, details map[string]any) ResolverOption {
	return func(cfg *resolverConfig) error {
		if a == "" || b == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: bundled rule requires two prefixes", errors.ErrInvalidConfig),
				"resolver", "WithRule", "rule check")
		}
		if !strategy.Valid() {
			return errors.WrapInvalid(
				fmt.Errorf("%w: unknown strategy %q", errors.ErrInvalidConfig, strategy),
				"resolver", "WithRule", "rule check")
		}
		cfg.rules[pairKey(a, b)] = bundledRule{strategy: strategy, details: details}
		return nil
	}
}

// WithoutDefaultRules clears the built-in pair table before applying
// WithRule options. Useful for isolated test fixtures.
func WithoutDefaultRules() ResolverOption {
	return func(cfg *resolverConfig) error {
		cfg.rules = make(map[string]bundledRule)
		return nil
	}
}

// WithOverlapCacheSize bounds the protected-term overlap memo.
func WithOverlapCacheSize(n int) ResolverOption {
	return func(cfg *resolverConfig) error {
		if n > 0 {
			cfg.overlapCacheSize = n
		}
		return nil
	}
}

// WithResolverMetrics exposes overlap-memo statistics as Prometheus metrics.
func WithResolverMetrics(reg prometheus.Registerer) ResolverOption {
	return func(cfg *resolverConfig) error {
		cfg.metricsReg = reg
		return nil
	}
}

// defaultRules is the built-in table of known vocabulary-pair relationships.
func defaultRules() map[string]bundledRule {
	return map[string]bundledRule{
		pairKey("schema", "bioschemas"): {
			strategy: StrategyNestedContexts,
			details:  map[string]any{DetailOuter: "schema", DetailInner: "bioschemas"},
		},
	}
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry *Registry, options ...ResolverOption) (*Resolver, error) {
	if registry == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: resolver requires a registry", errors.ErrInvalidConfig),
			"resolver", "NewResolver", "registry check")
	}

	cfg := &resolverConfig{
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		rules:            defaultRules(),
		overlapCacheSize: DefaultOverlapCacheSize,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	var overlapOpts []cache.Option[pairOverlap]
	if cfg.metricsReg != nil {
		overlapOpts = append(overlapOpts, cache.WithMetrics[pairOverlap](cfg.metricsReg, "overlap"))
	}
	overlap, err := cache.NewLRU(cfg.overlapCacheSize, overlapOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "resolver", "NewResolver", "overlap cache")
	}

	return &Resolver{
		registry: registry,
		log:      cfg.log,
		rules:    cfg.rules,
		overlap:  overlap,
	}, nil
}

// Choose produces one Plan describing how the contexts of vocabularies a
// and b should coexist in a single JSON-LD document. Rules are evaluated in
// fixed precedence: identity, explicit hint, bundled rule, protected-term
// overlap, safe default. First match wins.
//
// Unknown prefixes only fail once a rule that needs context payloads is
// reached; identity and bundled-rule matches succeed without registry
// access.
func (r *Resolver) Choose(ctx context.Context, a, b string) (Plan, error) {
	// Rule 1: a vocabulary never collides with itself.
	if a == b {
		return r.decided("identity", a, b, Plan{
			Strategy: StrategySeparateGraphs,
			Details:  map[string]any{},
		}), nil
	}

	// Rule 2: explicit hint, checked a→b then b→a. Either party may declare
	// the relationship; direction is not required to be symmetric.
	if hint, ok := r.hintFor(a, b); ok {
		return r.decided("hint", a, b, Plan{
			Strategy: hint.Strategy,
			Details:  cloneDetails(hint.Details),
		}), nil
	}
	if hint, ok := r.hintFor(b, a); ok {
		return r.decided("hint", a, b, Plan{
			Strategy: hint.Strategy,
			Details:  cloneDetails(hint.Details),
		}), nil
	}

	// Rule 3: bundled pair table, order-insensitive.
	if rule, ok := r.rules[pairKey(a, b)]; ok {
		return r.decided("bundled", a, b, Plan{
			Strategy: rule.strategy,
			Details:  cloneDetails(rule.details),
		}), nil
	}

	// Rule 4: protected-term overlap heuristic.
	overlap, err := r.protectedOverlap(ctx, a, b)
	if err != nil {
		return Plan{}, err
	}

	aProtected := overlap.protected[a]
	bProtected := overlap.protected[b]

	switch {
	case len(aProtected) == 0 && len(bProtected) == 0:
		// Neither side protects anything; fall through to the default.

	case len(aProtected) > 0 && len(bProtected) > 0 && overlap.intersects:
		// Overlapping protection is irreconcilable without manual
		// intervention; choose the strongest structural isolation.
		return r.decided("overlap", a, b, Plan{
			Strategy: StrategySeparateGraphs,
			Details:  map[string]any{DetailReason: ReasonProtectedOverlap},
		}), nil

	default:
		// A vocabulary with protected terms must be the outer context so
		// its protections are not overridden by the inner's redefinitions.
		outer, inner := a, b
		if len(aProtected) == 0 {
			outer, inner = b, a
		}
		return r.decided("overlap", a, b, Plan{
			Strategy: StrategyNestedContexts,
			Details:  map[string]any{DetailOuter: outer, DetailInner: inner},
		}), nil
	}

	// Rule 5: safe default.
	return r.decided("default", a, b, Plan{
		Strategy: StrategySeparateGraphs,
		Details:  map[string]any{},
	}), nil
}

// hintFor returns from's declared hint for to. A prefix without an entry
// trivially has no hints; not-found surfaces later, from rules that need
// context payloads.
func (r *Resolver) hintFor(from, to string) (StrategyHint, bool) {
	entry, err := r.registry.Get(from)
	if err != nil {
		return StrategyHint{}, false
	}
	return entry.HintFor(to)
}

// protectedOverlap computes the protected-term sets of both vocabularies
// and whether they intersect, memoized by unordered prefix pair.
func (r *Resolver) protectedOverlap(ctx context.Context, a, b string) (pairOverlap, error) {
	key := pairKey(a, b)
	if cached, ok := r.overlap.Get(key); ok {
		return cached, nil
	}

	aTerms, err := r.protectedTerms(ctx, a)
	if err != nil {
		return pairOverlap{}, err
	}
	bTerms, err := r.protectedTerms(ctx, b)
	if err != nil {
		return pairOverlap{}, err
	}

	intersects := false
	for term := range aTerms {
		if _, shared := bTerms[term]; shared {
			intersects = true
			break
		}
	}

	result := pairOverlap{
		protected: map[string][]string{
			a: sortedKeys(aTerms),
			b: sortedKeys(bTerms),
		},
		intersects: intersects,
	}

	if _, err := r.overlap.Set(key, result); err != nil {
		return pairOverlap{}, err
	}
	return result, nil
}

// protectedTerms extracts the term names whose definition is explicitly
// marked protected. A context-level "@protected": true protects every
// non-keyword term unless a term definition opts out.
func (r *Resolver) protectedTerms(ctx context.Context, prefix string) (map[string]struct{}, error) {
	payload, err := r.registry.ContextPayload(ctx, prefix)
	if err != nil {
		return nil, err
	}

	contextWide := false
	if flag, ok := payload["@protected"].(bool); ok {
		contextWide = flag
	}

	terms := make(map[string]struct{})
	for term, definition := range payload {
		if strings.HasPrefix(term, "@") {
			continue
		}

		if def, ok := definition.(map[string]any); ok {
			if flag, ok := def["@protected"].(bool); ok {
				if flag {
					terms[term] = struct{}{}
				}
				continue
			}
		}

		if contextWide {
			terms[term] = struct{}{}
		}
	}

	return terms, nil
}

// decided logs which rule fired and returns the plan unchanged.
func (r *Resolver) decided(rule, a, b string, plan Plan) Plan {
	r.log.Debug("collision resolved",
		"rule", rule,
		"a", a,
		"b", b,
		"strategy", plan.Strategy.String(),
		"details", plan.Details)
	return plan
}

// pairKey builds an order-insensitive cache/table key for two prefixes.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x1f" + b
}

// cloneDetails copies rule or hint details so callers can't mutate the
// resolver's tables through a returned plan.
func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return map[string]any{}
	}
	return maps.Clone(details)
}

// sortedKeys returns the set's members in sorted order.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
