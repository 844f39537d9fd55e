// Package vocab provides vocabulary registration, context loading, and
// collision resolution for JSON-LD vocabularies.
//
// # Components
//
// Two cooperating components, evaluated leaves-first:
//
// **Registry**: owns the set of known vocabularies (prefix to entry),
// resolves aliases (any URI variant to canonical prefix), and lazily loads
// and caches each vocabulary's JSON-LD @context payload, computing and
// persisting a content hash on first load.
//
// **Resolver**: consumes the registry to decide, for any pair of vocabulary
// prefixes, which merge strategy to use when combining their contexts in
// one document, applying a deterministic precedence of decision rules and
// caching the expensive overlap check.
//
// # Decision precedence
//
// Resolver.Choose evaluates rules in fixed order; the first match wins:
//
//  1. Identity: a vocabulary never collides with itself (separate_graphs).
//  2. Explicit hint: either vocabulary's strategy_defaults entry for the
//     other, checked a→b then b→a.
//  3. Bundled rule: the built-in order-insensitive pair table.
//  4. Protected-term overlap: intersecting protected terms force
//     separate_graphs; one-sided protection nests the protected vocabulary
//     as the outer context.
//  5. Safe default: separate_graphs with no details.
//
// # Context sources
//
// Each entry's context comes from exactly one of three mutually exclusive
// modes:
//
//   - inline: a literal context mapping, already materialized
//   - url: a remote JSON-LD document fetched over HTTP
//   - derivesFrom: a remote Turtle document whose namespace declarations
//     are synthesized into a prefix-to-IRI context
//
// Construction fails before any network activity if zero or more than one
// mode is set.
//
// # Capabilities
//
// The package depends on injected capabilities rather than conditional
// imports:
//
//   - Fetcher: byte fetch with enforced timeout (default: HTTP, 10s)
//   - TurtleParser: optional; derived sources fail with a capability error
//     when it is absent
//
// # Usage
//
//	registry, err := vocab.NewRegistry(
//	    vocab.WithLogger(logger),
//	    vocab.WithTurtleParser(rdf.NewDirectiveParser()),
//	    vocab.WithBundleFile("vocabularies.json"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	resolver, err := vocab.NewResolver(registry)
//	if err != nil {
//	    return err
//	}
//
//	plan, err := resolver.Choose(ctx, "schema", "bioschemas")
//	// plan.Strategy == vocab.StrategyNestedContexts
//	// plan.Details  == {"outer": "schema", "inner": "bioschemas"}
//
// # Caching
//
// Three bounded, write-once-per-key caches back the hot paths: context
// payloads per (prefix, version), raw bytes per URL, and protected-term
// overlap per unordered prefix pair. Concurrent first loads collapse via
// singleflight. None of the caches expire: a remote document changed after
// first fetch keeps serving its cached payload and hash for the process
// lifetime. Restart the process to pick up upstream changes.
package vocab
