package vocab

// Strategy identifies how two vocabularies' contexts coexist in a single
// JSON-LD document. The enumeration is closed: bundled rules, hints, and
// resolver output only ever name one of these values.
type Strategy string

const (
	// StrategyPropertyScoped scopes one vocabulary's terms inside property
	// definitions of the other.
	StrategyPropertyScoped Strategy = "property_scoped"

	// StrategyGraphPartition partitions the document into named graphs with
	// one vocabulary per partition.
	StrategyGraphPartition Strategy = "graph_partition"

	// StrategyNestedContexts nests one context inside the other. The outer
	// context's protections are preserved; the inner may refine terms.
	StrategyNestedContexts Strategy = "nested_contexts"

	// StrategyContextVersioning pins each vocabulary to an explicit context
	// version so both can be referenced unambiguously.
	StrategyContextVersioning Strategy = "context_versioning"

	// StrategySeparateGraphs renders each vocabulary's terms into its own
	// graph instead of merging contexts. The safe default: guarantees no
	// interference at the cost of document locality.
	StrategySeparateGraphs Strategy = "separate_graphs"
)

// Valid reports whether s is a member of the closed strategy enumeration.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyPropertyScoped, StrategyGraphPartition, StrategyNestedContexts,
		StrategyContextVersioning, StrategySeparateGraphs:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// Plan is the resolver's immutable decision record: the chosen strategy plus
// explanatory details. Details carry rule-specific information (outer/inner
// roles, refusal reasons) and never alter behavior outside the resolver.
type Plan struct {
	Strategy Strategy       `json:"strategy"`
	Details  map[string]any `json:"details"`
}

// Detail keys populated by the resolver.
const (
	// DetailOuter names the vocabulary chosen as the outer (defining)
	// context under StrategyNestedContexts.
	DetailOuter = "outer"

	// DetailInner names the vocabulary nested inside the outer context.
	DetailInner = "inner"

	// DetailReason explains a refusal to merge.
	DetailReason = "reason"
)
