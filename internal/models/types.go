package models

// AtomType names a kind in the type lattice.
type AtomType string

// Abstract types. They only ever appear as query targets.
const (
	Node          AtomType = "Node"
	Link          AtomType = "Link"
	OrderedLink   AtomType = "OrderedLink"
	UnorderedLink AtomType = "UnorderedLink"
)

// Node kinds.
const (
	ConceptNode   AtomType = "ConceptNode"
	PredicateNode AtomType = "PredicateNode"
	VariableNode  AtomType = "VariableNode"
	NumberNode    AtomType = "NumberNode"
	TypeNode      AtomType = "TypeNode"
	ContextNode   AtomType = "ContextNode"
)

// Ordered link kinds.
const (
	InheritanceLink           AtomType = "InheritanceLink"
	ImplicationLink           AtomType = "ImplicationLink"
	EvaluationLink            AtomType = "EvaluationLink"
	ListLink                  AtomType = "ListLink"
	SubsetLink                AtomType = "SubsetLink"
	ContextualImplicationLink AtomType = "ContextualImplicationLink"
)

// Unordered link kinds.
const (
	SimilarityLink  AtomType = "SimilarityLink"
	EquivalenceLink AtomType = "EquivalenceLink"
	HebbianLink     AtomType = "HebbianLink"
	AndLink         AtomType = "AndLink"
	OrLink          AtomType = "OrLink"
	AttentionalLink AtomType = "AttentionalLink"
)
