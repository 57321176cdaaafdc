package filterexpr

// Filter represents a parsed filter expression.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// Filter types:
//   - Scalar: compare one document field against a JSON literal
//   - Compound: quantify a scalar comparison over an array field (:any/:all)
//   - Boolean: combine nested filters with and/or
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// ScalarOp enumerates the scalar comparison operators.
type ScalarOp string

const (
	OpEq   ScalarOp = ":eq"
	OpNe   ScalarOp = ":ne"
	OpGt   ScalarOp = ":gt"
	OpGte  ScalarOp = ":gte"
	OpLt   ScalarOp = ":lt"
	OpLte  ScalarOp = ":lte"
	OpLike ScalarOp = ":like"
)

// CompoundOp enumerates the array quantifier operators.
type CompoundOp string

const (
	OpAny CompoundOp = ":any"
	OpAll CompoundOp = ":all"
)

// BoolOp enumerates the boolean composition operators.
type BoolOp string

const (
	OpAnd BoolOp = "and"
	OpOr  BoolOp = "or"
)

// Scalar compares the document field at Key against Value.
//
//	(message,:eq,"morning")
//	(counts.1,:gt,3)
//
// Key is a dotted path into the stored document; a digit-only segment
// addresses an array index. Value holds the decoded JSON literal: string,
// bool, float64, or nil for a JSON null.
type Scalar struct {
	Key   string
	Op    ScalarOp
	Value any
}

func (*Scalar) filterNode() {}

// Compound applies Inner to each element of the array at Key.
//
//	(_resource_paths,:any,(,:like,"/programs/%"))
//	(counts,:all,(,:eq,42))
//
// OpAny matches when at least one element satisfies Inner. OpAll matches
// when every element does. Inner's own key is conventionally empty: the
// quantifier binds one level only, and the inner comparison targets the
// array elements themselves.
type Compound struct {
	Key   string
	Op    CompoundOp
	Inner *Scalar
}

func (*Compound) filterNode() {}

// Boolean combines one or more nested filters with and/or.
//
//	(or,(pet,:eq,"cat"),(pet,:eq,"dog"))
//	(and,(or,(a,:eq,1),(b,:eq,2)),(c,:lt,3))
//
// Operands is never empty; nesting is unbounded.
type Boolean struct {
	Op       BoolOp
	Operands []Filter
}

func (*Boolean) filterNode() {}
