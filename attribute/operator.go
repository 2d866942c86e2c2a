package attribute

// Operator is a comparison operator understood by the attribute controllers.
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
	OpGreater        Operator = ">"
	OpStartsWith     Operator = "=~"
	OpContains       Operator = "~="
)

// Combinator joins or negates conditions in a condition tree.
type Combinator string

const (
	CombineAnd Combinator = "&&"
	CombineOr  Combinator = "||"
	Negate     Combinator = "!"
)

// Valid reports whether o is one of the known comparison operators.
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreaterOrEqual, OpGreater, OpStartsWith, OpContains:
		return true
	default:
		return false
	}
}

// IsPattern reports whether o matches string patterns, which only makes sense for string keys.
func (o Operator) IsPattern() bool {
	return o == OpStartsWith || o == OpContains
}
