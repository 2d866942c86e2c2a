package attribute

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrEmptyConditionNode     = errors.New("condition node must contain exactly one operator")
	ErrUnknownOperator        = errors.New("unknown operator")
	ErrUnknownSearchKey       = errors.New("unknown search key")
	ErrMissingComparisonValue = errors.New("comparison needs at least one value")
	ErrPatternOnNonStringKey  = errors.New("pattern operators can only be used on string keys")
	ErrMalformedConditionTree = errors.New("malformed condition tree")
)

// Conditions is the raw form of a condition tree, e.g.:
//
//	Conditions{"&&": []any{
//		Conditions{">": Conditions{"attribute.status": 0}},
//		Conditions{"==": Conditions{"attribute.type": "color"}},
//	}}
type Conditions = map[string]any

// Condition is a parsed node of a condition tree.
// The implementations are Comparison, Combination and Negation.
type Condition interface {
	// Tree returns the raw form of the condition, which parses back into an equal Condition.
	Tree() Conditions
}

/***** Comparison *****/

// Comparison compares the value under Key with Values.
//
// Values are normalized to the Go type of the key's kind: string, int or time.Time.
// Multiple values mean IN for OpEqual, NOT IN for OpNotEqual, and OR for all other operators.
type Comparison struct {
	Operator Operator
	Key      KeyString
	Values   []any
}

// Compare builds a validated Comparison.
func Compare(operator Operator, key KeyString, values ...any) (Comparison, error) {
	if !operator.Valid() {
		return Comparison{}, fmt.Errorf("%w: %q", ErrUnknownOperator, operator)
	}

	kind, ok := KindOf(key)
	if !ok {
		return Comparison{}, fmt.Errorf("%w: %q", ErrUnknownSearchKey, key)
	}

	if operator.IsPattern() && kind != KindString {
		return Comparison{}, fmt.Errorf("%w: %s %s", ErrPatternOnNonStringKey, key, operator)
	}

	values = flattenValues(values)
	if len(values) == 0 {
		return Comparison{}, fmt.Errorf("%w: %s %s", ErrMissingComparisonValue, key, operator)
	}

	normalized := make([]any, 0, len(values))
	for _, value := range values {
		v, err := normalizeValue(kind, value)
		if err != nil {
			return Comparison{}, fmt.Errorf("%s: %w", key, err)
		}
		normalized = append(normalized, v)
	}

	return Comparison{Operator: operator, Key: key, Values: normalized}, nil
}

// Kind returns the KeyKind of the compared key.
func (c Comparison) Kind() KeyKind {
	kind, _ := KindOf(c.Key)
	return kind
}

// Tree implements Condition.
func (c Comparison) Tree() Conditions {
	var value any = slices.Clone(c.Values)
	if len(c.Values) == 1 {
		value = c.Values[0]
	}

	return Conditions{string(c.Operator): Conditions{c.Key: value}}
}

/***** Combination *****/

// Combination joins Conditions with CombineAnd or CombineOr.
// An empty CombineAnd matches everything, an empty CombineOr matches nothing.
type Combination struct {
	Combinator Combinator
	Conditions []Condition
}

// And combines the given conditions with CombineAnd.
func And(conditions ...Condition) Combination {
	return Combination{Combinator: CombineAnd, Conditions: conditions}
}

// Or combines the given conditions with CombineOr.
func Or(conditions ...Condition) Combination {
	return Combination{Combinator: CombineOr, Conditions: conditions}
}

// Tree implements Condition.
func (c Combination) Tree() Conditions {
	children := make([]any, 0, len(c.Conditions))
	for _, condition := range c.Conditions {
		children = append(children, condition.Tree())
	}

	return Conditions{string(c.Combinator): children}
}

/***** Negation *****/

// Negation inverts its Condition.
type Negation struct {
	Condition Condition
}

// Not negates the given condition.
func Not(condition Condition) Negation {
	return Negation{Condition: condition}
}

// Tree implements Condition.
func (n Negation) Tree() Conditions {
	return Conditions{string(Negate): n.Condition.Tree()}
}

/***** Parsing *****/

// ParseConditions parses a raw condition tree.
//
// The returned error describes the first malformed node; it does not wrap ErrInvalidQuery,
// controllers add that when they surface the error from a terminal operation.
func ParseConditions(conditions Conditions) (Condition, error) {
	if len(conditions) != 1 {
		return nil, fmt.Errorf("%w, got %d", ErrEmptyConditionNode, len(conditions))
	}

	var operator string
	var operand any
	for op, v := range conditions {
		operator, operand = op, v
	}

	switch Combinator(operator) {
	case CombineAnd, CombineOr:
		return parseCombination(Combinator(operator), operand)

	case Negate:
		child, ok := asConditions(operand)
		if !ok {
			return nil, fmt.Errorf("%w: %q expects one condition, got %T", ErrMalformedConditionTree, operator, operand)
		}

		condition, err := ParseConditions(child)
		if err != nil {
			return nil, err
		}

		return Not(condition), nil

	default:
		return parseComparisons(Operator(operator), operand)
	}
}

// ParseConditionsJSON parses a condition tree from its JSON form,
// e.g. {"&&": [{">": {"attribute.status": 0}}, {"==": {"attribute.type": "color"}}]}.
func ParseConditionsJSON(data []byte) (Condition, error) {
	var conditions Conditions

	decoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if err := decoder.Decode(&conditions); err != nil {
		return nil, errors.Join(ErrMalformedConditionTree, err)
	}

	return ParseConditions(conditions)
}

func parseCombination(combinator Combinator, operand any) (Condition, error) {
	children, ok := asConditionsList(operand)
	if !ok {
		return nil, fmt.Errorf("%w: %q expects a list of conditions, got %T", ErrMalformedConditionTree, combinator, operand)
	}

	if len(children) == 0 {
		return nil, fmt.Errorf("%w: %q expects at least one condition", ErrMalformedConditionTree, combinator)
	}

	parsed := make([]Condition, 0, len(children))
	for _, child := range children {
		condition, err := ParseConditions(child)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, condition)
	}

	return Combination{Combinator: combinator, Conditions: parsed}, nil
}

func parseComparisons(operator Operator, operand any) (Condition, error) {
	if !operator.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, operator)
	}

	pairs, ok := asConditions(operand)
	if !ok || len(pairs) == 0 {
		return nil, fmt.Errorf("%w: %q expects a map of search keys to values, got %T", ErrMalformedConditionTree, operator, operand)
	}

	keys := make([]KeyString, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	comparisons := make([]Condition, 0, len(keys))
	for _, key := range keys {
		comparison, err := Compare(operator, key, pairs[key])
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, comparison)
	}

	if len(comparisons) == 1 {
		return comparisons[0], nil
	}

	return And(comparisons...), nil
}

func asConditions(v any) (Conditions, bool) {
	c, ok := v.(map[string]any)
	return c, ok
}

func asConditionsList(v any) ([]Conditions, bool) {
	switch list := v.(type) {
	case []Conditions:
		return list, true
	case []any:
		result := make([]Conditions, 0, len(list))
		for _, item := range list {
			c, ok := asConditions(item)
			if !ok {
				return nil, false
			}
			result = append(result, c)
		}
		return result, true
	default:
		return nil, false
	}
}

// flattenValues unpacks slices given as single variadic arguments, so Compare(op, key, []string{"a", "b"})
// and Compare(op, key, "a", "b") mean the same.
func flattenValues(values []any) []any {
	flat := make([]any, 0, len(values))

	for _, value := range values {
		switch list := value.(type) {
		case []any:
			flat = append(flat, list...)
		case []string:
			for _, v := range list {
				flat = append(flat, v)
			}
		case []int:
			for _, v := range list {
				flat = append(flat, v)
			}
		case []int64:
			for _, v := range list {
				flat = append(flat, v)
			}
		case []float64:
			for _, v := range list {
				flat = append(flat, v)
			}
		default:
			flat = append(flat, value)
		}
	}

	return flat
}
