package attribute

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	defaultLimit = 100
	sortPosition = "position"
)

var (
	ErrNegativeSliceBounds = errors.New("slice start and limit must not be negative")
	ErrUnknownSortKey      = errors.New("unknown sort key")
)

// SortDirection is the direction of a SortTerm.
type SortDirection string

const (
	SortAsc  SortDirection = "+"
	SortDesc SortDirection = "-"
)

// SortTerm orders the result list by one search key.
type SortTerm struct {
	Key       KeyString     `json:"key"`
	Direction SortDirection `json:"direction"`
}

/***** Criteria *****/

// Criteria is the accumulated state of an attribute query.
//
// It is an immutable value: every With... method returns a modified copy and never shares
// slices with the receiver, so copying a Criteria is always a deep copy.
// The zero value matches all attributes and slices the first 100.
//
// Invalid input does not panic or stop the chain; the first problems are recorded
// and returned by Err, which terminal operations check before executing anything.
type Criteria struct {
	ids        []string
	types      []string
	domain     string
	conditions []Condition
	start      int
	limit      int
	sliced     bool
	sort       []SortTerm
	err        error
}

// BuildCriteria returns empty Criteria.
func BuildCriteria() Criteria {
	return Criteria{}
}

// IDs returns the attribute IDs to filter for; empty means any ID.
func (c Criteria) IDs() []string {
	return slices.Clone(c.ids)
}

// Types returns the attribute types to filter for; empty means any type.
func (c Criteria) Types() []string {
	return slices.Clone(c.types)
}

// Domain returns the domain to filter for; empty means any domain.
func (c Criteria) Domain() string {
	return c.domain
}

// Conditions returns the additional conditions, which are AND-ed.
func (c Criteria) Conditions() []Condition {
	return slices.Clone(c.conditions)
}

// Start returns the offset of the first returned attribute.
func (c Criteria) Start() int {
	return c.start
}

// Limit returns the maximum number of returned attributes.
func (c Criteria) Limit() int {
	if !c.sliced {
		return defaultLimit
	}

	return c.limit
}

// Sort returns the sort terms; empty means no particular order.
func (c Criteria) Sort() []SortTerm {
	return slices.Clone(c.sort)
}

// Err returns the problems recorded while building the Criteria, wrapped in ErrInvalidQuery, or nil.
func (c Criteria) Err() error {
	if c.err == nil {
		return nil
	}

	return errors.Join(ErrInvalidQuery, c.err)
}

// WithIDs adds attribute IDs, which are OR-ed.
//
// It sanitizes the input:
//   - removing empty IDs ("")
//   - sorting the IDs
//   - removing duplicate IDs
func (c Criteria) WithIDs(ids ...string) Criteria {
	c.ids = sanitizeStrings(append(slices.Clone(c.ids), ids...))

	return c
}

// WithTypes adds attribute types, which are OR-ed. The input is sanitized like in WithIDs.
func (c Criteria) WithTypes(codes ...string) Criteria {
	c.types = sanitizeStrings(append(slices.Clone(c.types), codes...))

	return c
}

// WithDomain sets the domain of the attributes, e.g. "product"; "" removes the domain filter.
func (c Criteria) WithDomain(domain string) Criteria {
	c.domain = domain

	return c
}

// WithComparison adds a generic comparison, see Compare.
func (c Criteria) WithComparison(operator Operator, key KeyString, values ...any) Criteria {
	comparison, err := Compare(operator, key, values...)
	if err != nil {
		return c.withError(err)
	}

	return c.WithCondition(comparison)
}

// WithConditions parses a raw condition tree and adds it, see ParseConditions.
func (c Criteria) WithConditions(conditions Conditions) Criteria {
	condition, err := ParseConditions(conditions)
	if err != nil {
		return c.withError(err)
	}

	return c.WithCondition(condition)
}

// WithCondition adds an already parsed condition.
func (c Criteria) WithCondition(condition Condition) Criteria {
	if condition == nil {
		return c
	}

	c.conditions = append(slices.Clone(c.conditions), condition)

	return c
}

// WithSlice sets the offset of the first returned attribute and the maximum number of attributes.
func (c Criteria) WithSlice(start, limit int) Criteria {
	if start < 0 || limit < 0 {
		return c.withError(fmt.Errorf("%w: start %d, limit %d", ErrNegativeSliceBounds, start, limit))
	}

	c.start = start
	c.limit = limit
	c.sliced = true

	return c
}

// WithSort sets the sorting of the result list.
//
//   - "" removes the sorting
//   - a leading "-" sorts descending, e.g. "-attribute.code"
//   - "position" sorts by type first and position second, so attributes are grouped by type
//   - any other value must be a search key, e.g. "attribute.label"
func (c Criteria) WithSort(key string) Criteria {
	direction := SortAsc
	if strings.HasPrefix(key, string(SortDesc)) {
		key = key[1:]
		direction = SortDesc
	}

	switch key {
	case "":
		c.sort = nil

	case sortPosition:
		c.sort = []SortTerm{
			{Key: KeyType, Direction: direction},
			{Key: KeyPosition, Direction: direction},
		}

	default:
		if _, ok := KindOf(key); !ok {
			return c.withError(fmt.Errorf("%w: %q", ErrUnknownSortKey, key))
		}

		c.sort = []SortTerm{{Key: key, Direction: direction}}
	}

	return c
}

// Where returns all filters of the Criteria combined into one condition.
// An empty Criteria returns an empty CombineAnd which matches all attributes.
func (c Criteria) Where() Condition {
	parts := make([]Condition, 0, len(c.conditions)+3)

	if len(c.ids) > 0 {
		parts = append(parts, Comparison{Operator: OpEqual, Key: KeyID, Values: toAnySlice(c.ids)})
	}

	if c.domain != "" {
		parts = append(parts, Comparison{Operator: OpEqual, Key: KeyDomain, Values: []any{c.domain}})
	}

	if len(c.types) > 0 {
		parts = append(parts, Comparison{Operator: OpEqual, Key: KeyType, Values: toAnySlice(c.types)})
	}

	parts = append(parts, c.conditions...)

	return And(parts...)
}

// Hash returns a stable hash of the Criteria; equal Criteria have equal hashes.
func (c Criteria) Hash() string {
	canonical := struct {
		Where Conditions `json:"where"`
		Start int        `json:"start"`
		Limit int        `json:"limit"`
		Sort  []SortTerm `json:"sort"`
		Err   string     `json:"err,omitempty"`
	}{
		Where: c.Where().Tree(),
		Start: c.start,
		Limit: c.Limit(),
		Sort:  c.sort,
	}

	if c.err != nil {
		canonical.Err = c.err.Error()
	}

	// ConfigCompatibleWithStandardLibrary sorts map keys, which keeps the encoding canonical
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(canonical)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", canonical))
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// withError keeps the first recorded error only.
func (c Criteria) withError(err error) Criteria {
	if c.err == nil {
		c.err = err
	}

	return c
}

func sanitizeStrings(values []string) []string {
	values = slices.DeleteFunc(
		values,
		func(v string) bool {
			return v == ""
		})
	slices.Sort(values)
	values = slices.Compact(values)
	values = slices.Clip(values)

	if len(values) == 0 {
		return nil
	}

	return values
}

func toAnySlice(values []string) []any {
	result := make([]any, 0, len(values))
	for _, v := range values {
		result = append(result, v)
	}

	return result
}
