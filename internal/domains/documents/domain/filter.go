package domain

import (
	"regexp"
)

// Match selects how a Condition compares a field.
type Match int

const (
	// MatchEquals compares the field value for equality; numbers compare by value.
	MatchEquals Match = iota
	// MatchPattern applies a case-insensitive, unanchored pattern to string fields.
	MatchPattern
)

// Condition constrains a single field.
type Condition struct {
	Field string
	Match Match
	Value any
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Match: MatchEquals, Value: value}
}

// Pattern builds a case-insensitive pattern condition.
func Pattern(field, pattern string) Condition {
	return Condition{Field: field, Match: MatchPattern, Value: pattern}
}

// Filter selects documents matching every All condition and, when Any is
// non-empty, at least one Any condition. The zero Filter matches everything.
type Filter struct {
	All []Condition
	Any []Condition
}

// MatchAll returns the empty filter.
func MatchAll() Filter {
	return Filter{}
}

// AnyOf builds a disjunction.
func AnyOf(conds ...Condition) Filter {
	return Filter{Any: conds}
}

// AllOf builds a conjunction.
func AllOf(conds ...Condition) Filter {
	return Filter{All: conds}
}

// IsEmpty reports whether the filter matches every document.
func (f Filter) IsEmpty() bool {
	return len(f.All) == 0 && len(f.Any) == 0
}

// UpdateOp is one instruction of a bulk write: the first document matching
// Filter receives Set and Inc.
type UpdateOp struct {
	Filter Filter
	Set    Document
	Inc    map[string]int64
}

// Matches evaluates the filter against a document. Adapters that cannot push a
// filter down to the store use it directly.
func (f Filter) Matches(doc Document) (bool, error) {
	for _, c := range f.All {
		ok, err := c.matches(doc)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(f.Any) == 0 {
		return true, nil
	}
	for _, c := range f.Any {
		ok, err := c.matches(doc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c Condition) matches(doc Document) (bool, error) {
	v, ok := doc[c.Field]
	if !ok {
		return false, nil
	}
	switch c.Match {
	case MatchPattern:
		s, isString := v.(string)
		if !isString {
			return false, nil
		}
		pattern, _ := c.Value.(string)
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	default:
		return ValuesEqual(v, c.Value), nil
	}
}

// ValuesEqual compares scalar document values; numbers of different Go types
// compare by numeric value the way document stores compare BSON numbers.
func ValuesEqual(a, b any) bool {
	if an, ok := ToFloat(a); ok {
		bn, ok := ToFloat(b)
		return ok && an == bn
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	case nil:
		return b == nil
	default:
		return false
	}
}

// ToFloat widens any Go numeric type to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
