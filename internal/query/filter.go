package query

import (
	"fmt"
	"strings"
)

// Wildcard is the filter value that matches everything and renders no clause.
const Wildcard = "All"

type filterKind int

const (
	filterAll filterKind = iota
	filterOne
	filterSet
)

// Filter is a tagged-variant value for the string-valued query attributes:
// the wildcard, a single value, or a set of values. The zero value is the
// wildcard.
type Filter struct {
	kind   filterKind
	values []string
}

// All returns the wildcard filter.
func All() Filter {
	return Filter{kind: filterAll}
}

// One returns a single-value filter. The literal wildcard string collapses
// to the wildcard filter.
func One(v string) Filter {
	if v == Wildcard {
		return All()
	}
	return Filter{kind: filterOne, values: []string{v}}
}

// Set returns a multi-value filter, rendered as an IN (...) clause.
func Set(vs ...string) Filter {
	return Filter{kind: filterSet, values: vs}
}

// IsWildcard reports whether the filter matches everything.
func (f Filter) IsWildcard() bool {
	return f.kind == filterAll
}

// Values returns the filter's values; nil for the wildcard.
func (f Filter) Values() []string {
	return f.values
}

// validate checks every value against the attribute's allowed set. Set
// elements must be concrete values; the wildcard is only valid on its own.
func (f Filter) validate(attr string, allowed []string) error {
	if f.kind == filterAll {
		return nil
	}
	if f.kind == filterSet && len(f.values) == 0 {
		return &ValidationError{Attr: attr, Reason: "set filter has no values"}
	}
	for _, v := range f.values {
		if !contains(allowed, v) {
			return &ValidationError{
				Attr:   attr,
				Reason: fmt.Sprintf("value %q is not one of [%s]", v, strings.Join(allowed, ", ")),
			}
		}
	}
	return nil
}

// clause renders the filter as a WHERE-clause fragment with a trailing
// space, or the empty string for the wildcard. Values were validated against
// a static allowed set, so interpolation is safe.
func (f Filter) clause(column string) string {
	switch f.kind {
	case filterAll:
		return ""
	case filterOne:
		return fmt.Sprintf("AND %s = '%s' ", column, f.values[0])
	default:
		quoted := make([]string, len(f.values))
		for i, v := range f.values {
			quoted[i] = "'" + v + "'"
		}
		return fmt.Sprintf("AND %s IN (%s) ", column, strings.Join(quoted, ", "))
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
