package csp

import (
	"fmt"
	"slices"
)

// Domain is the set of values an integer variable ranges over. The variant
// set is closed: Interval, Set and Enum.
type Domain interface {
	// Contains reports whether v belongs to the domain.
	Contains(v int64) bool
	// LB returns the smallest value of the domain.
	LB() int64
	// UB returns the largest value of the domain.
	UB() int64

	isDomain()
}

// Interval is the contiguous domain {Lo, ..., Hi}. Invariant: Lo <= Hi.
type Interval struct {
	Lo, Hi int64
}

// NewInterval returns the domain {lo, ..., hi}.
func NewInterval(lo, hi int64) (Interval, error) {
	if lo > hi {
		return Interval{}, fmt.Errorf("%w: interval %d..%d", ErrInvalidDomain, lo, hi)
	}
	return Interval{Lo: lo, Hi: hi}, nil
}

func (d Interval) Contains(v int64) bool { return d.Lo <= v && v <= d.Hi }
func (d Interval) LB() int64             { return d.Lo }
func (d Interval) UB() int64             { return d.Hi }
func (d Interval) isDomain()             {}

// Set is a finite domain given by an explicit value list. Values is sorted
// and holds no duplicates.
type Set struct {
	Values []int64
}

// NewSet returns the domain holding exactly the given values. The input is
// copied, sorted and deduplicated; an empty input is rejected.
func NewSet(values ...int64) (Set, error) {
	if len(values) == 0 {
		return Set{}, fmt.Errorf("%w: empty value set", ErrInvalidDomain)
	}
	vs := slices.Clone(values)
	slices.Sort(vs)
	vs = slices.Compact(vs)
	return Set{Values: vs}, nil
}

func (d Set) Contains(v int64) bool {
	_, found := slices.BinarySearch(d.Values, v)
	return found
}
func (d Set) LB() int64 { return d.Values[0] }
func (d Set) UB() int64 { return d.Values[len(d.Values)-1] }
func (d Set) isDomain() {}

// Enum maps an ordered list of opaque values onto the integers 0..n-1. The
// solver boundary only ever sees the indices; callers map results back with
// Value.
type Enum struct {
	Values []any
}

// NewEnum returns the enumerated domain over the given values, in order.
// Values must be comparable with ==.
func NewEnum(values ...any) (Enum, error) {
	if len(values) == 0 {
		return Enum{}, fmt.Errorf("%w: empty enum", ErrInvalidDomain)
	}
	return Enum{Values: slices.Clone(values)}, nil
}

func (d Enum) Contains(v int64) bool { return 0 <= v && v < int64(len(d.Values)) }
func (d Enum) LB() int64             { return 0 }
func (d Enum) UB() int64             { return int64(len(d.Values)) - 1 }
func (d Enum) isDomain()             {}

// Value returns the enum value at index i.
func (d Enum) Value(i int64) (any, bool) {
	if !d.Contains(i) {
		return nil, false
	}
	return d.Values[i], true
}

// Index returns the index of value in the enum.
func (d Enum) Index(value any) (int64, bool) {
	for i, v := range d.Values {
		if v == value {
			return int64(i), true
		}
	}
	return 0, false
}

// validateDomain checks a possibly literal-constructed domain against the
// constructor invariants.
func validateDomain(d Domain) error {
	switch v := d.(type) {
	case Interval:
		if v.Lo > v.Hi {
			return fmt.Errorf("%w: interval %d..%d", ErrInvalidDomain, v.Lo, v.Hi)
		}
	case Set:
		if len(v.Values) == 0 {
			return fmt.Errorf("%w: empty value set", ErrInvalidDomain)
		}
		if !slices.IsSorted(v.Values) || len(slices.Compact(slices.Clone(v.Values))) != len(v.Values) {
			return fmt.Errorf("%w: set values must be sorted and distinct", ErrInvalidDomain)
		}
	case Enum:
		if len(v.Values) == 0 {
			return fmt.Errorf("%w: empty enum", ErrInvalidDomain)
		}
	case nil:
		return fmt.Errorf("%w: nil domain", ErrInvalidDomain)
	default:
		return fmt.Errorf("%w: unexpected domain type %T", ErrInvalidDomain, d)
	}
	return nil
}
